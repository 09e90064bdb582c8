// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
)

// API is a tiny Go client for the twinnet REST APIs. The purpose is to allow
// writing integration tests and scenarios in Go.
type API struct {
	endpoint string
	client   *http.Client
}

// NewAPI creates a simplistic REST API client around a twinnet endpoint.
func NewAPI(endpoint string) *API {
	return NewAPIWithClient(endpoint, http.DefaultClient)
}

// NewAPIWithClient creates a REST API client using a custom HTTP client,
// useful to tunnel requests over non-TCP transports.
func NewAPIWithClient(endpoint string, client *http.Client) *API {
	return &API{
		endpoint: endpoint,
		client:   client,
	}
}

func (api *API) CreateProfile(name string) error {
	return api.run("POST", "/profile", &ProfileInfos{Name: name}, nil)
}
func (api *API) Profile() (*ProfileInfos, error) {
	profile := new(ProfileInfos)
	if err := api.run("GET", "/profile", nil, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
func (api *API) UpdateProfile(name string) error {
	return api.run("PUT", "/profile", &ProfileInfos{Name: name}, nil)
}

func (api *API) Contacts() ([]string, error) {
	var contacts []string
	if err := api.run("GET", "/contacts", nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}
func (api *API) PairContact(request *PairingRequest) (string, error) {
	var contact string
	if err := api.run("POST", "/contacts", request, &contact); err != nil {
		return "", err
	}
	return contact, nil
}
func (api *API) Contact(id string) (*ContactInfos, error) {
	contact := new(ContactInfos)
	if err := api.run("GET", "/contacts/"+id, nil, contact); err != nil {
		return nil, err
	}
	return contact, nil
}
func (api *API) UpdateContact(id string, name string) error {
	return api.run("PUT", "/contacts/"+id, &ContactInfos{Name: name}, nil)
}
func (api *API) Unpair(id string) error {
	return api.run("DELETE", "/contacts/"+id, nil, nil)
}
func (api *API) MissedCalls(id string) ([]*MissedCallInfos, error) {
	var calls []*MissedCallInfos
	if err := api.run("GET", "/contacts/"+id+"/missedcalls", nil, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}
func (api *API) ClearMissedCalls(id string) error {
	return api.run("DELETE", "/contacts/"+id+"/missedcalls", nil, nil)
}

func (api *API) Invitations() ([]string, error) {
	var invitations []string
	if err := api.run("GET", "/invitations", nil, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}
func (api *API) CreateInvitation(config *InvitationConfig) (string, error) {
	var invitation string
	if err := api.run("POST", "/invitations", config, &invitation); err != nil {
		return "", err
	}
	return invitation, nil
}
func (api *API) Invitation(id string) (*InvitationInfos, error) {
	invitation := new(InvitationInfos)
	if err := api.run("GET", "/invitations/"+id, nil, invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}
func (api *API) DeleteInvitation(id string) error {
	return api.run("DELETE", "/invitations/"+id, nil, nil)
}

func (api *API) Groups() ([]string, error) {
	var groups []string
	if err := api.run("GET", "/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
func (api *API) CreateGroup(infos *GroupInfos) (string, error) {
	var group string
	if err := api.run("POST", "/groups", infos, &group); err != nil {
		return "", err
	}
	return group, nil
}
func (api *API) Group(id string) (*GroupInfos, error) {
	group := new(GroupInfos)
	if err := api.run("GET", "/groups/"+id, nil, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (api *API) CallReceivers() ([]string, error) {
	var receivers []string
	if err := api.run("GET", "/receivers", nil, &receivers); err != nil {
		return nil, err
	}
	return receivers, nil
}
func (api *API) CreateCallReceiver(infos *ReceiverInfos) (string, error) {
	var receiver string
	if err := api.run("POST", "/receivers", infos, &receiver); err != nil {
		return "", err
	}
	return receiver, nil
}
func (api *API) DeleteCallReceiver(id string) error {
	return api.run("DELETE", "/receivers/"+id, nil, nil)
}

// run creates an API request of the given type and sends over a JSON encoded
// request, potentially expecting a reply, and converting any failures into a
// Go error.
func (api *API) run(method string, path string, request interface{}, reply interface{}) error {
	// If a request body was specified, serialize it
	var body []byte
	if request != nil {
		blob, err := json.Marshal(request)
		if err != nil {
			return err
		}
		body = blob
	}
	// Run the request and ensure it succeeds
	req, err := http.NewRequest(method, api.endpoint+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	res, err := api.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err = ioutil.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != 200 {
		return fmt.Errorf("request failed: %d: %s", res.StatusCode, string(body))
	}
	// Request seems to have succeeded, parse any expected reply
	if reply != nil {
		return json.Unmarshal(body, reply)
	}
	return nil
}
