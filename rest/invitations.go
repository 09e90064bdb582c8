// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet"
)

// InvitationConfig is the request struct asking for a new pairing invitation
// to be created.
type InvitationConfig struct {
	Label   string    `json:"label,omitempty"`
	Space   string    `json:"space,omitempty"`   // Owning space, profile default if empty
	Group   string    `json:"group,omitempty"`   // Group to admit subscribers into, contact pairing if empty
	Uses    int       `json:"uses"`              // Admissions allowed, negative for unlimited
	Expires time.Time `json:"expires,omitempty"` // Deadline, zero for never
}

// InvitationInfos is the response struct describing one pairing invitation.
type InvitationInfos struct {
	ID       string    `json:"id"`
	Label    string    `json:"label,omitempty"`
	Twincode string    `json:"twincode"` // Shared twincode peers pair through
	Group    string    `json:"group,omitempty"`
	Uses     int       `json:"uses"`
	Expires  time.Time `json:"expires,omitempty"`
}

// serveInvitations serves API calls concerning pairing invitations.
func (api *api) serveInvitations(w http.ResponseWriter, r *http.Request, path string) {
	if path != "" {
		api.serveInvitation(w, r, path)
		return
	}
	switch r.Method {
	case "GET":
		// List all live invitations
		ids, err := api.backend.Invitations()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		infos := []string{}
		for _, id := range ids {
			infos = append(infos, id.String())
		}
		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(infos)

	case "POST":
		// Create a new invitation
		config := new(InvitationConfig)
		if err := json.NewDecoder(r.Body).Decode(config); err != nil {
			http.Error(w, "Provided invitation is invalid: "+err.Error(), http.StatusBadRequest)
			return
		}
		space, group := uuid.Nil, uuid.Nil
		if config.Space != "" {
			id, err := uuid.Parse(config.Space)
			if err != nil {
				http.Error(w, "Provided space is invalid: "+err.Error(), http.StatusBadRequest)
				return
			}
			space = id
		}
		if config.Group != "" {
			id, err := uuid.Parse(config.Group)
			if err != nil {
				http.Error(w, "Provided group is invalid: "+err.Error(), http.StatusBadRequest)
				return
			}
			group = id
		}
		if space == uuid.Nil {
			profile, err := api.backend.Profile()
			if err != nil {
				http.Error(w, "Local user doesn't exist", http.StatusForbidden)
				return
			}
			space = profile.SpaceID
		}
		invitation, err := api.backend.CreateInvitation(config.Label, space, group, config.Uses, config.Expires)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(invitation.ID.String())

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// serveInvitation serves API calls concerning a single invitation.
func (api *api) serveInvitation(w http.ResponseWriter, r *http.Request, path string) {
	id, path, ok := parseID(path)
	if !ok || path != "" {
		http.Error(w, "Invitation ID invalid", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case "GET":
		// Retrieve a single invitation
		switch invitation, err := api.backend.Invitation(id); err {
		case twinnet.ErrInvitationNotFound:
			http.Error(w, "Invitation doesn't exist", http.StatusNotFound)
		case nil:
			infos := &InvitationInfos{
				ID:      invitation.ID.String(),
				Label:   invitation.Label,
				Uses:    invitation.Remaining,
				Expires: invitation.Expires,
			}
			if invitation.TwincodeInbound != nil {
				infos.Twincode = invitation.TwincodeInbound.ID.String()
			}
			if invitation.GroupID != uuid.Nil {
				infos.Group = invitation.GroupID.String()
			}
			w.Header().Add("Content-Type", "application/json")
			json.NewEncoder(w).Encode(infos)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	case "DELETE":
		// Withdraw the invitation
		switch err := api.backend.DeleteInvitation(id); err {
		case twinnet.ErrInvitationNotFound:
			http.Error(w, "Invitation doesn't exist", http.StatusForbidden)
		case nil:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}
