// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet"
)

// ReceiverInfos is the request and response struct describing an open call
// endpoint over the REST APIs.
type ReceiverInfos struct {
	Name  string `json:"name"`
	Space string `json:"space,omitempty"`
}

// serveReceivers serves API calls concerning open call endpoints.
func (api *api) serveReceivers(w http.ResponseWriter, r *http.Request, path string) {
	if path != "" {
		api.serveReceiver(w, r, path)
		return
	}
	switch r.Method {
	case "GET":
		// List all published call endpoints
		ids, err := api.backend.CallReceivers()
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
		// Publish a new call endpoint
		infos := new(ReceiverInfos)
		if err := json.NewDecoder(r.Body).Decode(infos); err != nil {
			http.Error(w, "Provided receiver is invalid: "+err.Error(), http.StatusBadRequest)
			return
		}
		space := uuid.Nil
		if infos.Space != "" {
			id, err := uuid.Parse(infos.Space)
			if err != nil {
				http.Error(w, "Provided space is invalid: "+err.Error(), http.StatusBadRequest)
				return
			}
			space = id
		}
		if space == uuid.Nil {
			profile, err := api.backend.Profile()
			if err != nil {
				http.Error(w, "Local user doesn't exist", http.StatusForbidden)
				return
			}
			space = profile.SpaceID
		}
		receiver, err := api.backend.CreateCallReceiver(infos.Name, space)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(receiver.ID.String())

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// serveReceiver serves API calls concerning a single call endpoint.
func (api *api) serveReceiver(w http.ResponseWriter, r *http.Request, path string) {
	id, path, ok := parseID(path)
	if !ok || path != "" {
		http.Error(w, "Receiver ID invalid", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case "DELETE":
		// Withdraw the call endpoint
		switch err := api.backend.DeleteCallReceiver(id); err {
		case twinnet.ErrCallReceiverNotFound:
			http.Error(w, "Receiver doesn't exist", http.StatusForbidden)
		case nil:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}
