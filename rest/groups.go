// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet"
)

// GroupInfos is the request and response struct describing a group over the
// REST APIs.
type GroupInfos struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Space   string `json:"space,omitempty"`
	Members int    `json:"members,omitempty"` // Known member record count, read only
}

// serveGroups serves API calls concerning group receivers.
func (api *api) serveGroups(w http.ResponseWriter, r *http.Request, path string) {
	if path != "" {
		api.serveGroup(w, r, path)
		return
	}
	switch r.Method {
	case "GET":
		// List all groups
		ids, err := api.backend.Groups()
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
		// Create a new group
		infos := new(GroupInfos)
		if err := json.NewDecoder(r.Body).Decode(infos); err != nil {
			http.Error(w, "Provided group is invalid: "+err.Error(), http.StatusBadRequest)
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
		group, err := api.backend.CreateGroup(infos.Name, space)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(group.ID.String())

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// serveGroup serves API calls concerning a single group.
func (api *api) serveGroup(w http.ResponseWriter, r *http.Request, path string) {
	id, path, ok := parseID(path)
	if !ok || path != "" {
		http.Error(w, "Group ID invalid", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case "GET":
		// Retrieve a single group with its membership count
		switch group, err := api.backend.Group(id); err {
		case twinnet.ErrGroupNotFound:
			http.Error(w, "Group doesn't exist", http.StatusNotFound)
		case nil:
			members, err := api.backend.GroupMembers(id)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Add("Content-Type", "application/json")
			json.NewEncoder(w).Encode(&GroupInfos{
				ID:      group.ID.String(),
				Name:    group.Name,
				Space:   group.SpaceID.String(),
				Members: len(members),
			})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}
