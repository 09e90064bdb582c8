// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package rest

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/twinnet/go-twinnet"
)

// ProfileInfos is the request and response struct describing the local user
// profile over the REST APIs.
type ProfileInfos struct {
	Name     string `json:"name"`
	Twincode string `json:"twincode,omitempty"` // Shared pairing entry point, read only
}

// serveProfile serves API calls concerning the local user profile.
func (api *api) serveProfile(w http.ResponseWriter, r *http.Request, logger log.Logger) {
	switch r.Method {
	case "POST":
		// Create a new local user
		logger.Debug("Requesting profile creation")
		profile := new(ProfileInfos)
		if err := json.NewDecoder(r.Body).Decode(profile); err != nil {
			http.Error(w, "Provided profile is invalid: "+err.Error(), http.StatusBadRequest)
			return
		}
		switch _, err := api.backend.CreateProfile(profile.Name); err {
		case twinnet.ErrProfileExists:
			logger.Warn("Local user already exists")
			http.Error(w, "Local user already exists", http.StatusConflict)
		case nil:
			logger.Debug("Profile successfully created")
			w.WriteHeader(http.StatusOK)
		default:
			logger.Error("Profile creation failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	case "GET":
		// Retrieve the local user's profile
		switch profile, err := api.backend.Profile(); err {
		case twinnet.ErrProfileNotFound:
			http.Error(w, "Local user doesn't exist", http.StatusNotFound)
		case nil:
			infos := &ProfileInfos{Name: profile.Name}
			if profile.TwincodeInbound != nil {
				infos.Twincode = profile.TwincodeInbound.ID.String()
			}
			w.Header().Add("Content-Type", "application/json")
			json.NewEncoder(w).Encode(infos)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	case "PUT":
		// Update the local user's profile
		profile := new(ProfileInfos)
		if err := json.NewDecoder(r.Body).Decode(profile); err != nil {
			http.Error(w, "Provided profile is invalid: "+err.Error(), http.StatusBadRequest)
			return
		}
		switch err := api.backend.UpdateProfile(profile.Name); err {
		case twinnet.ErrProfileNotFound:
			http.Error(w, "Local user doesn't exist", http.StatusForbidden)
		case nil:
			w.WriteHeader(http.StatusOK)
		default:
			logger.Error("Profile updating failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}
