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

// ContactInfos is the response struct describing a single contact over the
// REST APIs.
type ContactInfos struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Bound         bool   `json:"bound"`         // Whether the bind exchange completed
	Certification int    `json:"certification"` // Derived trust tier of the relationship
}

// PairingRequest is the request struct asking for a pairing handshake to be
// started against a scanned twincode.
type PairingRequest struct {
	Twincode string `json:"twincode"`        // Scanned twincode id to pair against
	Space    string `json:"space,omitempty"` // Space to own the contact, profile default if empty
}

// MissedCallInfos is the response struct describing one missed call record.
type MissedCallInfos struct {
	Caller string    `json:"caller,omitempty"`
	Video  bool      `json:"video"`
	Time   time.Time `json:"time"`
}

// serveContacts serves API calls concerning all contacts.
func (api *api) serveContacts(w http.ResponseWriter, r *http.Request, path string) {
	// If we're not serving the contacts root, descend into a single contact
	if path != "" {
		api.serveContact(w, r, path)
		return
	}
	switch r.Method {
	case "GET":
		// List all contacts of the local user
		ids, err := api.backend.Contacts()
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
		// Start a pairing handshake against a scanned twincode
		request := new(PairingRequest)
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			http.Error(w, "Provided pairing request is invalid: "+err.Error(), http.StatusBadRequest)
			return
		}
		scanned, err := uuid.Parse(request.Twincode)
		if err != nil {
			http.Error(w, "Provided twincode is invalid: "+err.Error(), http.StatusBadRequest)
			return
		}
		space := uuid.Nil
		if request.Space != "" {
			if space, err = uuid.Parse(request.Space); err != nil {
				http.Error(w, "Provided space is invalid: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		switch contact, err := api.backend.PairContact(scanned, space); err {
		case twinnet.ErrProfileNotFound:
			http.Error(w, "Local user doesn't exist", http.StatusForbidden)
		case nil:
			w.Header().Add("Content-Type", "application/json")
			json.NewEncoder(w).Encode(contact.ID.String())
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// serveContact serves API calls concerning a single contact.
func (api *api) serveContact(w http.ResponseWriter, r *http.Request, path string) {
	id, path, ok := parseID(path)
	if !ok {
		http.Error(w, "Contact ID invalid", http.StatusBadRequest)
		return
	}
	if path == "/missedcalls" {
		api.serveMissedCalls(w, r, id)
		return
	}
	if path != "" {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	switch r.Method {
	case "GET":
		// Retrieve a single contact
		switch contact, err := api.backend.Contact(id); err {
		case twinnet.ErrContactNotFound:
			http.Error(w, "Contact doesn't exist", http.StatusNotFound)
		case nil:
			w.Header().Add("Content-Type", "application/json")
			json.NewEncoder(w).Encode(&ContactInfos{
				ID:            contact.ID.String(),
				Name:          contact.Name,
				Bound:         contact.Bound(),
				Certification: int(contact.Certification()),
			})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	case "PUT":
		// Override the contact's local display name
		infos := new(ContactInfos)
		if err := json.NewDecoder(r.Body).Decode(infos); err != nil {
			http.Error(w, "Provided contact is invalid: "+err.Error(), http.StatusBadRequest)
			return
		}
		switch err := api.backend.UpdateContact(id, infos.Name); err {
		case twinnet.ErrContactNotFound:
			http.Error(w, "Contact doesn't exist", http.StatusForbidden)
		case nil:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	case "DELETE":
		// Tear the relationship down, notifying the peer
		switch err := api.backend.Unpair(id); err {
		case twinnet.ErrContactNotFound:
			http.Error(w, "Contact doesn't exist", http.StatusForbidden)
		case nil:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// serveMissedCalls serves API calls concerning a receiver's missed call log.
func (api *api) serveMissedCalls(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	switch r.Method {
	case "GET":
		// List the missed calls recorded against the receiver
		records, err := api.backend.MissedCalls(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		infos := []*MissedCallInfos{}
		for _, record := range records {
			info := &MissedCallInfos{Video: record.Video, Time: record.Time}
			if record.Caller != uuid.Nil {
				info.Caller = record.Caller.String()
			}
			infos = append(infos, info)
		}
		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(infos)

	case "DELETE":
		// Drop the receiver's missed call log
		if err := api.backend.ClearMissedCalls(id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}
