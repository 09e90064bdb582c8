// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

// Package rest implements the RESTful API for a twinnet node.
package rest

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet"
)

// New creates a REST API interface in front of a twinnet backend.
func New(backend *twinnet.Backend) http.Handler {
	return &api{
		backend: backend,
		logger:  log.Root().New("api", "rest"),
	}
}

// api is a REST wrapper on top of the twinnet backend that translates its Go
// APIs into REST for the UI layers.
type api struct {
	backend *twinnet.Backend
	logger  log.Logger
}

// ServeHTTP implements http.Handler, serving API calls from the local UI.
func (api *api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/profile"):
		api.serveProfile(w, r, api.logger.New("id", uuid.New()))

	case strings.HasPrefix(r.URL.Path, "/contacts"):
		api.serveContacts(w, r, strings.TrimPrefix(r.URL.Path, "/contacts"))

	case strings.HasPrefix(r.URL.Path, "/invitations"):
		api.serveInvitations(w, r, strings.TrimPrefix(r.URL.Path, "/invitations"))

	case strings.HasPrefix(r.URL.Path, "/groups"):
		api.serveGroups(w, r, strings.TrimPrefix(r.URL.Path, "/groups"))

	case strings.HasPrefix(r.URL.Path, "/receivers"):
		api.serveReceivers(w, r, strings.TrimPrefix(r.URL.Path, "/receivers"))

	default:
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	}
}

// parseID peels a `/<uuid>` segment off a sub path, returning the id and the
// remainder.
func parseID(path string) (uuid.UUID, string, bool) {
	if len(path) < 37 || path[0] != '/' {
		return uuid.Nil, "", false
	}
	if len(path) > 37 && path[37] != '/' {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(path[1:37])
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, path[37:], true
}
