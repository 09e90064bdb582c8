// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

// Package twinnet implements the identity pairing and connection admission
// core of the twinnet peer-to-peer contact network: the pairing handshake
// turning anonymous twincodes into trusted contacts, the router dispatching
// inbound protocol invocations and the admission control deciding the fate
// of live connection offers.
package twinnet

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/twinnet/go-twinnet/params"
)

// Config assembles a backend out of its deployment choices and external
// collaborators. Transport, Courier and Directory are mandatory; the rest
// falls back to sensible defaults.
type Config struct {
	Datadir string `env:"TWINNET_DATADIR"` // Data directory for the object database

	// Domain is the inbound twincode address namespace accepted by the
	// connection admission.
	Domain string `env:"TWINNET_DOMAIN" envDefault:"twincode.twinnet.org"`

	// UnbindPolicy picks what a remote pair::unbind does to the local
	// contact: delete it outright or keep the record without its peer.
	UnbindPolicy string `env:"TWINNET_UNBIND_POLICY" envDefault:"delete"`

	Transport Transport   // Live connection layer collaborator
	Courier   Courier     // Store-and-forward message collaborator
	Directory Directory   // Twincode registry collaborator
	Clock     clock.Clock // Time source, defaults to the wall clock
	Logger    log.Logger  // Logger to allow injecting context, defaults to root
}

// Backend represents the local twinnet node: the owned receivers, their
// persistent object store and the protocol machinery acting on them.
type Backend struct {
	database *leveldb.DB // Database to avoid custom file formats for storage

	transport Transport   // Live connection layer
	courier   Courier     // Store-and-forward messaging
	directory Directory   // Twincode registry
	clock     clock.Clock // Time source for schedules and expiries

	domain       string // Accepted inbound twincode address namespace
	unbindPolicy string // Remote unbind handling, delete or detach

	tasks   *dispatcher  // Per-twincode serialized processing queues
	groups  *groupCache  // Live group resolution instances
	members *memberCache // Resolved group member cache

	events  chan Event              // Notification fan-out towards the UI layers
	rebinds map[uuid.UUID]time.Time // Last stale-pairing re-bind attempt per caller

	logger log.Logger
	lock   sync.RWMutex
}

// NewBackend creates a new twinnet node persisting into the given data
// directory.
func NewBackend(config Config) (*Backend, error) {
	if config.Transport == nil || config.Courier == nil || config.Directory == nil {
		return nil, errors.New("transport, courier and directory are mandatory")
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = log.Root()
	}
	if config.Domain == "" {
		config.Domain = params.TwincodeDomain
	}
	switch config.UnbindPolicy {
	case "":
		config.UnbindPolicy = params.UnbindPolicyDelete
	case params.UnbindPolicyDelete, params.UnbindPolicyDetach:
	default:
		return nil, errors.New("unknown unbind policy: " + config.UnbindPolicy)
	}
	db, err := leveldb.OpenFile(filepath.Join(config.Datadir, "ldb"), &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &Backend{
		database:     db,
		transport:    config.Transport,
		courier:      config.Courier,
		directory:    config.Directory,
		clock:        config.Clock,
		domain:       config.Domain,
		unbindPolicy: config.UnbindPolicy,
		tasks:        newDispatcher(),
		groups:       newGroupCache(),
		members:      newMemberCache(params.MemberCacheSize),
		events:       make(chan Event, params.EventQueueSize),
		rebinds:      make(map[uuid.UUID]time.Time),
		logger:       config.Logger,
	}, nil
}

// Close drains the processing queues and tears down the backend. It's
// irreversible, it cannot be used afterwards.
func (b *Backend) Close() error {
	b.tasks.wait()

	b.lock.Lock()
	defer b.lock.Unlock()

	err := b.database.Close()
	b.database = nil

	return err
}
