// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

// This file contains a development server to launch a local twinnet instance
// with an in-process twincode exchange, without the mobile integration.

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet"
	"github.com/twinnet/go-twinnet/protocols"
	"github.com/twinnet/go-twinnet/rest"
)

var (
	datadirFlag   = flag.String("datadir", ".", "Data directory for the backend")
	apiportFlag   = flag.Int("apiport", 4444, "TCP port to launch the API server on")
	verbosityFlag = flag.Int("verbosity", int(log.LvlInfo), "Log level to run with")
)

// devTransport is a stand-in live connection layer that only logs admission
// decisions, the development daemon carries no media stack.
type devTransport struct {
	logger log.Logger
}

func (t *devTransport) Terminate(conn uuid.UUID, reason protocols.Reason) {
	t.logger.Info("Connection terminated", "conn", conn, "reason", reason)
}

func (t *devTransport) AcceptCall(conn uuid.UUID, audio, video bool) {
	t.logger.Info("Call accepted", "conn", conn, "audio", audio, "video", video)
}

func (t *devTransport) AcceptData(conn uuid.UUID) {
	t.logger.Info("Data session accepted", "conn", conn)
}

func main() {
	flag.Parse()

	// Enable colored terminal logging
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(*verbosityFlag), log.StreamHandler(os.Stderr, log.TerminalFormat(true))))

	// Assemble the backend configuration from the environment and flags
	config := twinnet.Config{}
	if err := env.Parse(&config); err != nil {
		panic(err)
	}
	if config.Datadir == "" {
		config.Datadir = *datadirFlag
	}
	port := twinnet.NewMemoryExchange().Join()

	config.Transport = &devTransport{logger: log.Root().New("layer", "transport")}
	config.Courier = port
	config.Directory = port

	// Create a live backend and expose it via REST
	backend, err := twinnet.NewBackend(config)
	if err != nil {
		panic(err)
	}
	defer backend.Close()

	port.Connect(backend)

	go func() {
		for event := range backend.Events() {
			log.Info("Backend event", "type", event.Type, "receiver", event.Receiver)
		}
	}()
	http.ListenAndServe(fmt.Sprintf("localhost:%d", *apiportFlag), rest.New(backend))
}
