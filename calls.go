// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	// dbMissedCallPrefix is the database key for storing missed call records.
	dbMissedCallPrefix = []byte("missed-")
)

// MissedCall is a persisted record of a call turned away while its receiver
// was not visible.
type MissedCall struct {
	Receiver uuid.UUID `json:"receiver"`         // Record id of the receiver the call targeted
	Caller   uuid.UUID `json:"caller,omitempty"` // Caller twincode, if the address named one
	Video    bool      `json:"video"`            // Whether the caller asked for video
	Time     time.Time `json:"time"`             // When the call was turned away
}

// missedCallKey assembles the storage key of a missed call record, ordered
// by receiver and then by time.
func missedCallKey(receiver uuid.UUID, when time.Time) []byte {
	key := append(append([]byte{}, dbMissedCallPrefix...), receiver[:]...)

	var stamp [8]byte
	binary.BigEndian.PutUint64(stamp[:], uint64(when.UnixNano()))
	return append(key, stamp[:]...)
}

// recordMissedCall persists the missed call and fans it out on the event
// stream, audio or video variant per the offer.
func (b *Backend) recordMissedCall(recv Receiver, caller uuid.UUID, offer Offer) {
	record := &MissedCall{
		Receiver: receiverID(recv),
		Caller:   caller,
		Video:    offer.Video,
		Time:     b.clock.Now(),
	}
	blob, err := json.Marshal(record)
	if err != nil {
		b.logger.Error("Failed to marshal missed call", "receiver", record.Receiver, "err", err)
		return
	}
	b.lock.Lock()
	err = b.database.Put(missedCallKey(record.Receiver, record.Time), blob, nil)
	b.lock.Unlock()

	if err != nil {
		b.logger.Error("Failed to store missed call", "receiver", record.Receiver, "err", err)
		return
	}
	b.emit(Event{Type: EventMissedCall, Receiver: record.Receiver, Video: record.Video})
}

// MissedCalls lists the missed call records of one receiver in time order.
func (b *Backend) MissedCalls(receiver uuid.UUID) ([]*MissedCall, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	prefix := append(append([]byte{}, dbMissedCallPrefix...), receiver[:]...)

	var records []*MissedCall

	it := b.database.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		record := new(MissedCall)
		if err := json.Unmarshal(it.Value(), record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, it.Error()
}

// ClearMissedCalls drops every missed call record of one receiver.
func (b *Backend) ClearMissedCalls(receiver uuid.UUID) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	prefix := append(append([]byte{}, dbMissedCallPrefix...), receiver[:]...)

	it := b.database.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		if err := b.database.Delete(append([]byte{}, it.Key()...), nil); err != nil {
			return err
		}
	}
	return it.Error()
}
