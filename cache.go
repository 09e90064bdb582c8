// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// memberCache holds recently resolved group members keyed by their outbound
// twincode id. An entry is only reusable while the group that owned it at
// insertion time is the exact same object instance as the one the current
// lookup runs against: groups are recreated rather than mutated on refresh
// paths, so identity (not equality) is what proves the entry fresh.
type memberCache struct {
	cache *lru.Cache[uuid.UUID, *GroupMember]
	lock  sync.Mutex
}

// newMemberCache creates an empty member resolution cache.
func newMemberCache(size int) *memberCache {
	cache, err := lru.New[uuid.UUID, *GroupMember](size)
	if err != nil {
		panic(err) // Only fails on a non-positive size
	}
	return &memberCache{cache: cache}
}

// lookup returns the cached member for a caller twincode if it still belongs
// to the given group instance. Stale entries are discarded, never returned,
// even when the record ids coincide.
func (mc *memberCache) lookup(group *Group, tc uuid.UUID) *GroupMember {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	member, ok := mc.cache.Get(tc)
	if !ok {
		return nil
	}
	if member.group != group {
		mc.cache.Remove(tc)
		return nil
	}
	return member
}

// store remembers a resolved member under its caller twincode.
func (mc *memberCache) store(tc uuid.UUID, member *GroupMember) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.cache.Add(tc, member)
}

// groupCache keeps the live resolution instance of each group so repeated
// lookups observe one object identity until a mutation replaces it.
type groupCache struct {
	groups map[uuid.UUID]*Group
	lock   sync.Mutex
}

// newGroupCache creates an empty group instance cache.
func newGroupCache() *groupCache {
	return &groupCache{groups: make(map[uuid.UUID]*Group)}
}

// get returns the current resolution instance of a group, if any.
func (gc *groupCache) get(id uuid.UUID) *Group {
	gc.lock.Lock()
	defer gc.lock.Unlock()

	return gc.groups[id]
}

// replace installs a new resolution instance for a group, retiring whatever
// instance earlier lookups handed out.
func (gc *groupCache) replace(group *Group) {
	gc.lock.Lock()
	defer gc.lock.Unlock()

	gc.groups[group.ID] = group
}

// drop forgets a group's resolution instance.
func (gc *groupCache) drop(id uuid.UUID) {
	gc.lock.Lock()
	defer gc.lock.Unlock()

	delete(gc.groups, id)
}
