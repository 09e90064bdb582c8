// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/twincode"
)

// Group is a multi-party conversation receiver. It owns an identity twincode
// pair like a contact, but its peer twincode addresses the group itself and
// its membership is tracked through separate GroupMember records.
type Group struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name,omitempty"`
	SpaceID uuid.UUID `json:"spaceId"`

	TwincodeInbound  *twincode.Twincode `json:"twincodeInbound,omitempty"`
	TwincodeOutbound *twincode.Twincode `json:"twincodeOutbound,omitempty"`
	Peer             *twincode.Twincode `json:"peer,omitempty"` // The group's shared outbound twincode

	AdminTwincodeID   uuid.UUID `json:"adminTwincodeId,omitempty"` // Outbound twincode of the group admin
	AdminPermissions  uint32    `json:"adminPermissions"`          // Capability mask applying to the admin
	MemberPermissions uint32    `json:"memberPermissions"`         // Capability mask applying to plain members
}

func (g *Group) Kind() KindSet                { return KindGroup }
func (g *Group) Inbound() *twincode.Twincode  { return g.TwincodeInbound }
func (g *Group) Outbound() *twincode.Twincode { return g.TwincodeOutbound }
func (g *Group) receiver()                    {}

// GroupMember is a single remote participant of a group, identified by the
// member's outbound twincode. Members are addressed through the group's
// identity twincodes; the record itself owns none.
type GroupMember struct {
	ID          uuid.UUID          `json:"id"`
	GroupID     uuid.UUID          `json:"groupId"`
	Peer        *twincode.Twincode `json:"peer,omitempty"` // The member's outbound twincode as known to us
	Permissions uint32             `json:"permissions"`    // Effective capability mask of the member

	group *Group // Resolved owning group instance, never persisted
}

func (m *GroupMember) Kind() KindSet               { return KindGroupMember }
func (m *GroupMember) Inbound() *twincode.Twincode { return nil }

// Outbound returns the owning group's outbound twincode, which is the
// identity a member-addressed session runs under.
func (m *GroupMember) Outbound() *twincode.Twincode {
	if m.group == nil {
		return nil
	}
	return m.group.TwincodeOutbound
}

func (m *GroupMember) receiver() {}

// Group returns the owning group instance the member was resolved against.
func (m *GroupMember) Group() *Group {
	return m.group
}

// CreateGroup registers a new group receiver with a fresh identity twincode
// pair. The admin identity and permission masks arrive asynchronously via a
// group::registered announcement.
func (b *Backend) CreateGroup(name string, space uuid.UUID) (*Group, error) {
	b.logger.Info("Creating group", "name", name)

	inbound, outbound, err := b.directory.CreatePair(map[string]string{
		twincode.AttrName:         name,
		twincode.AttrCapabilities: twincode.KindDefaults(twincode.KindGroup).Encode(),
	})
	if err != nil {
		return nil, err
	}
	group := &Group{
		ID:               uuid.New(),
		Name:             name,
		SpaceID:          space,
		TwincodeInbound:  inbound,
		TwincodeOutbound: outbound,
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.storeGroup(group); err != nil {
		return nil, err
	}
	return group, nil
}

// GroupMembers returns the member records of one group.
func (b *Backend) GroupMembers(group uuid.UUID) ([]*GroupMember, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	ids, err := b.listRecords(dbMemberPrefix)
	if err != nil {
		return nil, err
	}
	var members []*GroupMember
	for _, id := range ids {
		member := new(GroupMember)
		if err := b.getJSON(dbMemberPrefix, id, member); err != nil {
			continue
		}
		if member.GroupID == group {
			members = append(members, member)
		}
	}
	return members, nil
}
