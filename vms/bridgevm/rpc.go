// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/utils/json"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/tally"
	"github.com/luxfi/ethbridge/vms/bridgevm/validators"
)

var ErrUnknownEvent = errors.New("unknown ethereum event")

// Service is the read only JSON-RPC API of the bridge.
type Service struct {
	vm *VM
}

// RegisterService registers the bridge API under the "bridge" namespace.
func (vm *VM) RegisterService(server *rpc.Server) error {
	return server.RegisterService(&Service{vm: vm}, "bridge")
}

type GetLastHeightReply struct {
	Height json.Uint64 `json:"height"`
}

func (s *Service) GetLastHeight(_ *http.Request, _ *struct{}, reply *GetLastHeightReply) error {
	reply.Height = json.Uint64(s.vm.LastHeight())
	return nil
}

type GetBlockArgs struct {
	Height json.Uint64 `json:"height"`
}

type GetBlockReply struct {
	Block *Block `json:"block"`
}

func (s *Service) GetBlock(_ *http.Request, args *GetBlockArgs, reply *GetBlockReply) error {
	s.vm.mu.Lock()
	defer s.vm.mu.Unlock()

	blk, err := getBlock(storage.NewReadOnly(s.vm.db), uint64(args.Height))
	if err != nil {
		return fmt.Errorf("couldn't get block %d: %w", args.Height, err)
	}
	reply.Block = blk
	return nil
}

type GetBalanceArgs struct {
	Token ids.ShortID `json:"token"`
	Owner ids.ShortID `json:"owner"`
}

type GetBalanceReply struct {
	// Amount is in decimal.
	Amount string `json:"amount"`
}

func (s *Service) GetBalance(_ *http.Request, args *GetBalanceArgs, reply *GetBalanceReply) error {
	s.vm.mu.Lock()
	defer s.vm.mu.Unlock()

	amount, err := storage.ReadAmount(storage.NewReadOnly(s.vm.db), storage.BalanceKey(args.Token, args.Owner))
	if err != nil {
		return err
	}
	reply.Amount = amount.Dec()
	return nil
}

type GetEthMsgArgs struct {
	Hash ids.ID `json:"hash"`
}

type VoteReply struct {
	Validator ids.NodeID  `json:"validator"`
	Height    json.Uint64 `json:"height"`
}

type GetEthMsgReply struct {
	Event       ethevents.Event `json:"event"`
	Seen        bool            `json:"seen"`
	SeenBy      []VoteReply     `json:"seenBy"`
	VotingPower string          `json:"votingPower"`
}

// GetEthMsg returns the tally of an Ethereum event.
func (s *Service) GetEthMsg(_ *http.Request, args *GetEthMsgArgs, reply *GetEthMsgReply) error {
	s.vm.mu.Lock()
	defer s.vm.mu.Unlock()

	var (
		committed = storage.NewReadOnly(s.vm.db)
		keys      = tally.KeysFor(storage.EthMsgPrefix(args.Hash))
	)
	body, err := committed.Read(keys.Body)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, args.Hash)
	}
	if err != nil {
		return err
	}
	event, err := ethevents.Parse(body)
	if err != nil {
		return err
	}
	t, err := tally.Read(committed, keys)
	if err != nil {
		return err
	}

	reply.Event = event
	reply.Seen = t.Seen
	reply.VotingPower = t.VotingPower.String()
	for _, vote := range t.SeenBy.List() {
		reply.SeenBy = append(reply.SeenBy, VoteReply{
			Validator: vote.Validator,
			Height:    json.Uint64(vote.Height),
		})
	}
	return nil
}

type GetPendingEventsReply struct {
	Events []ethevents.Event `json:"events"`
}

// GetPendingEvents returns the events the local validator will vote on next.
func (s *Service) GetPendingEvents(_ *http.Request, _ *struct{}, reply *GetPendingEventsReply) error {
	s.vm.mu.Lock()
	defer s.vm.mu.Unlock()

	reply.Events = []ethevents.Event{}
	if s.vm.events == nil {
		return nil
	}
	if _, err := s.vm.events.Fill(); err != nil {
		return err
	}
	reply.Events = s.vm.events.Events()
	return nil
}

type GetVotingPowerArgs struct {
	NodeID ids.NodeID  `json:"nodeID"`
	Height json.Uint64 `json:"height"`
}

type GetVotingPowerReply struct {
	VotingPower string `json:"votingPower"`
}

func (s *Service) GetVotingPower(_ *http.Request, args *GetVotingPowerArgs, reply *GetVotingPowerReply) error {
	power, err := validators.VotingPower(s.vm.validators, args.NodeID, uint64(args.Height))
	if err != nil {
		return err
	}
	reply.VotingPower = power.String()
	return nil
}
