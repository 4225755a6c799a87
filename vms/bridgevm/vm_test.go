// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/crypto/bls/signer/localsigner"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/luxfi/utils/json"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/oracle"
	"github.com/luxfi/ethbridge/vms/bridgevm/proposal"
	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
	"github.com/luxfi/ethbridge/vms/bridgevm/vext"
)

var (
	feeToken = ids.ShortID{0xfe}
	dai      = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	receiver = ids.ShortID{0x01}
)

type testValidator struct {
	nodeID ids.NodeID
	sk     *localsigner.LocalSigner
}

type testEnv struct {
	db            database.Database
	genesis       []byte
	vdrs          []testValidator
	payer         *localsigner.LocalSigner
	encryptionKey []byte
	decryptionKey []byte
}

func newTestEnv(t *testing.T, stakes ...uint64) *testEnv {
	require := require.New(t)

	payer, err := localsigner.New()
	require.NoError(err)
	g := &Genesis{
		Balances: []GenesisBalance{{
			Token:  feeToken,
			Owner:  payerOf(payer),
			Amount: 100,
		}},
	}
	vdrs := make([]testValidator, len(stakes))
	for i, stake := range stakes {
		sk, err := localsigner.New()
		require.NoError(err)
		vdrs[i] = testValidator{nodeID: ids.GenerateTestNodeID(), sk: sk}
		g.Validators = append(g.Validators, GenesisValidator{
			NodeID:    vdrs[i].nodeID,
			Stake:     json.Uint64(stake),
			PublicKey: bls.PublicKeyToCompressedBytes(sk.PublicKey()),
		})
	}
	genesis, err := g.Bytes()
	require.NoError(err)

	pk, sk, err := txs.GenerateKey()
	require.NoError(err)
	return &testEnv{
		db:            memdb.New(),
		genesis:       genesis,
		vdrs:          vdrs,
		payer:         payer,
		encryptionKey: pk,
		decryptionKey: sk,
	}
}

// newVM starts a VM over the environment's database. [validator] is the
// index of the local validator, or -1 for a node that doesn't validate.
func (e *testEnv) newVM(t *testing.T, validator int, events *oracle.Receiver[ethevents.Event]) *VM {
	params := Params{
		Log:           log.NewNoOpLogger(),
		DB:            e.db,
		Registerer:    metric.NewRegistry(),
		Genesis:       e.genesis,
		DecryptionKey: e.decryptionKey,
		Events:        events,
	}
	if validator >= 0 {
		params.Identity = &Identity{
			NodeID: e.vdrs[validator].nodeID,
			Signer: e.vdrs[validator].sk,
		}
	}
	vm := &VM{}
	require.NoError(t, vm.Initialize(context.Background(), params))
	return vm
}

func (e *testEnv) extensions(t *testing.T, height uint64, signers []int, events ...ethevents.Event) [][]byte {
	require := require.New(t)

	exts := make([][]byte, len(signers))
	for i, signer := range signers {
		ext, err := vext.New(height, e.vdrs[signer].nodeID, events)
		require.NoError(err)
		signed, err := vext.Sign(e.vdrs[signer].sk, ext)
		require.NoError(err)
		exts[i], err = signed.Bytes()
		require.NoError(err)
	}
	return exts
}

func (e *testEnv) wrapper(t *testing.T, fee uint64, code string) (*txs.InnerTx, []byte) {
	require := require.New(t)

	inner := &txs.InnerTx{Code: []byte(code)}
	wrapper, err := txs.NewWrapperTx(
		txs.Fee{Amount: *uint256.NewInt(fee), Token: feeToken},
		0,
		21_000,
		inner,
		e.encryptionKey,
	)
	require.NoError(err)
	require.NoError(wrapper.Sign(e.payer))
	return inner, txBytes(t, wrapper)
}

func txBytes(t *testing.T, unsigned txs.UnsignedTx) []byte {
	tx, err := txs.NewTx(unsigned)
	require.NoError(t, err)
	return tx.Bytes()
}

func payerOf(sk *localsigner.LocalSigner) ids.ShortID {
	return txs.AddressOf(bls.PublicKeyToCompressedBytes(sk.PublicKey()))
}

func transfer(nonce uint64) ethevents.Event {
	return ethevents.NewTransfersToLux(nonce, ethevents.TransferToLux{
		Amount:   *uint256.NewInt(100),
		Asset:    dai,
		Receiver: receiver,
	})
}

func finalize(t *testing.T, vm *VM, blkTxs ...[]byte) *FinalizeResponse {
	resp, err := vm.FinalizeBlock(context.Background(), &FinalizeRequest{
		Txs:    blkTxs,
		Height: vm.LastHeight() + 1,
		Hash:   ids.GenerateTestID(),
	})
	require.NoError(t, err)
	return resp
}

func balance(t *testing.T, vm *VM, key storage.Key) uint64 {
	amount, err := storage.ReadAmount(storage.NewReadOnly(vm.db), key)
	require.NoError(t, err)
	return amount.Uint64()
}

func TestInitializeGenesis(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1)
	vm := env.newVM(t, 0, nil)
	require.Zero(vm.LastHeight())
	require.Equal(uint64(100), balance(t, vm, storage.BalanceKey(feeToken, payerOf(env.payer))))

	finalize(t, vm)
	require.Equal(uint64(1), vm.LastHeight())

	// Genesis balances are only written once.
	restarted := env.newVM(t, 0, nil)
	require.Equal(uint64(1), restarted.LastHeight())
	require.Equal(uint64(100), balance(t, restarted, storage.BalanceKey(feeToken, payerOf(env.payer))))

	blk, err := getBlock(storage.NewReadOnly(restarted.db), 1)
	require.NoError(err)
	require.Equal(uint64(1), blk.Height)
}

func TestInitializeInvalidGenesis(t *testing.T) {
	tests := []struct {
		name    string
		genesis []byte
	}{
		{
			name:    "malformed",
			genesis: []byte("{"),
		},
		{
			name:    "no validators",
			genesis: []byte(`{"validators":[]}`),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			vm := &VM{}
			err := vm.Initialize(context.Background(), Params{
				Log:        log.NewNoOpLogger(),
				DB:         memdb.New(),
				Registerer: metric.NewRegistry(),
				Genesis:    test.genesis,
			})
			require.Error(t, err)
		})
	}
}

func TestExtendVote(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1, 1)
	sender, events := oracle.NewChannel[ethevents.Event]()
	require.NoError(sender.Send(transfer(1)))
	require.NoError(sender.Send(transfer(1)))
	require.NoError(sender.Send(transfer(0)))

	vm := env.newVM(t, 0, events)
	b, err := vm.ExtendVote(context.Background())
	require.NoError(err)

	signed, err := vext.Parse(b)
	require.NoError(err)
	require.Equal(uint64(1), signed.Extension.BlockHeight)
	require.Equal(env.vdrs[0].nodeID, signed.Extension.Validator)
	require.Len(signed.Extension.Events, 2)
	require.True(vm.VerifyVoteExtension(context.Background(), b))

	observer := env.newVM(t, -1, nil)
	b, err = observer.ExtendVote(context.Background())
	require.NoError(err)
	require.Empty(b)
}

func TestVerifyVoteExtension(t *testing.T) {
	env := newTestEnv(t, 1, 1)
	outsider, err := localsigner.New()
	require.NoError(t, err)

	signedBy := func(height uint64, nodeID ids.NodeID, signer bls.Signer) []byte {
		ext, err := vext.New(height, nodeID, []ethevents.Event{transfer(0)})
		require.NoError(t, err)
		signed, err := vext.Sign(signer, ext)
		require.NoError(t, err)
		b, err := signed.Bytes()
		require.NoError(t, err)
		return b
	}

	tests := []struct {
		name  string
		ext   []byte
		valid bool
	}{
		{
			name:  "valid",
			ext:   signedBy(1, env.vdrs[1].nodeID, env.vdrs[1].sk),
			valid: true,
		},
		{
			name: "malformed",
			ext:  []byte{0x01, 0x02},
		},
		{
			name: "empty",
		},
		{
			name: "wrong height",
			ext:  signedBy(2, env.vdrs[1].nodeID, env.vdrs[1].sk),
		},
		{
			name: "not a validator",
			ext:  signedBy(1, ids.GenerateTestNodeID(), outsider),
		},
		{
			name: "signed by another key",
			ext:  signedBy(1, env.vdrs[1].nodeID, env.vdrs[0].sk),
		},
	}
	vm := env.newVM(t, 0, nil)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.valid, vm.VerifyVoteExtension(context.Background(), test.ext))
		})
	}
}

func TestConfirmEthereumEvent(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1, 1, 1)
	sender, events := oracle.NewChannel[ethevents.Event]()
	require.NoError(sender.Send(transfer(0)))

	vm := env.newVM(t, 0, events)
	_, err := vm.ExtendVote(context.Background())
	require.NoError(err)
	require.Equal(1, vm.events.Len())

	exts := env.extensions(t, 1, []int{0, 1, 2}, transfer(0))
	finalize(t, vm)

	digestTx, err := vm.BuildDigestTx(context.Background(), exts)
	require.NoError(err)

	req := &proposal.Request{
		Txs:    [][]byte{digestTx},
		Height: 2,
		Hash:   ids.GenerateTestID(),
	}
	resp := vm.ProcessProposal(context.Background(), req)
	require.True(resp.Accept)
	require.Equal(proposal.Ok, resp.Results[0].Code)

	result := finalize(t, vm, digestTx)
	event := transfer(0)
	eventHash, err := event.Hash()
	require.NoError(err)
	require.Equal([]ids.ID{eventHash}, result.Confirmed)
	require.Equal(uint64(100), balance(t, vm, storage.WrappedBalanceKey(dai, receiver)))
	require.Equal(uint64(100), balance(t, vm, storage.WrappedSupplyKey(dai)))

	// The confirmed event is no longer voted on.
	require.Zero(vm.events.Len())

	service := &Service{vm: vm}
	reply := &GetEthMsgReply{}
	require.NoError(service.GetEthMsg(nil, &GetEthMsgArgs{Hash: eventHash}, reply))
	require.True(reply.Seen)
	require.Len(reply.SeenBy, 3)
	replyHash, err := reply.Event.Hash()
	require.NoError(err)
	require.Equal(eventHash, replyHash)
}

func TestDigestWithoutQuorum(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1, 1, 1)
	vm := env.newVM(t, 0, nil)
	exts := env.extensions(t, 1, []int{0, 1}, transfer(0))
	finalize(t, vm)

	// Exactly two thirds is not enough.
	digestTx, err := vm.BuildDigestTx(context.Background(), exts)
	require.NoError(err)

	resp := vm.ProcessProposal(context.Background(), &proposal.Request{
		Txs:    [][]byte{digestTx},
		Height: 2,
	})
	require.False(resp.Accept)
	require.Equal(proposal.InvalidVoteExtension, resp.Results[0].Code)

	_, err = vm.FinalizeBlock(context.Background(), &FinalizeRequest{
		Txs:    [][]byte{digestTx},
		Height: 2,
	})
	require.ErrorIs(err, ErrRejectedBlock)
	require.Equal(uint64(1), vm.LastHeight())
}

func TestBuildDigestTxDropsInvalidExtensions(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1, 1, 1)
	vm := env.newVM(t, 0, nil)
	finalize(t, vm)

	exts := env.extensions(t, 1, []int{0, 1, 2, 2}, transfer(0))
	exts = append(exts, env.extensions(t, 0, []int{1}, transfer(0))...)
	exts = append(exts, []byte{0xff})

	digestTx, err := vm.BuildDigestTx(context.Background(), exts)
	require.NoError(err)

	tx, err := txs.Parse(digestTx)
	require.NoError(err)
	payload := tx.Unsigned.(*txs.ProtocolTx).Payload.(*txs.EthereumEventsDigest)
	digest, err := payload.Digest(vm.compressor)
	require.NoError(err)
	require.Len(digest.Signatures, 3)

	observer := env.newVM(t, -1, nil)
	_, err = observer.BuildDigestTx(context.Background(), exts)
	require.ErrorIs(err, ErrNotValidator)
}

func TestFinalizeBlockUnexpectedHeight(t *testing.T) {
	env := newTestEnv(t, 1)
	vm := env.newVM(t, 0, nil)

	_, err := vm.FinalizeBlock(context.Background(), &FinalizeRequest{Height: 2})
	require.ErrorIs(t, err, ErrUnexpectedHeight)
}

func TestWrapperLifecycle(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1)
	vm := env.newVM(t, 0, nil)
	payerKey := storage.BalanceKey(feeToken, payerOf(env.payer))

	inner, wrapperTx := env.wrapper(t, 10, "transfer")
	result := finalize(t, vm, wrapperTx)
	require.Equal(proposal.Ok, result.Results[0].Code)
	require.Equal(uint64(90), balance(t, vm, payerKey))
	require.Equal(1, vm.queue.Len())

	// The pending wrapper survives a restart.
	vm = env.newVM(t, 0, nil)
	require.Equal(1, vm.queue.Len())

	decryptedTx := txBytes(t, &txs.DecryptedTx{Inner: *inner})
	resp := vm.ProcessProposal(context.Background(), &proposal.Request{
		Txs:    [][]byte{decryptedTx},
		Height: 2,
	})
	require.True(resp.Accept)

	finalize(t, vm, decryptedTx)
	require.Zero(vm.queue.Len())

	// Nothing is left to decrypt.
	resp = vm.ProcessProposal(context.Background(), &proposal.Request{
		Txs:    [][]byte{decryptedTx},
		Height: 3,
	})
	require.False(resp.Accept)
	require.Equal(proposal.ExtraTxs, resp.Results[0].Code)
}

func TestWrappersOverdrawingPayer(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1)
	vm := env.newVM(t, 0, nil)

	_, first := env.wrapper(t, 60, "first")
	_, second := env.wrapper(t, 60, "second")

	// Admission reads committed state, so both wrappers are admitted.
	resp := vm.ProcessProposal(context.Background(), &proposal.Request{
		Txs:    [][]byte{first, second},
		Height: 1,
	})
	require.True(resp.Accept)

	finalize(t, vm, first, second)
	require.Equal(uint64(40), balance(t, vm, storage.BalanceKey(feeToken, payerOf(env.payer))))
	require.Equal(1, vm.queue.Len())
}

func TestServiceGetBalance(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1)
	vm := env.newVM(t, 0, nil)
	service := &Service{vm: vm}

	reply := &GetBalanceReply{}
	require.NoError(service.GetBalance(nil, &GetBalanceArgs{
		Token: feeToken,
		Owner: payerOf(env.payer),
	}, reply))
	require.Equal("100", reply.Amount)

	heightReply := &GetLastHeightReply{}
	require.NoError(service.GetLastHeight(nil, nil, heightReply))
	require.Zero(heightReply.Height)

	powerReply := &GetVotingPowerReply{}
	require.NoError(service.GetVotingPower(nil, &GetVotingPowerArgs{NodeID: env.vdrs[0].nodeID}, powerReply))
	require.Equal("1/1", powerReply.VotingPower)

	err := service.GetEthMsg(nil, &GetEthMsgArgs{Hash: ids.GenerateTestID()}, &GetEthMsgReply{})
	require.ErrorIs(err, ErrUnknownEvent)
}
