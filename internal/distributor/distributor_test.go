package distributor

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"airdrop-backend/internal/claimstate"
	"airdrop-backend/internal/merkle"
	"airdrop-backend/internal/types"
	"airdrop-backend/internal/voucher"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher records transfers and optionally fails the next call.
type fakeDispatcher struct {
	fungible    int
	nonFungible int
	lastTo      common.Address
	lastAmount  *big.Int
	lastID      *big.Int
	failNext    error
}

func (f *fakeDispatcher) TransferFungible(_ context.Context, _, to common.Address, amount *big.Int) error {
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	f.fungible++
	f.lastTo = to
	f.lastAmount = amount
	return nil
}

func (f *fakeDispatcher) TransferNonFungible(_ context.Context, _, to common.Address, id *big.Int) error {
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	f.nonFungible++
	f.lastTo = to
	f.lastID = id
	return nil
}

var tokenContract = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func addr(last byte) common.Address {
	var a common.Address
	a[19] = last
	return a
}

func senderCtx(a common.Address) context.Context {
	return WithSender(context.Background(), a)
}

// buildDistribution commits the records under one root and returns the
// per-record proofs.
func buildDistribution(t *testing.T, records []types.AllocationRecord) (common.Hash, [][]common.Hash) {
	t.Helper()
	leaves := make([]common.Hash, len(records))
	for i, rec := range records {
		leaves[i] = merkle.LeafHash(rec)
	}
	tree, err := merkle.NewTree(leaves)
	require.NoError(t, err)
	proofs := make([][]common.Hash, len(records))
	for i := range records {
		proofs[i], err = tree.Prove(i)
		require.NoError(t, err)
	}
	return tree.Root(), proofs
}

func threeRecords() []types.AllocationRecord {
	return []types.AllocationRecord{
		{Index: 0, Claimant: addr(1), AssetContract: tokenContract, AssetID: big.NewInt(0), Amount: big.NewInt(100)},
		{Index: 1, Claimant: addr(2), AssetContract: tokenContract, AssetID: big.NewInt(0), Amount: big.NewInt(250)},
		{Index: 2, Claimant: addr(3), AssetContract: tokenContract, AssetID: big.NewInt(77), Amount: big.NewInt(0)},
	}
}

func TestMerkleClaimLifecycle(t *testing.T) {
	records := threeRecords()
	root, proofs := buildDistribution(t, records)
	disp := &fakeDispatcher{}
	d := NewMerkleDistributor(root, 0, claimstate.NewBitmap(), disp, ContextSenderResolver{})

	// First claimant succeeds.
	ev, err := d.Claim(senderCtx(records[0].Claimant), records[0], proofs[0])
	require.NoError(t, err)
	assert.Equal(t, types.ModuleMerkle, ev.Module)
	assert.Equal(t, uint64(0), ev.ClaimIndex)
	assert.Equal(t, records[0].Claimant, disp.lastTo)
	assert.Equal(t, big.NewInt(100), disp.lastAmount)
	assert.True(t, d.IsClaimed(0))

	// Replay of the same allocation is refused without touching the
	// dispatcher again.
	_, err = d.Claim(senderCtx(records[0].Claimant), records[0], proofs[0])
	var already *claimstate.AlreadyClaimedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, uint64(0), already.Index)
	assert.Equal(t, 1, disp.fungible)

	// Other allocations are unaffected.
	_, err = d.Claim(senderCtx(records[1].Claimant), records[1], proofs[1])
	require.NoError(t, err)

	// The third record is a non-fungible asset.
	ev, err = d.Claim(senderCtx(records[2].Claimant), records[2], proofs[2])
	require.NoError(t, err)
	assert.Equal(t, 1, disp.nonFungible)
	assert.Equal(t, big.NewInt(77), disp.lastID)
	assert.Equal(t, big.NewInt(77), ev.AssetID)
}

func TestMerkleClaimRejections(t *testing.T) {
	records := threeRecords()
	root, proofs := buildDistribution(t, records)
	disp := &fakeDispatcher{}
	d := NewMerkleDistributor(root, 0, claimstate.NewBitmap(), disp, ContextSenderResolver{})

	t.Run("no sender", func(t *testing.T) {
		_, err := d.Claim(context.Background(), records[0], proofs[0])
		assert.ErrorIs(t, err, ErrNoSender)
	})

	t.Run("sender is not the claimant", func(t *testing.T) {
		_, err := d.Claim(senderCtx(addr(9)), records[0], proofs[0])
		var notClaimant *NotClaimantError
		require.ErrorAs(t, err, &notClaimant)
		assert.Equal(t, records[0].Claimant, notClaimant.Expected)
		assert.Equal(t, addr(9), notClaimant.Actual)
	})

	t.Run("tampered amount", func(t *testing.T) {
		inflated := records[0]
		inflated.Amount = big.NewInt(1000)
		_, err := d.Claim(senderCtx(inflated.Claimant), inflated, proofs[0])
		assert.ErrorIs(t, err, ErrInvalidProof)
	})

	t.Run("proof for another record", func(t *testing.T) {
		_, err := d.Claim(senderCtx(records[0].Claimant), records[0], proofs[1])
		assert.ErrorIs(t, err, ErrInvalidProof)
	})

	t.Run("proof too long", func(t *testing.T) {
		long := make([]common.Hash, merkle.DefaultMaxProofDepth+1)
		_, err := d.Claim(senderCtx(records[0].Claimant), records[0], long)
		var tooLong *ProofTooLongError
		require.ErrorAs(t, err, &tooLong)
		assert.Equal(t, merkle.DefaultMaxProofDepth+1, tooLong.Length)
		assert.Equal(t, merkle.DefaultMaxProofDepth, tooLong.Max)
	})

	// No rejection reached the dispatcher or marked any index.
	assert.Equal(t, 0, disp.fungible+disp.nonFungible)
	for i := range records {
		assert.False(t, d.IsClaimed(uint64(i)))
	}
}

func TestMerkleClaimZeroAmountFungible(t *testing.T) {
	records := []types.AllocationRecord{
		{Index: 0, Claimant: addr(1), AssetContract: tokenContract, AssetID: big.NewInt(0), Amount: big.NewInt(0)},
	}
	root, proofs := buildDistribution(t, records)
	state := claimstate.NewBitmap()
	disp := &fakeDispatcher{}
	d := NewMerkleDistributor(root, 0, state, disp, ContextSenderResolver{})

	// The record is committed under the root, so the proof itself holds,
	// but a zero-amount fungible allocation is never dispatched or marked.
	_, err := d.Claim(senderCtx(records[0].Claimant), records[0], proofs[0])
	assert.ErrorIs(t, err, ErrInvalidAllocation)
	assert.False(t, state.IsSet(0))
	assert.Equal(t, 0, disp.fungible+disp.nonFungible)
}

func TestMerkleClaimDispatchFailureRollsBack(t *testing.T) {
	records := threeRecords()
	root, proofs := buildDistribution(t, records)
	disp := &fakeDispatcher{}
	d := NewMerkleDistributor(root, 0, claimstate.NewBitmap(), disp, ContextSenderResolver{})

	boom := errors.New("custody unavailable")
	disp.failNext = boom
	_, err := d.Claim(senderCtx(records[0].Claimant), records[0], proofs[0])
	var failed *TransferFailedError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, boom)

	// The mark was rolled back, so a retry succeeds.
	assert.False(t, d.IsClaimed(0))
	_, err = d.Claim(senderCtx(records[0].Claimant), records[0], proofs[0])
	require.NoError(t, err)
	assert.True(t, d.IsClaimed(0))
}

// reentrantDispatcher re-enters Claim from inside the transfer, the way a
// malicious recipient would during a non-fungible safe-transfer callback.
type reentrantDispatcher struct {
	d        *MerkleDistributor
	rec      types.AllocationRecord
	proof    []common.Hash
	innerErr error
	claimed  bool
}

func (r *reentrantDispatcher) TransferFungible(ctx context.Context, _, _ common.Address, _ *big.Int) error {
	return nil
}

func (r *reentrantDispatcher) TransferNonFungible(ctx context.Context, _, _ common.Address, _ *big.Int) error {
	r.claimed = r.d.IsClaimed(r.rec.Index)
	_, r.innerErr = r.d.Claim(ctx, r.rec, r.proof)
	return nil
}

func TestMerkleClaimReentrancy(t *testing.T) {
	records := []types.AllocationRecord{
		{Index: 0, Claimant: addr(1), AssetContract: tokenContract, AssetID: big.NewInt(5), Amount: big.NewInt(0)},
	}
	root, proofs := buildDistribution(t, records)
	disp := &reentrantDispatcher{rec: records[0], proof: proofs[0]}
	d := NewMerkleDistributor(root, 0, claimstate.NewBitmap(), disp, ContextSenderResolver{})
	disp.d = d

	_, err := d.Claim(senderCtx(records[0].Claimant), records[0], proofs[0])
	require.NoError(t, err)

	// The nested attempt ran against already-marked state and was refused;
	// the outer claim still completed.
	assert.True(t, disp.claimed)
	assert.ErrorIs(t, disp.innerErr, ErrReentrantCall)
	assert.True(t, d.IsClaimed(0))
}

func TestVoucherClaimLifecycle(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	claimant := crypto.PubkeyToAddress(key.PublicKey)

	domain := voucher.Domain{
		Name:              "AirdropDistributor",
		Version:           "1",
		ChainID:           1,
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000000000d1"),
	}
	vf := voucher.NewVerifier(domain)
	disp := &fakeDispatcher{}
	d := NewSignatureDistributor(vf, claimstate.NewNonceTracker(), disp)

	v := types.Voucher{
		Claimant:      claimant,
		AssetContract: tokenContract,
		AssetID:       big.NewInt(0),
		Amount:        big.NewInt(900),
		Nonce:         0,
	}
	sig, err := voucher.Sign(vf.Separator(), v, key)
	require.NoError(t, err)

	ev, err := d.Claim(context.Background(), v, sig)
	require.NoError(t, err)
	assert.Equal(t, types.ModuleSignature, ev.Module)
	assert.Equal(t, uint64(0), ev.ClaimIndex)
	assert.Equal(t, claimant, disp.lastTo)
	assert.Equal(t, uint64(1), d.CurrentNonce(claimant))

	// Replaying the identical voucher fails the nonce check.
	_, err = d.Claim(context.Background(), v, sig)
	var invalid *claimstate.InvalidNonceError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, uint64(1), invalid.Expected)
	assert.Equal(t, uint64(0), invalid.Provided)
	assert.Equal(t, 1, disp.fungible)

	// A fresh voucher at the advanced nonce succeeds.
	next := v
	next.Nonce = 1
	nextSig, err := voucher.Sign(vf.Separator(), next, key)
	require.NoError(t, err)
	_, err = d.Claim(context.Background(), next, nextSig)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), d.CurrentNonce(claimant))
}

func TestVoucherClaimRejectionsRollBackNonce(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	claimant := crypto.PubkeyToAddress(key.PublicKey)

	domain := voucher.Domain{
		Name:              "AirdropDistributor",
		Version:           "1",
		ChainID:           1,
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000000000d1"),
	}
	vf := voucher.NewVerifier(domain)
	disp := &fakeDispatcher{}
	d := NewSignatureDistributor(vf, claimstate.NewNonceTracker(), disp)

	v := types.Voucher{
		Claimant:      claimant,
		AssetContract: tokenContract,
		AssetID:       big.NewInt(0),
		Amount:        big.NewInt(10),
		Nonce:         0,
	}

	t.Run("wrong signer", func(t *testing.T) {
		sig, err := voucher.Sign(vf.Separator(), v, otherKey)
		require.NoError(t, err)
		_, err = d.Claim(context.Background(), v, sig)
		var invalidSig *voucher.InvalidSignatureError
		require.ErrorAs(t, err, &invalidSig)
		assert.Equal(t, uint64(0), d.CurrentNonce(claimant))
	})

	t.Run("zero-amount fungible", func(t *testing.T) {
		zero := v
		zero.Amount = big.NewInt(0)
		sig, err := voucher.Sign(vf.Separator(), zero, key)
		require.NoError(t, err)
		_, err = d.Claim(context.Background(), zero, sig)
		assert.ErrorIs(t, err, ErrInvalidAllocation)
		assert.Equal(t, uint64(0), d.CurrentNonce(claimant))
	})

	t.Run("dispatch failure", func(t *testing.T) {
		sig, err := voucher.Sign(vf.Separator(), v, key)
		require.NoError(t, err)
		disp.failNext = errors.New("custody unavailable")
		_, err = d.Claim(context.Background(), v, sig)
		var failed *TransferFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, uint64(0), d.CurrentNonce(claimant))

		// The same voucher is valid again after the rollback.
		_, err = d.Claim(context.Background(), v, sig)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), d.CurrentNonce(claimant))
	})
}
