package distributor

import (
	"context"
	"sync/atomic"

	"airdrop-backend/internal/claimstate"
	"airdrop-backend/internal/merkle"
	"airdrop-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// MerkleDistributor authorizes claims by inclusion proof against a fixed
// commitment root. The root is set at construction and immutable for the
// life of the distributor: it is the sole source of truth for this module.
type MerkleDistributor struct {
	root          common.Hash
	maxProofDepth int
	state         *claimstate.Bitmap
	dispatcher    AssetDispatcher
	sender        SenderResolver

	// entered rejects nested re-entry while a dispatch is in flight.
	// Serialization of top-level attempts is the claim service's job.
	entered atomic.Bool
}

// NewMerkleDistributor creates a proof-based claim orchestrator. A
// non-positive maxProofDepth falls back to merkle.DefaultMaxProofDepth.
func NewMerkleDistributor(root common.Hash, maxProofDepth int, state *claimstate.Bitmap, dispatcher AssetDispatcher, sender SenderResolver) *MerkleDistributor {
	if maxProofDepth <= 0 {
		maxProofDepth = merkle.DefaultMaxProofDepth
	}
	return &MerkleDistributor{
		root:          root,
		maxProofDepth: maxProofDepth,
		state:         state,
		dispatcher:    dispatcher,
		sender:        sender,
	}
}

// Root returns the immutable commitment root.
func (d *MerkleDistributor) Root() common.Hash {
	return d.root
}

// IsClaimed reports whether the allocation at index has been claimed.
func (d *MerkleDistributor) IsClaimed(index uint64) bool {
	return d.state.IsSet(index)
}

// Claim validates an allocation record against the commitment root and,
// on success, marks it claimed, dispatches the asset and returns the claim
// event. Validation order is cheapest-first: bitmap, proof bound, sender,
// then the proof fold. The claimed mark is committed before dispatch; a
// dispatch failure rolls the mark back so the pair stays atomic.
func (d *MerkleDistributor) Claim(ctx context.Context, rec types.AllocationRecord, proof []common.Hash) (*types.ClaimEvent, error) {
	if !d.entered.CompareAndSwap(false, true) {
		return nil, ErrReentrantCall
	}
	defer d.entered.Store(false)

	if d.state.IsSet(rec.Index) {
		return nil, &claimstate.AlreadyClaimedError{Index: rec.Index}
	}
	if len(proof) > d.maxProofDepth {
		return nil, &ProofTooLongError{Length: len(proof), Max: d.maxProofDepth}
	}
	sender, err := d.sender.EffectiveSender(ctx)
	if err != nil {
		return nil, err
	}
	if sender != rec.Claimant {
		return nil, &NotClaimantError{Expected: rec.Claimant, Actual: sender}
	}

	// The leaf is always recomputed from the full record; a client-supplied
	// digest is never trusted. Tampering any field diverges the fold here.
	leaf := merkle.LeafHash(rec)
	if !merkle.VerifyProof(d.root, leaf, proof) {
		return nil, ErrInvalidProof
	}

	kind, ok := types.ClassifyAsset(rec.AssetID, rec.Amount)
	if !ok {
		return nil, ErrInvalidAllocation
	}

	// Mark before dispatch: the non-fungible path can yield control to the
	// recipient, and any re-entry must observe already-claimed state.
	if err := d.state.SetIfUnset(rec.Index); err != nil {
		return nil, err
	}
	if err := dispatch(ctx, d.dispatcher, rec.AssetContract, rec.Claimant, kind); err != nil {
		d.state.Rollback(rec.Index)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"module":   types.ModuleMerkle,
		"index":    rec.Index,
		"claimant": rec.Claimant.Hex(),
	}).Info("allocation claimed by proof")

	return &types.ClaimEvent{
		Module:        types.ModuleMerkle,
		ClaimIndex:    rec.Index,
		Claimant:      rec.Claimant,
		AssetContract: rec.AssetContract,
		AssetID:       rec.AssetID,
		Amount:        rec.Amount,
	}, nil
}
