package distributor

import (
	"context"
	"sync/atomic"

	"airdrop-backend/internal/claimstate"
	"airdrop-backend/internal/types"
	"airdrop-backend/internal/voucher"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// SignatureDistributor authorizes claims by voucher: a payload signed by
// the claimant under the deployment's domain separator, replay-protected
// by a per-claimant nonce counter.
type SignatureDistributor struct {
	verifier   *voucher.Verifier
	nonces     *claimstate.NonceTracker
	dispatcher AssetDispatcher

	entered atomic.Bool
}

// NewSignatureDistributor creates a voucher-based claim orchestrator.
func NewSignatureDistributor(verifier *voucher.Verifier, nonces *claimstate.NonceTracker, dispatcher AssetDispatcher) *SignatureDistributor {
	return &SignatureDistributor{
		verifier:   verifier,
		nonces:     nonces,
		dispatcher: dispatcher,
	}
}

// CurrentNonce returns the claimant's next expected voucher nonce.
func (d *SignatureDistributor) CurrentNonce(identity common.Address) uint64 {
	return d.nonces.Current(identity)
}

// Claim validates a signed voucher and, on success, dispatches the asset
// to the voucher's claimant and returns the claim event with the consumed
// nonce as claim identifier. The recipient is always the signer, no matter
// who submitted the attempt.
//
// The nonce is consumed first: that single atomic read-and-increment is
// the replay guard, and running it before signature recovery also blocks
// malleated replays of an already-used nonce. Any failure after the
// consume rolls the counter back so a rejected attempt leaves no state.
func (d *SignatureDistributor) Claim(ctx context.Context, v types.Voucher, sig []byte) (*types.ClaimEvent, error) {
	if !d.entered.CompareAndSwap(false, true) {
		return nil, ErrReentrantCall
	}
	defer d.entered.Store(false)

	consumed, err := d.nonces.ConsumeExpected(v.Claimant, v.Nonce)
	if err != nil {
		return nil, err
	}
	if err := d.verifier.Verify(v, sig); err != nil {
		d.nonces.Rollback(v.Claimant)
		return nil, err
	}
	kind, ok := types.ClassifyAsset(v.AssetID, v.Amount)
	if !ok {
		d.nonces.Rollback(v.Claimant)
		return nil, ErrInvalidAllocation
	}
	if err := dispatch(ctx, d.dispatcher, v.AssetContract, v.Claimant, kind); err != nil {
		d.nonces.Rollback(v.Claimant)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"module":   types.ModuleSignature,
		"nonce":    consumed,
		"claimant": v.Claimant.Hex(),
	}).Info("allocation claimed by voucher")

	return &types.ClaimEvent{
		Module:        types.ModuleSignature,
		ClaimIndex:    consumed,
		Claimant:      v.Claimant,
		AssetContract: v.AssetContract,
		AssetID:       v.AssetID,
		Amount:        v.Amount,
	}, nil
}
