package services

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"airdrop-backend/internal/claimstate"
	"airdrop-backend/internal/distributor"
	"airdrop-backend/internal/events"
	"airdrop-backend/internal/metrics"
	"airdrop-backend/internal/models"
	"airdrop-backend/internal/repository"
	"airdrop-backend/internal/types"
	"airdrop-backend/internal/voucher"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ClaimService fronts the two claim orchestrators. It serializes claim
// attempts (one logical transaction at a time, matching the platform
// guarantee the orchestrators assume), persists emitted claim events and
// publishes them, and rehydrates replay-protection state from persisted
// records on startup.
type ClaimService struct {
	mu sync.Mutex

	merkleDist *distributor.MerkleDistributor
	sigDist    *distributor.SignatureDistributor
	bitmap     *claimstate.Bitmap
	nonces     *claimstate.NonceTracker
	repo       repository.ClaimRecordRepository
	publisher  *events.Publisher // nil when NATS is not configured
}

// NewClaimService creates the claim service.
func NewClaimService(
	merkleDist *distributor.MerkleDistributor,
	sigDist *distributor.SignatureDistributor,
	bitmap *claimstate.Bitmap,
	nonces *claimstate.NonceTracker,
	repo repository.ClaimRecordRepository,
	publisher *events.Publisher,
) *ClaimService {
	return &ClaimService{
		merkleDist: merkleDist,
		sigDist:    sigDist,
		bitmap:     bitmap,
		nonces:     nonces,
		repo:       repo,
		publisher:  publisher,
	}
}

// Rehydrate restores the claim bitmap and nonce counters from persisted
// claim records so replay protection survives restarts. Must run before
// the HTTP surface starts accepting claims.
func (s *ClaimService) Rehydrate(ctx context.Context) error {
	indexes, err := s.repo.ListMerkleIndexes(ctx)
	if err != nil {
		return err
	}
	for _, index := range indexes {
		if err := s.bitmap.SetIfUnset(index); err != nil {
			// A duplicate row would show up here; the bit is already set,
			// which is the state we want.
			logrus.WithField("index", index).Warn("duplicate merkle claim record during rehydration")
		}
	}
	counts, err := s.repo.CountSignatureByClaimant(ctx)
	if err != nil {
		return err
	}
	for claimant, nonce := range counts {
		s.nonces.Restore(common.HexToAddress(claimant), nonce)
	}
	metrics.RehydratedClaims.Set(float64(s.bitmap.Count()))
	metrics.RehydratedNonceIdentities.Set(float64(s.nonces.Size()))
	logrus.WithFields(logrus.Fields{
		"merkle_claims":    len(indexes),
		"nonce_identities": len(counts),
	}).Info("claim state rehydrated")
	return nil
}

// ClaimByProof runs one proof-based claim attempt end to end.
func (s *ClaimService) ClaimByProof(ctx context.Context, rec types.AllocationRecord, proof []common.Hash) (*types.ClaimEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	event, err := s.merkleDist.Claim(ctx, rec, proof)
	s.observe(types.ModuleMerkle, start, err)
	if err != nil {
		return nil, err
	}
	s.record(ctx, event)
	return event, nil
}

// ClaimByVoucher runs one voucher-based claim attempt end to end.
func (s *ClaimService) ClaimByVoucher(ctx context.Context, v types.Voucher, sig []byte) (*types.ClaimEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	event, err := s.sigDist.Claim(ctx, v, sig)
	s.observe(types.ModuleSignature, start, err)
	if err != nil {
		return nil, err
	}
	s.record(ctx, event)
	return event, nil
}

// IsClaimed reports whether the allocation at index has been claimed.
func (s *ClaimService) IsClaimed(index uint64) bool {
	return s.merkleDist.IsClaimed(index)
}

// CurrentNonce returns the identity's next expected voucher nonce.
func (s *ClaimService) CurrentNonce(identity common.Address) uint64 {
	return s.sigDist.CurrentNonce(identity)
}

// Root returns the immutable commitment root of the proof module.
func (s *ClaimService) Root() common.Hash {
	return s.merkleDist.Root()
}

// record persists and publishes a successful claim event. The claim itself
// is already committed; bookkeeping failures are logged, not propagated.
func (s *ClaimService) record(ctx context.Context, event *types.ClaimEvent) {
	row := &models.ClaimRecord{
		ID:            uuid.NewString(),
		Module:        event.Module,
		ClaimIndex:    event.ClaimIndex,
		Claimant:      event.Claimant.Hex(),
		AssetContract: event.AssetContract.Hex(),
		AssetID:       decimalOrZero(event.AssetID),
		Amount:        decimalOrZero(event.Amount),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"module":      event.Module,
			"claim_index": event.ClaimIndex,
		}).Error("failed to persist claim record")
	}
	if err := s.publisher.PublishClaim(event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"module":      event.Module,
			"claim_index": event.ClaimIndex,
		}).Warn("failed to publish claim event")
	}
}

func (s *ClaimService) observe(module string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		metrics.ClaimErrors.WithLabelValues(module, errorLabel(err)).Inc()
	}
	metrics.ClaimsTotal.WithLabelValues(module, outcome).Inc()
	metrics.ClaimDuration.WithLabelValues(module).Observe(time.Since(start).Seconds())
}

func decimalOrZero(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// errorLabel maps claim errors onto stable metric label values.
func errorLabel(err error) string {
	var (
		alreadyClaimed *claimstate.AlreadyClaimedError
		invalidNonce   *claimstate.InvalidNonceError
		proofTooLong   *distributor.ProofTooLongError
		notClaimant    *distributor.NotClaimantError
		transferFailed *distributor.TransferFailedError
		invalidSig     *voucher.InvalidSignatureError
	)
	switch {
	case errors.As(err, &alreadyClaimed):
		return "already_claimed"
	case errors.As(err, &invalidNonce):
		return "invalid_nonce"
	case errors.As(err, &proofTooLong):
		return "proof_too_long"
	case errors.As(err, &notClaimant):
		return "not_claimant"
	case errors.As(err, &transferFailed):
		return "transfer_failed"
	case errors.As(err, &invalidSig):
		return "invalid_signature"
	case errors.Is(err, distributor.ErrInvalidProof):
		return "invalid_proof"
	case errors.Is(err, distributor.ErrInvalidAllocation):
		return "invalid_allocation"
	case errors.Is(err, distributor.ErrReentrantCall):
		return "reentrant_call"
	case errors.Is(err, voucher.ErrMalformedSignature):
		return "malformed_signature"
	default:
		return "other"
	}
}
