package services

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"airdrop-backend/internal/claimstate"
	"airdrop-backend/internal/distributor"
	"airdrop-backend/internal/merkle"
	"airdrop-backend/internal/models"
	"airdrop-backend/internal/types"
	"airdrop-backend/internal/voucher"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memClaimRepo is an in-memory ClaimRecordRepository for service tests.
type memClaimRepo struct {
	mu      sync.Mutex
	records []*models.ClaimRecord
}

func (m *memClaimRepo) Create(_ context.Context, record *models.ClaimRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memClaimRepo) GetByModuleAndIndex(_ context.Context, module string, index uint64) (*models.ClaimRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.Module == module && r.ClaimIndex == index {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memClaimRepo) FindByClaimant(_ context.Context, claimant string) ([]*models.ClaimRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ClaimRecord
	for _, r := range m.records {
		if r.Claimant == claimant {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memClaimRepo) ListMerkleIndexes(_ context.Context) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var indexes []uint64
	for _, r := range m.records {
		if r.Module == types.ModuleMerkle {
			indexes = append(indexes, r.ClaimIndex)
		}
	}
	return indexes, nil
}

func (m *memClaimRepo) CountSignatureByClaimant(_ context.Context) (map[string]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]uint64)
	for _, r := range m.records {
		if r.Module == types.ModuleSignature {
			counts[r.Claimant]++
		}
	}
	return counts, nil
}

type nopDispatcher struct{}

func (nopDispatcher) TransferFungible(context.Context, common.Address, common.Address, *big.Int) error {
	return nil
}

func (nopDispatcher) TransferNonFungible(context.Context, common.Address, common.Address, *big.Int) error {
	return nil
}

func testService(t *testing.T, repo *memClaimRepo) (*ClaimService, types.AllocationRecord, []common.Hash) {
	t.Helper()
	rec := types.AllocationRecord{
		Index:         0,
		Claimant:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		AssetContract: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		AssetID:       big.NewInt(0),
		Amount:        big.NewInt(100),
	}
	tree, err := merkle.NewTree([]common.Hash{merkle.LeafHash(rec)})
	require.NoError(t, err)
	proof, err := tree.Prove(0)
	require.NoError(t, err)

	bitmap := claimstate.NewBitmap()
	nonces := claimstate.NewNonceTracker()
	domain := voucher.Domain{
		Name:              "AirdropDistributor",
		Version:           "1",
		ChainID:           1,
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000000000d1"),
	}
	merkleDist := distributor.NewMerkleDistributor(tree.Root(), 0, bitmap, nopDispatcher{}, distributor.ContextSenderResolver{})
	sigDist := distributor.NewSignatureDistributor(voucher.NewVerifier(domain), nonces, nopDispatcher{})
	svc := NewClaimService(merkleDist, sigDist, bitmap, nonces, repo, nil)
	return svc, rec, proof
}

func TestClaimByProofPersistsRecord(t *testing.T) {
	repo := &memClaimRepo{}
	svc, rec, proof := testService(t, repo)
	ctx := distributor.WithSender(context.Background(), rec.Claimant)

	event, err := svc.ClaimByProof(ctx, rec, proof)
	require.NoError(t, err)
	assert.True(t, svc.IsClaimed(0))

	require.Len(t, repo.records, 1)
	row := repo.records[0]
	assert.NotEmpty(t, row.ID)
	assert.Equal(t, types.ModuleMerkle, row.Module)
	assert.Equal(t, event.ClaimIndex, row.ClaimIndex)
	assert.Equal(t, rec.Claimant.Hex(), row.Claimant)
	assert.Equal(t, "100", row.Amount)
	assert.Equal(t, "0", row.AssetID)
}

func TestClaimByProofRejectionPersistsNothing(t *testing.T) {
	repo := &memClaimRepo{}
	svc, rec, proof := testService(t, repo)

	// Wrong sender never reaches dispatch or persistence.
	ctx := distributor.WithSender(context.Background(), common.HexToAddress("0x9999999999999999999999999999999999999999"))
	_, err := svc.ClaimByProof(ctx, rec, proof)
	require.Error(t, err)
	assert.Empty(t, repo.records)
	assert.False(t, svc.IsClaimed(0))
}

func TestClaimByVoucherPersistsRecord(t *testing.T) {
	repo := &memClaimRepo{}
	svc, _, _ := testService(t, repo)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	claimant := crypto.PubkeyToAddress(key.PublicKey)
	domain := voucher.Domain{
		Name:              "AirdropDistributor",
		Version:           "1",
		ChainID:           1,
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000000000d1"),
	}
	v := types.Voucher{
		Claimant:      claimant,
		AssetContract: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		AssetID:       big.NewInt(0),
		Amount:        big.NewInt(25),
		Nonce:         0,
	}
	sig, err := voucher.Sign(domain.Separator(), v, key)
	require.NoError(t, err)

	event, err := svc.ClaimByVoucher(context.Background(), v, sig)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), event.ClaimIndex)
	assert.Equal(t, uint64(1), svc.CurrentNonce(claimant))

	require.Len(t, repo.records, 1)
	assert.Equal(t, types.ModuleSignature, repo.records[0].Module)
}

func TestRehydrateRestoresReplayState(t *testing.T) {
	claimant := common.HexToAddress("0x1111111111111111111111111111111111111111")
	repo := &memClaimRepo{records: []*models.ClaimRecord{
		{ID: "a", Module: types.ModuleMerkle, ClaimIndex: 0, Claimant: claimant.Hex()},
		{ID: "b", Module: types.ModuleMerkle, ClaimIndex: 300, Claimant: claimant.Hex()},
		{ID: "c", Module: types.ModuleSignature, ClaimIndex: 0, Claimant: claimant.Hex()},
		{ID: "d", Module: types.ModuleSignature, ClaimIndex: 1, Claimant: claimant.Hex()},
	}}
	svc, rec, proof := testService(t, repo)

	require.NoError(t, svc.Rehydrate(context.Background()))
	assert.True(t, svc.IsClaimed(0))
	assert.True(t, svc.IsClaimed(300))
	assert.False(t, svc.IsClaimed(1))
	assert.Equal(t, uint64(2), svc.CurrentNonce(claimant))

	// The rehydrated bit blocks a fresh attempt on the same allocation.
	ctx := distributor.WithSender(context.Background(), rec.Claimant)
	_, err := svc.ClaimByProof(ctx, rec, proof)
	var already *claimstate.AlreadyClaimedError
	assert.ErrorAs(t, err, &already)
}
