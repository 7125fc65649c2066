package repository

import (
	"context"

	"airdrop-backend/internal/models"

	"gorm.io/gorm"
)

// ClaimRecordRepository defines the interface for claim record data access
type ClaimRecordRepository interface {
	Create(ctx context.Context, record *models.ClaimRecord) error
	GetByModuleAndIndex(ctx context.Context, module string, index uint64) (*models.ClaimRecord, error)
	FindByClaimant(ctx context.Context, claimant string) ([]*models.ClaimRecord, error)

	// Rehydration queries (service startup)
	ListMerkleIndexes(ctx context.Context) ([]uint64, error)
	CountSignatureByClaimant(ctx context.Context) (map[string]uint64, error)
}

// claimRecordRepository implements ClaimRecordRepository
type claimRecordRepository struct {
	db *gorm.DB
}

// NewClaimRecordRepository creates a new ClaimRecordRepository instance
func NewClaimRecordRepository(db *gorm.DB) ClaimRecordRepository {
	return &claimRecordRepository{db: db}
}

// Create inserts a new claim record
func (r *claimRecordRepository) Create(ctx context.Context, record *models.ClaimRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByModuleAndIndex retrieves a claim record by module tag and claim index
func (r *claimRecordRepository) GetByModuleAndIndex(ctx context.Context, module string, index uint64) (*models.ClaimRecord, error) {
	var record models.ClaimRecord
	err := r.db.WithContext(ctx).
		Where("module = ? AND claim_index = ?", module, index).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByClaimant finds all claim records for a claimant
func (r *claimRecordRepository) FindByClaimant(ctx context.Context, claimant string) ([]*models.ClaimRecord, error) {
	var records []*models.ClaimRecord
	err := r.db.WithContext(ctx).
		Where("claimant = ?", claimant).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// ListMerkleIndexes returns the allocation indexes of all Merkle claims
func (r *claimRecordRepository) ListMerkleIndexes(ctx context.Context) ([]uint64, error) {
	var indexes []uint64
	err := r.db.WithContext(ctx).
		Model(&models.ClaimRecord{}).
		Where("module = ?", "Merkle").
		Pluck("claim_index", &indexes).Error
	return indexes, err
}

// CountSignatureByClaimant returns the number of Signature claims per claimant,
// which equals each claimant's current nonce counter
func (r *claimRecordRepository) CountSignatureByClaimant(ctx context.Context) (map[string]uint64, error) {
	type row struct {
		Claimant string
		N        uint64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ClaimRecord{}).
		Select("claimant, COUNT(*) AS n").
		Where("module = ?", "Signature").
		Group("claimant").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]uint64, len(rows))
	for _, r := range rows {
		counts[r.Claimant] = r.N
	}
	return counts, nil
}
