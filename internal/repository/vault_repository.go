package repository

import (
	"context"

	"airdrop-backend/internal/models"

	"gorm.io/gorm"
)

// VaultRepository defines the interface for vault custody data access
type VaultRepository interface {
	GetBalance(ctx context.Context, token, holder string) (*models.VaultBalance, error)
	UpsertBalance(ctx context.Context, balance *models.VaultBalance) error
	GetHolding(ctx context.Context, token, tokenID string) (*models.VaultHolding, error)
	CreateHolding(ctx context.Context, holding *models.VaultHolding) error

	// TransferHoldingOwner flips the owner of (token, tokenID) from one
	// holder to another; returns the number of rows changed (0 when the
	// asset is not held by from).
	TransferHoldingOwner(ctx context.Context, token, tokenID, from, to string) (int64, error)

	// Transaction runs fn inside one database transaction; the repository
	// passed to fn operates on that transaction.
	Transaction(ctx context.Context, fn func(tx VaultRepository) error) error
}

// vaultRepository implements VaultRepository
type vaultRepository struct {
	db *gorm.DB
}

// NewVaultRepository creates a new VaultRepository instance
func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepository{db: db}
}

// GetBalance retrieves the balance row for (token, holder)
func (r *vaultRepository) GetBalance(ctx context.Context, token, holder string) (*models.VaultBalance, error) {
	var balance models.VaultBalance
	err := r.db.WithContext(ctx).
		Where("token = ? AND holder = ?", token, holder).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// UpsertBalance creates or updates a balance row
func (r *vaultRepository) UpsertBalance(ctx context.Context, balance *models.VaultBalance) error {
	return r.db.WithContext(ctx).Save(balance).Error
}

// GetHolding retrieves the holding row for (token, tokenID)
func (r *vaultRepository) GetHolding(ctx context.Context, token, tokenID string) (*models.VaultHolding, error) {
	var holding models.VaultHolding
	err := r.db.WithContext(ctx).
		Where("token = ? AND token_id = ?", token, tokenID).
		First(&holding).Error
	if err != nil {
		return nil, err
	}
	return &holding, nil
}

// CreateHolding creates a holding row
func (r *vaultRepository) CreateHolding(ctx context.Context, holding *models.VaultHolding) error {
	return r.db.WithContext(ctx).Create(holding).Error
}

// TransferHoldingOwner flips the owner of (token, tokenID) guarded by the current owner
func (r *vaultRepository) TransferHoldingOwner(ctx context.Context, token, tokenID, from, to string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.VaultHolding{}).
		Where("token = ? AND token_id = ? AND owner = ?", token, tokenID, from).
		Update("owner", to)
	return result.RowsAffected, result.Error
}

// Transaction runs fn inside one gorm transaction
func (r *vaultRepository) Transaction(ctx context.Context, fn func(tx VaultRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&vaultRepository{db: tx})
	})
}
