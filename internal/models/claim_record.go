package models

import (
	"time"
)

// ClaimRecord is the persisted form of an emitted claim event. One row per
// successful claim; rows are never updated or deleted. For Merkle claims
// ClaimIndex is the allocation index, for Signature claims it is the
// consumed nonce.
type ClaimRecord struct {
	ID            string    `json:"id" gorm:"primaryKey"` // UUID
	Module        string    `json:"module" gorm:"not null;size:16;index:idx_module_claim_index"`
	ClaimIndex    uint64    `json:"claim_index" gorm:"not null;index:idx_module_claim_index"`
	Claimant      string    `json:"claimant" gorm:"not null;size:42;index"`
	AssetContract string    `json:"asset_contract" gorm:"not null;size:42"`
	AssetID       string    `json:"asset_id" gorm:"not null;size:78"` // decimal uint256
	Amount        string    `json:"amount" gorm:"not null;size:78"`   // decimal uint256
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name
func (ClaimRecord) TableName() string {
	return "claim_records"
}
