package models

import (
	"time"
)

// VaultBalance is one holder's balance of one fungible token inside the
// custody vault. Balances are decimal uint256 strings; arithmetic happens
// in the vault service, never in SQL.
type VaultBalance struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"not null;size:42;uniqueIndex:idx_token_holder"`
	Holder    string    `json:"holder" gorm:"not null;size:42;uniqueIndex:idx_token_holder"`
	Balance   string    `json:"balance" gorm:"not null;size:78;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (VaultBalance) TableName() string {
	return "vault_balances"
}

// VaultHolding is the ownership row of one non-fungible asset held in
// custody. Dispatch flips Owner from the vault account to the claimant.
type VaultHolding struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"not null;size:42;uniqueIndex:idx_token_token_id"`
	TokenID   string    `json:"token_id" gorm:"not null;size:78;uniqueIndex:idx_token_token_id"` // decimal uint256
	Owner     string    `json:"owner" gorm:"not null;size:42;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (VaultHolding) TableName() string {
	return "vault_holdings"
}
