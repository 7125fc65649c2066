package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"airdrop-backend/internal/metrics"
	"airdrop-backend/internal/models"
	"airdrop-backend/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Vault bookkeeping errors. Both surface to claim callers wrapped as a
// transfer failure.
var (
	ErrInsufficientVaultBalance = errors.New("insufficient vault balance")
	ErrAssetNotInCustody        = errors.New("asset not in vault custody")
)

// VaultService is the custody ledger behind asset dispatch. It implements
// distributor.AssetDispatcher: fungible transfers move units from the
// vault account's balance row to the claimant's inside one database
// transaction, non-fungible transfers flip the holding's owner. Either a
// transfer lands in full or the vault is untouched.
type VaultService struct {
	repo         repository.VaultRepository
	vaultAccount common.Address
}

// NewVaultService creates a vault service holding custody under vaultAccount.
func NewVaultService(repo repository.VaultRepository, vaultAccount common.Address) *VaultService {
	return &VaultService{
		repo:         repo,
		vaultAccount: vaultAccount,
	}
}

// VaultAccount returns the custody account address.
func (s *VaultService) VaultAccount() common.Address {
	return s.vaultAccount
}

// TransferFungible moves amount units of token from the vault account to
// the recipient.
func (s *VaultService) TransferFungible(ctx context.Context, contract, to common.Address, amount *big.Int) error {
	err := s.repo.Transaction(ctx, func(tx repository.VaultRepository) error {
		vaultRow, err := tx.GetBalance(ctx, contract.Hex(), s.vaultAccount.Hex())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientVaultBalance
			}
			return fmt.Errorf("load vault balance: %w", err)
		}
		vaultBalance, err := parseBalance(vaultRow.Balance)
		if err != nil {
			return err
		}
		if vaultBalance.Cmp(amount) < 0 {
			return ErrInsufficientVaultBalance
		}

		recipientRow, err := tx.GetBalance(ctx, contract.Hex(), to.Hex())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			recipientRow = &models.VaultBalance{
				Token:   contract.Hex(),
				Holder:  to.Hex(),
				Balance: "0",
			}
		} else if err != nil {
			return fmt.Errorf("load recipient balance: %w", err)
		}
		recipientBalance, err := parseBalance(recipientRow.Balance)
		if err != nil {
			return err
		}

		vaultRow.Balance = new(big.Int).Sub(vaultBalance, amount).String()
		recipientRow.Balance = new(big.Int).Add(recipientBalance, amount).String()
		if err := tx.UpsertBalance(ctx, vaultRow); err != nil {
			return fmt.Errorf("debit vault: %w", err)
		}
		if err := tx.UpsertBalance(ctx, recipientRow); err != nil {
			return fmt.Errorf("credit recipient: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.VaultDispatches.WithLabelValues("fungible", "failure").Inc()
		return err
	}
	metrics.VaultDispatches.WithLabelValues("fungible", "success").Inc()
	logrus.WithFields(logrus.Fields{
		"token":  contract.Hex(),
		"to":     to.Hex(),
		"amount": amount.String(),
	}).Debug("vault fungible transfer")
	return nil
}

// TransferNonFungible moves ownership of (token, id) from the vault
// account to the recipient.
func (s *VaultService) TransferNonFungible(ctx context.Context, contract, to common.Address, id *big.Int) error {
	rows, err := s.repo.TransferHoldingOwner(ctx, contract.Hex(), id.String(), s.vaultAccount.Hex(), to.Hex())
	if err != nil {
		metrics.VaultDispatches.WithLabelValues("non_fungible", "failure").Inc()
		return fmt.Errorf("transfer holding: %w", err)
	}
	if rows == 0 {
		metrics.VaultDispatches.WithLabelValues("non_fungible", "failure").Inc()
		return ErrAssetNotInCustody
	}
	metrics.VaultDispatches.WithLabelValues("non_fungible", "success").Inc()
	logrus.WithFields(logrus.Fields{
		"token":    contract.Hex(),
		"token_id": id.String(),
		"to":       to.Hex(),
	}).Debug("vault non-fungible transfer")
	return nil
}

// Fund credits the vault account with amount units of token. Admin-only.
func (s *VaultService) Fund(ctx context.Context, contract common.Address, amount *big.Int) error {
	return s.repo.Transaction(ctx, func(tx repository.VaultRepository) error {
		row, err := tx.GetBalance(ctx, contract.Hex(), s.vaultAccount.Hex())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = &models.VaultBalance{
				Token:   contract.Hex(),
				Holder:  s.vaultAccount.Hex(),
				Balance: "0",
			}
		} else if err != nil {
			return fmt.Errorf("load vault balance: %w", err)
		}
		current, err := parseBalance(row.Balance)
		if err != nil {
			return err
		}
		row.Balance = new(big.Int).Add(current, amount).String()
		return tx.UpsertBalance(ctx, row)
	})
}

// DepositHolding places a non-fungible asset into vault custody. Admin-only.
func (s *VaultService) DepositHolding(ctx context.Context, contract common.Address, id *big.Int) error {
	return s.repo.CreateHolding(ctx, &models.VaultHolding{
		Token:   contract.Hex(),
		TokenID: id.String(),
		Owner:   s.vaultAccount.Hex(),
	})
}

// BalanceOf returns holder's balance of token; zero when no row exists.
func (s *VaultService) BalanceOf(ctx context.Context, contract, holder common.Address) (*big.Int, error) {
	row, err := s.repo.GetBalance(ctx, contract.Hex(), holder.Hex())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return parseBalance(row.Balance)
}

// OwnerOf returns the current owner of (token, id).
func (s *VaultService) OwnerOf(ctx context.Context, contract common.Address, id *big.Int) (common.Address, error) {
	row, err := s.repo.GetHolding(ctx, contract.Hex(), id.String())
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(row.Owner), nil
}

func parseBalance(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt balance value %q", s)
	}
	return v, nil
}
