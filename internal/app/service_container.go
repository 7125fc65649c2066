package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"airdrop-backend/internal/claimstate"
	"airdrop-backend/internal/config"
	"airdrop-backend/internal/db"
	"airdrop-backend/internal/distributor"
	"airdrop-backend/internal/events"
	"airdrop-backend/internal/handlers"
	"airdrop-backend/internal/repository"
	"airdrop-backend/internal/services"
	"airdrop-backend/internal/voucher"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// ServiceContainer wires repositories, the claim engine and handlers
type ServiceContainer struct {
	// Database
	DB *gorm.DB

	// Repositories
	ClaimRecordRepo repository.ClaimRecordRepository
	VaultRepo       repository.VaultRepository

	// Claim engine
	Bitmap               *claimstate.Bitmap
	Nonces               *claimstate.NonceTracker
	VoucherVerifier      *voucher.Verifier
	MerkleDistributor    *distributor.MerkleDistributor
	SignatureDistributor *distributor.SignatureDistributor

	// Services
	VaultService *services.VaultService
	ClaimService *services.ClaimService

	// Events
	Publisher *events.Publisher

	// Handlers
	ClaimHandler *handlers.ClaimHandler
	VaultHandler *handlers.VaultHandler
}

// Global service container instance
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container once and rehydrates claim state
func InitializeContainer() (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		log.Println("🚀 Initializing Service Container...")
		cfg := config.AppConfig
		if cfg == nil {
			initErr = fmt.Errorf("configuration not loaded")
			return
		}

		c := &ServiceContainer{DB: db.DB}

		// 1. Repositories
		c.ClaimRecordRepo = repository.NewClaimRecordRepository(c.DB)
		c.VaultRepo = repository.NewVaultRepository(c.DB)

		// 2. Claim engine. Root and domain separator are fixed here and
		// never mutated afterwards.
		c.Bitmap = claimstate.NewBitmap()
		c.Nonces = claimstate.NewNonceTracker()
		c.VoucherVerifier = voucher.NewVerifier(voucher.Domain{
			Name:              cfg.Domain.Name,
			Version:           cfg.Domain.Version,
			ChainID:           cfg.Domain.ChainID,
			VerifyingContract: common.HexToAddress(cfg.Domain.VerifyingContract),
		})
		c.VaultService = services.NewVaultService(c.VaultRepo, cfg.VaultAddress())
		c.MerkleDistributor = distributor.NewMerkleDistributor(
			cfg.RootHash(),
			cfg.Distribution.MaxProofDepth,
			c.Bitmap,
			c.VaultService,
			distributor.ContextSenderResolver{},
		)
		c.SignatureDistributor = distributor.NewSignatureDistributor(
			c.VoucherVerifier,
			c.Nonces,
			c.VaultService,
		)

		// 3. Events (optional, based on config)
		if cfg.NATS.URL != "" {
			publisher, err := events.NewPublisher(
				cfg.NATS.URL,
				time.Duration(cfg.NATS.Timeout)*time.Second,
				cfg.NATS.SubjectPrefix,
			)
			if err != nil {
				log.Printf("⚠️ NATS publisher initialization failed, events disabled: %v", err)
			} else {
				c.Publisher = publisher
			}
		}

		// 4. Claim service + rehydration
		c.ClaimService = services.NewClaimService(
			c.MerkleDistributor,
			c.SignatureDistributor,
			c.Bitmap,
			c.Nonces,
			c.ClaimRecordRepo,
			c.Publisher,
		)
		if err := c.ClaimService.Rehydrate(context.Background()); err != nil {
			initErr = fmt.Errorf("failed to rehydrate claim state: %w", err)
			return
		}

		// 5. Handlers
		c.ClaimHandler = handlers.NewClaimHandler(
			c.ClaimService,
			c.VoucherVerifier.Separator(),
			cfg.Distribution.MaxProofDepth,
		)
		c.VaultHandler = handlers.NewVaultHandler(c.VaultService)

		Container = c
		log.Println("✅ Service Container initialized successfully")
	})

	return Container, initErr
}

// Cleanup releases container resources
func (c *ServiceContainer) Cleanup() {
	if c.Publisher != nil {
		c.Publisher.Close()
	}
}
