package distributor

import (
	"context"
	"math/big"

	"airdrop-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// AssetDispatcher is the external "send asset A to address B" collaborator.
// Implementations report a binary outcome; a non-nil error means nothing
// was delivered. The non-fungible path may hand control to the receiving
// party, so callers must have committed all replay state before invoking
// it.
type AssetDispatcher interface {
	// TransferFungible moves amount units of the token at contract to the
	// recipient.
	TransferFungible(ctx context.Context, contract, to common.Address, amount *big.Int) error

	// TransferNonFungible moves ownership of the asset identified by id
	// under contract to the recipient.
	TransferNonFungible(ctx context.Context, contract, to common.Address, id *big.Int) error
}

// dispatch applies the shared dispatch policy: fungible allocations
// require a positive amount and transfer by amount, non-fungible
// allocations ignore amount and transfer ownership of the identified
// asset. Transfer failures are wrapped so callers can distinguish them
// from validation failures.
func dispatch(ctx context.Context, d AssetDispatcher, contract, to common.Address, kind types.AssetKind) error {
	var err error
	switch k := kind.(type) {
	case types.Fungible:
		err = d.TransferFungible(ctx, contract, to, k.Amount)
	case types.NonFungible:
		err = d.TransferNonFungible(ctx, contract, to, k.ID)
	}
	if err != nil {
		return &TransferFailedError{Err: err}
	}
	return nil
}
