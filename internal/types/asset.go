package types

import "math/big"

// AssetKind is the tagged union over the two dispatch paths. Deriving it
// through ClassifyAsset keeps the fungible/non-fungible distinction
// exhaustive instead of scattering assetId == 0 sentinel checks.
type AssetKind interface {
	isAssetKind()
}

// Fungible is an amount-denominated allocation (assetId == 0).
type Fungible struct {
	Amount *big.Int
}

// NonFungible is a single asset identified by ID (assetId != 0).
type NonFungible struct {
	ID *big.Int
}

func (Fungible) isAssetKind()    {}
func (NonFungible) isAssetKind() {}

// ClassifyAsset maps raw (assetId, amount) fields onto the asset union.
// A zero assetId with a zero amount is an invalid allocation and returns
// ok == false; it must never reach dispatch.
func ClassifyAsset(assetID, amount *big.Int) (kind AssetKind, ok bool) {
	if assetID == nil || assetID.Sign() == 0 {
		if amount == nil || amount.Sign() == 0 {
			return nil, false
		}
		return Fungible{Amount: amount}, true
	}
	return NonFungible{ID: assetID}, true
}
