package distribution

import (
	"math/big"
)

// Document is the JSON wire form of a generated distribution, consumed by
// claim front ends and by the service operator when configuring the root.
type Document struct {
	Root   string                   `json:"root"`
	Claims map[string]DocumentClaim `json:"claims"`
}

// DocumentClaim is one claimant's entry in the document.
type DocumentClaim struct {
	Index         uint64   `json:"index"`
	AssetContract string   `json:"asset_contract"`
	AssetID       string   `json:"asset_id"`
	Amount        string   `json:"amount"`
	Proof         []string `json:"proof"`
}

// Document converts the distribution into its JSON wire form, hashes and
// addresses hex-encoded, integers decimal.
func (d *Distribution) Document() *Document {
	doc := &Document{
		Root:   d.Root.Hex(),
		Claims: make(map[string]DocumentClaim, len(d.Claims)),
	}
	for claimant, entry := range d.Claims {
		proof := make([]string, len(entry.Proof))
		for i, sib := range entry.Proof {
			proof[i] = sib.Hex()
		}
		doc.Claims[claimant.Hex()] = DocumentClaim{
			Index:         entry.Index,
			AssetContract: entry.AssetContract.Hex(),
			AssetID:       decimal(entry.AssetID),
			Amount:        decimal(entry.Amount),
			Proof:         proof,
		}
	}
	return doc
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
