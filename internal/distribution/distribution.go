// Package distribution builds the offline side of a drop: it ingests a
// validated allocation list and produces the commitment root plus one
// proof bundle per claimant, bit-exact with the online verifier.
package distribution

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strings"

	"airdrop-backend/internal/merkle"
	"airdrop-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// AllocationInput is one row of the ingested allocation list, before an
// index is assigned.
type AllocationInput struct {
	Claimant      common.Address
	AssetContract common.Address
	AssetID       *big.Int
	Amount        *big.Int
}

// ClaimEntry is the proof bundle handed to one claimant.
type ClaimEntry struct {
	Index         uint64
	AssetContract common.Address
	AssetID       *big.Int
	Amount        *big.Int
	Proof         []common.Hash
}

// Distribution is the full generator output: the commitment root and the
// per-claimant claim entries.
type Distribution struct {
	Root   common.Hash
	Claims map[common.Address]ClaimEntry
}

// ParseCSV reads allocation rows of the form
// claimant,assetContract,assetId,amount (one per line, optional header).
// Claimant and asset-contract fields must be well-formed addresses,
// assetId and amount non-negative integers, and claimants unique within
// one distribution. Indexes are assigned by input order, zero-based.
func ParseCSV(r io.Reader) ([]AllocationInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	var inputs []AllocationInput
	seen := make(map[common.Address]int)
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read allocation row: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(row[0], "claimant") {
			// Header row.
			continue
		}
		in, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if prev, dup := seen[in.Claimant]; dup {
			return nil, fmt.Errorf("line %d: duplicate claimant %s (first at line %d)", line, in.Claimant.Hex(), prev)
		}
		seen[in.Claimant] = line
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("allocation list is empty")
	}
	return inputs, nil
}

func parseRow(row []string) (AllocationInput, error) {
	var in AllocationInput
	if !common.IsHexAddress(row[0]) {
		return in, fmt.Errorf("malformed claimant address %q", row[0])
	}
	if !common.IsHexAddress(row[1]) {
		return in, fmt.Errorf("malformed asset contract address %q", row[1])
	}
	assetID, err := parseUint256(row[2])
	if err != nil {
		return in, fmt.Errorf("assetId: %w", err)
	}
	amount, err := parseUint256(row[3])
	if err != nil {
		return in, fmt.Errorf("amount: %w", err)
	}
	in.Claimant = common.HexToAddress(row[0])
	in.AssetContract = common.HexToAddress(row[1])
	in.AssetID = assetID
	in.Amount = amount
	return in, nil
}

func parseUint256(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value: %q", s)
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("value exceeds 256 bits: %q", s)
	}
	return v, nil
}

// Build assigns indexes in input order, hashes every record with the
// canonical leaf scheme, builds the sorted-pair tree and collects one
// proof per claimant.
func Build(inputs []AllocationInput) (*Distribution, error) {
	leaves := make([]common.Hash, len(inputs))
	for i, in := range inputs {
		leaves[i] = merkle.LeafHash(types.AllocationRecord{
			Index:         uint64(i),
			Claimant:      in.Claimant,
			AssetContract: in.AssetContract,
			AssetID:       in.AssetID,
			Amount:        in.Amount,
		})
	}
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return nil, err
	}

	claims := make(map[common.Address]ClaimEntry, len(inputs))
	for i, in := range inputs {
		proof, err := tree.Prove(i)
		if err != nil {
			return nil, err
		}
		claims[in.Claimant] = ClaimEntry{
			Index:         uint64(i),
			AssetContract: in.AssetContract,
			AssetID:       in.AssetID,
			Amount:        in.Amount,
			Proof:         proof,
		}
	}
	return &Distribution{Root: tree.Root(), Claims: claims}, nil
}
