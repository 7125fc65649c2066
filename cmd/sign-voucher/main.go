// sign-voucher produces a claim voucher signature for one claimant under
// a deployment domain. The private key must belong to the claimant; the
// verifier recovers the signer and compares it against the claimant field,
// so a signature from any other key is rejected.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"

	"airdrop-backend/internal/types"
	"airdrop-backend/internal/voucher"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func main() {
	keyHex := flag.String("key", "", "claimant private key hex (or set VOUCHER_SIGNER_KEY)")
	name := flag.String("domain-name", "AirdropDistributor", "EIP-712 domain name")
	version := flag.String("domain-version", "1", "EIP-712 domain version")
	chainID := flag.Uint64("chain-id", 1, "EIP-712 domain chain id")
	contract := flag.String("verifying-contract", "", "EIP-712 verifying contract address")
	assetContract := flag.String("asset-contract", "", "asset contract address")
	assetID := flag.String("asset-id", "0", "asset id (decimal, 0 for fungible)")
	amount := flag.String("amount", "0", "amount (decimal, ignored for non-fungible)")
	nonce := flag.Uint64("nonce", 0, "claimant's current nonce")
	flag.Parse()

	if *keyHex == "" {
		*keyHex = os.Getenv("VOUCHER_SIGNER_KEY")
	}
	if *keyHex == "" {
		log.Fatal("private key is required (-key or VOUCHER_SIGNER_KEY)")
	}
	if !common.IsHexAddress(*contract) {
		log.Fatalf("malformed verifying contract address %q", *contract)
	}
	if !common.IsHexAddress(*assetContract) {
		log.Fatalf("malformed asset contract address %q", *assetContract)
	}

	key, err := crypto.HexToECDSA(*keyHex)
	if err != nil {
		log.Fatalf("parse private key: %v", err)
	}
	claimant := crypto.PubkeyToAddress(key.PublicKey)

	id, ok := new(big.Int).SetString(*assetID, 10)
	if !ok || id.Sign() < 0 {
		log.Fatalf("malformed asset id %q", *assetID)
	}
	amt, ok := new(big.Int).SetString(*amount, 10)
	if !ok || amt.Sign() < 0 {
		log.Fatalf("malformed amount %q", *amount)
	}

	domain := voucher.Domain{
		Name:              *name,
		Version:           *version,
		ChainID:           *chainID,
		VerifyingContract: common.HexToAddress(*contract),
	}
	v := types.Voucher{
		Claimant:      claimant,
		AssetContract: common.HexToAddress(*assetContract),
		AssetID:       id,
		Amount:        amt,
		Nonce:         *nonce,
	}

	separator := domain.Separator()
	sig, err := voucher.Sign(separator, v, key)
	if err != nil {
		log.Fatalf("sign voucher: %v", err)
	}

	fmt.Printf("claimant:         %s\n", claimant.Hex())
	fmt.Printf("domain separator: %s\n", separator.Hex())
	fmt.Printf("digest:           %s\n", voucher.Digest(separator, v).Hex())
	fmt.Printf("signature:        %s\n", hexutil.Encode(sig))
}
