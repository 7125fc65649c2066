// Package voucher implements the signed-authorization side of the
// distribution: EIP-712 style domain separation, the claim struct digest,
// signing, and signer recovery.
package voucher

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"airdrop-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrMalformedSignature is returned for signatures that are not 65 bytes
// or whose components fall outside the valid secp256k1 ranges.
var ErrMalformedSignature = errors.New("voucher: malformed signature")

// InvalidSignatureError reports a recovered signer that does not match the
// voucher's declared claimant.
type InvalidSignatureError struct {
	Expected  common.Address
	Recovered common.Address
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalid signature: expected signer %s, recovered %s",
		e.Expected.Hex(), e.Recovered.Hex())
}

// Domain binds signed vouchers to one specific deployment. A voucher
// signed for one (name, version, chain, contract) tuple can never be
// replayed against another.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract common.Address
}

var (
	domainTypeHash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	claimTypeHash = crypto.Keccak256Hash(
		[]byte("Claim(address claimant,address assetContract,uint256 assetId,uint256 amount,uint256 nonce)"))
)

// Separator computes the fixed domain separator digest. It is established
// once at construction and never changes for the life of the deployment.
func (d Domain) Separator() common.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256(b(d.Name)),
		crypto.Keccak256(b(d.Version)),
		common.LeftPadBytes(new(big.Int).SetUint64(d.ChainID).Bytes(), 32),
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
}

// StructHash hashes the type tag bound to the voucher's encoded fields,
// every field a fixed 32-byte slot.
func StructHash(v types.Voucher) common.Hash {
	return crypto.Keccak256Hash(
		claimTypeHash.Bytes(),
		common.LeftPadBytes(v.Claimant.Bytes(), 32),
		common.LeftPadBytes(v.AssetContract.Bytes(), 32),
		common.LeftPadBytes(bigBytes(v.AssetID), 32),
		common.LeftPadBytes(bigBytes(v.Amount), 32),
		common.LeftPadBytes(new(big.Int).SetUint64(v.Nonce).Bytes(), 32),
	)
}

// Digest combines the struct hash with the domain separator under the
// standard "\x19\x01" framing prefix. This is the message actually signed.
func Digest(separator common.Hash, v types.Voucher) common.Hash {
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, separator.Bytes(), StructHash(v).Bytes())
}

// Verifier checks voucher signatures against one fixed domain separator.
type Verifier struct {
	separator common.Hash
}

// NewVerifier creates a verifier bound to the given deployment domain.
func NewVerifier(d Domain) *Verifier {
	return &Verifier{separator: d.Separator()}
}

// Separator returns the verifier's fixed domain separator.
func (vf *Verifier) Separator() common.Hash {
	return vf.separator
}

// Verify recovers the signer of the voucher digest and compares it against
// the voucher's declared claimant. The comparison is always against the
// claimant field of the payload, never the transaction submitter: a
// relayer may submit any voucher, the asset still lands with the signer.
func (vf *Verifier) Verify(v types.Voucher, sig []byte) error {
	recovered, err := RecoverSigner(Digest(vf.separator, v), sig)
	if err != nil {
		return err
	}
	if recovered != v.Claimant {
		return &InvalidSignatureError{Expected: v.Claimant, Recovered: recovered}
	}
	return nil
}

// RecoverSigner recovers the signing address from a 65-byte R || S || V
// signature over digest. V may be raw (0/1) or the Ethereum legacy 27/28
// encoding. Malleable upper-half S values are rejected.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, ErrMalformedSignature
	}
	norm := make([]byte, 65)
	copy(norm, sig)
	if norm[64] >= 27 {
		norm[64] -= 27
	}
	r := new(big.Int).SetBytes(norm[:32])
	s := new(big.Int).SetBytes(norm[32:64])
	if norm[64] > 1 || !crypto.ValidateSignatureValues(norm[64], r, s, true) {
		return common.Address{}, ErrMalformedSignature
	}
	pub, err := crypto.SigToPub(digest.Bytes(), norm)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Sign produces a 65-byte signature over the voucher digest for the given
// domain separator, with V in the Ethereum 27/28 encoding. This is the
// signing contract consumed by the voucher issuer tooling and tests.
func Sign(separator common.Hash, v types.Voucher, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(Digest(separator, v).Bytes(), key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func b(s string) []byte { return []byte(s) }

func bigBytes(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}
