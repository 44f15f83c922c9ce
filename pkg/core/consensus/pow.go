package consensus

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// Hasher computes Proof-of-Work hashes of serialized header bytes.
// Implementations include VerusHasher and the caching wrapper in hashcache.
type Hasher interface {
	// Hash computes the PoW hash of the given block header bytes.
	Hash(headerBytes []byte) (types.Hash, error)

	// Close releases any resources held by the hasher.
	Close()
}

// CompactToTarget expands 4 nBits bytes, as stored in a header, into the
// target they encode. The first byte is the size in bytes of the target and
// the next three its most significant bytes. A set sign bit yields a negative
// target, as in the Bitcoin Core test vectors.
func CompactToTarget(nbits []byte) *big.Int {
	if len(nbits) == 0 {
		return new(big.Int)
	}
	byteLen := int(nbits[0])

	targetBytes := make([]byte, byteLen)
	copy(targetBytes, nbits[1:])

	if len(nbits) > 1 && nbits[1]&0x80 != 0 && byteLen > 0 {
		targetBytes[0] &= 0x7F
		target := new(big.Int).SetBytes(targetBytes)
		return target.Neg(target)
	}
	return new(big.Int).SetBytes(targetBytes)
}

// HashToBig interprets a wire-order digest as a little-endian 256-bit number.
func HashToBig(h types.Hash) *big.Int {
	be := h.Reverse()
	return new(big.Int).SetBytes(be[:])
}

// MeetsTarget reports whether a wire-order PoW hash is at or below target.
func MeetsTarget(powHash types.Hash, target *big.Int) bool {
	if target.Sign() <= 0 {
		return false
	}
	return HashToBig(powHash).Cmp(target) <= 0
}

// HeaderHasher is the subset of VerusHasher needed to check a header.
type HeaderHasher interface {
	AnyHashAtHeight(header []byte, height int64) (types.Hash, error)
}

// CheckProofOfWork hashes hdr at height and checks the digest against the
// target encoded in its nBits. It returns the wire-order digest.
func CheckProofOfWork(hdr *types.BlockHeader, height int64, hasher HeaderHasher) (types.Hash, error) {
	target := CompactToTarget(hdr.NBitsBytes)
	if target.Sign() <= 0 {
		return types.Hash{}, errors.Wrapf(ErrInvalidTarget, "nbits %x", hdr.NBitsBytes)
	}

	serialized, err := hdr.MarshalBinary()
	if err != nil {
		return types.Hash{}, err
	}
	powHash, err := hasher.AnyHashAtHeight(serialized, height)
	if err != nil {
		return types.Hash{}, err
	}
	if !MeetsTarget(powHash, target) {
		return powHash, errors.Wrapf(ErrInsufficientWork, "hash %s at height %d", powHash.Reverse().Hex(), height)
	}
	return powHash, nil
}
