package types

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// HashSize is the length of every VerusHash digest in bytes.
const HashSize = 32

// Hash is a 32-byte digest. Byte order is whatever the producing call
// returned: wire (little-endian) order unless a reverse entry point was used.
type Hash [HashSize]byte

// ZeroHash is the all-zeroes digest.
var ZeroHash Hash

// HashFromBytes creates a Hash from a byte slice. Returns error if len != 32.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return Hash{}, errors.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// HashFromHex parses a hex-encoded string into a Hash.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, errors.Wrap(err, "invalid hex")
	}
	return HashFromBytes(b)
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Hex returns the lowercase hex-encoded string.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// IsZero returns true if every byte is 0x00.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Reverse returns a copy of h with byte i swapped with byte 31-i.
func (h Hash) Reverse() Hash {
	for i := 0; i < HashSize/2; i++ {
		j := HashSize - 1 - i
		h[i], h[j] = h[j], h[i]
	}
	return h
}

// ComputeSHA256 computes SHA-256 of arbitrary data and returns it as a Hash.
func ComputeSHA256(data []byte) Hash {
	return sha256.Sum256(data)
}
