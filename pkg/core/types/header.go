package types

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
)

const (
	// serBlockHeaderMinusSolutionSize is the size of a serialized header
	// without its CompactSize-prefixed solution.
	serBlockHeaderMinusSolutionSize = 140

	// maxCompactSize bounds any CompactSize length read from the wire.
	maxCompactSize = 0x02000000
)

// HeightHasher computes height-aware VerusHash digests of serialized header
// bytes in wire order and in reversed display order.
type HeightHasher interface {
	AnyHashAtHeight(header []byte, height int64) (Hash, error)
	AnyHashReverseAtHeight(header []byte, height int64) (Hash, error)
}

// BlockHeader is a Verus block header. The layout is the Zcash one:
//
//	Version(4) || HashPrevBlock(32) || HashMerkleRoot(32) ||
//	HashFinalSaplingRoot(32) || Time(4) || NBits(4) || Nonce(32) ||
//	CompactSize(len(Solution)) || Solution
//
// All integers are little-endian.
type BlockHeader struct {
	Version              int32
	HashPrevBlock        []byte
	HashMerkleRoot       []byte
	HashFinalSaplingRoot []byte
	Time                 uint32
	NBitsBytes           []byte
	Nonce                []byte
	Solution             []byte

	cachedDisplayHash *Hash
}

// CompactLengthPrefixedLen returns the number of bytes needed to encode
// length bytes behind a CompactSize prefix.
func CompactLengthPrefixedLen(length int) int {
	switch {
	case length < 253:
		return 1 + length
	case length <= 0xffff:
		return 1 + 2 + length
	case length <= 0xffffffff:
		return 1 + 4 + length
	default:
		return 1 + 8 + length
	}
}

// WriteCompactLengthPrefixedLen writes the CompactSize encoding of length.
func WriteCompactLengthPrefixedLen(buf *bytes.Buffer, length int) {
	var tmp [8]byte
	switch {
	case length < 253:
		buf.WriteByte(byte(length))
	case length <= 0xffff:
		buf.WriteByte(253)
		binary.LittleEndian.PutUint16(tmp[:2], uint16(length))
		buf.Write(tmp[:2])
	case length <= 0xffffffff:
		buf.WriteByte(254)
		binary.LittleEndian.PutUint32(tmp[:4], uint32(length))
		buf.Write(tmp[:4])
	default:
		buf.WriteByte(255)
		binary.LittleEndian.PutUint64(tmp[:], uint64(length))
		buf.Write(tmp[:])
	}
}

// WriteCompactLengthPrefixed writes val behind its CompactSize length.
func WriteCompactLengthPrefixed(buf *bytes.Buffer, val []byte) {
	WriteCompactLengthPrefixedLen(buf, len(val))
	buf.Write(val)
}

// NewBlockHeader returns an empty header ready for ParseFromSlice.
func NewBlockHeader() *BlockHeader {
	return &BlockHeader{}
}

// GetSize returns the serialized size of the header.
func (hdr *BlockHeader) GetSize() int {
	return serBlockHeaderMinusSolutionSize + CompactLengthPrefixedLen(len(hdr.Solution))
}

// SolutionVersion returns the solution-format indicator carried in the
// first solution byte, or 0 if the solution is empty.
func (hdr *BlockHeader) SolutionVersion() byte {
	if len(hdr.Solution) == 0 {
		return 0
	}
	return hdr.Solution[0]
}

// MarshalBinary returns the canonical wire encoding of the header.
func (hdr *BlockHeader) MarshalBinary() ([]byte, error) {
	fixed := []struct {
		name string
		val  []byte
		size int
	}{
		{"HashPrevBlock", hdr.HashPrevBlock, 32},
		{"HashMerkleRoot", hdr.HashMerkleRoot, 32},
		{"HashFinalSaplingRoot", hdr.HashFinalSaplingRoot, 32},
	}
	for _, f := range fixed {
		if len(f.val) != f.size {
			return nil, errors.Errorf("%s must be %d bytes, got %d", f.name, f.size, len(f.val))
		}
	}
	if len(hdr.NBitsBytes) != 4 {
		return nil, errors.Errorf("NBitsBytes must be 4 bytes, got %d", len(hdr.NBitsBytes))
	}
	if len(hdr.Nonce) != 32 {
		return nil, errors.Errorf("Nonce must be 32 bytes, got %d", len(hdr.Nonce))
	}

	buf := bytes.NewBuffer(make([]byte, 0, hdr.GetSize()))
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(hdr.Version))
	buf.Write(tmp[:])
	buf.Write(hdr.HashPrevBlock)
	buf.Write(hdr.HashMerkleRoot)
	buf.Write(hdr.HashFinalSaplingRoot)
	binary.LittleEndian.PutUint32(tmp[:], hdr.Time)
	buf.Write(tmp[:])
	buf.Write(hdr.NBitsBytes)
	buf.Write(hdr.Nonce)
	WriteCompactLengthPrefixed(buf, hdr.Solution)
	return buf.Bytes(), nil
}

// ParseFromSlice parses the header from in and returns the bytes that
// follow it. On failure it returns in unaltered along with an error.
func (hdr *BlockHeader) ParseFromSlice(in []byte) (rest []byte, err error) {
	s := cryptobyte.String(in)
	var raw []byte

	if !s.ReadBytes(&raw, 4) {
		return in, errors.New("could not read header version")
	}
	version := int32(binary.LittleEndian.Uint32(raw))

	var prev, merkle, sapling []byte
	if !s.ReadBytes(&prev, 32) {
		return in, errors.New("could not read HashPrevBlock")
	}
	if !s.ReadBytes(&merkle, 32) {
		return in, errors.New("could not read HashMerkleRoot")
	}
	if !s.ReadBytes(&sapling, 32) {
		return in, errors.New("could not read HashFinalSaplingRoot")
	}

	if !s.ReadBytes(&raw, 4) {
		return in, errors.New("could not read timestamp")
	}
	time := binary.LittleEndian.Uint32(raw)

	var nbits, nonce []byte
	if !s.ReadBytes(&nbits, 4) {
		return in, errors.New("could not read NBits bytes")
	}
	if !s.ReadBytes(&nonce, 32) {
		return in, errors.New("could not read Nonce bytes")
	}

	n, ok := readCompactSize(&s)
	if !ok {
		return in, errors.New("could not read solution length")
	}
	var solution []byte
	if !s.ReadBytes(&solution, n) {
		return in, errors.New("could not read CompactSize-prefixed solution")
	}

	*hdr = BlockHeader{
		Version:              version,
		HashPrevBlock:        prev,
		HashMerkleRoot:       merkle,
		HashFinalSaplingRoot: sapling,
		Time:                 time,
		NBitsBytes:           nbits,
		Nonce:                nonce,
		Solution:             solution,
	}
	return []byte(s), nil
}

// readCompactSize reads a canonically encoded CompactSize bounded by
// maxCompactSize.
func readCompactSize(s *cryptobyte.String) (int, bool) {
	var tag uint8
	if !s.ReadUint8(&tag) {
		return 0, false
	}
	var raw []byte
	var length uint64
	var floor uint64
	switch tag {
	case 253:
		if !s.ReadBytes(&raw, 2) {
			return 0, false
		}
		length, floor = uint64(binary.LittleEndian.Uint16(raw)), 253
	case 254:
		if !s.ReadBytes(&raw, 4) {
			return 0, false
		}
		length, floor = uint64(binary.LittleEndian.Uint32(raw)), 0x10000
	case 255:
		if !s.ReadBytes(&raw, 8) {
			return 0, false
		}
		length, floor = binary.LittleEndian.Uint64(raw), 0x100000000
	default:
		return int(tag), true
	}
	if length < floor || length > maxCompactSize {
		return 0, false
	}
	return int(length), true
}

// DisplayPrevHash returns the previous block hash in big-endian display order.
func (hdr *BlockHeader) DisplayPrevHash() []byte {
	rhash := make([]byte, len(hdr.HashPrevBlock))
	copy(rhash, hdr.HashPrevBlock)
	for i := 0; i < len(rhash)/2; i++ {
		j := len(rhash) - 1 - i
		rhash[i], rhash[j] = rhash[j], rhash[i]
	}
	return rhash
}

// EncodableHash returns the block hash at height in little-endian wire order.
func (hdr *BlockHeader) EncodableHash(h HeightHasher, height int64) (Hash, error) {
	serialized, err := hdr.MarshalBinary()
	if err != nil {
		return Hash{}, err
	}
	return h.AnyHashAtHeight(serialized, height)
}

// DisplayHash returns the block hash at height in big-endian display order.
// The first successful result is cached on the header.
func (hdr *BlockHeader) DisplayHash(h HeightHasher, height int64) (Hash, error) {
	if hdr.cachedDisplayHash != nil {
		return *hdr.cachedDisplayHash, nil
	}
	serialized, err := hdr.MarshalBinary()
	if err != nil {
		return Hash{}, err
	}
	display, err := h.AnyHashReverseAtHeight(serialized, height)
	if err != nil {
		return Hash{}, err
	}
	hdr.cachedDisplayHash = &display
	return display, nil
}
