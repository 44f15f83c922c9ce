package consensus

import (
	"crypto/sha256"
	"hash"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// SHA256Engine implements Engine with double-SHA256. Its digests are
// deterministic but not VerusHash; it is used in tests and in builds without
// the native veruslib.
type SHA256Engine struct{}

var _ Engine = (*SHA256Engine)(nil)

// NewSHA256Engine returns a new SHA256Engine.
func NewSHA256Engine() *SHA256Engine {
	return &SHA256Engine{}
}

// Name returns EngineSHA256.
func (e *SHA256Engine) Name() string { return EngineSHA256 }

// Init is a no-op for SHA256Engine.
func (e *SHA256Engine) Init() error { return nil }

// HashV1 computes SHA256(SHA256(data)).
func (e *SHA256Engine) HashV1(data []byte) types.Hash {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// NewStream returns a stream whose digests are separated by solution
// format and finalize mode.
func (e *SHA256Engine) NewStream(format SolutionFormat) (Stream, error) {
	return &sha256Stream{format: format, h: sha256.New()}, nil
}

type sha256Stream struct {
	format SolutionFormat
	h      hash.Hash
}

func (s *sha256Stream) Reset() { s.h.Reset() }

func (s *sha256Stream) Write(data []byte) { s.h.Write(data) }

func (s *sha256Stream) Finalize() types.Hash { return s.sum(FinalizeStandard) }

func (s *sha256Stream) Finalize2b() types.Hash { return s.sum(FinalizeAlternate) }

func (s *sha256Stream) Close() {}

// sum computes SHA256(format || mode || SHA256(data)).
func (s *sha256Stream) sum(mode FinalizeMode) types.Hash {
	inner := s.h.Sum(nil)
	outer := sha256.New()
	outer.Write([]byte{byte(s.format), byte(mode)})
	outer.Write(inner)
	var out types.Hash
	copy(out[:], outer.Sum(nil))
	return out
}
