package consensus

import "github.com/chronodrachma/verushash/pkg/core/types"

// Engine is the external VerusHash primitive. Implementations include the
// native veruslib binding (build tag verushash) and SHA256Engine
// (testing, pure Go).
type Engine interface {
	// Name identifies the primitive. Digests from engines with different
	// names are not interchangeable.
	Name() string

	// Init builds the global tables the primitive needs. It is called at
	// most once per successful initialization by the Initializer that all
	// hashers over the engine share.
	Init() error

	// HashV1 computes the single-shot VerusHash 1.0 digest of data.
	HashV1(data []byte) types.Hash

	// NewStream constructs a VerusHash 2.x hasher for the given solution
	// format.
	NewStream(format SolutionFormat) (Stream, error)
}

// Stream is a VerusHash 2.x hasher owned by a single call.
type Stream interface {
	Reset()
	Write(data []byte)

	// Finalize derives the digest with the standard V2 rules.
	Finalize() types.Hash

	// Finalize2b derives the digest with the alternate 2b rules.
	Finalize2b() types.Hash

	// Close releases any resources held by the stream.
	Close()
}
