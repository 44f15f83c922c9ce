package consensus

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// VerusHasher is the entry point for computing VerusHash digests. It owns
// the one-time engine initialization and is safe for concurrent use.
type VerusHasher struct {
	engine        Engine
	guard         *Initializer
	log           *logrus.Entry
	legacyReverse bool
	legacyWarn    sync.Once
}

var (
	_ Hasher             = (*VerusHasher)(nil)
	_ types.HeightHasher = (*VerusHasher)(nil)
)

// Option configures a VerusHasher.
type Option func(*VerusHasher)

// WithLogger sets the entry used for debug tracing of selections and
// computations.
func WithLogger(log *logrus.Entry) Option {
	return func(h *VerusHasher) {
		if log != nil {
			h.log = log
		}
	}
}

// WithInitializer overrides the Initializer that hashers over the same
// engine share by default.
func WithInitializer(guard *Initializer) Option {
	return func(h *VerusHasher) {
		if guard != nil {
			h.guard = guard
		}
	}
}

// WithLegacyReverse makes the reverse entry points return the digest in
// wire order, for callers that depend on the unreversed output of older
// node bindings.
func WithLegacyReverse(enabled bool) Option {
	return func(h *VerusHasher) {
		h.legacyReverse = enabled
	}
}

// NewVerusHasher returns a hasher over engine.
func NewVerusHasher(engine Engine, opts ...Option) *VerusHasher {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	h := &VerusHasher{
		engine: engine,
		log:    logrus.NewEntry(discard),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.guard == nil {
		h.guard = initializerFor(engine)
	}
	return h
}

// EngineName returns the name of the engine digests are computed with.
func (h *VerusHasher) EngineName() string {
	return h.engine.Name()
}

// Initialized reports whether the engine's global setup has run.
func (h *VerusHasher) Initialized() bool {
	return h.guard.Initialized()
}

// Compute hashes header with the given variant. Header bytes are never
// modified.
func (h *VerusHasher) Compute(variant Variant, header []byte) (types.Hash, error) {
	if !variant.Valid() {
		return types.Hash{}, errors.Wrapf(ErrUnknownVariant, "%d", variant)
	}
	if err := h.guard.EnsureInitialized(); err != nil {
		return types.Hash{}, err
	}

	var (
		digest types.Hash
		err    error
	)
	switch variant {
	case V1:
		digest = h.engine.HashV1(header)
	case V2B2:
		digest, err = h.computeStructured(header)
	default:
		digest, err = h.computeStream(variant, header)
	}
	if err != nil {
		return types.Hash{}, err
	}

	if h.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		h.log.WithFields(logrus.Fields{
			"variant": variant.String(),
			"len":     len(header),
			"digest":  digest.Hex(),
		}).Debug("computed verushash")
	}
	return digest, nil
}

func (h *VerusHasher) computeStream(variant Variant, header []byte) (types.Hash, error) {
	format, mode, _ := streamConfig(variant)
	return hashStream(h.engine, format, mode, header)
}

// computeStructured parses header as a block header and hashes its
// canonical serialization with the V2.2 solution format.
func (h *VerusHasher) computeStructured(header []byte) (types.Hash, error) {
	hdr := types.NewBlockHeader()
	if _, err := hdr.ParseFromSlice(header); err != nil {
		return types.Hash{}, errors.Wrapf(ErrDeserializationFailed, "%v", err)
	}
	serialized, err := hdr.MarshalBinary()
	if err != nil {
		return types.Hash{}, errors.Wrapf(ErrDeserializationFailed, "%v", err)
	}
	return hashStream(h.engine, SolutionVerusHashV2_2, FinalizeAlternate, serialized)
}

func hashStream(engine Engine, format SolutionFormat, mode FinalizeMode, data []byte) (types.Hash, error) {
	stream, err := engine.NewStream(format)
	if err != nil {
		return types.Hash{}, errors.Wrapf(err, "construct stream for solution format %d", format)
	}
	defer stream.Close()

	stream.Reset()
	stream.Write(data)
	if mode == FinalizeAlternate {
		return stream.Finalize2b(), nil
	}
	return stream.Finalize(), nil
}

// ComputeReverse is Compute followed by a digest byte reversal.
func (h *VerusHasher) ComputeReverse(variant Variant, header []byte) (types.Hash, error) {
	digest, err := h.Compute(variant, header)
	if err != nil {
		return types.Hash{}, err
	}
	return h.Reverse(digest), nil
}

// Reverse formats a wire-order digest the way the reverse entry points do:
// byte-reversed, or unchanged when legacy reverse is enabled.
func (h *VerusHasher) Reverse(digest types.Hash) types.Hash {
	if h.legacyReverse {
		h.legacyWarn.Do(func() {
			h.log.Warn("legacy reverse enabled: reverse entry points return wire-order digests")
		})
		return digest
	}
	return MaybeReverse(digest, true)
}

// Select returns the variant AnyHash would use for header.
func (h *VerusHasher) Select(header []byte) (Variant, error) {
	v, err := SelectVariant(header)
	if err != nil {
		return 0, err
	}
	if h.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		h.log.WithField("variant", v.String()).Debug("selected verushash variant")
	}
	return v, nil
}

// SelectAtHeight returns the variant AnyHashAtHeight would use for header.
func (h *VerusHasher) SelectAtHeight(header []byte, height int64) (Variant, error) {
	v, err := SelectVariantAtHeight(header, height)
	if err != nil {
		return 0, err
	}
	if h.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		h.log.WithFields(logrus.Fields{
			"variant": v.String(),
			"height":  height,
		}).Debug("selected verushash variant")
	}
	return v, nil
}

// HashV1 computes the VerusHash 1.0 digest.
func (h *VerusHasher) HashV1(header []byte) (types.Hash, error) { return h.Compute(V1, header) }

// HashV1Reverse computes the byte-reversed VerusHash 1.0 digest.
func (h *VerusHasher) HashV1Reverse(header []byte) (types.Hash, error) {
	return h.ComputeReverse(V1, header)
}

// HashV2 computes the VerusHash 2.0 digest.
func (h *VerusHasher) HashV2(header []byte) (types.Hash, error) { return h.Compute(V2, header) }

// HashV2Reverse computes the byte-reversed VerusHash 2.0 digest.
func (h *VerusHasher) HashV2Reverse(header []byte) (types.Hash, error) {
	return h.ComputeReverse(V2, header)
}

// HashV2B computes the VerusHash 2.0b digest.
func (h *VerusHasher) HashV2B(header []byte) (types.Hash, error) { return h.Compute(V2B, header) }

// HashV2BReverse computes the byte-reversed VerusHash 2.0b digest.
func (h *VerusHasher) HashV2BReverse(header []byte) (types.Hash, error) {
	return h.ComputeReverse(V2B, header)
}

// HashV2B1 computes the VerusHash 2.1 digest.
func (h *VerusHasher) HashV2B1(header []byte) (types.Hash, error) { return h.Compute(V2B1, header) }

// HashV2B1Reverse computes the byte-reversed VerusHash 2.1 digest.
func (h *VerusHasher) HashV2B1Reverse(header []byte) (types.Hash, error) {
	return h.ComputeReverse(V2B1, header)
}

// HashV2B2 computes the VerusHash 2.2 digest of a full serialized header.
func (h *VerusHasher) HashV2B2(header []byte) (types.Hash, error) { return h.Compute(V2B2, header) }

// HashV2B2Reverse computes the byte-reversed VerusHash 2.2 digest.
func (h *VerusHasher) HashV2B2Reverse(header []byte) (types.Hash, error) {
	return h.ComputeReverse(V2B2, header)
}

// AnyHash hashes header with the variant chosen by SelectVariant.
func (h *VerusHasher) AnyHash(header []byte) (types.Hash, error) {
	v, err := h.Select(header)
	if err != nil {
		return types.Hash{}, err
	}
	return h.Compute(v, header)
}

// AnyHashReverse is AnyHash with the digest byte-reversed.
func (h *VerusHasher) AnyHashReverse(header []byte) (types.Hash, error) {
	v, err := h.Select(header)
	if err != nil {
		return types.Hash{}, err
	}
	return h.ComputeReverse(v, header)
}

// AnyHashAtHeight hashes header with the variant chosen by
// SelectVariantAtHeight.
func (h *VerusHasher) AnyHashAtHeight(header []byte, height int64) (types.Hash, error) {
	v, err := h.SelectAtHeight(header, height)
	if err != nil {
		return types.Hash{}, err
	}
	return h.Compute(v, header)
}

// AnyHashReverseAtHeight is AnyHashAtHeight with the digest byte-reversed.
func (h *VerusHasher) AnyHashReverseAtHeight(header []byte, height int64) (types.Hash, error) {
	v, err := h.SelectAtHeight(header, height)
	if err != nil {
		return types.Hash{}, err
	}
	return h.ComputeReverse(v, header)
}

// HashInto writes the digest of header into dst, which must be 32 bytes.
// dst is left untouched on error.
func (h *VerusHasher) HashInto(dst []byte, variant Variant, header []byte, reverse bool) error {
	if len(dst) != types.HashSize {
		return errors.Wrapf(ErrInvalidDigestBuffer, "got %d", len(dst))
	}
	var (
		digest types.Hash
		err    error
	)
	if reverse {
		digest, err = h.ComputeReverse(variant, header)
	} else {
		digest, err = h.Compute(variant, header)
	}
	if err != nil {
		return err
	}
	copy(dst, digest[:])
	return nil
}

// AnyHashAtHeightInto writes the height-selected digest of header into dst,
// which must be 32 bytes. dst is left untouched on error.
func (h *VerusHasher) AnyHashAtHeightInto(dst []byte, header []byte, height int64, reverse bool) error {
	if len(dst) != types.HashSize {
		return errors.Wrapf(ErrInvalidDigestBuffer, "got %d", len(dst))
	}
	v, err := h.SelectAtHeight(header, height)
	if err != nil {
		return err
	}
	return h.HashInto(dst, v, header, reverse)
}

// Hash implements Hasher using byte-offset selection.
func (h *VerusHasher) Hash(headerBytes []byte) (types.Hash, error) {
	return h.AnyHash(headerBytes)
}

// Close releases the engine if it holds resources.
func (h *VerusHasher) Close() {
	if c, ok := h.engine.(interface{ Close() }); ok {
		c.Close()
	}
}
