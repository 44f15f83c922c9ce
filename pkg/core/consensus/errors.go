package consensus

import "github.com/pkg/errors"

var (
	ErrInitializationFailed  = errors.New("verushash engine initialization failed")
	ErrMalformedHeader       = errors.New("header too short for variant selection")
	ErrDeserializationFailed = errors.New("block header deserialization failed")
	ErrUnknownVariant        = errors.New("unknown verushash variant")
	ErrInvalidDigestBuffer   = errors.New("digest buffer must be 32 bytes")
	ErrEngineUnavailable     = errors.New("verushash engine not available in this build")
	ErrInsufficientWork      = errors.New("block hash does not meet nBits target")
	ErrInvalidTarget         = errors.New("nBits target is not positive")
)
