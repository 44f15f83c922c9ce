//go:build !cgo || !verushash

package consensus

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NativeEngineAvailable reports whether this build links veruslib.
const NativeEngineAvailable = false

// NewEngine returns the Engine named by kind ("auto", "native" or "sha256").
// Without the 'verushash' build tag, "auto" falls back to SHA256Engine.
func NewEngine(kind string, log *logrus.Entry) (Engine, error) {
	switch kind {
	case EngineAuto, "":
		log.Warn("verushash build tag not found. Using SHA256 engine (digests are not consensus-valid).")
		log.Warn("To enable VerusHash, build with: go build -tags verushash")
		return NewSHA256Engine(), nil
	case EngineSHA256:
		return NewSHA256Engine(), nil
	case EngineNative:
		return nil, errors.Wrap(ErrEngineUnavailable, "rebuild with -tags verushash")
	}
	return nil, errors.Errorf("unknown engine %q", kind)
}
