//go:build cgo && verushash

package consensus

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chronodrachma/verushash/pkg/core/consensus/verus"
	"github.com/chronodrachma/verushash/pkg/core/types"
)

// NativeEngineAvailable reports whether this build links veruslib.
const NativeEngineAvailable = true

// NewEngine returns the Engine named by kind ("auto", "native" or "sha256").
// With the 'verushash' build tag, "auto" selects the native engine.
func NewEngine(kind string, log *logrus.Entry) (Engine, error) {
	switch kind {
	case EngineAuto, "", EngineNative:
		log.Debug("using native veruslib engine")
		return nativeEngine{}, nil
	case EngineSHA256:
		log.Warn("using SHA256 engine (digests are not consensus-valid)")
		return NewSHA256Engine(), nil
	}
	return nil, errors.Errorf("unknown engine %q", kind)
}

// nativeEngine adapts the veruslib binding to Engine.
type nativeEngine struct{}

func (nativeEngine) Name() string { return "veruslib" }

func (nativeEngine) Init() error { return verus.Init() }

func (nativeEngine) HashV1(data []byte) types.Hash { return verus.HashV1(data) }

func (nativeEngine) NewStream(format SolutionFormat) (Stream, error) {
	h, err := verus.NewHasherV2(int(format))
	if err != nil {
		return nil, err
	}
	return h, nil
}
