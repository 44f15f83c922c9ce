package consensus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// streamCall records how a stream was used.
type streamCall struct {
	format SolutionFormat
	mode   FinalizeMode
	data   []byte
	closed bool
}

// recordingEngine wraps SHA256Engine and records every call, failing any
// use that happens before Init.
type recordingEngine struct {
	inner   *SHA256Engine
	initErr error
	inits   int32
	ready   atomic.Bool
	t       *testing.T
	mu      sync.Mutex
	v1Calls [][]byte
	streams []*streamCall
}

func newRecordingEngine(t *testing.T) *recordingEngine {
	return &recordingEngine{inner: NewSHA256Engine(), t: t}
}

func (e *recordingEngine) Name() string { return "recording" }

func (e *recordingEngine) Init() error {
	atomic.AddInt32(&e.inits, 1)
	if e.initErr != nil {
		return e.initErr
	}
	e.ready.Store(true)
	return nil
}

func (e *recordingEngine) checkReady() {
	if !e.ready.Load() {
		e.t.Error("engine used before Init")
	}
}

func (e *recordingEngine) HashV1(data []byte) types.Hash {
	e.checkReady()
	e.mu.Lock()
	e.v1Calls = append(e.v1Calls, append([]byte(nil), data...))
	e.mu.Unlock()
	return e.inner.HashV1(data)
}

func (e *recordingEngine) NewStream(format SolutionFormat) (Stream, error) {
	e.checkReady()
	inner, err := e.inner.NewStream(format)
	if err != nil {
		return nil, err
	}
	call := &streamCall{format: format}
	e.mu.Lock()
	e.streams = append(e.streams, call)
	e.mu.Unlock()
	return &recordingStream{inner: inner, call: call}, nil
}

func (e *recordingEngine) lastStream() *streamCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.streams) == 0 {
		return nil
	}
	return e.streams[len(e.streams)-1]
}

type recordingStream struct {
	inner Stream
	call  *streamCall
}

func (s *recordingStream) Reset() {
	s.call.data = nil
	s.inner.Reset()
}

func (s *recordingStream) Write(data []byte) {
	s.call.data = append(s.call.data, data...)
	s.inner.Write(data)
}

func (s *recordingStream) Finalize() types.Hash {
	s.call.mode = FinalizeStandard
	return s.inner.Finalize()
}

func (s *recordingStream) Finalize2b() types.Hash {
	s.call.mode = FinalizeAlternate
	return s.inner.Finalize2b()
}

func (s *recordingStream) Close() {
	s.call.closed = true
	s.inner.Close()
}
