package consensus

import (
	"bytes"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

func filled(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

// testBlockHeader returns a structurally valid header. Version 0x00010004
// serializes as 04 00 01 00, so byte 2 carries solution format 1.
func testBlockHeader(version int32) *types.BlockHeader {
	return &types.BlockHeader{
		Version:              version,
		HashPrevBlock:        filled(32, 0x11),
		HashMerkleRoot:       filled(32, 0x22),
		HashFinalSaplingRoot: filled(32, 0x33),
		Time:                 1_600_000_000,
		NBitsBytes:           []byte{0x1f, 0x00, 0xff, 0xff},
		Nonce:                filled(32, 0x44),
		Solution:             append([]byte{0x04}, filled(71, 0x55)...),
	}
}

func mustMarshal(t *testing.T, hdr *types.BlockHeader) []byte {
	t.Helper()
	b, err := hdr.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	return b
}

func TestVerusHasher_ZeroHeaderV1(t *testing.T) {
	engine := newRecordingEngine(t)
	h := NewVerusHasher(engine)
	header := make([]byte, 32)

	v, err := h.Select(header)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if v != V1 {
		t.Fatalf("selected %s, want v1", v)
	}

	digest, err := h.AnyHash(header)
	if err != nil {
		t.Fatalf("AnyHash: %v", err)
	}
	if want := engine.inner.HashV1(header); digest != want {
		t.Fatalf("AnyHash = %s, want V1 digest %s", digest, want)
	}

	reversed, err := h.AnyHashReverse(header)
	if err != nil {
		t.Fatalf("AnyHashReverse: %v", err)
	}
	if reversed != digest.Reverse() {
		t.Fatalf("AnyHashReverse = %s, want %s", reversed, digest.Reverse())
	}
	if reversed.Reverse() != digest {
		t.Fatal("reversing the reversed digest should reproduce the original")
	}
}

func TestVerusHasher_StreamRouting(t *testing.T) {
	tests := []struct {
		variant Variant
		format  SolutionFormat
		mode    FinalizeMode
	}{
		{V2, SolutionVerusHashV2, FinalizeStandard},
		{V2B, SolutionVerusHashV2, FinalizeAlternate},
		{V2B1, SolutionVerusHashV2_1, FinalizeAlternate},
	}

	header := selectorHeader(4, 1)
	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			engine := newRecordingEngine(t)
			h := NewVerusHasher(engine)

			if _, err := h.Compute(tt.variant, header); err != nil {
				t.Fatalf("Compute: %v", err)
			}
			call := engine.lastStream()
			if call == nil {
				t.Fatal("no stream constructed")
			}
			if call.format != tt.format {
				t.Errorf("solution format = %d, want %d", call.format, tt.format)
			}
			if call.mode != tt.mode {
				t.Errorf("finalize mode = %d, want %d", call.mode, tt.mode)
			}
			if !bytes.Equal(call.data, header) {
				t.Error("stream did not receive the full header")
			}
			if !call.closed {
				t.Error("stream was not closed")
			}
			if len(engine.v1Calls) != 0 {
				t.Error("stream variant should not call HashV1")
			}
		})
	}
}

func TestVerusHasher_VariantsDiffer(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine())
	header := mustMarshal(t, testBlockHeader(0x00010004))

	seen := make(map[types.Hash]Variant)
	for _, v := range Variants {
		d, err := h.Compute(v, header)
		if err != nil {
			t.Fatalf("Compute(%s): %v", v, err)
		}
		if prev, ok := seen[d]; ok {
			t.Fatalf("%s and %s produced the same digest", prev, v)
		}
		seen[d] = v
	}
}

func TestVerusHasher_V2B2Structured(t *testing.T) {
	engine := newRecordingEngine(t)
	h := NewVerusHasher(engine)
	header := mustMarshal(t, testBlockHeader(0x00010004))

	digest, err := h.HashV2B2(header)
	if err != nil {
		t.Fatalf("HashV2B2: %v", err)
	}
	call := engine.lastStream()
	if call == nil || call.format != SolutionVerusHashV2_2 || call.mode != FinalizeAlternate {
		t.Fatalf("V2B2 stream = %+v, want format %d alternate finalize", call, SolutionVerusHashV2_2)
	}
	if !bytes.Equal(call.data, header) {
		t.Error("V2B2 should hash the canonical serialization")
	}
	if !h.Initialized() {
		t.Error("V2B2 path must initialize the engine")
	}

	reversed, err := h.HashV2B2Reverse(header)
	if err != nil {
		t.Fatalf("HashV2B2Reverse: %v", err)
	}
	if reversed != digest.Reverse() {
		t.Error("HashV2B2Reverse should reverse the V2B2 digest")
	}
}

func TestVerusHasher_V2B2DeserializationFailure(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine())
	truncated := mustMarshal(t, testBlockHeader(0x00010004))[:100]

	if _, err := h.HashV2B2(truncated); !errors.Is(err, ErrDeserializationFailed) {
		t.Fatalf("HashV2B2 error = %v, want ErrDeserializationFailed", err)
	}

	dst := filled(32, 0xAB)
	err := h.HashInto(dst, V2B2, truncated, false)
	if !errors.Is(err, ErrDeserializationFailed) {
		t.Fatalf("HashInto error = %v, want ErrDeserializationFailed", err)
	}
	if !bytes.Equal(dst, filled(32, 0xAB)) {
		t.Fatal("output buffer must be untouched on failure")
	}
}

func TestVerusHasher_HeightThresholdFlip(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine())
	header := selectorHeader(4, 2)

	noHeight, err := h.AnyHash(header)
	if err != nil {
		t.Fatalf("AnyHash: %v", err)
	}
	v2b, _ := h.HashV2B(header)
	if noHeight != v2b {
		t.Fatal("AnyHash without height should use V2B")
	}

	atHeight, err := h.AnyHashAtHeight(header, 900_000)
	if err != nil {
		t.Fatalf("AnyHashAtHeight: %v", err)
	}
	v2b1, _ := h.HashV2B1(header)
	if atHeight != v2b1 {
		t.Fatal("AnyHashAtHeight(900000) should use V2B1")
	}

	rev, err := h.AnyHashReverseAtHeight(header, 900_000)
	if err != nil {
		t.Fatalf("AnyHashReverseAtHeight: %v", err)
	}
	if rev != v2b1.Reverse() {
		t.Fatal("AnyHashReverseAtHeight should reverse the V2B1 digest")
	}
}

func TestVerusHasher_ReverseEntryPoints(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine())
	header := selectorHeader(4, 1)

	pairs := []struct {
		name    string
		plain   func([]byte) (types.Hash, error)
		reverse func([]byte) (types.Hash, error)
	}{
		{"v1", h.HashV1, h.HashV1Reverse},
		{"v2", h.HashV2, h.HashV2Reverse},
		{"v2b", h.HashV2B, h.HashV2BReverse},
		{"v2b1", h.HashV2B1, h.HashV2B1Reverse},
		{"any", h.AnyHash, h.AnyHashReverse},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			d, err := p.plain(header)
			if err != nil {
				t.Fatalf("plain: %v", err)
			}
			r, err := p.reverse(header)
			if err != nil {
				t.Fatalf("reverse: %v", err)
			}
			if r != d.Reverse() {
				t.Errorf("reverse = %s, want %s", r, d.Reverse())
			}
		})
	}
}

func TestVerusHasher_LegacyReverse(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine(), WithLegacyReverse(true))
	header := selectorHeader(4, 1)

	d, err := h.HashV2B(header)
	if err != nil {
		t.Fatalf("HashV2B: %v", err)
	}
	r, err := h.HashV2BReverse(header)
	if err != nil {
		t.Fatalf("HashV2BReverse: %v", err)
	}
	if r != d {
		t.Fatal("legacy reverse should return the wire-order digest")
	}
}

func TestVerusHasher_MalformedHeader(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine())
	short := []byte{4, 0}

	if _, err := h.AnyHash(short); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("AnyHash error = %v, want ErrMalformedHeader", err)
	}
	if _, err := h.AnyHashReverseAtHeight(short, 1); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("AnyHashReverseAtHeight error = %v, want ErrMalformedHeader", err)
	}
	dst := make([]byte, 32)
	if err := h.AnyHashAtHeightInto(dst, short, 1, false); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("AnyHashAtHeightInto error = %v, want ErrMalformedHeader", err)
	}
	if !bytes.Equal(dst, make([]byte, 32)) {
		t.Error("output buffer must be untouched on failure")
	}
}

func TestVerusHasher_HashInto(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine())
	header := selectorHeader(4, 3)

	if err := h.HashInto(make([]byte, 31), V1, header, false); !errors.Is(err, ErrInvalidDigestBuffer) {
		t.Fatalf("short buffer error = %v, want ErrInvalidDigestBuffer", err)
	}

	dst := make([]byte, 32)
	if err := h.AnyHashAtHeightInto(dst, header, 10, true); err != nil {
		t.Fatalf("AnyHashAtHeightInto: %v", err)
	}
	want, _ := h.HashV2B1Reverse(header)
	if !bytes.Equal(dst, want[:]) {
		t.Fatalf("dst = %x, want %x", dst, want)
	}
}

func TestVerusHasher_UnknownVariant(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine())
	if _, err := h.Compute(Variant(42), []byte{1, 2, 3}); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("error = %v, want ErrUnknownVariant", err)
	}
	if h.Initialized() {
		t.Error("rejected variant should not initialize the engine")
	}
}

func TestVerusHasher_InitializationFailed(t *testing.T) {
	engine := newRecordingEngine(t)
	engine.initErr = errors.New("no AES-NI")
	h := NewVerusHasher(engine)

	for _, v := range Variants {
		if _, err := h.Compute(v, selectorHeader(4, 1)); !errors.Is(err, ErrInitializationFailed) {
			t.Fatalf("Compute(%s) error = %v, want ErrInitializationFailed", v, err)
		}
	}
	if h.Initialized() {
		t.Fatal("failed init must not mark initialized")
	}
	if engine.inits != int32(len(Variants)) {
		t.Fatalf("init attempted %d times, want %d", engine.inits, len(Variants))
	}

	engine.initErr = nil
	if _, err := h.HashV1(selectorHeader(1, 0)); err != nil {
		t.Fatalf("HashV1 after recovery: %v", err)
	}
}

func TestVerusHasher_ConcurrentFirstUse(t *testing.T) {
	engine := newRecordingEngine(t)
	h := NewVerusHasher(engine)
	header := selectorHeader(4, 2)
	want, err := NewVerusHasher(NewSHA256Engine()).AnyHashAtHeight(header, 900_000)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}

	const n = 32
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]types.Hash, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = h.AnyHashAtHeight(header, 900_000)
		}(i)
	}
	close(start)
	wg.Wait()

	if engine.inits != 1 {
		t.Fatalf("engine Init ran %d times, want 1", engine.inits)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if results[i] != want {
			t.Fatalf("call %d digest %s, want %s", i, results[i], want)
		}
	}
}

func TestVerusHasher_SharedInitializer(t *testing.T) {
	engine := newRecordingEngine(t)
	guard := NewInitializer(engine.Init)
	a := NewVerusHasher(engine, WithInitializer(guard))
	b := NewVerusHasher(engine, WithInitializer(guard))

	if _, err := a.HashV1([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.HashV1([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if engine.inits != 1 {
		t.Fatalf("Init ran %d times, want 1", engine.inits)
	}
}

func TestVerusHasher_HashersOverOneEngineShareSetup(t *testing.T) {
	engine := newRecordingEngine(t)

	const n = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = NewVerusHasher(engine).HashV1([]byte("abc"))
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("hasher %d: %v", i, err)
		}
	}
	if engine.inits != 1 {
		t.Fatalf("Init ran %d times for %d hashers over one engine, want 1", engine.inits, n)
	}
	if !NewVerusHasher(engine).Initialized() {
		t.Error("a new hasher over an initialized engine should report it initialized")
	}
	if NewVerusHasher(newRecordingEngine(t)).Initialized() {
		t.Error("a different engine must not share the setup state")
	}
}

func TestVerusHasher_DebugLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	logger.SetLevel(logrus.InfoLevel)
	h := NewVerusHasher(NewSHA256Engine(), WithLogger(logrus.NewEntry(logger)))
	if _, err := h.AnyHash(selectorHeader(4, 1)); err != nil {
		t.Fatal(err)
	}
	if n := len(hook.AllEntries()); n != 0 {
		t.Fatalf("logged %d entries at info level, want 0", n)
	}

	logger.SetLevel(logrus.DebugLevel)
	digest, err := h.AnyHash(selectorHeader(4, 1))
	if err != nil {
		t.Fatal(err)
	}
	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries at debug level, want 2", len(entries))
	}
	last := hook.LastEntry()
	if last.Message != "computed verushash" || last.Data["variant"] != "v2b" || last.Data["digest"] != digest.Hex() {
		t.Errorf("unexpected compute entry: %q %v", last.Message, last.Data)
	}
}

func TestVerusHasher_DoesNotMutateHeader(t *testing.T) {
	h := NewVerusHasher(NewSHA256Engine())
	header := mustMarshal(t, testBlockHeader(0x00010004))
	orig := append([]byte(nil), header...)

	for _, v := range Variants {
		if _, err := h.ComputeReverse(v, header); err != nil {
			t.Fatalf("ComputeReverse(%s): %v", v, err)
		}
	}
	if !bytes.Equal(header, orig) {
		t.Fatal("header bytes were modified")
	}
}
