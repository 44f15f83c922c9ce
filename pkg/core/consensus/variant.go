package consensus

import (
	"strings"

	"github.com/pkg/errors"
)

// Variant identifies one VerusHash protocol revision.
type Variant uint8

const (
	V1 Variant = iota + 1
	V2
	V2B
	V2B1
	V2B2
)

// Variants lists every variant in activation order.
var Variants = []Variant{V1, V2, V2B, V2B1, V2B2}

var variantNames = map[Variant]string{
	V1:   "v1",
	V2:   "v2",
	V2B:  "v2b",
	V2B1: "v2b1",
	V2B2: "v2b2",
}

// String implements fmt.Stringer.
func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether v is one of the defined variants.
func (v Variant) Valid() bool {
	_, ok := variantNames[v]
	return ok
}

// ParseVariant maps a case-insensitive name such as "v2b1" to its Variant.
func ParseVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for v, n := range variantNames {
		if n == name {
			return v, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownVariant, "%q", name)
}

// SolutionFormat is the solution-version tag the V2 engine is constructed with.
type SolutionFormat uint8

const (
	SolutionVerusHashV2   SolutionFormat = 1
	SolutionVerusHashV2_1 SolutionFormat = 3
	SolutionVerusHashV2_2 SolutionFormat = 4
)

// FinalizeMode selects how a V2 stream derives its digest.
type FinalizeMode uint8

const (
	FinalizeStandard FinalizeMode = iota
	FinalizeAlternate
)

// streamConfig returns the engine configuration for the streaming variants.
// ok is false for V1 and V2B2, which do not hash through a plain stream.
func streamConfig(v Variant) (format SolutionFormat, mode FinalizeMode, ok bool) {
	switch v {
	case V2:
		return SolutionVerusHashV2, FinalizeStandard, true
	case V2B:
		return SolutionVerusHashV2, FinalizeAlternate, true
	case V2B1:
		return SolutionVerusHashV2_1, FinalizeAlternate, true
	}
	return 0, 0, false
}
