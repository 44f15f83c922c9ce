package consensus

import "github.com/pkg/errors"

// Activation heights of the VerusHash revisions on the VRSC network.
const (
	HeightVerusV2B2 = 105359
	HeightVerusV2B1 = 800199
)

const (
	headerVersionOffset   = 0
	solutionFormatOffset  = 2
	minSelectorHeaderSize = solutionFormatOffset + 1

	verusHeaderVersion = 4
)

// SelectVariant picks the variant for header from its version and
// solution-format bytes alone.
//
//	version == 4, format in [1,2]  -> V2B
//	version == 4, format >= 3      -> V2B1
//	otherwise                      -> V1
func SelectVariant(header []byte) (Variant, error) {
	version, format, err := selectorBytes(header)
	if err != nil {
		return 0, err
	}
	if version == verusHeaderVersion && format >= 1 {
		if format < 3 {
			return V2B, nil
		}
		return V2B1, nil
	}
	return V1, nil
}

// SelectVariantAtHeight picks the variant for header at a known height.
//
// Heights above HeightVerusV2B2 tentatively select V2B2, but the byte rule
// that follows always assigns, so the result is never V2B2. Callers that
// need V2B2 use its entry point directly.
func SelectVariantAtHeight(header []byte, height int64) (Variant, error) {
	version, format, err := selectorBytes(header)
	if err != nil {
		return 0, err
	}

	variant := V1
	if height > HeightVerusV2B2 {
		variant = V2B2
	}

	if version == verusHeaderVersion && format >= 1 {
		if format < 3 {
			if height > HeightVerusV2B1 {
				variant = V2B1
			} else {
				variant = V2B
			}
		} else {
			variant = V2B1
		}
	} else {
		variant = V1
	}
	return variant, nil
}

func selectorBytes(header []byte) (version, format byte, err error) {
	if len(header) < minSelectorHeaderSize {
		return 0, 0, errors.Wrapf(ErrMalformedHeader, "need %d bytes, got %d", minSelectorHeaderSize, len(header))
	}
	return header[headerVersionOffset], header[solutionFormatOffset], nil
}
