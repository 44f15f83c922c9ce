package consensus

import "github.com/chronodrachma/verushash/pkg/core/types"

// MaybeReverse returns d byte-reversed when reverse is set, d otherwise.
func MaybeReverse(d types.Hash, reverse bool) types.Hash {
	if !reverse {
		return d
	}
	return d.Reverse()
}
