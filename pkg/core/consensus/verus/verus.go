//go:build cgo && verushash

// Package verus binds the VerusHash implementation in veruslib.
package verus

/*
#cgo CXXFLAGS: -std=c++11 -O2 -msse4 -msse4.1 -msse4.2 -mavx -maes -fPIC -I${SRCDIR}/../../../../third_party/VerusCoin/src
#cgo LDFLAGS: -L${SRCDIR}/../../../../third_party/VerusCoin/build -l:veruslib.so -lboost_system -lstdc++ -lm
#include "shim.h"
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// Init builds the Haraka and CLHash tables used by both hash generations.
func Init() error {
	if C.verus_shim_init() == 0 {
		return errors.New("verus: global table setup failed")
	}
	return nil
}

// HashV1 computes the VerusHash 1.0 digest of data.
func HashV1(data []byte) types.Hash {
	var out types.Hash
	C.verus_shim_hash_v1((*C.uchar)(unsafe.Pointer(&out[0])), bytesPtr(data), C.size_t(len(data)))
	return out
}

// HasherV2 wraps a CVerusHashV2 instance.
type HasherV2 struct {
	ptr *C.verus_v2
}

// NewHasherV2 constructs a CVerusHashV2 for the given solution version.
func NewHasherV2(solutionVersion int) (*HasherV2, error) {
	ptr := C.verus_shim_v2_new(C.int(solutionVersion))
	if ptr == nil {
		return nil, errors.New("verus: failed to allocate V2 hasher")
	}
	return &HasherV2{ptr: ptr}, nil
}

// Reset clears the hasher state.
func (h *HasherV2) Reset() {
	C.verus_shim_v2_reset(h.ptr)
}

// Write absorbs data.
func (h *HasherV2) Write(data []byte) {
	C.verus_shim_v2_write(h.ptr, bytesPtr(data), C.size_t(len(data)))
}

// Finalize returns the standard V2 digest.
func (h *HasherV2) Finalize() types.Hash {
	var out types.Hash
	C.verus_shim_v2_finalize(h.ptr, (*C.uchar)(unsafe.Pointer(&out[0])))
	return out
}

// Finalize2b returns the 2b digest.
func (h *HasherV2) Finalize2b() types.Hash {
	var out types.Hash
	C.verus_shim_v2_finalize2b(h.ptr, (*C.uchar)(unsafe.Pointer(&out[0])))
	return out
}

// Close frees the hasher.
func (h *HasherV2) Close() {
	if h.ptr != nil {
		C.verus_shim_v2_free(h.ptr)
		h.ptr = nil
	}
}

// bytesPtr returns a C pointer to data, or nil for an empty slice.
func bytesPtr(data []byte) *C.uchar {
	if len(data) == 0 {
		return nil
	}
	return (*C.uchar)(unsafe.Pointer(&data[0]))
}
