package isa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// SEW is the selected element width in bits.
type SEW uint8

const (
	SEW8  SEW = 8
	SEW16 SEW = 16
	SEW32 SEW = 32
)

// AllSEW lists the element widths of the standard path, narrowest first.
var AllSEW = []SEW{SEW8, SEW16, SEW32}

func (s SEW) Valid() bool {
	return s == SEW8 || s == SEW16 || s == SEW32
}

// Bits returns the width as a shift-friendly integer.
func (s SEW) Bits() uint64 {
	return uint64(s)
}

// Mask returns the all-ones pattern of the element width.
func (s SEW) Mask() uint64 {
	return (uint64(1) << uint64(s)) - 1
}

// Wide returns the 2*SEW width used by widening and narrowing forms.
func (s SEW) Wide() SEW {
	return s * 2
}

// CanWiden reports whether 2*SEW stays within the 32-bit standard path.
func (s SEW) CanWiden() bool {
	return s == SEW8 || s == SEW16
}

// Vsew returns the vtype.vsew encoding.
func (s SEW) Vsew() (uint32, error) {
	switch s {
	case SEW8:
		return riscv.VsewE8, nil
	case SEW16:
		return riscv.VsewE16, nil
	case SEW32:
		return riscv.VsewE32, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedSEW, uint8(s))
	}
}

func (s SEW) String() string {
	return "e" + strconv.Itoa(int(s))
}

// ParseSEW accepts "8", "e8", "16", "e16", "32" and "e32".
func ParseSEW(v string) (SEW, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(v), "e"), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSEW, v)
	}
	s := SEW(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSEW, v)
	}
	return s, nil
}
