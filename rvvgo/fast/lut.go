package fast

import (
	"fmt"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

var ErrNoLUT = fmt.Errorf("%w: lookup table unavailable", isa.ErrUnsupportedMnemonic)

// LUT supplies the 256-entry, 16-bit tables of the custom LUT ops.
// fn is the vs1 selector, index the low byte of the source element.
type LUT interface {
	Lookup(fn uint32, index uint8) (uint16, bool)
}

// Tables is a LUT backed by in-memory tables, loadable from JSON.
// A nil table leaves that function unsupported.
type Tables struct {
	Exp   []uint16 `json:"exp,omitempty"`
	Recip []uint16 `json:"recip,omitempty"`
	Rsqrt []uint16 `json:"rsqrt,omitempty"`
	Gelu  []uint16 `json:"gelu,omitempty"`
}

var _ LUT = (*Tables)(nil)

func (t *Tables) table(fn uint32) []uint16 {
	switch fn {
	case riscv.LUTFuncExp:
		return t.Exp
	case riscv.LUTFuncRecip:
		return t.Recip
	case riscv.LUTFuncRsqrt:
		return t.Rsqrt
	case riscv.LUTFuncGelu:
		return t.Gelu
	}
	return nil
}

func (t *Tables) Lookup(fn uint32, index uint8) (uint16, bool) {
	tab := t.table(fn)
	if len(tab) != riscv.LUTSize {
		return 0, false
	}
	return tab[index], true
}

// Validate checks that every present table has exactly 256 entries.
func (t *Tables) Validate() error {
	for fn, name := range []string{"exp", "recip", "rsqrt", "gelu"} {
		if tab := t.table(uint32(fn)); tab != nil && len(tab) != riscv.LUTSize {
			return fmt.Errorf("invalid %s table: expected %d entries, got %d", name, riscv.LUTSize, len(tab))
		}
	}
	return nil
}
