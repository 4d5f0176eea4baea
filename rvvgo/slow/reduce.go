package slow

import (
	"fmt"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
)

// Reduce folds count copies of element into seed one element at a time.
func Reduce(mnemonic string, sew isa.SEW, element, seed, count uint64) (uint64, error) {
	elems := make([]uint64, count)
	for i := range elems {
		elems[i] = element
	}
	return ReduceVector(mnemonic, sew, elems, seed)
}

// ReduceVector folds elems into seed, element 0 first.
func ReduceVector(mnemonic string, sew isa.SEW, elems []uint64, seed uint64) (uint64, error) {
	op, err := isa.Lookup(mnemonic)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", isa.ErrUnsupportedMnemonic, err)
	}
	if op.Family != isa.FamilyReduction {
		return 0, fmt.Errorf("%w: %s is not a reduction", isa.ErrUnsupportedMnemonic, mnemonic)
	}
	if !sew.Valid() {
		return 0, fmt.Errorf("%w: %d", isa.ErrUnsupportedSEW, uint8(sew))
	}
	bits := sew.Bits()
	acc := truncTo(u256(seed), bits)
	for _, el := range elems {
		acc = truncTo(fold(op.Mnemonic, bits, acc, truncTo(u256(el), bits)), bits)
	}
	return lane(acc, bits), nil
}
