package fast

import (
	"fmt"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
)

// ElementCount is the number of SEW-wide elements in one VLEN-bit register.
func ElementCount(vlen uint64, sew isa.SEW) uint64 {
	return vlen / sew.Bits()
}

func reductionOp(mnemonic string, sew isa.SEW) (*isa.Op, error) {
	op, err := isa.Lookup(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", isa.ErrUnsupportedMnemonic, err)
	}
	if op.Family != isa.FamilyReduction {
		return nil, fmt.Errorf("%w: %s is not a reduction", isa.ErrUnsupportedMnemonic, mnemonic)
	}
	if !sew.Valid() {
		return nil, fmt.Errorf("%w: %d", isa.ErrUnsupportedSEW, uint8(sew))
	}
	return op, nil
}

// Reduce folds count copies of element into seed, in closed form.
// count must be ElementCount(vlen, sew) for a full-register reduction.
func Reduce(mnemonic string, sew isa.SEW, element, seed, count U64) (U64, error) {
	op, err := reductionOp(mnemonic, sew)
	if err != nil {
		return 0, err
	}
	bits := sew.Bits()
	element, seed = trunc(element, bits), trunc(seed, bits)
	if count == 0 {
		return seed, nil
	}
	switch op.Mnemonic {
	case "vredsum":
		return trunc(seed+count*element, bits), nil
	case "vredxor":
		// x^x cancels, only the parity of count matters
		if count%2 == 1 {
			return xor64(seed, element), nil
		}
		return seed, nil
	default:
		// and, or, min and max are idempotent over identical elements
		out, _ := reduceStep(op.Mnemonic, bits, seed, element)
		return out, nil
	}
}

// HasKnownSeedBug reports whether the vector unit under test is known to drop
// the vs1[0] seed for this reduction. Mismatches on these ops are expected failures.
func HasKnownSeedBug(mnemonic string) bool {
	switch mnemonic {
	case "vredand", "vredor", "vredxor":
		return true
	}
	return false
}

// ReduceHardware is Reduce as the vector unit under test computes it:
// vredand, vredor and vredxor ignore the seed. It is never the golden value.
func ReduceHardware(mnemonic string, sew isa.SEW, element, seed, count U64) (U64, error) {
	if _, err := reductionOp(mnemonic, sew); err != nil {
		return 0, err
	}
	if !HasKnownSeedBug(mnemonic) || count == 0 {
		return Reduce(mnemonic, sew, element, seed, count)
	}
	element = trunc(element, sew.Bits())
	if mnemonic == "vredxor" && count%2 == 0 {
		return 0, nil
	}
	return element, nil
}

// ReduceVector folds elems into seed in hardware order, element 0 first.
func ReduceVector(mnemonic string, sew isa.SEW, elems []U64, seed U64) (U64, error) {
	op, err := reductionOp(mnemonic, sew)
	if err != nil {
		return 0, err
	}
	bits := sew.Bits()
	acc := trunc(seed, bits)
	for _, el := range elems {
		acc, _ = reduceStep(op.Mnemonic, bits, acc, trunc(el, bits))
	}
	return acc, nil
}

func reduceStep(mnemonic string, bits uint64, acc, el U64) (U64, bool) {
	sacc, sel := int64(signExtend(acc, bits)), int64(signExtend(el, bits))
	switch mnemonic {
	case "vredsum":
		return trunc(acc+el, bits), true
	case "vredand":
		return and64(acc, el), true
	case "vredor":
		return or64(acc, el), true
	case "vredxor":
		return xor64(acc, el), true
	case "vredminu":
		return min(acc, el), true
	case "vredmaxu":
		return max(acc, el), true
	case "vredmin":
		return toUnsigned(min(sacc, sel), bits), true
	case "vredmax":
		return toUnsigned(max(sacc, sel), bits), true
	}
	return 0, false
}
