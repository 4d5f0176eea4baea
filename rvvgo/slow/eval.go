package slow

import (
	"fmt"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// Evaluate computes one element of mnemonic at sew, rounding fixed-point shifts with vxrm.
// Inputs follow the same conventions as the fast evaluator; LUT ops are not supported.
func Evaluate(mnemonic string, sew isa.SEW, vs2, vs1, vd uint64, vxrm uint8) (uint64, error) {
	op, err := isa.Lookup(mnemonic)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", isa.ErrUnsupportedMnemonic, err)
	}
	if !sew.Valid() {
		return 0, fmt.Errorf("%w: %d", isa.ErrUnsupportedSEW, uint8(sew))
	}
	switch op.Family {
	case isa.FamilyWidening, isa.FamilyWideningMAC, isa.FamilyNarrowing:
		if !sew.CanWiden() {
			return 0, fmt.Errorf("%w: %s at SEW %d", isa.ErrUnsupportedSEW, op.Mnemonic, sew.Bits())
		}
	case isa.FamilyInt4:
		if sew != isa.SEW8 {
			return 0, fmt.Errorf("%w: %s at SEW %d", isa.ErrUnsupportedSEW, op.Mnemonic, sew.Bits())
		}
	case isa.FamilyLUT:
		return 0, fmt.Errorf("%w: %s", isa.ErrUnsupportedMnemonic, op.Mnemonic)
	}
	if op.Family.RegisterLevel() {
		return 0, fmt.Errorf("%w: %s is not element-wise", isa.ErrUnsupportedMnemonic, op.Mnemonic)
	}
	out, width := eval(op, sew.Bits(), u256(vs2), u256(vs1), u256(vd), vxrm)
	return lane(out, width), nil
}

// eval returns the result word and its width. Operands are raw lane words.
func eval(op *isa.Op, bits uint64, vs2, vs1, vd U256, vxrm uint8) (U256, uint64) {
	wide := bits * 2
	a, b := truncTo(vs2, bits), truncTo(vs1, bits)
	sa, sb := sext(a, bits), sext(b, bits)
	shamt := and(b, u256(bits-1))
	switch op.Mnemonic {
	// alu
	case "vadd":
		return add(a, b), bits
	case "vsub":
		return sub(a, b), bits
	case "vrsub":
		return sub(b, a), bits
	case "vand":
		return and(a, b), bits
	case "vor":
		return or(a, b), bits
	case "vxor":
		return xor(a, b), bits
	case "vsll":
		return shl(shamt, a), bits
	case "vsrl":
		return shr(shamt, a), bits
	case "vsra":
		return sar(shamt, sa), bits
	case "vminu":
		return pick(lt(a, b), a, b), bits
	case "vmaxu":
		return pick(gt(a, b), a, b), bits
	case "vmin":
		return pick(slt(sa, sb), sa, sb), bits
	case "vmax":
		return pick(sgt(sa, sb), sa, sb), bits
	case "vmv":
		return b, bits
	case "vsaddu":
		return clamp(add(a, b), U256{}, mask(bits)), bits
	case "vsadd":
		return clamp(add(sa, sb), signedMin(bits), signedMax(bits)), bits
	case "vssubu":
		return clamp(sub(a, b), U256{}, mask(bits)), bits
	case "vssub":
		return clamp(sub(sa, sb), signedMin(bits), signedMax(bits)), bits
	case "vssrl":
		return add(shr(shamt, a), roundoff(a, shamt.Uint64(), vxrm)), bits
	case "vssra":
		return add(sar(shamt, sa), roundoff(a, shamt.Uint64(), vxrm)), bits

	// compare
	case "vmseq":
		return b2w(eq(a, b)), 1
	case "vmsne":
		return b2w(!eq(a, b)), 1
	case "vmsltu":
		return b2w(lt(a, b)), 1
	case "vmslt":
		return b2w(slt(sa, sb)), 1
	case "vmsleu":
		return b2w(!gt(a, b)), 1
	case "vmsle":
		return b2w(!sgt(sa, sb)), 1
	case "vmsgtu":
		return b2w(gt(a, b)), 1
	case "vmsgt":
		return b2w(sgt(sa, sb)), 1

	// multiply
	case "vmul":
		return mul(sa, sb), bits
	case "vmulh":
		return sar(u256(bits), mul(sa, sb)), bits
	case "vmulhu":
		return shr(u256(bits), mul(a, b)), bits
	case "vmulhsu":
		return sar(u256(bits), mul(sa, b)), bits

	// multiply-add, vd is the accumulator
	case "vmacc":
		return add(truncTo(vd, bits), mul(sa, sb)), bits
	case "vnmsac":
		return sub(truncTo(vd, bits), mul(sa, sb)), bits
	case "vmadd":
		return add(mul(sb, sext(vd, bits)), a), bits
	case "vnmsub":
		return sub(a, mul(sb, sext(vd, bits))), bits

	// widening
	case "vwaddu":
		return add(a, b), wide
	case "vwadd":
		return add(sa, sb), wide
	case "vwsubu":
		return sub(a, b), wide
	case "vwsub":
		return sub(sa, sb), wide
	case "vwmulu":
		return mul(a, b), wide
	case "vwmulsu":
		return mul(sa, b), wide
	case "vwmul":
		return mul(sa, sb), wide
	case "vwmaccu":
		return add(truncTo(vd, wide), mul(a, b)), wide
	case "vwmacc":
		return add(truncTo(vd, wide), mul(sa, sb)), wide
	case "vwmaccsu":
		return add(truncTo(vd, wide), mul(a, sb)), wide

	// narrowing, vs2 is 2*SEW wide
	case "vnsrl":
		return shr(and(b, u256(wide-1)), truncTo(vs2, wide)), bits
	case "vnsra":
		return sar(and(b, u256(wide-1)), sext(vs2, wide)), bits
	case "vnclipu":
		return clamp(shr(and(b, u256(wide-1)), truncTo(vs2, wide)), U256{}, mask(bits)), bits
	case "vnclip":
		return clamp(sar(and(b, u256(wide-1)), sext(vs2, wide)), signedMin(bits), signedMax(bits)), bits

	// reduction step, vs1 is the running scalar
	case "vredsum", "vredand", "vredor", "vredxor", "vredminu", "vredmaxu", "vredmin", "vredmax":
		return fold(op.Mnemonic, bits, b, a), bits

	// mask logical
	case "vmand":
		return and(a, b), bits
	case "vmnand":
		return not(and(a, b)), bits
	case "vmandn":
		return and(a, not(b)), bits
	case "vmxor":
		return xor(a, b), bits
	case "vmor":
		return or(a, b), bits
	case "vmnor":
		return not(or(a, b)), bits
	case "vmorn":
		return or(a, not(b)), bits
	case "vmxnor":
		return not(xor(a, b)), bits

	// int4, one nibble per element
	case "vpack4":
		return clamp(sa, signedMin(4), signedMax(4)), 4
	case "vunpack4":
		return sext(a, 4), bits
	}
	panic(fmt.Errorf("%w: %s", isa.ErrUnsupportedMnemonic, op.Mnemonic))
}

func pick(cond bool, x, y U256) U256 {
	if cond {
		return x
	}
	return y
}

// roundoff is the rounding increment of v >> d under vxrm.
func roundoff(v U256, d uint64, vxrm uint8) U256 {
	if d == 0 {
		return U256{}
	}
	switch vxrm {
	case riscv.VXRMRoundNearestUp:
		return bit(v, d-1)
	case riscv.VXRMRoundNearestEven:
		rest := !iszero(truncTo(v, d-1))
		return and(bit(v, d-1), or(b2w(rest), bit(v, d)))
	case riscv.VXRMRoundOdd:
		return and(xor(bit(v, d), u256(1)), b2w(!iszero(truncTo(v, d))))
	}
	return U256{}
}

// fold combines the accumulator with one element, both zero-extended lane words.
func fold(mnemonic string, bits uint64, acc, el U256) U256 {
	switch mnemonic {
	case "vredsum":
		return add(acc, el)
	case "vredand":
		return and(acc, el)
	case "vredor":
		return or(acc, el)
	case "vredxor":
		return xor(acc, el)
	case "vredminu":
		return pick(lt(acc, el), acc, el)
	case "vredmaxu":
		return pick(gt(acc, el), acc, el)
	case "vredmin":
		return pick(slt(sext(acc, bits), sext(el, bits)), acc, el)
	case "vredmax":
		return pick(sgt(sext(acc, bits), sext(el, bits)), acc, el)
	}
	panic(fmt.Errorf("%w: %s is not a reduction", isa.ErrUnsupportedMnemonic, mnemonic))
}
