package fast

import (
	"fmt"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// Evaluator computes bit-exact element results.
// The zero value rounds fixed-point shifts with rnu and has no lookup tables.
type Evaluator struct {
	// VXRM is the fixed-point rounding mode used by vssrl and vssra.
	VXRM uint8
	// LUT supplies the tables of the vexp/vrecip/vrsqrt/vgelu ops, may be nil.
	LUT LUT
}

var defaultEvaluator = &Evaluator{VXRM: riscv.VXRMRoundNearestUp}

// ErrNotElementwise is returned by Eval for ops whose result depends on other elements.
var ErrNotElementwise = fmt.Errorf("%w: not an element-wise op", isa.ErrUnsupportedMnemonic)

// Evaluate computes mnemonic on one element with the default evaluator.
// vs2, vs1 and vdOld are SEW-wide bit patterns, except the 2*SEW vs2 of narrowing ops
// and the 2*SEW accumulator of widening MAC ops. The result is SEW wide, or 2*SEW for widening ops.
func Evaluate(mnemonic string, sew isa.SEW, vs2, vs1, vdOld U64) (U64, error) {
	return defaultEvaluator.Evaluate(mnemonic, sew, vs2, vs1, vdOld)
}

// EvaluateForm is Evaluate with the operand taken from an instruction field:
// a 5-bit immediate for VI/WI forms, the scalar register value for VX.
func EvaluateForm(mnemonic string, form isa.Form, sew isa.SEW, vs2, operand, vdOld U64) (U64, error) {
	return defaultEvaluator.EvaluateForm(mnemonic, form, sew, vs2, operand, vdOld)
}

func (e *Evaluator) Evaluate(mnemonic string, sew isa.SEW, vs2, vs1, vdOld U64) (U64, error) {
	op, err := isa.Lookup(mnemonic)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", isa.ErrUnsupportedMnemonic, err)
	}
	return e.Eval(op, sew, vs2, vs1, vdOld)
}

func (e *Evaluator) EvaluateForm(mnemonic string, form isa.Form, sew isa.SEW, vs2, operand, vdOld U64) (U64, error) {
	op, err := isa.Lookup(mnemonic)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", isa.ErrUnsupportedMnemonic, err)
	}
	if !op.Forms.Has(form) {
		return 0, fmt.Errorf("%w: %s.%s", isa.ErrUnsupportedForm, op.Mnemonic, form)
	}
	return e.Eval(op, sew, vs2, OperandValue(op, form, sew, operand), vdOld)
}

// OperandValue turns the operand of an instruction into the element value it stands for.
// Shift immediates are zero-extended, every other immediate is sign-extended to SEW.
func OperandValue(op *isa.Op, form isa.Form, sew isa.SEW, operand U64) U64 {
	if !form.Immediate() {
		return trunc(operand, sew.Bits())
	}
	if op.UnsignedImm {
		return and64(operand, riscv.Imm5Mask)
	}
	return toUnsigned(int64(isa.SignExtendImm5(uint32(operand))), sew.Bits())
}

// ResultBits returns the width of the value Eval produces for op,
// or of one element of the register an op of a register-level family writes.
func ResultBits(op *isa.Op, sew isa.SEW) uint64 {
	switch {
	case op.Family.WideResult():
		return sew.Wide().Bits()
	case op.Family == isa.FamilyCompare, op.Family == isa.FamilyMaskSet:
		return 1
	case op.Family == isa.FamilyMaskScalar:
		return 64
	case op.Mnemonic == "vpack4":
		return 4
	}
	return sew.Bits()
}

// Eval computes op on one element. It fails for an unsupported SEW, a LUT op without tables,
// and the register-level families, which have no element rule.
func (e *Evaluator) Eval(op *isa.Op, sew isa.SEW, vs2, vs1, vd U64) (U64, error) {
	if !sew.Valid() {
		return 0, fmt.Errorf("%w: %d", isa.ErrUnsupportedSEW, uint8(sew))
	}
	bits := sew.Bits()
	switch op.Family {
	case isa.FamilyWidening, isa.FamilyWideningMAC, isa.FamilyNarrowing:
		if !sew.CanWiden() {
			return 0, fmt.Errorf("%w: %s needs 2*SEW <= 32, got SEW %d", isa.ErrUnsupportedSEW, op.Mnemonic, bits)
		}
	case isa.FamilyInt4:
		if sew != isa.SEW8 {
			return 0, fmt.Errorf("%w: %s needs SEW 8, got %d", isa.ErrUnsupportedSEW, op.Mnemonic, bits)
		}
	}
	if op.Family.RegisterLevel() {
		return 0, fmt.Errorf("%w: %s", ErrNotElementwise, op.Mnemonic)
	}
	vs1 = trunc(vs1, bits)
	var out U64
	var ok bool
	switch op.Family {
	case isa.FamilyALU:
		out, ok = e.alu(op.Mnemonic, bits, trunc(vs2, bits), vs1)
	case isa.FamilyCompare:
		out, ok = compare(op.Mnemonic, bits, trunc(vs2, bits), vs1)
	case isa.FamilyMultiply:
		out, ok = multiply(op.Mnemonic, bits, trunc(vs2, bits), vs1)
	case isa.FamilyMAC:
		out, ok = mac(op.Mnemonic, bits, trunc(vs2, bits), vs1, trunc(vd, bits))
	case isa.FamilyWidening:
		out, ok = widen(op.Mnemonic, bits, trunc(vs2, bits), vs1)
	case isa.FamilyWideningMAC:
		out, ok = widenMAC(op.Mnemonic, bits, trunc(vs2, bits), vs1, trunc(vd, bits*2))
	case isa.FamilyNarrowing:
		out, ok = narrow(op.Mnemonic, bits, trunc(vs2, bits*2), vs1)
	case isa.FamilyReduction:
		// a single fold step: vs1 is the running scalar, vs2 the element
		out, ok = reduceStep(op.Mnemonic, bits, vs1, trunc(vs2, bits))
	case isa.FamilyMaskLogical:
		out, ok = maskLogical(op.Mnemonic, bits, trunc(vs2, bits), vs1)
	case isa.FamilyInt4:
		out, ok = int4(op.Mnemonic, trunc(vs2, bits))
	case isa.FamilyLUT:
		return e.lookup(op, bits, vs2)
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", isa.ErrUnsupportedMnemonic, op.Mnemonic)
	}
	return out, nil
}

func (e *Evaluator) alu(mnemonic string, bits uint64, a, b U64) (U64, bool) {
	sa, sb := int64(signExtend(a, bits)), int64(signExtend(b, bits))
	shamt := and64(b, bits-1)
	switch mnemonic {
	case "vadd":
		return trunc(a+b, bits), true
	case "vsub":
		return trunc(a-b, bits), true
	case "vrsub":
		return trunc(b-a, bits), true
	case "vand":
		return and64(a, b), true
	case "vor":
		return or64(a, b), true
	case "vxor":
		return xor64(a, b), true
	case "vsll":
		return trunc(shl64(shamt, a), bits), true
	case "vsrl":
		return shr64(shamt, a), true
	case "vsra":
		return trunc(sar64(shamt, signExtend(a, bits)), bits), true
	case "vminu":
		return min(a, b), true
	case "vmaxu":
		return max(a, b), true
	case "vmin":
		return toUnsigned(min(sa, sb), bits), true
	case "vmax":
		return toUnsigned(max(sa, sb), bits), true
	case "vmv":
		return b, true
	case "vsaddu":
		return clampU(a+b, bits), true
	case "vsadd":
		return toUnsigned(clampS(sa+sb, bits), bits), true
	case "vssubu":
		if a < b {
			return 0, true
		}
		return a - b, true
	case "vssub":
		return toUnsigned(clampS(sa-sb, bits), bits), true
	case "vssrl":
		return trunc(shr64(shamt, a)+roundIncrement(a, shamt, e.VXRM), bits), true
	case "vssra":
		return toUnsigned((sa>>shamt)+int64(roundIncrement(a, shamt, e.VXRM)), bits), true
	}
	return 0, false
}

// roundIncrement is the vxrm rounding increment for shifting v right by d bits.
func roundIncrement(v U64, d U64, vxrm uint8) U64 {
	if d == 0 {
		return 0
	}
	bit := func(i U64) U64 { return and64(shr64(i, v), 1) }
	switch vxrm {
	case riscv.VXRMRoundNearestUp:
		return bit(d - 1)
	case riscv.VXRMRoundNearestEven:
		sticky := b2u(d >= 2 && and64(v, maskOf(d-1)) != 0)
		return and64(bit(d-1), or64(sticky, bit(d)))
	case riscv.VXRMRoundDown:
		return 0
	case riscv.VXRMRoundOdd:
		return and64(xor64(bit(d), 1), b2u(and64(v, maskOf(d)) != 0))
	}
	return 0
}

func compare(mnemonic string, bits uint64, a, b U64) (U64, bool) {
	sa, sb := int64(signExtend(a, bits)), int64(signExtend(b, bits))
	switch mnemonic {
	case "vmseq":
		return b2u(a == b), true
	case "vmsne":
		return b2u(a != b), true
	case "vmsltu":
		return b2u(a < b), true
	case "vmslt":
		return b2u(sa < sb), true
	case "vmsleu":
		return b2u(a <= b), true
	case "vmsle":
		return b2u(sa <= sb), true
	case "vmsgtu":
		return b2u(a > b), true
	case "vmsgt":
		return b2u(sa > sb), true
	}
	return 0, false
}

func multiply(mnemonic string, bits uint64, a, b U64) (U64, bool) {
	sa, sb := int64(signExtend(a, bits)), int64(signExtend(b, bits))
	switch mnemonic {
	case "vmul":
		return trunc(U64(sa*sb), bits), true
	case "vmulh":
		return toUnsigned((sa*sb)>>bits, bits), true
	case "vmulhu":
		return trunc(shr64(bits, a*b), bits), true
	case "vmulhsu":
		// vs2 signed, vs1 unsigned
		return toUnsigned((sa*int64(b))>>bits, bits), true
	}
	return 0, false
}

func mac(mnemonic string, bits uint64, a, b, acc U64) (U64, bool) {
	sa, sb, sacc := int64(signExtend(a, bits)), int64(signExtend(b, bits)), int64(signExtend(acc, bits))
	switch mnemonic {
	case "vmacc":
		return trunc(acc+U64(sa*sb), bits), true
	case "vnmsac":
		return trunc(acc-U64(sa*sb), bits), true
	case "vmadd":
		// multiplies the accumulator, adds vs2
		return trunc(U64(sb*sacc)+a, bits), true
	case "vnmsub":
		return trunc(a-U64(sb*sacc), bits), true
	}
	return 0, false
}

func widen(mnemonic string, bits uint64, a, b U64) (U64, bool) {
	wide := bits * 2
	sa, sb := int64(signExtend(a, bits)), int64(signExtend(b, bits))
	switch mnemonic {
	case "vwaddu":
		return trunc(a+b, wide), true
	case "vwadd":
		return toUnsigned(sa+sb, wide), true
	case "vwsubu":
		return trunc(a-b, wide), true
	case "vwsub":
		return toUnsigned(sa-sb, wide), true
	case "vwmulu":
		return trunc(a*b, wide), true
	case "vwmulsu":
		// vs2 signed, vs1 unsigned
		return toUnsigned(sa*int64(b), wide), true
	case "vwmul":
		return toUnsigned(sa*sb, wide), true
	}
	return 0, false
}

func widenMAC(mnemonic string, bits uint64, a, b, acc U64) (U64, bool) {
	wide := bits * 2
	sa, sb := int64(signExtend(a, bits)), int64(signExtend(b, bits))
	switch mnemonic {
	case "vwmaccu":
		return trunc(acc+a*b, wide), true
	case "vwmacc":
		return trunc(acc+U64(sa*sb), wide), true
	case "vwmaccsu":
		// vs1 signed, vs2 unsigned
		return trunc(acc+U64(sb*int64(a)), wide), true
	}
	return 0, false
}

func narrow(mnemonic string, bits uint64, w, b U64) (U64, bool) {
	wide := bits * 2
	shamt := and64(b, wide-1)
	switch mnemonic {
	case "vnsrl":
		return trunc(shr64(shamt, w), bits), true
	case "vnsra":
		return trunc(sar64(shamt, signExtend(w, wide)), bits), true
	case "vnclipu":
		return clampU(shr64(shamt, w), bits), true
	case "vnclip":
		return toUnsigned(clampS(int64(sar64(shamt, signExtend(w, wide))), bits), bits), true
	}
	return 0, false
}

func maskLogical(mnemonic string, bits uint64, a, b U64) (U64, bool) {
	var out U64
	switch mnemonic {
	case "vmand":
		out = and64(a, b)
	case "vmnand":
		out = not64(and64(a, b))
	case "vmandn":
		out = and64(a, not64(b))
	case "vmxor":
		out = xor64(a, b)
	case "vmor":
		out = or64(a, b)
	case "vmnor":
		out = not64(or64(a, b))
	case "vmorn":
		out = or64(a, not64(b))
	case "vmxnor":
		out = not64(xor64(a, b))
	default:
		return 0, false
	}
	return trunc(out, bits), true
}

// pack4 saturates a signed byte to [-8, 7] and returns its nibble.
func pack4(b U64) U64 {
	return toUnsigned(clampS(int64(signExtend(b, 8)), 4), 4)
}

// unpack4 sign-extends a nibble to a byte.
func unpack4(nibble U64) U64 {
	return trunc(signExtend(nibble, 4), 8)
}

func int4(mnemonic string, a U64) (U64, bool) {
	switch mnemonic {
	case "vpack4":
		return pack4(a), true
	case "vunpack4":
		return unpack4(a), true
	}
	return 0, false
}

func (e *Evaluator) lookup(op *isa.Op, bits uint64, vs2 U64) (U64, error) {
	if e.LUT == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoLUT, op.Mnemonic)
	}
	index := uint8(vs2)
	v, ok := e.LUT.Lookup(op.Selector, index)
	if !ok {
		return 0, fmt.Errorf("%w: %s has no table", ErrNoLUT, op.Mnemonic)
	}
	return trunc(U64(v), bits), nil
}
