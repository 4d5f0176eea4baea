package fast

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// Instr is one instruction of a simulated sequence.
type Instr struct {
	Mnemonic string   `json:"op"`
	Form     isa.Form `json:"form"`
	SEW      isa.SEW  `json:"sew"`
	Vd       uint8    `json:"vd"`
	Vs2      uint8    `json:"vs2"`
	// Vs1 is the vs1 register, the rs1 index for VX, or the 5-bit immediate for VI/WI.
	// Unary forms ignore it.
	Vs1 uint8 `json:"vs1"`
	// Scalar is the value of x[rs1] for VX forms.
	Scalar U64 `json:"scalar,omitempty"`
	// VM false means masked by v0.
	VM bool `json:"vm"`
}

func (in Instr) Instruction() (isa.Instruction, error) {
	op, err := isa.Lookup(in.Mnemonic)
	if err != nil {
		return isa.Instruction{}, err
	}
	return isa.Instruction{Op: op, Form: in.Form, Vd: uint32(in.Vd), Vs2: uint32(in.Vs2), Operand: uint32(in.Vs1), VM: in.VM}, nil
}

func (in Instr) Encode() (uint32, error) {
	ins, err := in.Instruction()
	if err != nil {
		return 0, err
	}
	return ins.Encode()
}

func (in Instr) String() string {
	ins, err := in.Instruction()
	if err != nil {
		return in.Mnemonic + "." + in.Form.String()
	}
	return ins.String()
}

// Apply executes one instruction on v with the default evaluator.
func (v *VRF) Apply(in Instr) error {
	return defaultEvaluator.Apply(v, in)
}

// ErrScalarDest is returned by Apply for ops that write a scalar register.
var ErrScalarDest = errors.New("writes a scalar register")

// readsVs1 reports whether the vs1 field of form names a vector register.
func readsVs1(form isa.Form) bool {
	return !form.Scalar() && !form.Immediate() && !form.Unary()
}

func (e *Evaluator) prepare(v *VRF, in Instr) (*isa.Op, *applyState, error) {
	op, err := isa.Lookup(in.Mnemonic)
	if err != nil {
		return nil, nil, err
	}
	if !op.Forms.Has(in.Form) {
		return nil, nil, fmt.Errorf("%w: %s.%s", isa.ErrUnsupportedForm, op.Mnemonic, in.Form)
	}
	if !in.SEW.Valid() {
		return nil, nil, fmt.Errorf("%w: %d", isa.ErrUnsupportedSEW, uint8(in.SEW))
	}
	if op.Unmasked && !in.VM {
		return nil, nil, fmt.Errorf("%w: %s is always unmasked", isa.ErrUnsupportedForm, op.Mnemonic)
	}
	if err := v.checkReg(in.Vs2); err != nil {
		return nil, nil, err
	}
	if !op.ScalarDest() {
		if err := v.checkReg(in.Vd); err != nil {
			return nil, nil, err
		}
	}
	if readsVs1(in.Form) {
		if err := v.checkReg(in.Vs1); err != nil {
			return nil, nil, err
		}
	}
	st := &applyState{
		e:   e,
		op:  op,
		in:  in,
		sew: in.SEW,
		n:   ElementCount(v.VLEN, in.SEW),
		vs2: bytes.Clone(v.Regs[in.Vs2]),
		v0:  bytes.Clone(v.Regs[0]),
	}
	if op.NoVs2 {
		st.vs2 = make([]byte, len(v.Regs[0]))
	}
	if readsVs1(in.Form) {
		st.vs1 = bytes.Clone(v.Regs[in.Vs1])
	}
	if !op.ScalarDest() {
		st.out = bytes.Clone(v.Regs[in.Vd])
		st.vd = bytes.Clone(st.out)
	}
	return op, st, nil
}

// Apply executes one instruction on v. All operands are read before vd is written,
// so vd may alias a source. On error v is unchanged.
func (e *Evaluator) Apply(v *VRF, in Instr) (outErr error) {
	op, st, err := e.prepare(v, in)
	if err != nil {
		return err
	}
	if op.ScalarDest() {
		return fmt.Errorf("%s: %w, use ApplyScalar", in, ErrScalarDest)
	}
	defer func() {
		if err := recover(); err != nil {
			outErr = fmt.Errorf("%s: err: %v", in, err)
		}
	}()
	n := st.n

	switch op.Family {
	case isa.FamilyReduction:
		err = st.reduction(n)
	case isa.FamilyCompare:
		err = st.compare(n)
	case isa.FamilyMaskLogical:
		err = st.maskLogical()
	case isa.FamilyWidening, isa.FamilyWideningMAC:
		err = st.widening(n, v.Widen)
	case isa.FamilyNarrowing:
		err = st.narrowing(n / 2)
	case isa.FamilyMaskSet:
		st.maskSet()
	case isa.FamilyIndex:
		st.index()
	case isa.FamilyPermute:
		err = st.permute()
	case isa.FamilyInt4:
		err = st.int4()
	default:
		err = st.elementwise(n)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	copy(v.Regs[in.Vd], st.out)
	return nil
}

// applyState holds snapshots of the source registers and the pending vd.
type applyState struct {
	e   *Evaluator
	op  *isa.Op
	in  Instr
	sew isa.SEW
	n   uint64 // VLMAX at sew

	vs2 []byte
	vs1 []byte
	v0  []byte
	vd  []byte // pre-instruction value
	out []byte
}

func (st *applyState) active(i uint64) bool {
	return st.in.VM || maskBit(st.v0, i)
}

// operand is the vs1-side element i at the given width.
func (st *applyState) operand(bits uint64, i uint64) U64 {
	switch {
	case st.in.Form.Scalar():
		return trunc(st.in.Scalar, bits)
	case st.in.Form.Immediate():
		if st.op.UnsignedImm {
			return and64(U64(st.in.Vs1), riscv.Imm5Mask)
		}
		return toUnsigned(int64(isa.SignExtendImm5(uint32(st.in.Vs1))), bits)
	default:
		return getLane(st.vs1, bits, i)
	}
}

func (st *applyState) elementwise(n uint64) error {
	bits := st.sew.Bits()
	// vmv with vm=0 decodes as vmerge: inactive elements take vs2
	merge := st.op.Mnemonic == "vmv" && !st.in.VM
	for i := uint64(0); i < n; i++ {
		if merge {
			if st.active(i) {
				setLane(st.out, bits, i, st.operand(bits, i))
			} else {
				setLane(st.out, bits, i, getLane(st.vs2, bits, i))
			}
			continue
		}
		if !st.active(i) {
			continue
		}
		r, err := st.e.Eval(st.op, st.sew, getLane(st.vs2, bits, i), st.operand(bits, i), getLane(st.vd, bits, i))
		if err != nil {
			return err
		}
		setLane(st.out, bits, i, r)
	}
	return nil
}

// reduction writes element 0 of vd only.
func (st *applyState) reduction(n uint64) error {
	bits := st.sew.Bits()
	elems := make([]U64, 0, n)
	for i := uint64(0); i < n; i++ {
		if st.active(i) {
			elems = append(elems, getLane(st.vs2, bits, i))
		}
	}
	r, err := ReduceVector(st.op.Mnemonic, st.sew, elems, getLane(st.vs1, bits, 0))
	if err != nil {
		return err
	}
	setLane(st.out, bits, 0, r)
	return nil
}

// compare writes bit i of vd for element i. Bits past the last element are cleared.
func (st *applyState) compare(n uint64) error {
	bits := st.sew.Bits()
	for k := range st.out {
		st.out[k] = 0
	}
	for i := uint64(0); i < n; i++ {
		if !st.active(i) {
			setMaskBit(st.out, i, maskBit(st.vd, i))
			continue
		}
		r, err := st.e.Eval(st.op, st.sew, getLane(st.vs2, bits, i), st.operand(bits, i), 0)
		if err != nil {
			return err
		}
		setMaskBit(st.out, i, r == 1)
	}
	return nil
}

// maskLogical operates on the whole register as one bit vector.
func (st *applyState) maskLogical() error {
	if !st.in.VM {
		return fmt.Errorf("%w: mask logical ops are always unmasked", isa.ErrUnsupportedForm)
	}
	for k := range st.out {
		r, err := st.e.Eval(st.op, isa.SEW8, U64(st.vs2[k]), U64(st.vs1[k]), 0)
		if err != nil {
			return err
		}
		st.out[k] = byte(r)
	}
	return nil
}

func (st *applyState) widening(n uint64, mode WidenMode) error {
	bits := st.sew.Bits()
	wide := st.sew.Wide().Bits()
	if !st.sew.CanWiden() {
		return fmt.Errorf("%w: widening from SEW %d", isa.ErrUnsupportedSEW, bits)
	}
	switch mode {
	case WidenTruncate:
		for i := uint64(0); i < n; i++ {
			if !st.active(i) {
				continue
			}
			// the low SEW bits of the sum do not depend on how the accumulator is extended
			r, err := st.e.Eval(st.op, st.sew, getLane(st.vs2, bits, i), st.operand(bits, i), getLane(st.vd, bits, i))
			if err != nil {
				return err
			}
			setLane(st.out, bits, i, trunc(r, bits))
		}
	case WidenFull:
		for i := uint64(0); i < n/2; i++ {
			if !st.active(i) {
				continue
			}
			r, err := st.e.Eval(st.op, st.sew, getLane(st.vs2, bits, i), st.operand(bits, i), getLane(st.vd, wide, i))
			if err != nil {
				return err
			}
			setLane(st.out, wide, i, r)
		}
	default:
		return fmt.Errorf("unknown widen mode %d", uint8(mode))
	}
	return nil
}

// narrowing reads vs2 as 2*SEW lanes and writes the low half of vd.
func (st *applyState) narrowing(n uint64) error {
	bits := st.sew.Bits()
	wide := st.sew.Wide().Bits()
	if !st.sew.CanWiden() {
		return fmt.Errorf("%w: narrowing to SEW %d", isa.ErrUnsupportedSEW, bits)
	}
	for i := uint64(0); i < n; i++ {
		if !st.active(i) {
			continue
		}
		r, err := st.e.Eval(st.op, st.sew, getLane(st.vs2, wide, i), st.operand(bits, i), 0)
		if err != nil {
			return err
		}
		setLane(st.out, bits, i, r)
	}
	return nil
}

// ApplyScalar executes an op that writes x[rd], vcpop.m or vfirst.m, and returns the value.
// v is not modified. vfirst returns -1 when no active bit is set.
func (v *VRF) ApplyScalar(in Instr) (U64, error) {
	return defaultEvaluator.ApplyScalar(v, in)
}

func (e *Evaluator) ApplyScalar(v *VRF, in Instr) (U64, error) {
	op, st, err := e.prepare(v, in)
	if err != nil {
		return 0, err
	}
	if !op.ScalarDest() {
		return 0, fmt.Errorf("%w: %s writes v%d", isa.ErrUnsupportedForm, in, in.Vd)
	}
	var count U64
	for i := uint64(0); i < st.n; i++ {
		if !st.active(i) || !maskBit(st.vs2, i) {
			continue
		}
		if op.Mnemonic == "vfirst" {
			return i, nil
		}
		count++
	}
	if op.Mnemonic == "vfirst" {
		return not64(0), nil
	}
	return count, nil
}

// maskSet writes the vmsbf/vmsif/vmsof mask from the first active set bit of vs2.
// Bits past the last element are cleared, like a compare.
func (st *applyState) maskSet() {
	first := st.n
	for i := uint64(0); i < st.n; i++ {
		if st.active(i) && maskBit(st.vs2, i) {
			first = i
			break
		}
	}
	for k := range st.out {
		st.out[k] = 0
	}
	for i := uint64(0); i < st.n; i++ {
		if !st.active(i) {
			setMaskBit(st.out, i, maskBit(st.vd, i))
			continue
		}
		var set bool
		switch st.op.Mnemonic {
		case "vmsbf":
			set = i < first
		case "vmsif":
			set = i <= first
		case "vmsof":
			set = i == first
		}
		setMaskBit(st.out, i, set)
	}
}

// index writes viota (exclusive prefix count of active vs2 bits) or vid.
func (st *applyState) index() {
	bits := st.sew.Bits()
	var count U64
	for i := uint64(0); i < st.n; i++ {
		if !st.active(i) {
			continue
		}
		if st.op.Mnemonic == "vid" {
			setLane(st.out, bits, i, trunc(i, bits))
			continue
		}
		setLane(st.out, bits, i, trunc(count, bits))
		if maskBit(st.vs2, i) {
			count++
		}
	}
}

// offset is the VX or VI index of a slide or gather, not truncated to SEW.
func (st *applyState) offset() U64 {
	if st.in.Form.Immediate() {
		return and64(U64(st.in.Vs1), riscv.Imm5Mask)
	}
	return st.in.Scalar
}

func (st *applyState) permute() error {
	bits := st.sew.Bits()
	n := st.n
	src := func(i U64) U64 { return getLane(st.vs2, bits, i) }
	if st.op.Mnemonic == "vcompress" {
		var j uint64
		for i := uint64(0); i < n; i++ {
			if maskBit(st.vs1, i) {
				setLane(st.out, bits, j, src(i))
				j++
			}
		}
		return nil
	}
	off := st.offset()
	for i := uint64(0); i < n; i++ {
		if !st.active(i) {
			continue
		}
		switch st.op.Mnemonic {
		case "vrgather":
			idx := off
			if st.in.Form == isa.FormVV {
				idx = getLane(st.vs1, bits, i)
			}
			var r U64
			if idx < n {
				r = src(idx)
			}
			setLane(st.out, bits, i, r)
		case "vslideup":
			// elements below the offset keep their value
			if i >= off {
				setLane(st.out, bits, i, src(i-off))
			}
		case "vslidedown":
			var r U64
			if off < n && i+off < n {
				r = src(i + off)
			}
			setLane(st.out, bits, i, r)
		case "vslide1up":
			if i == 0 {
				setLane(st.out, bits, i, trunc(st.in.Scalar, bits))
			} else {
				setLane(st.out, bits, i, src(i-1))
			}
		case "vslide1down":
			if i == n-1 {
				setLane(st.out, bits, i, trunc(st.in.Scalar, bits))
			} else {
				setLane(st.out, bits, i, src(i+1))
			}
		default:
			return fmt.Errorf("%w: %s", isa.ErrUnsupportedMnemonic, st.op.Mnemonic)
		}
	}
	return nil
}

// int4 packs pairs of saturated bytes into the low half of vd, or unpacks the
// nibbles of the low half of vs2 into sign-extended bytes.
func (st *applyState) int4() error {
	if st.sew != isa.SEW8 {
		return fmt.Errorf("%w: %s needs SEW 8, got %d", isa.ErrUnsupportedSEW, st.op.Mnemonic, st.sew.Bits())
	}
	switch st.op.Mnemonic {
	case "vpack4":
		for i := uint64(0); i < st.n/2; i++ {
			if st.active(i) {
				lo, hi := pack4(getLane(st.vs2, 8, 2*i)), pack4(getLane(st.vs2, 8, 2*i+1))
				setLane(st.out, 8, i, or64(shl64(4, hi), lo))
			}
		}
	case "vunpack4":
		for i := uint64(0); i < st.n; i++ {
			if st.active(i) {
				nibble := and64(shr64(4*(i%2), getLane(st.vs2, 8, i/2)), 0xF)
				setLane(st.out, 8, i, unpack4(nibble))
			}
		}
	default:
		return fmt.Errorf("%w: %s", isa.ErrUnsupportedMnemonic, st.op.Mnemonic)
	}
	return nil
}
