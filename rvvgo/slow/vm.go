package slow

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

const (
	stateSizeVLEN    = 8
	stateSizeNumRegs = 1
	stateSizeWiden   = 1
)

const (
	stateOffsetVLEN    = 0
	stateOffsetNumRegs = stateOffsetVLEN + stateSizeVLEN
	stateOffsetWiden   = stateOffsetNumRegs + stateSizeNumRegs
	stateOffsetRegs    = stateOffsetWiden + stateSizeWiden
)

// witness widen byte
const (
	widenFull     = 0
	widenTruncate = 1
)

func revert(format string, args ...any) {
	panic(fmt.Errorf(format, args...))
}

// readHeader validates the witness layout and returns its shape.
func readHeader(witness []byte) (vlen, numRegs uint64, widen byte) {
	if len(witness) < stateOffsetRegs {
		revert("invalid witness length: %d", len(witness))
	}
	vlen = binary.BigEndian.Uint64(witness[stateOffsetVLEN : stateOffsetVLEN+stateSizeVLEN])
	numRegs = uint64(witness[stateOffsetNumRegs])
	widen = witness[stateOffsetWiden]
	if vlen == 0 || vlen%64 != 0 || vlen > riscv.MaxVLEN {
		revert("invalid vlen %d", vlen)
	}
	if widen > widenTruncate {
		revert("unknown widen mode %d", widen)
	}
	if expected := stateOffsetRegs + numRegs*(vlen/8); uint64(len(witness)) != expected {
		revert("invalid witness length: expected %d, got %d", expected, len(witness))
	}
	return
}

// readSEW returns the element width in bits configured by a vsetvli word.
func readSEW(vsetvli uint32) uint64 {
	cfg := u256(uint64(vsetvli))
	if !eq(parseOpcode(cfg), u256(riscv.OpcodeV)) || !eq(parseFunct3(cfg), u256(riscv.Funct3OPCFG)) {
		revert("%w: %08x is not vsetvli", isa.ErrUnknownEncoding, vsetvli)
	}
	vsew := parseVsew(cfg)
	if gt(vsew, u256(riscv.VsewE32)) {
		revert("%w: vsew %d", isa.ErrUnsupportedSEW, vsew.Uint64())
	}
	bw := shl(vsew, u256(8))
	return bw.Uint64()
}

// recoverRevert turns a revert panic into an error.
func recoverRevert(outErr *error) {
	if errInterface := recover(); errInterface != nil {
		if err, ok := errInterface.(error); ok {
			*outErr = fmt.Errorf("revert: %w", err)
		} else {
			*outErr = fmt.Errorf("revert: %v", errInterface) // nolint:errorlint
		}
	}
}

// Scalar executes vcpop.m or vfirst.m on a register file witness and returns x[rd].
// vfirst returns -1 as a 64 bit pattern when no active bit is set.
func Scalar(witness []byte, vsetvli, instr uint32) (result uint64, outErr error) {
	defer recoverRevert(&outErr)

	vlen, numRegs, _ := readHeader(witness)
	bits := readSEW(vsetvli)
	ins, err := isa.Decode(instr)
	if err != nil {
		revert("%w", err)
	}
	if !ins.Op.ScalarDest() {
		revert("%w: %s writes a vector register", isa.ErrUnsupportedForm, ins.Op.Mnemonic)
	}
	w := u256(uint64(instr))
	rs2 := parseVs2(w)
	vs2 := rs2.Uint64()
	if vs2 >= numRegs {
		revert("register v%d out of range, have %d registers", vs2, numRegs)
	}
	regSize := vlen / 8
	src := witness[stateOffsetRegs+vs2*regSize : stateOffsetRegs+(vs2+1)*regSize]
	v0 := witness[stateOffsetRegs : stateOffsetRegs+regSize]
	unmasked := !iszero(parseVM(w))

	count := U256{}
	for i := uint64(0); i < vlen/bits; i++ {
		if !unmasked && (v0[i/8]>>(i%8))&1 == 0 {
			continue
		}
		if (src[i/8]>>(i%8))&1 == 0 {
			continue
		}
		if ins.Op.Mnemonic == "vfirst" {
			return i, nil
		}
		count = add(count, u256(1))
	}
	if ins.Op.Mnemonic == "vfirst" {
		minusOne := not(U256{})
		return lane(minusOne, 64), nil
	}
	return count.Uint64(), nil
}

// Step applies one instruction word to a register file witness, and returns the post-state witness and its hash.
// vsetvli configures the element width; scalar is the value of x[rs1] for vector-scalar forms.
// Fixed-point shifts round with rnu.
func Step(witness []byte, vsetvli, instr uint32, scalar uint64) (post []byte, stateHash common.Hash, outErr error) {
	defer func() {
		if outErr != nil {
			post, stateHash = nil, common.Hash{}
		}
	}()
	defer recoverRevert(&outErr)

	//
	// State layout
	//
	vlen, numRegs, widen := readHeader(witness)
	regSize := vlen / 8
	pre := witness
	post = bytes.Clone(witness)

	reg := func(state []byte, r uint64) []byte {
		if r >= numRegs {
			revert("register v%d out of range, have %d registers", r, numRegs)
		}
		off := stateOffsetRegs + r*regSize
		return state[off : off+regSize]
	}

	//
	// Lane access, lanes are little-endian
	//
	readLane := func(r []byte, bits, i uint64) (out U256) {
		width := bits / 8
		be := make([]byte, width)
		for k := uint64(0); k < width; k++ {
			be[k] = r[i*width+width-1-k]
		}
		out.SetBytes(be)
		return
	}
	writeLane := func(r []byte, bits, i uint64, v U256) {
		width := bits / 8
		b32 := v.Bytes32()
		for k := uint64(0); k < width; k++ {
			r[i*width+k] = b32[31-k]
		}
	}
	maskBit := func(r []byte, i uint64) bool {
		return (r[i/8]>>(i%8))&1 == 1
	}
	setMaskBit := func(r []byte, i uint64, v bool) {
		if v {
			r[i/8] |= 1 << (i % 8)
		} else {
			r[i/8] &^= 1 << (i % 8)
		}
	}

	//
	// Instruction decode
	//
	bits := readSEW(vsetvli)
	sew := isa.SEW(bits)

	ins, err := isa.Decode(instr)
	if err != nil {
		revert("%w", err)
	}
	op := ins.Op
	w := u256(uint64(instr))
	rd, rs2, rs1 := parseVd(w), parseVs2(w), parseVs1(w)
	vd, vs2, vs1 := rd.Uint64(), rs2.Uint64(), rs1.Uint64()
	unmasked := !iszero(parseVM(w))

	switch op.Family {
	case isa.FamilyLUT:
		revert("%w: %s", isa.ErrUnsupportedMnemonic, op.Mnemonic)
	case isa.FamilyMaskScalar:
		revert("%w: %s writes x%d", isa.ErrUnsupportedForm, op.Mnemonic, vd)
	case isa.FamilyInt4:
		if bits != 8 {
			revert("%w: %s at SEW %d", isa.ErrUnsupportedSEW, op.Mnemonic, bits)
		}
	case isa.FamilyWidening, isa.FamilyWideningMAC, isa.FamilyNarrowing:
		if !sew.CanWiden() {
			revert("%w: %s at SEW %d", isa.ErrUnsupportedSEW, op.Mnemonic, bits)
		}
	}

	n := vlen / bits
	srcVs2 := reg(pre, vs2)
	oldVd := reg(pre, vd)
	v0 := reg(pre, 0)
	var srcVs1 []byte
	if !ins.Form.Scalar() && !ins.Form.Immediate() && !ins.Form.Unary() {
		srcVs1 = reg(pre, vs1)
	}
	out := reg(post, vd)

	active := func(i uint64) bool {
		return unmasked || maskBit(v0, i)
	}
	operand := func(width, i uint64) U256 {
		switch {
		case ins.Form.Scalar():
			return truncTo(u256(scalar), width)
		case ins.Form.Immediate():
			imm := u256(vs1)
			if op.UnsignedImm {
				return imm
			}
			if !iszero(bit(imm, 4)) {
				imm = or(imm, not(mask(5)))
			}
			return truncTo(imm, width)
		default:
			return readLane(srcVs1, width, i)
		}
	}

	//
	// Execute
	//
	switch op.Family {
	case isa.FamilyReduction:
		acc := readLane(srcVs1, bits, 0)
		for i := uint64(0); i < n; i++ {
			if active(i) {
				acc = truncTo(fold(op.Mnemonic, bits, acc, readLane(srcVs2, bits, i)), bits)
			}
		}
		writeLane(out, bits, 0, acc)
	case isa.FamilyCompare:
		for k := range out {
			out[k] = 0
		}
		for i := uint64(0); i < n; i++ {
			if !active(i) {
				setMaskBit(out, i, maskBit(oldVd, i))
				continue
			}
			r, _ := eval(op, bits, readLane(srcVs2, bits, i), operand(bits, i), U256{}, riscv.VXRMRoundNearestUp)
			setMaskBit(out, i, !iszero(r))
		}
	case isa.FamilyMaskLogical:
		if !unmasked {
			revert("%w: mask logical ops are always unmasked", isa.ErrUnsupportedForm)
		}
		for k := range out {
			r, width := eval(op, 8, u256(uint64(srcVs2[k])), u256(uint64(srcVs1[k])), U256{}, riscv.VXRMRoundNearestUp)
			out[k] = byte(lane(r, width))
		}
	case isa.FamilyWidening, isa.FamilyWideningMAC:
		if widen == widenFull {
			for i := uint64(0); i < n/2; i++ {
				if active(i) {
					r, width := eval(op, bits, readLane(srcVs2, bits, i), operand(bits, i), readLane(oldVd, 2*bits, i), riscv.VXRMRoundNearestUp)
					writeLane(out, 2*bits, i, truncTo(r, width))
				}
			}
			break
		}
		for i := uint64(0); i < n; i++ {
			if active(i) {
				r, _ := eval(op, bits, readLane(srcVs2, bits, i), operand(bits, i), readLane(oldVd, bits, i), riscv.VXRMRoundNearestUp)
				writeLane(out, bits, i, truncTo(r, bits))
			}
		}
	case isa.FamilyNarrowing:
		for i := uint64(0); i < n/2; i++ {
			if active(i) {
				r, width := eval(op, bits, readLane(srcVs2, 2*bits, i), operand(bits, i), U256{}, riscv.VXRMRoundNearestUp)
				writeLane(out, bits, i, truncTo(r, width))
			}
		}
	case isa.FamilyMaskSet:
		first := n
		for i := uint64(0); i < n; i++ {
			if active(i) && maskBit(srcVs2, i) {
				first = i
				break
			}
		}
		for k := range out {
			out[k] = 0
		}
		for i := uint64(0); i < n; i++ {
			switch {
			case !active(i):
				setMaskBit(out, i, maskBit(oldVd, i))
			case op.Mnemonic == "vmsbf":
				setMaskBit(out, i, i < first)
			case op.Mnemonic == "vmsif":
				setMaskBit(out, i, i <= first)
			case op.Mnemonic == "vmsof":
				setMaskBit(out, i, i == first)
			}
		}
	case isa.FamilyIndex:
		count := U256{}
		for i := uint64(0); i < n; i++ {
			if !active(i) {
				continue
			}
			if op.Mnemonic == "vid" {
				writeLane(out, bits, i, truncTo(u256(i), bits))
				continue
			}
			writeLane(out, bits, i, truncTo(count, bits))
			if maskBit(srcVs2, i) {
				count = add(count, u256(1))
			}
		}
	case isa.FamilyPermute:
		if op.Mnemonic == "vcompress" {
			j := uint64(0)
			for i := uint64(0); i < n; i++ {
				if maskBit(srcVs1, i) {
					writeLane(out, bits, j, readLane(srcVs2, bits, i))
					j++
				}
			}
			break
		}
		// offsets and scalar indexes are not truncated to SEW
		offset := u256(scalar)
		if ins.Form.Immediate() {
			offset = u256(vs1)
		}
		vlmax := u256(n)
		for i := uint64(0); i < n; i++ {
			if !active(i) {
				continue
			}
			idx := u256(i)
			switch op.Mnemonic {
			case "vrgather":
				src := offset
				if ins.Form == isa.FormVV {
					src = readLane(srcVs1, bits, i)
				}
				r := U256{}
				if lt(src, vlmax) {
					r = readLane(srcVs2, bits, src.Uint64())
				}
				writeLane(out, bits, i, r)
			case "vslideup":
				if !lt(idx, offset) {
					writeLane(out, bits, i, readLane(srcVs2, bits, i-offset.Uint64()))
				}
			case "vslidedown":
				src := add(idx, offset)
				r := U256{}
				if lt(src, vlmax) {
					r = readLane(srcVs2, bits, src.Uint64())
				}
				writeLane(out, bits, i, r)
			case "vslide1up":
				if i == 0 {
					writeLane(out, bits, i, truncTo(u256(scalar), bits))
				} else {
					writeLane(out, bits, i, readLane(srcVs2, bits, i-1))
				}
			case "vslide1down":
				if i == n-1 {
					writeLane(out, bits, i, truncTo(u256(scalar), bits))
				} else {
					writeLane(out, bits, i, readLane(srcVs2, bits, i+1))
				}
			default:
				revert("%w: %s", isa.ErrUnsupportedMnemonic, op.Mnemonic)
			}
		}
	case isa.FamilyInt4:
		if op.Mnemonic == "vpack4" {
			for i := uint64(0); i < n/2; i++ {
				if active(i) {
					lo, _ := eval(op, 8, readLane(srcVs2, 8, 2*i), U256{}, U256{}, riscv.VXRMRoundNearestUp)
					hi, _ := eval(op, 8, readLane(srcVs2, 8, 2*i+1), U256{}, U256{}, riscv.VXRMRoundNearestUp)
					writeLane(out, 8, i, or(shl(u256(4), truncTo(hi, 4)), truncTo(lo, 4)))
				}
			}
			break
		}
		for i := uint64(0); i < n; i++ {
			if active(i) {
				nibble := shr(u256(4*(i%2)), readLane(srcVs2, 8, i/2))
				r, width := eval(op, 8, nibble, U256{}, U256{}, riscv.VXRMRoundNearestUp)
				writeLane(out, 8, i, truncTo(r, width))
			}
		}
	default:
		merge := op.Mnemonic == "vmv" && !unmasked
		for i := uint64(0); i < n; i++ {
			switch {
			case merge && active(i):
				writeLane(out, bits, i, operand(bits, i))
			case merge:
				writeLane(out, bits, i, readLane(srcVs2, bits, i))
			case active(i):
				r, width := eval(op, bits, readLane(srcVs2, bits, i), operand(bits, i), readLane(oldVd, bits, i), riscv.VXRMRoundNearestUp)
				writeLane(out, bits, i, truncTo(r, width))
			}
		}
	}
	return post, crypto.Keccak256Hash(post), nil
}
