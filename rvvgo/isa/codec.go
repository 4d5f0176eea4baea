package isa

import (
	"fmt"
	"strings"

	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// Fields is the unpacked OP-V instruction word.
//
//	31    26  25  24  20 19  15 14  12 11   7 6      0
//	funct6 | vm | vs2  | vs1  |funct3|  vd  | opcode
//
// Vs1 doubles as rs1 (OPIVX/OPMVX) and imm5 (OPIVI).
type Fields struct {
	Funct6 uint32 `json:"funct6"`
	VM     uint32 `json:"vm"`
	Vs2    uint32 `json:"vs2"`
	Vs1    uint32 `json:"vs1"`
	Funct3 uint32 `json:"funct3"`
	Vd     uint32 `json:"vd"`
	Opcode uint32 `json:"opcode"`
}

func parseOpcode(instr uint32) uint32 { return instr & 0x7F }
func parseVd(instr uint32) uint32     { return (instr >> 7) & 0x1F }
func parseFunct3(instr uint32) uint32 { return (instr >> 12) & 0x7 }
func parseVs1(instr uint32) uint32    { return (instr >> 15) & 0x1F }
func parseVs2(instr uint32) uint32    { return (instr >> 20) & 0x1F }
func parseVM(instr uint32) uint32     { return (instr >> 25) & 0x1 }
func parseFunct6(instr uint32) uint32 { return (instr >> 26) & 0x3F }

func ParseOpcode(instr uint32) uint32 {
	return parseOpcode(instr)
}

func ParseVd(instr uint32) uint32 {
	return parseVd(instr)
}

func ParseFunct3(instr uint32) uint32 {
	return parseFunct3(instr)
}

func ParseVs1(instr uint32) uint32 {
	return parseVs1(instr)
}

func ParseVs2(instr uint32) uint32 {
	return parseVs2(instr)
}

func ParseVM(instr uint32) uint32 {
	return parseVM(instr)
}

func ParseFunct6(instr uint32) uint32 {
	return parseFunct6(instr)
}

// EncodeFields packs the fields into a word. Each field is truncated to its width.
func EncodeFields(f Fields) uint32 {
	return (f.Funct6&0x3F)<<26 |
		(f.VM&0x1)<<25 |
		(f.Vs2&0x1F)<<20 |
		(f.Vs1&0x1F)<<15 |
		(f.Funct3&0x7)<<12 |
		(f.Vd&0x1F)<<7 |
		f.Opcode&0x7F
}

func DecodeFields(instr uint32) Fields {
	return Fields{
		Funct6: parseFunct6(instr),
		VM:     parseVM(instr),
		Vs2:    parseVs2(instr),
		Vs1:    parseVs1(instr),
		Funct3: parseFunct3(instr),
		Vd:     parseVd(instr),
		Opcode: parseOpcode(instr),
	}
}

func boolBit(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// Encode builds the instruction word of mnemonic in the given form.
// operand is vs1 for vector forms, the rs1 index for VX, and the 5-bit immediate for VI/WI.
// vm=true means unmasked. The immediate is masked to 5 bits and never sign-extended here.
// LUT and unary ops ignore operand and encode their selector in vs1.
func Encode(mnemonic string, form Form, vd, vs2, operand uint32, vm bool) (uint32, error) {
	op, err := Lookup(mnemonic)
	if err != nil {
		return 0, err
	}
	return EncodeOp(op, form, vd, vs2, operand, vm)
}

func EncodeOp(op *Op, form Form, vd, vs2, operand uint32, vm bool) (uint32, error) {
	funct3, err := op.Funct3(form)
	if err != nil {
		return 0, err
	}
	if op.FixedVs1() {
		operand = op.Selector
	}
	if op.NoVs2 {
		vs2 = 0
	}
	if op.Unmasked && !vm {
		return 0, fmt.Errorf("%w: %s.%s is always unmasked", ErrUnsupportedForm, op.Mnemonic, form)
	}
	if form.Immediate() {
		operand &= riscv.Imm5Mask
	}
	return EncodeFields(Fields{
		Funct6: op.Funct6,
		VM:     boolBit(vm),
		Vs2:    vs2 & riscv.RegMask,
		Vs1:    operand & riscv.RegMask,
		Funct3: funct3,
		Vd:     vd & riscv.RegMask,
		Opcode: riscv.OpcodeV,
	}), nil
}

// Instruction is a decoded or to-be-encoded OP-V arithmetic instruction.
type Instruction struct {
	Op      *Op
	Form    Form
	Vd      uint32
	Vs2     uint32
	Operand uint32
	VM      bool
}

func (ins Instruction) Encode() (uint32, error) {
	if ins.Op == nil {
		return 0, fmt.Errorf("%w: empty instruction", ErrUnknownMnemonic)
	}
	return EncodeOp(ins.Op, ins.Form, ins.Vd, ins.Vs2, ins.Operand, ins.VM)
}

// Decode inverts Encode for every word the catalog can produce.
func Decode(instr uint32) (Instruction, error) {
	f := DecodeFields(instr)
	if f.Opcode != riscv.OpcodeV {
		return Instruction{}, fmt.Errorf("%w: opcode %#02x", ErrNotVector, f.Opcode)
	}
	var major Major
	switch f.Funct3 {
	case riscv.Funct3OPIVV, riscv.Funct3OPIVX, riscv.Funct3OPIVI:
		major = MajorOPI
	case riscv.Funct3OPMVV, riscv.Funct3OPMVX:
		major = MajorOPM
	default:
		return Instruction{}, fmt.Errorf("%w: funct3 %03b", ErrUnknownEncoding, f.Funct3)
	}
	enc, ok := lookupEncoding(f.Funct3, f.Funct6, f.Vs1)
	if !ok {
		return Instruction{}, fmt.Errorf("%w: %s funct6 %06b with funct3 %03b", ErrUnknownEncoding, major, f.Funct6, f.Funct3)
	}
	op := enc.op
	if op.NoVs2 && f.Vs2 != 0 {
		return Instruction{}, fmt.Errorf("%w: %s with vs2 v%d", ErrUnknownEncoding, op.Mnemonic, f.Vs2)
	}
	if op.Unmasked && f.VM == 0 {
		return Instruction{}, fmt.Errorf("%w: masked %s", ErrUnknownEncoding, op.Mnemonic)
	}
	return Instruction{
		Op:      op,
		Form:    enc.form,
		Vd:      f.Vd,
		Vs2:     f.Vs2,
		Operand: f.Vs1,
		VM:      f.VM == 1,
	}, nil
}

// String renders the instruction in assembler syntax.
func (ins Instruction) String() string {
	if ins.Op == nil {
		return "<invalid>"
	}
	var b strings.Builder
	switch {
	case ins.Op.Family == FamilyLUT:
		fmt.Fprintf(&b, "%s.v v%d, v%d", ins.Op.Mnemonic, ins.Vd, ins.Vs2)
	case ins.Op.ScalarDest():
		fmt.Fprintf(&b, "%s.%s x%d, v%d", ins.Op.Mnemonic, ins.Form, ins.Vd, ins.Vs2)
	case ins.Op.NoVs2:
		fmt.Fprintf(&b, "%s.%s v%d", ins.Op.Mnemonic, ins.Form, ins.Vd)
	case ins.Form.Unary():
		fmt.Fprintf(&b, "%s.%s v%d, v%d", ins.Op.Mnemonic, ins.Form, ins.Vd, ins.Vs2)
	default:
		fmt.Fprintf(&b, "%s.%s v%d, v%d, ", ins.Op.Mnemonic, ins.Form, ins.Vd, ins.Vs2)
		switch {
		case ins.Form.Scalar():
			fmt.Fprintf(&b, "x%d", ins.Operand)
		case ins.Form.Immediate() && !ins.Op.UnsignedImm:
			fmt.Fprintf(&b, "%d", SignExtendImm5(ins.Operand))
		case ins.Form.Immediate():
			fmt.Fprintf(&b, "%d", ins.Operand&riscv.Imm5Mask)
		default:
			fmt.Fprintf(&b, "v%d", ins.Operand)
		}
	}
	if !ins.VM {
		b.WriteString(", v0.t")
	}
	return b.String()
}

// SignExtendImm5 interprets the low 5 bits as a two's complement immediate.
func SignExtendImm5(imm uint32) int32 {
	imm &= riscv.Imm5Mask
	if imm&0x10 != 0 {
		return int32(imm) - 0x20
	}
	return int32(imm)
}

// EncodeVsetvli returns "vsetvli x0, x0, e<sew>, m1": vl is set to VLMAX.
func EncodeVsetvli(sew SEW) (uint32, error) {
	vsew, err := sew.Vsew()
	if err != nil {
		return 0, err
	}
	vtypei := vsew << riscv.VtypeVsewShift // vlmul=000, ta=0, ma=0
	return vtypei<<riscv.VsetvliZimmShift | riscv.Funct3OPCFG<<12 | riscv.OpcodeV, nil
}

// DecodeVsetvli returns the SEW configured by a vsetvli word.
func DecodeVsetvli(instr uint32) (SEW, error) {
	if parseOpcode(instr) != riscv.OpcodeV || parseFunct3(instr) != riscv.Funct3OPCFG || instr>>31 != 0 {
		return 0, fmt.Errorf("%w: %08x is not vsetvli", ErrUnknownEncoding, instr)
	}
	vtypei := (instr >> riscv.VsetvliZimmShift) & 0x7FF
	switch (vtypei >> riscv.VtypeVsewShift) & 0x7 {
	case riscv.VsewE8:
		return SEW8, nil
	case riscv.VsewE16:
		return SEW16, nil
	case riscv.VsewE32:
		return SEW32, nil
	default:
		return 0, fmt.Errorf("%w: vtype %03x", ErrUnsupportedSEW, vtypei)
	}
}
