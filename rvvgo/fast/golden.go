package fast

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// Case is the abstract description of one directed test.
// Source registers are presumed filled with Vs2Value, OperandValue and VdValue replicated
// across every element. Register-level ops run on a register file where every other register,
// v0 included, is zero.
type Case struct {
	Mnemonic string   `json:"op"`
	Form     isa.Form `json:"form"`
	SEW      isa.SEW  `json:"sew"`
	Vd       uint32   `json:"vd"`
	Vs2      uint32   `json:"vs2"`
	// Operand is the vs1/rs1/imm5 field.
	Operand uint32 `json:"operand"`
	VM      bool   `json:"vm"`

	Vs2Value U64 `json:"vs2Value"`
	// OperandValue is the vs1 element or x[rs1] value. Immediate forms take the value from Operand.
	OperandValue U64 `json:"operandValue"`
	VdValue      U64 `json:"vdValue"`
	// VLEN sets the reduction element count and the register width of register-level ops,
	// DefaultVLEN if zero.
	VLEN uint64 `json:"vlen,omitempty"`
}

// GoldenRecord is the encoded word and expected value of one test case.
type GoldenRecord struct {
	Case

	Encoding hexutil.Uint64 `json:"encoding"`
	Vsetvli  hexutil.Uint64 `json:"vsetvli"`
	Asm      string         `json:"asm"`
	Family   isa.Family     `json:"family"`
	// Element is the operand as the evaluator consumed it, after immediate extension.
	Element  hexutil.Uint64 `json:"element"`
	Expected hexutil.Uint64 `json:"expected"`
	// Width is the bit width of Expected.
	Width uint64 `json:"width"`

	// Hardware is the value the vector unit under test is known to produce where it differs.
	Hardware        *hexutil.Uint64 `json:"hardware,omitempty"`
	ExpectedFailure bool            `json:"expectedFailure,omitempty"`

	// Register is the whole destination register after a register-level op.
	// Expected then holds its element 0, or x[rd] for ops that write a scalar.
	Register hexutil.Bytes `json:"register,omitempty"`
}

// Golden computes the record of c with the default evaluator.
func Golden(c Case) (*GoldenRecord, error) {
	return defaultEvaluator.Golden(c)
}

func (e *Evaluator) Golden(c Case) (*GoldenRecord, error) {
	op, err := isa.Lookup(c.Mnemonic)
	if err != nil {
		return nil, err
	}
	ins := isa.Instruction{Op: op, Form: c.Form, Vd: c.Vd, Vs2: c.Vs2, Operand: c.Operand, VM: c.VM}
	enc, err := ins.Encode()
	if err != nil {
		return nil, err
	}
	// narrowing ops configure the wide source SEW
	vtypeSEW := c.SEW
	if op.Family == isa.FamilyNarrowing {
		vtypeSEW = c.SEW.Wide()
	}
	vsetvli, err := isa.EncodeVsetvli(vtypeSEW)
	if err != nil {
		return nil, err
	}

	operand := c.OperandValue
	if c.Form.Immediate() {
		operand = U64(c.Operand)
	}
	elem := OperandValue(op, c.Form, c.SEW, operand)

	rec := &GoldenRecord{
		Case:     c,
		Encoding: hexutil.Uint64(enc),
		Vsetvli:  hexutil.Uint64(vsetvli),
		Asm:      ins.String(),
		Family:   op.Family,
		Element:  hexutil.Uint64(elem),
		Width:    ResultBits(op, c.SEW),
	}
	vlen := c.VLEN
	if vlen == 0 {
		vlen = riscv.DefaultVLEN
	}
	if op.Family.RegisterLevel() {
		if err := e.registerGolden(rec, op, vlen); err != nil {
			return nil, fmt.Errorf("%s: %w", ins, err)
		}
		return rec, nil
	}
	if op.Family == isa.FamilyReduction {
		count := ElementCount(vlen, c.SEW)
		expected, err := Reduce(op.Mnemonic, c.SEW, c.Vs2Value, elem, count)
		if err != nil {
			return nil, err
		}
		rec.Expected = hexutil.Uint64(expected)
		if HasKnownSeedBug(op.Mnemonic) {
			hw, err := ReduceHardware(op.Mnemonic, c.SEW, c.Vs2Value, elem, count)
			if err != nil {
				return nil, err
			}
			if hw != expected {
				h := hexutil.Uint64(hw)
				rec.Hardware = &h
				rec.ExpectedFailure = true
			}
		}
		return rec, nil
	}
	expected, err := e.Eval(op, c.SEW, c.Vs2Value, elem, c.VdValue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ins, err)
	}
	rec.Expected = hexutil.Uint64(expected)
	return rec, nil
}

// registerGolden runs a register-level case on a full register file.
func (e *Evaluator) registerGolden(rec *GoldenRecord, op *isa.Op, vlen uint64) error {
	c := rec.Case
	v, err := NewVRF(riscv.RegCount, vlen)
	if err != nil {
		return err
	}
	if err := v.Fill(uint8(c.Vd), c.SEW, c.VdValue); err != nil {
		return err
	}
	if !op.NoVs2 {
		if err := v.Fill(uint8(c.Vs2), c.SEW, c.Vs2Value); err != nil {
			return err
		}
	}
	if readsVs1(c.Form) {
		if err := v.Fill(uint8(c.Operand), c.SEW, c.OperandValue); err != nil {
			return err
		}
	}
	in := Instr{
		Mnemonic: c.Mnemonic, Form: c.Form, SEW: c.SEW,
		Vd: uint8(c.Vd), Vs2: uint8(c.Vs2), Vs1: uint8(c.Operand),
		Scalar: c.OperandValue, VM: c.VM,
	}
	if op.ScalarDest() {
		x, err := e.ApplyScalar(v, in)
		if err != nil {
			return err
		}
		rec.Expected = hexutil.Uint64(x)
		return nil
	}
	if err := e.Apply(v, in); err != nil {
		return err
	}
	out := v.Regs[c.Vd]
	rec.Register = append(hexutil.Bytes(nil), out...)
	if rec.Width < 8 {
		rec.Expected = hexutil.Uint64(trunc(U64(out[0]), rec.Width))
	} else {
		rec.Expected = hexutil.Uint64(getLane(out, rec.Width, 0))
	}
	return nil
}
