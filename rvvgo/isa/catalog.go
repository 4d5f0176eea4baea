package isa

import (
	"fmt"
	"sort"

	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// Family groups operations that share a numeric rule and a register-file write pattern.
type Family uint8

const (
	FamilyALU Family = iota
	FamilyCompare
	FamilyMultiply
	FamilyMAC
	FamilyWidening
	FamilyWideningMAC
	FamilyNarrowing
	FamilyReduction
	FamilyMaskLogical
	FamilyLUT
	FamilyMaskScalar
	FamilyMaskSet
	FamilyIndex
	FamilyPermute
	FamilyInt4
)

var familyNames = [...]string{
	FamilyALU:         "alu",
	FamilyCompare:     "compare",
	FamilyMultiply:    "multiply",
	FamilyMAC:         "mac",
	FamilyWidening:    "widening",
	FamilyWideningMAC: "widening-mac",
	FamilyNarrowing:   "narrowing",
	FamilyReduction:   "reduction",
	FamilyMaskLogical: "mask-logical",
	FamilyLUT:         "lut",
	FamilyMaskScalar:  "mask-scalar",
	FamilyMaskSet:     "mask-set",
	FamilyIndex:       "index",
	FamilyPermute:     "permute",
	FamilyInt4:        "int4",
}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Family) UnmarshalText(text []byte) error {
	for i, name := range familyNames {
		if name == string(text) {
			*f = Family(i)
			return nil
		}
	}
	return fmt.Errorf("unknown family %q", text)
}

// Accumulates reports whether the destination's old value is an operand.
func (f Family) Accumulates() bool {
	return f == FamilyMAC || f == FamilyWideningMAC
}

// WideResult reports whether the result is 2*SEW wide.
func (f Family) WideResult() bool {
	return f == FamilyWidening || f == FamilyWideningMAC
}

// RegisterLevel reports whether results depend on other elements of the sources,
// so the family has no single-element rule.
func (f Family) RegisterLevel() bool {
	switch f {
	case FamilyMaskScalar, FamilyMaskSet, FamilyIndex, FamilyPermute:
		return true
	}
	return false
}

// Major is the funct3 class of an operation: integer (OPI*) or mask/multiply (OPM*).
type Major uint8

const (
	MajorOPI Major = iota
	MajorOPM
)

func (m Major) String() string {
	if m == MajorOPM {
		return "opm"
	}
	return "opi"
}

func (m Major) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Major) UnmarshalText(text []byte) error {
	switch string(text) {
	case "opi":
		*m = MajorOPI
	case "opm":
		*m = MajorOPM
	default:
		return fmt.Errorf("unknown major %q", text)
	}
	return nil
}

// Op describes a single operation of the catalog. Ops are immutable.
type Op struct {
	Mnemonic string
	Funct6   uint32
	Family   Family
	Major    Major
	Forms    FormSet
	// UnsignedImm marks ops whose 5-bit immediate is a shift amount or index, zero-extended.
	UnsignedImm bool
	// Selector is the fixed vs1 field of LUT and unary ops.
	Selector uint32
	// NoVs2 marks ops whose vs2 field must be zero.
	NoVs2 bool
	// Unmasked marks ops that only define vm=1.
	Unmasked bool
}

// FixedVs1 reports whether the vs1 field holds Selector instead of an operand.
func (op *Op) FixedVs1() bool {
	return op.Family == FamilyLUT || op.Forms.Has(FormM) || op.Forms.Has(FormV)
}

// ScalarDest reports whether vd names a scalar register.
func (op *Op) ScalarDest() bool {
	return op.Family == FamilyMaskScalar
}

// Funct3 returns the funct3 used to encode op in the given form.
func (op *Op) Funct3(form Form) (uint32, error) {
	if !op.Forms.Has(form) {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnsupportedForm, op.Mnemonic, form)
	}
	switch op.Major {
	case MajorOPI:
		switch form {
		case FormVV, FormWV:
			return riscv.Funct3OPIVV, nil
		case FormVX:
			return riscv.Funct3OPIVX, nil
		case FormVI, FormWI:
			return riscv.Funct3OPIVI, nil
		}
	case MajorOPM:
		switch form {
		case FormVV, FormVS, FormMM, FormM, FormV, FormVM:
			return riscv.Funct3OPMVV, nil
		case FormVX:
			return riscv.Funct3OPMVX, nil
		}
	}
	return 0, fmt.Errorf("%w: %s.%s has no %s funct3", ErrUnsupportedForm, op.Mnemonic, form, op.Major)
}

func (op *Op) String() string {
	return op.Mnemonic
}

var (
	vvxi = Forms(FormVV, FormVX, FormVI)
	vvx  = Forms(FormVV, FormVX)
	vv   = Forms(FormVV)
	wvi  = Forms(FormWV, FormWI)
	vs   = Forms(FormVS)
	mm   = Forms(FormMM)
	vxi  = Forms(FormVX, FormVI)
	vx   = Forms(FormVX)
	unaryM = Forms(FormM)
	unaryV = Forms(FormV)
)

var ops = []*Op{
	// OPI element-wise
	{Mnemonic: "vadd", Funct6: 0b000000, Family: FamilyALU, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vsub", Funct6: 0b000010, Family: FamilyALU, Major: MajorOPI, Forms: vvx},
	// vrsub.vv is reserved in RVV 1.0 but the vector unit decodes it
	{Mnemonic: "vrsub", Funct6: 0b000011, Family: FamilyALU, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vminu", Funct6: 0b000100, Family: FamilyALU, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vmin", Funct6: 0b000101, Family: FamilyALU, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vmaxu", Funct6: 0b000110, Family: FamilyALU, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vmax", Funct6: 0b000111, Family: FamilyALU, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vand", Funct6: 0b001001, Family: FamilyALU, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vor", Funct6: 0b001010, Family: FamilyALU, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vxor", Funct6: 0b001011, Family: FamilyALU, Major: MajorOPI, Forms: vvxi},

	// permutes: VX indexes and offsets are the full scalar, VI ones are uimm5
	{Mnemonic: "vrgather", Funct6: 0b001100, Family: FamilyPermute, Major: MajorOPI, Forms: vvxi, UnsignedImm: true},
	{Mnemonic: "vslideup", Funct6: 0b001110, Family: FamilyPermute, Major: MajorOPI, Forms: vxi, UnsignedImm: true},
	{Mnemonic: "vslidedown", Funct6: 0b001111, Family: FamilyPermute, Major: MajorOPI, Forms: vxi, UnsignedImm: true},

	{Mnemonic: "vmv", Funct6: 0b010111, Family: FamilyALU, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vsaddu", Funct6: 0b100000, Family: FamilyALU, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vsadd", Funct6: 0b100001, Family: FamilyALU, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vssubu", Funct6: 0b100010, Family: FamilyALU, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vssub", Funct6: 0b100011, Family: FamilyALU, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vsll", Funct6: 0b100101, Family: FamilyALU, Major: MajorOPI, Forms: vvxi, UnsignedImm: true},
	{Mnemonic: "vsrl", Funct6: 0b101000, Family: FamilyALU, Major: MajorOPI, Forms: vvxi, UnsignedImm: true},
	{Mnemonic: "vsra", Funct6: 0b101001, Family: FamilyALU, Major: MajorOPI, Forms: vvxi, UnsignedImm: true},
	{Mnemonic: "vssrl", Funct6: 0b101010, Family: FamilyALU, Major: MajorOPI, Forms: vvxi, UnsignedImm: true},
	{Mnemonic: "vssra", Funct6: 0b101011, Family: FamilyALU, Major: MajorOPI, Forms: vvxi, UnsignedImm: true},

	// compares write one mask bit per element; vmsgt(u).vv are decoded like vrsub.vv
	{Mnemonic: "vmseq", Funct6: 0b011000, Family: FamilyCompare, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vmsne", Funct6: 0b011001, Family: FamilyCompare, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vmsltu", Funct6: 0b011010, Family: FamilyCompare, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vmslt", Funct6: 0b011011, Family: FamilyCompare, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vmsleu", Funct6: 0b011100, Family: FamilyCompare, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vmsle", Funct6: 0b011101, Family: FamilyCompare, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vmsgtu", Funct6: 0b011110, Family: FamilyCompare, Major: MajorOPI, Forms: vvxi},
	{Mnemonic: "vmsgt", Funct6: 0b011111, Family: FamilyCompare, Major: MajorOPI, Forms: vvxi},

	// narrowing: vs2 is 2*SEW wide
	{Mnemonic: "vnsrl", Funct6: 0b101100, Family: FamilyNarrowing, Major: MajorOPI, Forms: wvi, UnsignedImm: true},
	{Mnemonic: "vnsra", Funct6: 0b101101, Family: FamilyNarrowing, Major: MajorOPI, Forms: wvi, UnsignedImm: true},
	{Mnemonic: "vnclipu", Funct6: 0b101110, Family: FamilyNarrowing, Major: MajorOPI, Forms: wvi, UnsignedImm: true},
	{Mnemonic: "vnclip", Funct6: 0b101111, Family: FamilyNarrowing, Major: MajorOPI, Forms: wvi, UnsignedImm: true},

	// widening add/sub decode as OPIVV on the vector unit, unlike widening multiply
	{Mnemonic: "vwaddu", Funct6: 0b110000, Family: FamilyWidening, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vwadd", Funct6: 0b110001, Family: FamilyWidening, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vwsubu", Funct6: 0b110010, Family: FamilyWidening, Major: MajorOPI, Forms: vvx},
	{Mnemonic: "vwsub", Funct6: 0b110011, Family: FamilyWidening, Major: MajorOPI, Forms: vvx},

	// OPM
	{Mnemonic: "vredsum", Funct6: 0b000000, Family: FamilyReduction, Major: MajorOPM, Forms: vs},
	{Mnemonic: "vredand", Funct6: 0b000001, Family: FamilyReduction, Major: MajorOPM, Forms: vs},
	{Mnemonic: "vredor", Funct6: 0b000010, Family: FamilyReduction, Major: MajorOPM, Forms: vs},
	{Mnemonic: "vredxor", Funct6: 0b000011, Family: FamilyReduction, Major: MajorOPM, Forms: vs},
	{Mnemonic: "vredminu", Funct6: 0b000100, Family: FamilyReduction, Major: MajorOPM, Forms: vs},
	{Mnemonic: "vredmin", Funct6: 0b000101, Family: FamilyReduction, Major: MajorOPM, Forms: vs},
	{Mnemonic: "vredmaxu", Funct6: 0b000110, Family: FamilyReduction, Major: MajorOPM, Forms: vs},
	{Mnemonic: "vredmax", Funct6: 0b000111, Family: FamilyReduction, Major: MajorOPM, Forms: vs},

	{Mnemonic: "vslide1up", Funct6: 0b001110, Family: FamilyPermute, Major: MajorOPM, Forms: vx},
	{Mnemonic: "vslide1down", Funct6: 0b001111, Family: FamilyPermute, Major: MajorOPM, Forms: vx},

	// unary ops select the operation with vs1
	{Mnemonic: "vcpop", Funct6: 0b010000, Family: FamilyMaskScalar, Major: MajorOPM, Forms: unaryM, Selector: 0b10000},
	{Mnemonic: "vfirst", Funct6: 0b010000, Family: FamilyMaskScalar, Major: MajorOPM, Forms: unaryM, Selector: 0b10001},
	{Mnemonic: "vexp", Funct6: 0b010010, Family: FamilyLUT, Major: MajorOPM, Forms: vv, Selector: riscv.LUTFuncExp},
	{Mnemonic: "vrecip", Funct6: 0b010010, Family: FamilyLUT, Major: MajorOPM, Forms: vv, Selector: riscv.LUTFuncRecip},
	{Mnemonic: "vrsqrt", Funct6: 0b010010, Family: FamilyLUT, Major: MajorOPM, Forms: vv, Selector: riscv.LUTFuncRsqrt},
	{Mnemonic: "vgelu", Funct6: 0b010010, Family: FamilyLUT, Major: MajorOPM, Forms: vv, Selector: riscv.LUTFuncGelu},

	{Mnemonic: "vpack4", Funct6: 0b010011, Family: FamilyInt4, Major: MajorOPM, Forms: unaryV},
	{Mnemonic: "vmsbf", Funct6: 0b010100, Family: FamilyMaskSet, Major: MajorOPM, Forms: unaryM, Selector: 0b00001},
	{Mnemonic: "vmsof", Funct6: 0b010100, Family: FamilyMaskSet, Major: MajorOPM, Forms: unaryM, Selector: 0b00010},
	{Mnemonic: "vmsif", Funct6: 0b010100, Family: FamilyMaskSet, Major: MajorOPM, Forms: unaryM, Selector: 0b00011},
	{Mnemonic: "viota", Funct6: 0b010100, Family: FamilyIndex, Major: MajorOPM, Forms: unaryM, Selector: 0b10000},
	{Mnemonic: "vid", Funct6: 0b010100, Family: FamilyIndex, Major: MajorOPM, Forms: unaryV, Selector: 0b10001, NoVs2: true},
	{Mnemonic: "vunpack4", Funct6: 0b010101, Family: FamilyInt4, Major: MajorOPM, Forms: unaryV},
	{Mnemonic: "vcompress", Funct6: 0b010111, Family: FamilyPermute, Major: MajorOPM, Forms: Forms(FormVM), Unmasked: true},

	{Mnemonic: "vmandn", Funct6: 0b011000, Family: FamilyMaskLogical, Major: MajorOPM, Forms: mm},
	{Mnemonic: "vmand", Funct6: 0b011001, Family: FamilyMaskLogical, Major: MajorOPM, Forms: mm},
	{Mnemonic: "vmor", Funct6: 0b011010, Family: FamilyMaskLogical, Major: MajorOPM, Forms: mm},
	{Mnemonic: "vmxor", Funct6: 0b011011, Family: FamilyMaskLogical, Major: MajorOPM, Forms: mm},
	{Mnemonic: "vmorn", Funct6: 0b011100, Family: FamilyMaskLogical, Major: MajorOPM, Forms: mm},
	{Mnemonic: "vmnand", Funct6: 0b011101, Family: FamilyMaskLogical, Major: MajorOPM, Forms: mm},
	{Mnemonic: "vmnor", Funct6: 0b011110, Family: FamilyMaskLogical, Major: MajorOPM, Forms: mm},
	{Mnemonic: "vmxnor", Funct6: 0b011111, Family: FamilyMaskLogical, Major: MajorOPM, Forms: mm},

	{Mnemonic: "vmulhu", Funct6: 0b100100, Family: FamilyMultiply, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vmul", Funct6: 0b100101, Family: FamilyMultiply, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vmulhsu", Funct6: 0b100110, Family: FamilyMultiply, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vmulh", Funct6: 0b100111, Family: FamilyMultiply, Major: MajorOPM, Forms: vvx},

	{Mnemonic: "vmadd", Funct6: 0b101001, Family: FamilyMAC, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vnmsub", Funct6: 0b101011, Family: FamilyMAC, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vmacc", Funct6: 0b101101, Family: FamilyMAC, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vnmsac", Funct6: 0b101111, Family: FamilyMAC, Major: MajorOPM, Forms: vvx},

	{Mnemonic: "vwmulu", Funct6: 0b111000, Family: FamilyWidening, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vwmulsu", Funct6: 0b111010, Family: FamilyWidening, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vwmul", Funct6: 0b111011, Family: FamilyWidening, Major: MajorOPM, Forms: vvx},

	{Mnemonic: "vwmaccu", Funct6: 0b111100, Family: FamilyWideningMAC, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vwmacc", Funct6: 0b111101, Family: FamilyWideningMAC, Major: MajorOPM, Forms: vvx},
	{Mnemonic: "vwmaccsu", Funct6: 0b111111, Family: FamilyWideningMAC, Major: MajorOPM, Forms: vvx},
}

// opKey is the part of an instruction word that names an operation.
// Unary ops are also keyed on their vs1 selector.
type opKey struct {
	funct3 uint32
	funct6 uint32
	vs1    uint32
	unary  bool
}

type encoding struct {
	op   *Op
	form Form
}

var (
	byMnemonic = make(map[string]*Op, len(ops))
	byEncoding = make(map[opKey]encoding, 2*len(ops))
)

func init() {
	for _, op := range ops {
		if _, ok := byMnemonic[op.Mnemonic]; ok {
			panic(fmt.Errorf("duplicate mnemonic %q", op.Mnemonic))
		}
		byMnemonic[op.Mnemonic] = op
		for _, form := range op.Forms.List() {
			funct3, err := op.Funct3(form)
			if err != nil {
				panic(err)
			}
			k := keyOf(op, funct3)
			if prev, ok := byEncoding[k]; ok {
				panic(fmt.Errorf("%s.%s and %s.%s share funct3 %03b funct6 %06b", prev.op.Mnemonic, prev.form, op.Mnemonic, form, funct3, op.Funct6))
			}
			byEncoding[k] = encoding{op: op, form: form}
		}
	}
}

func keyOf(op *Op, funct3 uint32) opKey {
	if op.FixedVs1() {
		return opKey{funct3: funct3, funct6: op.Funct6, vs1: op.Selector, unary: true}
	}
	return opKey{funct3: funct3, funct6: op.Funct6}
}

// lookupEncoding finds the op and form of a word, trying unary selectors first.
func lookupEncoding(funct3, funct6, vs1 uint32) (encoding, bool) {
	if enc, ok := byEncoding[opKey{funct3: funct3, funct6: funct6, vs1: vs1, unary: true}]; ok {
		return enc, true
	}
	enc, ok := byEncoding[opKey{funct3: funct3, funct6: funct6}]
	return enc, ok
}

// Lookup returns the catalog entry of a mnemonic.
func Lookup(mnemonic string) (*Op, error) {
	op, ok := byMnemonic[mnemonic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMnemonic, mnemonic)
	}
	return op, nil
}

// MustLookup is Lookup for mnemonics known at compile time.
func MustLookup(mnemonic string) *Op {
	op, err := Lookup(mnemonic)
	if err != nil {
		panic(err)
	}
	return op
}

// Ops returns every catalog entry, sorted by family then mnemonic.
func Ops() []*Op {
	out := make([]*Op, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		return out[i].Mnemonic < out[j].Mnemonic
	})
	return out
}

// OpsOf returns the catalog entries of one family, sorted by mnemonic.
func OpsOf(family Family) []*Op {
	var out []*Op
	for _, op := range Ops() {
		if op.Family == family {
			out = append(out, op)
		}
	}
	return out
}
