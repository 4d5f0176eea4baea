package suite

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/log"

	"github.com/hpvpu/rvvgold/rvvgo/fast"
	"github.com/hpvpu/rvvgold/rvvgo/isa"
)

// Register roles shared by every directed test.
const (
	RegVd     = 3
	RegVs2    = 2
	RegVs1    = 1
	RegMaskVd = 0
	RegWideVd = 4
)

// Vector is one operand tuple of a table.
// Operand is the vs1 element, the x[rs1] value or the 5-bit immediate, depending on the form.
type Vector struct {
	Vs2     uint64
	Operand uint64
	Vd      uint64
}

// Table is a family of directed tests: every op crossed with every vector, at each width.
type Table struct {
	Name string
	Ops  []string
	Form isa.Form
	// SEWs restricts the table, nil means every requested width.
	SEWs    []isa.SEW
	Vd      uint32
	Vectors []Vector
}

func vec(vs2, operand uint64) Vector {
	return Vector{Vs2: vs2, Operand: operand}
}

var (
	narrowSEWs = []isa.SEW{isa.SEW8, isa.SEW16}

	aluOps   = []string{"vadd", "vsub", "vrsub", "vand", "vor", "vxor", "vsll", "vsrl", "vsra", "vmin", "vmax", "vminu", "vmaxu"}
	aluViOps = []string{"vadd", "vrsub", "vand", "vor", "vxor", "vsll", "vsrl", "vsra"}
	cmpOps   = []string{"vmseq", "vmsne", "vmslt", "vmsltu", "vmsle", "vmsleu", "vmsgt", "vmsgtu"}
	redOps   = []string{"vredsum", "vredand", "vredor", "vredxor", "vredminu", "vredmaxu", "vredmin", "vredmax"}
	maskOps  = []string{"vmand", "vmnand", "vmandn", "vmxor", "vmor", "vmnor", "vmorn", "vmxnor"}
	narOps   = []string{"vnsrl", "vnsra", "vnclip", "vnclipu"}
)

// Tables is the directed compliance suite, in output order.
var Tables = []Table{
	{Name: "alu-vv", Ops: aluOps, Form: isa.FormVV, Vd: RegVd, Vectors: []Vector{
		vec(0x00, 0x00), vec(0x01, 0x01), vec(0xFF, 0x01), vec(0x80, 0x7F),
		vec(0x7F, 0x80), vec(0x55, 0xAA), vec(0xFE, 0x03),
	}},
	{Name: "alu-vx", Ops: aluOps, Form: isa.FormVX, Vd: RegVd, Vectors: []Vector{
		vec(0x10, 0x05), vec(0xFF, 0x01), vec(0x80, 0x02), vec(0x7F, 0xFF),
	}},
	{Name: "alu-vi", Ops: aluViOps, Form: isa.FormVI, Vd: RegVd, Vectors: []Vector{
		vec(0x10, 0), vec(0xFF, 1), vec(0x80, 4), vec(0x7F, 15), vec(0x55, 31),
	}},
	{Name: "compare", Ops: cmpOps, Form: isa.FormVV, Vd: RegMaskVd, Vectors: []Vector{
		vec(0x00, 0x00), vec(0x01, 0x01), vec(0x01, 0x02), vec(0x02, 0x01),
		vec(0x7F, 0x80), vec(0x80, 0x7F), vec(0xFF, 0x00), vec(0x00, 0xFF),
	}},
	{Name: "multiply", Ops: []string{"vmul", "vmulh", "vmulhu", "vmulhsu"}, Form: isa.FormVV, Vd: RegVd, Vectors: []Vector{
		vec(0x02, 0x03), vec(0x10, 0x10), vec(0xFF, 0x02), vec(0x7F, 0x02), vec(0x80, 0x02), vec(0xFF, 0xFF),
	}},
	{Name: "mac", Ops: []string{"vmacc", "vnmsac", "vmadd", "vnmsub"}, Form: isa.FormVV, Vd: RegVd, Vectors: []Vector{
		{0x02, 0x03, 0x10}, {0x10, 0x02, 0x00}, {0xFF, 0x01, 0x50}, {0x7F, 0x02, 0x80}, {0x80, 0x02, 0x7F},
	}},
	{Name: "saturating", Ops: []string{"vsaddu", "vsadd", "vssubu", "vssub"}, Form: isa.FormVV, Vd: RegVd, Vectors: []Vector{
		vec(0x7F, 0x01), vec(0xFF, 0x01), vec(0x80, 0x01), vec(0x00, 0x01),
		vec(0x7F, 0x7F), vec(0x80, 0x80), vec(0x01, 0xFF),
	}},
	{Name: "fixed-point", Ops: []string{"vssrl", "vssra"}, Form: isa.FormVV, Vd: RegVd, Vectors: []Vector{
		vec(0x80, 1), vec(0xFF, 2), vec(0x7F, 3), vec(0x10, 4), vec(0xF0, 1),
	}},
	{Name: "widening", Ops: []string{"vwadd", "vwaddu", "vwsub", "vwsubu", "vwmul", "vwmulu", "vwmulsu"}, Form: isa.FormVV,
		SEWs: narrowSEWs, Vd: RegWideVd, Vectors: []Vector{
			vec(0x7F, 0x01), vec(0x80, 0x01), vec(0xFF, 0xFF), vec(0x7F, 0x7F), vec(0x80, 0x80),
		}},
	{Name: "widening-mac", Ops: []string{"vwmacc", "vwmaccu", "vwmaccsu"}, Form: isa.FormVV,
		SEWs: narrowSEWs, Vd: RegWideVd, Vectors: []Vector{
			{0x10, 0x10, 0x0000}, {0x7F, 0x02, 0x0100}, {0xFF, 0xFF, 0x0000},
		}},
	{Name: "narrowing-wv", Ops: narOps, Form: isa.FormWV, SEWs: narrowSEWs, Vd: RegVd, Vectors: []Vector{
		vec(0x0000, 0), vec(0x00FF, 0), vec(0x0100, 0), vec(0x7FFF, 0), vec(0x8000, 0),
		vec(0xFFFF, 0), vec(0x0100, 8), vec(0xFF00, 8), vec(0x8000, 7),
	}},
	{Name: "narrowing-wi", Ops: narOps, Form: isa.FormWI, SEWs: narrowSEWs, Vd: RegVd, Vectors: []Vector{
		vec(0x7FFF, 0), vec(0x8000, 0), vec(0x0100, 8), vec(0xFF00, 8), vec(0x8000, 7), vec(0x1234, 31),
	}},
	{Name: "reduction", Ops: redOps, Form: isa.FormVS, Vd: RegVd, Vectors: []Vector{
		vec(0x01, 0x00), vec(0xFF, 0x00), vec(0x55, 0xAA), vec(0x7F, 0x80), vec(0x80, 0x7F),
	}},
	{Name: "mask-logical", Ops: maskOps, Form: isa.FormMM, SEWs: []isa.SEW{isa.SEW8}, Vd: RegVd, Vectors: []Vector{
		vec(0x00, 0x00), vec(0xFF, 0xFF), vec(0xAA, 0x55), vec(0x0F, 0xF0),
		vec(0x33, 0xCC), vec(0x01, 0x80), vec(0xFE, 0x01),
	}},
	{Name: "lut", Ops: []string{"vexp", "vrecip", "vrsqrt", "vgelu"}, Form: isa.FormVV, SEWs: narrowSEWs, Vd: RegVd, Vectors: []Vector{
		vec(0x00, 0), vec(0x10, 0), vec(0x40, 0), vec(0x7F, 0), vec(0x80, 0), vec(0xFF, 0),
	}},
}

// Config selects what Build generates.
type Config struct {
	// SEWs lists the element widths to generate, all standard widths if empty.
	SEWs []isa.SEW
	// VLEN sets the reduction element count, the default VLEN if zero.
	VLEN uint64
}

// Suite is a built compliance suite.
type Suite struct {
	VLEN             uint64               `json:"vlen,omitempty"`
	Records          []*fast.GoldenRecord `json:"records"`
	Skipped          int                  `json:"skipped"`
	ExpectedFailures int                  `json:"expectedFailures"`
}

// Cases expands table t at sew into test cases.
func (t *Table) Cases(sew isa.SEW, vlen uint64) []fast.Case {
	if t.SEWs != nil && !slices.Contains(t.SEWs, sew) {
		return nil
	}
	out := make([]fast.Case, 0, len(t.Ops)*len(t.Vectors))
	for _, op := range t.Ops {
		for _, v := range t.Vectors {
			c := fast.Case{
				Mnemonic: op,
				Form:     t.Form,
				SEW:      sew,
				Vd:       t.Vd,
				Vs2:      RegVs2,
				Operand:  RegVs1,
				VM:       true,
				Vs2Value: v.Vs2,
				VdValue:  v.Vd,
				VLEN:     vlen,
			}
			switch {
			case t.Form.Immediate():
				c.Operand = uint32(v.Operand)
			default:
				c.OperandValue = v.Operand
			}
			out = append(out, c)
		}
	}
	return out
}

// Build evaluates every table at every configured width. Cases that fail are logged and skipped.
func Build(l log.Logger, e *fast.Evaluator, cfg Config) (*Suite, error) {
	sews := cfg.SEWs
	if len(sews) == 0 {
		sews = isa.AllSEW
	}
	for _, sew := range sews {
		if !sew.Valid() {
			return nil, fmt.Errorf("%w: %d", isa.ErrUnsupportedSEW, uint8(sew))
		}
	}
	s := &Suite{VLEN: cfg.VLEN, Records: []*fast.GoldenRecord{}}
	for i := range Tables {
		t := &Tables[i]
		if t.Name == "lut" && e.LUT == nil {
			l.Info("no lookup tables, skipping table", "table", t.Name)
			continue
		}
		n := 0
		for _, sew := range sews {
			for _, c := range t.Cases(sew, cfg.VLEN) {
				rec, err := e.Golden(c)
				if err != nil {
					l.Warn("skipping case", "table", t.Name, "op", c.Mnemonic, "sew", sew, "err", err)
					s.Skipped++
					continue
				}
				if rec.ExpectedFailure {
					s.ExpectedFailures++
				}
				s.Records = append(s.Records, rec)
				n++
			}
		}
		l.Debug("built table", "table", t.Name, "records", n)
	}
	l.Info("built suite", "records", len(s.Records), "skipped", s.Skipped, "expected_failures", s.ExpectedFailures)
	return s, nil
}
