package fast

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// WidenMode selects how widening results are written into the register file.
type WidenMode uint8

const (
	// WidenFull writes VLEN/(2*SEW) results as 2*SEW lanes of vd. It is the zero value.
	WidenFull WidenMode = iota
	// WidenTruncate computes every element and keeps the low SEW bits at narrow width.
	// Only the narrow-width stress harness opts into it; it does not model register groups.
	WidenTruncate
)

func (m WidenMode) String() string {
	switch m {
	case WidenTruncate:
		return "truncate"
	case WidenFull:
		return "full"
	default:
		return fmt.Sprintf("widen(%d)", uint8(m))
	}
}

func (m WidenMode) MarshalText() ([]byte, error) {
	if m > WidenTruncate {
		return nil, fmt.Errorf("unknown widen mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *WidenMode) UnmarshalText(text []byte) error {
	v, err := ParseWidenMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func ParseWidenMode(v string) (WidenMode, error) {
	switch strings.ToLower(v) {
	case "full", "":
		return WidenFull, nil
	case "truncate":
		return WidenTruncate, nil
	}
	return 0, fmt.Errorf("unknown widen mode %q", v)
}

// VRF is the simulated vector register file. Each register is VLEN/8 bytes,
// lanes are little-endian at whatever SEW the reading instruction uses.
// A VRF is mutated in place and must not be shared between concurrent sequences.
type VRF struct {
	VLEN  uint64          `json:"vlen"`
	Widen WidenMode       `json:"widen"`
	Regs  []hexutil.Bytes `json:"regs"`
}

func validateShape(numRegs int, vlen uint64) error {
	if numRegs < 1 || numRegs > riscv.RegCount {
		return fmt.Errorf("invalid register count %d", numRegs)
	}
	if vlen < 64 || vlen > riscv.MaxVLEN || vlen&(vlen-1) != 0 {
		return fmt.Errorf("invalid vlen %d: must be a power of two in [64, %d]", vlen, riscv.MaxVLEN)
	}
	return nil
}

// NewVRF returns a zeroed register file.
func NewVRF(numRegs int, vlen uint64) (*VRF, error) {
	if err := validateShape(numRegs, vlen); err != nil {
		return nil, err
	}
	v := &VRF{VLEN: vlen, Regs: make([]hexutil.Bytes, numRegs)}
	for i := range v.Regs {
		v.Regs[i] = make(hexutil.Bytes, vlen/8)
	}
	return v, nil
}

// NewRandomVRF fills every register with VLEN/sew elements drawn from rng,
// register 0 first, element 0 first.
func NewRandomVRF(numRegs int, vlen uint64, sew isa.SEW, rng Rng) (*VRF, error) {
	if !sew.Valid() {
		return nil, fmt.Errorf("%w: %d", isa.ErrUnsupportedSEW, uint8(sew))
	}
	v, err := NewVRF(numRegs, vlen)
	if err != nil {
		return nil, err
	}
	n := ElementCount(vlen, sew)
	for r := range v.Regs {
		for i := uint64(0); i < n; i++ {
			setLane(v.Regs[r], sew.Bits(), i, randBelow(rng, sew.Mask()+1))
		}
	}
	return v, nil
}

// NewSeededVRF is NewRandomVRF with the SplitMix64 generator.
func NewSeededVRF(numRegs int, vlen uint64, sew isa.SEW, seed uint64) (*VRF, error) {
	return NewRandomVRF(numRegs, vlen, sew, NewSplitMix64(seed))
}

func (v *VRF) NumRegs() int {
	return len(v.Regs)
}

func (v *VRF) checkReg(reg uint8) error {
	if int(reg) >= len(v.Regs) {
		return fmt.Errorf("register v%d out of range, have %d registers", reg, len(v.Regs))
	}
	return nil
}

func getLane(reg []byte, bits uint64, i uint64) U64 {
	width := bits / 8
	off := i * width
	var out U64
	for k := uint64(0); k < width; k++ {
		out = or64(out, shl64(8*k, U64(reg[off+k])))
	}
	return out
}

func setLane(reg []byte, bits uint64, i uint64, val U64) {
	width := bits / 8
	off := i * width
	for k := uint64(0); k < width; k++ {
		reg[off+k] = byte(shr64(8*k, val))
	}
}

func maskBit(reg []byte, i uint64) bool {
	return (reg[i/8]>>(i%8))&1 == 1
}

func setMaskBit(reg []byte, i uint64, bit bool) {
	if bit {
		reg[i/8] |= 1 << (i % 8)
	} else {
		reg[i/8] &^= 1 << (i % 8)
	}
}

func (v *VRF) checkLane(reg uint8, bits uint64, i uint64) {
	if err := v.checkReg(reg); err != nil {
		panic(err)
	}
	if bits == 0 || bits%8 != 0 || bits > 64 {
		panic(fmt.Errorf("invalid lane width %d", bits))
	}
	if i >= v.VLEN/bits {
		panic(fmt.Errorf("lane %d out of range for %d bit lanes of a %d bit register", i, bits, v.VLEN))
	}
}

// Element reads lane i of a register. bits is a lane width of 8, 16, 32 or 64.
// reg must be below NumRegs and i below VLEN/bits, otherwise Element panics.
func (v *VRF) Element(reg uint8, bits uint64, i uint64) U64 {
	v.checkLane(reg, bits, i)
	return getLane(v.Regs[reg], bits, i)
}

// SetElement writes lane i of a register, with the same preconditions as Element.
func (v *VRF) SetElement(reg uint8, bits uint64, i uint64, val U64) {
	v.checkLane(reg, bits, i)
	setLane(v.Regs[reg], bits, i, val)
}

// Elements returns all VLEN/sew lanes of a register.
func (v *VRF) Elements(reg uint8, sew isa.SEW) []U64 {
	n := ElementCount(v.VLEN, sew)
	out := make([]U64, n)
	for i := range out {
		out[i] = v.Element(reg, sew.Bits(), uint64(i))
	}
	return out
}

// SetElements writes lanes 0..len(vals)-1, leaving the rest of the register untouched.
func (v *VRF) SetElements(reg uint8, sew isa.SEW, vals []U64) error {
	if err := v.checkReg(reg); err != nil {
		return err
	}
	if uint64(len(vals)) > ElementCount(v.VLEN, sew) {
		return fmt.Errorf("%d elements do not fit a %d bit register at %s", len(vals), v.VLEN, sew)
	}
	for i, val := range vals {
		v.SetElement(reg, sew.Bits(), uint64(i), val)
	}
	return nil
}

// Fill replicates one element across a register, like the directed compliance tests do.
func (v *VRF) Fill(reg uint8, sew isa.SEW, val U64) error {
	if err := v.checkReg(reg); err != nil {
		return err
	}
	n := ElementCount(v.VLEN, sew)
	for i := uint64(0); i < n; i++ {
		v.SetElement(reg, sew.Bits(), i, trunc(val, sew.Bits()))
	}
	return nil
}

// MaskBit returns bit i of v0.
func (v *VRF) MaskBit(i uint64) bool {
	return maskBit(v.Regs[0], i)
}

func (v *VRF) Copy() *VRF {
	out := &VRF{VLEN: v.VLEN, Widen: v.Widen, Regs: make([]hexutil.Bytes, len(v.Regs))}
	for i, r := range v.Regs {
		out.Regs[i] = bytes.Clone(r)
	}
	return out
}

// Equal compares register contents and shape.
func (v *VRF) Equal(o *VRF) bool {
	if v.VLEN != o.VLEN || len(v.Regs) != len(o.Regs) {
		return false
	}
	for i := range v.Regs {
		if !bytes.Equal(v.Regs[i], o.Regs[i]) {
			return false
		}
	}
	return true
}

// Diff lists the registers whose contents differ.
func (v *VRF) Diff(o *VRF) []int {
	var out []int
	for i := 0; i < len(v.Regs) && i < len(o.Regs); i++ {
		if !bytes.Equal(v.Regs[i], o.Regs[i]) {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks a VRF loaded from JSON.
func (v *VRF) Validate() error {
	if err := validateShape(len(v.Regs), v.VLEN); err != nil {
		return err
	}
	for i, r := range v.Regs {
		if uint64(len(r)) != v.VLEN/8 {
			return fmt.Errorf("register v%d has %d bytes, expected %d", i, len(r), v.VLEN/8)
		}
	}
	return nil
}

// Serialize writes the register file as a binary snapshot.
func (v *VRF) Serialize(out io.Writer) error {
	if err := binary.Write(out, binary.BigEndian, v.VLEN); err != nil {
		return err
	}
	if err := binary.Write(out, binary.BigEndian, uint8(len(v.Regs))); err != nil {
		return err
	}
	if err := binary.Write(out, binary.BigEndian, uint8(v.Widen)); err != nil {
		return err
	}
	for _, r := range v.Regs {
		if _, err := out.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func (v *VRF) Deserialize(in io.Reader) error {
	var vlen uint64
	if err := binary.Read(in, binary.BigEndian, &vlen); err != nil {
		return err
	}
	var numRegs, widen uint8
	if err := binary.Read(in, binary.BigEndian, &numRegs); err != nil {
		return err
	}
	if err := binary.Read(in, binary.BigEndian, &widen); err != nil {
		return err
	}
	if err := validateShape(int(numRegs), vlen); err != nil {
		return err
	}
	if WidenMode(widen) > WidenTruncate {
		return fmt.Errorf("unknown widen mode %d", widen)
	}
	v.VLEN = vlen
	v.Widen = WidenMode(widen)
	v.Regs = make([]hexutil.Bytes, numRegs)
	for i := range v.Regs {
		v.Regs[i] = make(hexutil.Bytes, vlen/8)
		if _, err := io.ReadFull(in, v.Regs[i]); err != nil {
			return fmt.Errorf("failed to read register v%d: %w", i, err)
		}
	}
	return nil
}
