package slow

import "github.com/hpvpu/rvvgold/rvvgo/isa"

// Functions to parse the fields of an OP-V instruction word.
// These should 1:1 match with the same definitions in the isa package.

func field(instr U256, shift, width uint64) U256 {
	return and(shr(u256(shift), instr), mask(width))
}

func parseOpcode(instr U256) U256 {
	return field(instr, 0, 7)
}

func parseVd(instr U256) U256 {
	return field(instr, 7, 5)
}

func parseFunct3(instr U256) U256 {
	return field(instr, 12, 3)
}

func parseVs1(instr U256) U256 {
	return field(instr, 15, 5)
}

func parseVs2(instr U256) U256 {
	return field(instr, 20, 5)
}

func parseVM(instr U256) U256 {
	return field(instr, 25, 1)
}

func parseFunct6(instr U256) U256 {
	return field(instr, 26, 6)
}

// parseVsew returns the vtype.vsew field of a vsetvli word.
func parseVsew(instr U256) U256 {
	return field(instr, 23, 3)
}

func u32(v U256) uint32 {
	return uint32(v.Uint64())
}

// DecodeFields splits an instruction word into its fields.
func DecodeFields(instr uint32) isa.Fields {
	w := u256(uint64(instr))
	return isa.Fields{
		Funct6: u32(parseFunct6(w)),
		VM:     u32(parseVM(w)),
		Vs2:    u32(parseVs2(w)),
		Vs1:    u32(parseVs1(w)),
		Funct3: u32(parseFunct3(w)),
		Vd:     u32(parseVd(w)),
		Opcode: u32(parseOpcode(w)),
	}
}

// EncodeFields assembles an instruction word. Every field is cut to its width.
func EncodeFields(f isa.Fields) uint32 {
	var w U256
	w = or(w, field(u256(uint64(f.Opcode)), 0, 7))
	w = or(w, shl(u256(7), field(u256(uint64(f.Vd)), 0, 5)))
	w = or(w, shl(u256(12), field(u256(uint64(f.Funct3)), 0, 3)))
	w = or(w, shl(u256(15), field(u256(uint64(f.Vs1)), 0, 5)))
	w = or(w, shl(u256(20), field(u256(uint64(f.Vs2)), 0, 5)))
	w = or(w, shl(u256(25), field(u256(uint64(f.VM)), 0, 1)))
	w = or(w, shl(u256(26), field(u256(uint64(f.Funct6)), 0, 6)))
	return u32(w)
}
