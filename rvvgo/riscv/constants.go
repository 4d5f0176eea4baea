package riscv

const (
	OpcodeV = 0x57 // OP-V major opcode

	// funct3 selects the operand category of an OP-V instruction
	Funct3OPIVV = 0b000
	Funct3OPFVV = 0b001
	Funct3OPMVV = 0b010
	Funct3OPIVI = 0b011
	Funct3OPIVX = 0b100
	Funct3OPFVF = 0b101
	Funct3OPMVX = 0b110
	Funct3OPCFG = 0b111

	RegCount = 32
	RegMask  = 0x1F
	Imm5Mask = 0x1F

	// DefaultVLEN matches the VLEN=256 configuration of the vector unit under test.
	DefaultVLEN = 256
	MaxVLEN     = 4096

	// vsew encodings in vtype[5:3]
	VsewE8  = 0
	VsewE16 = 1
	VsewE32 = 2
	VsewE64 = 3

	VtypeVsewShift   = 3
	VsetvliZimmShift = 20

	// fixed-point rounding modes (vxrm CSR)
	VXRMRoundNearestUp   = 0 // rnu
	VXRMRoundNearestEven = 1 // rne
	VXRMRoundDown        = 2 // rdn
	VXRMRoundOdd         = 3 // rod

	// vs1 field of a LUT instruction selects the table
	LUTFuncExp   = 0
	LUTFuncRecip = 1
	LUTFuncRsqrt = 2
	LUTFuncGelu  = 3
	LUTSize      = 256
)
