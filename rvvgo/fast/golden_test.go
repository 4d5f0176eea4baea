package fast

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

func TestGolden(t *testing.T) {
	t.Run("vadd.vv", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 3, Vs2: 2, Operand: 1, VM: true,
			Vs2Value: 0xFF, OperandValue: 0x01})
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(0x022081D7), rec.Encoding)
		require.Equal(t, hexutil.Uint64(0x00007057), rec.Vsetvli)
		require.Equal(t, "vadd.vv v3, v2, v1", rec.Asm)
		require.Equal(t, isa.FamilyALU, rec.Family)
		require.Equal(t, hexutil.Uint64(0), rec.Expected)
		require.Equal(t, uint64(8), rec.Width)
		require.Nil(t, rec.Hardware)
	})
	t.Run("vadd.vi", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vadd", Form: isa.FormVI, SEW: isa.SEW16, Vd: 1, Vs2: 2, Operand: 0x1F, VM: true,
			Vs2Value: 0x0010})
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(0xFFFF), rec.Element)
		require.Equal(t, hexutil.Uint64(0x000F), rec.Expected)
		require.Equal(t, "vadd.vi v1, v2, -1", rec.Asm)
		require.Equal(t, hexutil.Uint64(0x00807057), rec.Vsetvli)
	})
	t.Run("vnsrl.wi", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vnsrl", Form: isa.FormWI, SEW: isa.SEW8, Vd: 1, Vs2: 2, Operand: 4, VM: true,
			Vs2Value: 0x1230})
		require.NoError(t, err)
		// configured at the wide source SEW
		require.Equal(t, hexutil.Uint64(0x00807057), rec.Vsetvli)
		require.Equal(t, hexutil.Uint64(0x23), rec.Expected)
		require.Equal(t, uint64(8), rec.Width)
	})
	t.Run("vwmul.vv", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vwmul", Form: isa.FormVV, SEW: isa.SEW8, Vd: 4, Vs2: 2, Operand: 1, VM: true,
			Vs2Value: 0x80, OperandValue: 0x80})
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(16384), rec.Expected)
		require.Equal(t, uint64(16), rec.Width)
	})
	t.Run("vwmacc.vv", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vwmacc", Form: isa.FormVV, SEW: isa.SEW16, Vd: 4, Vs2: 2, Operand: 1, VM: true,
			Vs2Value: 0xFFFF, OperandValue: 0x0002, VdValue: 0x0000_0010})
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(0x0000_000E), rec.Expected)
	})
	t.Run("vmslt.vx", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vmslt", Form: isa.FormVX, SEW: isa.SEW32, Vd: 1, Vs2: 2, Operand: 10, VM: true,
			Vs2Value: 0xFFFF_FFFF, OperandValue: 0})
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(1), rec.Expected)
		require.Equal(t, uint64(1), rec.Width)
		require.Equal(t, "vmslt.vx v1, v2, x10", rec.Asm)
	})
}

func TestGoldenReduction(t *testing.T) {
	rec, err := Golden(Case{Mnemonic: "vredsum", Form: isa.FormVS, SEW: isa.SEW8, Vd: 1, Vs2: 2, Operand: 3, VM: true,
		Vs2Value: 0x01, OperandValue: 0x05})
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(0x25), rec.Expected)
	require.Nil(t, rec.Hardware)
	require.False(t, rec.ExpectedFailure)

	rec, err = Golden(Case{Mnemonic: "vredsum", Form: isa.FormVS, SEW: isa.SEW8, Vd: 1, Vs2: 2, Operand: 3, VM: true,
		Vs2Value: 0x01, OperandValue: 0x05, VLEN: 1024})
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(0x85), rec.Expected)

	rec, err = Golden(Case{Mnemonic: "vredand", Form: isa.FormVS, SEW: isa.SEW8, Vd: 1, Vs2: 2, Operand: 3, VM: true,
		Vs2Value: 0x55, OperandValue: 0xAA})
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(0x00), rec.Expected)
	require.NotNil(t, rec.Hardware)
	require.Equal(t, hexutil.Uint64(0x55), *rec.Hardware)
	require.True(t, rec.ExpectedFailure)

	// an all-ones seed hides the dropped seed
	rec, err = Golden(Case{Mnemonic: "vredand", Form: isa.FormVS, SEW: isa.SEW8, Vd: 1, Vs2: 2, Operand: 3, VM: true,
		Vs2Value: 0x55, OperandValue: 0xFF})
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(0x55), rec.Expected)
	require.Nil(t, rec.Hardware)
	require.False(t, rec.ExpectedFailure)
}

func TestGoldenRegisterLevel(t *testing.T) {
	t.Run("vid.v", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vid", Form: isa.FormV, SEW: isa.SEW8, Vd: 3, VM: true, VdValue: 0xEE})
		require.NoError(t, err)
		require.Equal(t, "vid.v v3", rec.Asm)
		require.Equal(t, isa.FamilyIndex, rec.Family)
		require.Len(t, rec.Register, riscv.DefaultVLEN/8)
		for i, b := range rec.Register {
			require.Equal(t, byte(i), b)
		}
		require.Equal(t, hexutil.Uint64(0), rec.Expected)
	})
	t.Run("vcpop.m", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vcpop", Form: isa.FormM, SEW: isa.SEW8, Vd: 1, Vs2: 2, VM: true, Vs2Value: 0x01})
		require.NoError(t, err)
		require.Equal(t, "vcpop.m x1, v2", rec.Asm)
		// 32 mask bits at SEW 8, one set per byte
		require.Equal(t, hexutil.Uint64(4), rec.Expected)
		require.Equal(t, uint64(64), rec.Width)
		require.Nil(t, rec.Register)
	})
	t.Run("vslidedown.vi", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vslidedown", Form: isa.FormVI, SEW: isa.SEW8, Vd: 1, Vs2: 2, Operand: 1, VM: true,
			Vs2Value: 0x11, VdValue: 0x22})
		require.NoError(t, err)
		require.Equal(t, "vslidedown.vi v1, v2, 1", rec.Asm)
		require.Equal(t, hexutil.Uint64(0x11), rec.Expected)
		require.Equal(t, byte(0x11), rec.Register[30])
		require.Equal(t, byte(0), rec.Register[31])
	})
	t.Run("vmsbf.m", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vmsbf", Form: isa.FormM, SEW: isa.SEW8, Vd: 1, Vs2: 2, VM: true, Vs2Value: 0x04, VdValue: 0xFF})
		require.NoError(t, err)
		require.Equal(t, uint64(1), rec.Width)
		require.Equal(t, hexutil.Uint64(1), rec.Expected)
		require.Equal(t, byte(0x03), rec.Register[0])
		for _, b := range rec.Register[1:] {
			require.Equal(t, byte(0), b)
		}
	})
	t.Run("vpack4.v", func(t *testing.T) {
		rec, err := Golden(Case{Mnemonic: "vpack4", Form: isa.FormV, SEW: isa.SEW8, Vd: 1, Vs2: 2, VM: true, Vs2Value: 0x7F})
		require.NoError(t, err)
		require.Equal(t, isa.FamilyInt4, rec.Family)
		require.Equal(t, hexutil.Uint64(0x7), rec.Expected)
		require.Equal(t, uint64(4), rec.Width)
	})
}

func TestGoldenLUT(t *testing.T) {
	tab := make([]uint16, riscv.LUTSize)
	tab[0x80] = 0x3C00
	e := &Evaluator{VXRM: riscv.VXRMRoundNearestUp, LUT: &Tables{Exp: tab}}
	rec, err := e.Golden(Case{Mnemonic: "vexp", Form: isa.FormVV, SEW: isa.SEW16, Vd: 3, Vs2: 2, VM: true, Vs2Value: 0x80})
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(0x3C00), rec.Expected)
	require.Equal(t, "vexp.v v3, v2", rec.Asm)

	_, err = Golden(Case{Mnemonic: "vexp", Form: isa.FormVV, SEW: isa.SEW16, Vd: 3, Vs2: 2, VM: true, Vs2Value: 0x80})
	require.ErrorIs(t, err, ErrNoLUT)
}

func TestGoldenErrors(t *testing.T) {
	for _, c := range []Case{
		{Mnemonic: "vfoo", Form: isa.FormVV, SEW: isa.SEW8, VM: true},
		{Mnemonic: "vwmul", Form: isa.FormVI, SEW: isa.SEW8, VM: true},
		{Mnemonic: "vwmul", Form: isa.FormVV, SEW: isa.SEW32, VM: true},
		{Mnemonic: "vnsrl", Form: isa.FormWV, SEW: isa.SEW32, VM: true},
		{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW(64), VM: true},
	} {
		_, err := Golden(c)
		require.Error(t, err, "%s.%s", c.Mnemonic, c.Form)
	}
}

func TestGoldenJSON(t *testing.T) {
	rec, err := Golden(Case{Mnemonic: "vredor", Form: isa.FormVS, SEW: isa.SEW16, Vd: 1, Vs2: 2, Operand: 3, VM: true,
		Vs2Value: 0x00F0, OperandValue: 0x0F00})
	require.NoError(t, err)
	dat, err := json.Marshal(rec)
	require.NoError(t, err)
	require.Contains(t, string(dat), `"family":"reduction"`)
	require.Contains(t, string(dat), `"form":"vs"`)
	require.Contains(t, string(dat), `"expectedFailure":true`)

	var out GoldenRecord
	require.NoError(t, json.Unmarshal(dat, &out))
	require.Equal(t, *rec, out)
}
