package fast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
)

// newTestVRF returns 16 registers of 128 bits: 16 elements at SEW 8.
func newTestVRF(t *testing.T) *VRF {
	v, err := NewVRF(16, 128)
	require.NoError(t, err)
	return v
}

func iota8(n int, base U64) []U64 {
	out := make([]U64, n)
	for i := range out {
		out[i] = base + U64(i)
	}
	return out
}

func TestApplyElementwise(t *testing.T) {
	t.Run("vv", func(t *testing.T) {
		v := newTestVRF(t)
		require.NoError(t, v.SetElements(2, isa.SEW8, iota8(16, 0)))
		require.NoError(t, v.Fill(3, isa.SEW8, 0xF0))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true}))
		require.Equal(t, iota8(16, 0xF0), v.Elements(1, isa.SEW8))
	})
	t.Run("vx", func(t *testing.T) {
		v := newTestVRF(t)
		require.NoError(t, v.Fill(2, isa.SEW8, 0x10))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vadd", Form: isa.FormVX, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 5, Scalar: 0x105, VM: true}))
		for _, e := range v.Elements(1, isa.SEW8) {
			require.Equal(t, U64(0x15), e)
		}
	})
	t.Run("vi", func(t *testing.T) {
		v := newTestVRF(t)
		require.NoError(t, v.Fill(2, isa.SEW16, 0x0010))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vadd", Form: isa.FormVI, SEW: isa.SEW16, Vd: 1, Vs2: 2, Vs1: 0x1F, VM: true}))
		for _, e := range v.Elements(1, isa.SEW16) {
			require.Equal(t, U64(0x000F), e)
		}
		require.NoError(t, v.Apply(Instr{Mnemonic: "vsll", Form: isa.FormVI, SEW: isa.SEW16, Vd: 1, Vs2: 2, Vs1: 0x1F, VM: true}))
		for _, e := range v.Elements(1, isa.SEW16) {
			require.Equal(t, U64(0x0000), e) // 0x10 << 15 overflows
		}
	})
}

func TestApplyAliasing(t *testing.T) {
	v := newTestVRF(t)
	require.NoError(t, v.Fill(1, isa.SEW8, 3))
	require.NoError(t, v.Fill(2, isa.SEW8, 4))
	// vd aliases vs2: the product uses the old vd
	require.NoError(t, v.Apply(Instr{Mnemonic: "vmacc", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 1, Vs1: 2, VM: true}))
	for _, e := range v.Elements(1, isa.SEW8) {
		require.Equal(t, U64(15), e)
	}
	require.NoError(t, v.Fill(5, isa.SEW8, 5))
	require.NoError(t, v.Apply(Instr{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 5, Vs2: 5, Vs1: 5, VM: true}))
	for _, e := range v.Elements(5, isa.SEW8) {
		require.Equal(t, U64(10), e)
	}
}

func TestApplyMasked(t *testing.T) {
	v := newTestVRF(t)
	for i := range v.Regs[0] {
		v.Regs[0][i] = 0x55 // even elements active
	}
	require.NoError(t, v.Fill(1, isa.SEW8, 0x77))
	require.NoError(t, v.Fill(2, isa.SEW8, 1))
	require.NoError(t, v.Fill(3, isa.SEW8, 2))
	require.NoError(t, v.Apply(Instr{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3}))
	for i, e := range v.Elements(1, isa.SEW8) {
		if i%2 == 0 {
			require.Equal(t, U64(3), e, "element %d", i)
		} else {
			require.Equal(t, U64(0x77), e, "element %d", i)
		}
	}

	// vmv with a mask merges vs2 into the inactive elements
	require.NoError(t, v.Apply(Instr{Mnemonic: "vmv", Form: isa.FormVV, SEW: isa.SEW8, Vd: 4, Vs2: 2, Vs1: 3}))
	for i, e := range v.Elements(4, isa.SEW8) {
		if i%2 == 0 {
			require.Equal(t, U64(2), e, "element %d", i)
		} else {
			require.Equal(t, U64(1), e, "element %d", i)
		}
	}
}

func TestApplyReduction(t *testing.T) {
	v := newTestVRF(t)
	require.NoError(t, v.Fill(1, isa.SEW8, 0xAA))
	require.NoError(t, v.Fill(2, isa.SEW8, 3))
	require.NoError(t, v.Fill(3, isa.SEW8, 0x40))
	v.SetElement(3, 8, 0, 5)
	require.NoError(t, v.Apply(Instr{Mnemonic: "vredsum", Form: isa.FormVS, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true}))
	elems := v.Elements(1, isa.SEW8)
	require.Equal(t, U64(5+16*3), elems[0])
	for i := 1; i < len(elems); i++ {
		require.Equal(t, U64(0xAA), elems[i], "element %d must be untouched", i)
	}

	t.Run("masked", func(t *testing.T) {
		v.Regs[0][0] = 0x0F
		require.NoError(t, v.Apply(Instr{Mnemonic: "vredsum", Form: isa.FormVS, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3}))
		require.Equal(t, U64(5+4*3), v.Element(1, 8, 0))
	})
	t.Run("seed used", func(t *testing.T) {
		require.NoError(t, v.Fill(2, isa.SEW8, 0x55))
		v.SetElement(3, 8, 0, 0xAA)
		require.NoError(t, v.Apply(Instr{Mnemonic: "vredand", Form: isa.FormVS, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true}))
		require.Equal(t, U64(0), v.Element(1, 8, 0))
	})
}

func TestApplyCompare(t *testing.T) {
	v := newTestVRF(t)
	for i := range v.Regs[1] {
		v.Regs[1][i] = 0xFF
	}
	require.NoError(t, v.SetElements(2, isa.SEW8, iota8(16, 0)))
	require.NoError(t, v.Fill(3, isa.SEW8, 8))
	require.NoError(t, v.Apply(Instr{Mnemonic: "vmslt", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true}))
	require.Equal(t, []byte{0xFF, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, []byte(v.Regs[1]))

	t.Run("masked", func(t *testing.T) {
		v.Regs[0][0], v.Regs[0][1] = 0x0F, 0x00
		v.Regs[1][0], v.Regs[1][1], v.Regs[1][2] = 0xF0, 0xAA, 0xFF
		require.NoError(t, v.Apply(Instr{Mnemonic: "vmseq", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 3, Vs1: 3}))
		require.Equal(t, byte(0xFF), v.Regs[1][0])
		require.Equal(t, byte(0xAA), v.Regs[1][1])
		require.Equal(t, byte(0x00), v.Regs[1][2])
	})
}

func TestApplyMaskLogical(t *testing.T) {
	v := newTestVRF(t)
	for i := range v.Regs[2] {
		v.Regs[2][i], v.Regs[3][i] = 0xF0, 0x3C
	}
	require.NoError(t, v.Apply(Instr{Mnemonic: "vmandn", Form: isa.FormMM, SEW: isa.SEW32, Vd: 1, Vs2: 2, Vs1: 3, VM: true}))
	for _, b := range v.Regs[1] {
		require.Equal(t, byte(0xC0), b)
	}
	before := v.Copy()
	err := v.Apply(Instr{Mnemonic: "vmand", Form: isa.FormMM, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3})
	require.ErrorIs(t, err, isa.ErrUnsupportedForm)
	require.True(t, before.Equal(v))
}

func TestApplyWidening(t *testing.T) {
	setup := func(t *testing.T, mode WidenMode) *VRF {
		v := newTestVRF(t)
		v.Widen = mode
		require.NoError(t, v.SetElements(2, isa.SEW8, iota8(16, 0)))
		require.NoError(t, v.Fill(3, isa.SEW8, 0x30))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vwmulu", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true}))
		return v
	}
	t.Run("truncate", func(t *testing.T) {
		v := setup(t, WidenTruncate)
		for i, e := range v.Elements(1, isa.SEW8) {
			require.Equal(t, trunc(U64(i)*0x30, 8), e, "element %d", i)
		}
	})
	t.Run("full", func(t *testing.T) {
		v := setup(t, WidenFull)
		for i, e := range v.Elements(1, isa.SEW16) {
			require.Equal(t, U64(i)*0x30, e, "element %d", i)
		}
	})
	t.Run("fresh vrf writes wide lanes", func(t *testing.T) {
		v, err := NewVRF(32, 256)
		require.NoError(t, err)
		require.Equal(t, WidenFull, v.Widen)
		require.NoError(t, v.Fill(1, isa.SEW8, 0x80))
		require.NoError(t, v.Fill(2, isa.SEW8, 0x80))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vwmul", Form: isa.FormVV, SEW: isa.SEW8, Vd: 4, Vs2: 2, Vs1: 1, VM: true}))
		wide := v.Elements(4, isa.SEW16)
		require.Len(t, wide, 16)
		for i, e := range wide {
			require.Equal(t, U64(0x4000), e, "element %d", i)
		}
	})
	t.Run("mac accumulates wide", func(t *testing.T) {
		v := newTestVRF(t)
		v.Widen = WidenFull
		require.NoError(t, v.Fill(1, isa.SEW16, 0x0100))
		require.NoError(t, v.Fill(2, isa.SEW8, 0xFF))
		require.NoError(t, v.Fill(3, isa.SEW8, 0xFF))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vwmaccu", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true}))
		for _, e := range v.Elements(1, isa.SEW16) {
			require.Equal(t, U64(0xFF01), e)
		}
	})
	t.Run("sew32", func(t *testing.T) {
		v := newTestVRF(t)
		before := v.Copy()
		err := v.Apply(Instr{Mnemonic: "vwadd", Form: isa.FormVV, SEW: isa.SEW32, Vd: 1, Vs2: 2, Vs1: 3, VM: true})
		require.ErrorIs(t, err, isa.ErrUnsupportedSEW)
		require.True(t, before.Equal(v))
	})
}

func TestApplyNarrowing(t *testing.T) {
	v := newTestVRF(t)
	require.NoError(t, v.Fill(1, isa.SEW8, 0x11))
	for i := uint64(0); i < 8; i++ {
		v.SetElement(2, 16, i, 0xAB00+i)
	}
	require.NoError(t, v.Apply(Instr{Mnemonic: "vnsrl", Form: isa.FormWI, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 8, VM: true}))
	for i, e := range v.Elements(1, isa.SEW8) {
		if i < 8 {
			require.Equal(t, U64(0xAB), e, "element %d", i)
		} else {
			require.Equal(t, U64(0x11), e, "element %d", i)
		}
	}
}

func TestApplyErrors(t *testing.T) {
	v, err := NewSeededVRF(16, 128, isa.SEW8, 11)
	require.NoError(t, err)
	before := v.Copy()
	for _, in := range []Instr{
		{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 16, Vs2: 2, Vs1: 3, VM: true},
		{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 31, VM: true},
		{Mnemonic: "vredsum", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true},
		{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW(64), Vd: 1, Vs2: 2, Vs1: 3, VM: true},
		{Mnemonic: "vfoo", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true},
		{Mnemonic: "vexp", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 0, VM: true},
	} {
		require.Error(t, v.Apply(in), in.String())
		require.True(t, before.Equal(v), in.String())
	}
	// scalar and immediate forms do not index a vs1 register
	require.NoError(t, v.Apply(Instr{Mnemonic: "vadd", Form: isa.FormVX, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 31, VM: true}))
}

func TestInstrString(t *testing.T) {
	require.Equal(t, "vadd.vv v1, v2, v3", Instr{Mnemonic: "vadd", Form: isa.FormVV, Vd: 1, Vs2: 2, Vs1: 3, VM: true}.String())
	require.Equal(t, "vfoo.vv", Instr{Mnemonic: "vfoo", Form: isa.FormVV}.String())
	enc, err := Instr{Mnemonic: "vadd", Form: isa.FormVV, Vd: 3, Vs2: 2, Vs1: 1, VM: true}.Encode()
	require.NoError(t, err)
	require.Equal(t, uint32(0x022081D7), enc)
}

func TestApplyRegisterLevel(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	cases := []struct {
		name     string
		in       Instr
		v0       []byte
		vs2      []byte
		vs1      []byte
		expected []byte
	}{
		{name: "vmsbf", in: Instr{Mnemonic: "vmsbf", Form: isa.FormM, VM: true}, vs2: []byte{0b0001_0100, 0xFF}, expected: []byte{0x03, 0, 0, 0, 0, 0, 0, 0}},
		{name: "vmsif", in: Instr{Mnemonic: "vmsif", Form: isa.FormM, VM: true}, vs2: []byte{0b0001_0100}, expected: []byte{0x07, 0, 0, 0, 0, 0, 0, 0}},
		{name: "vmsof", in: Instr{Mnemonic: "vmsof", Form: isa.FormM, VM: true}, vs2: []byte{0b0001_0100}, expected: []byte{0x04, 0, 0, 0, 0, 0, 0, 0}},
		{name: "vmsif none set", in: Instr{Mnemonic: "vmsif", Form: isa.FormM, VM: true}, vs2: []byte{0}, expected: []byte{0xFF, 0, 0, 0, 0, 0, 0, 0}},
		{name: "vmsof masked", in: Instr{Mnemonic: "vmsof", Form: isa.FormM}, v0: []byte{0b1111_0000}, vs2: []byte{0b0011_0100}, expected: []byte{0b0001_1010, 0, 0, 0, 0, 0, 0, 0}},
		{name: "viota", in: Instr{Mnemonic: "viota", Form: isa.FormM, VM: true}, vs2: []byte{0b1011_0010}, expected: []byte{0, 0, 1, 1, 1, 2, 3, 3}},
		{name: "viota masked", in: Instr{Mnemonic: "viota", Form: isa.FormM}, v0: []byte{0b1111_0101}, vs2: []byte{0b1011_0011}, expected: []byte{0, 0xAA, 1, 0xAA, 1, 2, 3, 3}},
		{name: "vid", in: Instr{Mnemonic: "vid", Form: isa.FormV, VM: true}, expected: []byte{0, 1, 2, 3, 4, 5, 6, 7}},
		{name: "vslideup", in: Instr{Mnemonic: "vslideup", Form: isa.FormVI, Vs1: 3, VM: true}, vs2: src, expected: []byte{0xAA, 0xAA, 0xAA, 1, 2, 3, 4, 5}},
		{name: "vslidedown", in: Instr{Mnemonic: "vslidedown", Form: isa.FormVX, Scalar: 6, VM: true}, vs2: src, expected: []byte{7, 8, 0, 0, 0, 0, 0, 0}},
		{name: "vslidedown past vlmax", in: Instr{Mnemonic: "vslidedown", Form: isa.FormVX, Scalar: ^U64(0), VM: true}, vs2: src, expected: make([]byte, 8)},
		{name: "vslide1up", in: Instr{Mnemonic: "vslide1up", Form: isa.FormVX, Scalar: 0x1FF, VM: true}, vs2: src, expected: []byte{0xFF, 1, 2, 3, 4, 5, 6, 7}},
		{name: "vslide1down", in: Instr{Mnemonic: "vslide1down", Form: isa.FormVX, Scalar: 0x1FF, VM: true}, vs2: src, expected: []byte{2, 3, 4, 5, 6, 7, 8, 0xFF}},
		{name: "vrgather", in: Instr{Mnemonic: "vrgather", Form: isa.FormVV, Vs1: 3, VM: true}, vs2: src, vs1: []byte{7, 0, 9, 1, 1, 1, 1, 0xFF}, expected: []byte{8, 1, 0, 2, 2, 2, 2, 0}},
		{name: "vrgather masked", in: Instr{Mnemonic: "vrgather", Form: isa.FormVI, Vs1: 2}, v0: []byte{0b0000_0011}, vs2: src, expected: []byte{3, 3, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}},
		{name: "vcompress", in: Instr{Mnemonic: "vcompress", Form: isa.FormVM, Vs1: 3, VM: true}, vs2: src, vs1: []byte{0b1010_0101}, expected: []byte{1, 3, 6, 8, 0xAA, 0xAA, 0xAA, 0xAA}},
		{name: "vpack4", in: Instr{Mnemonic: "vpack4", Form: isa.FormV, VM: true}, vs2: src, expected: []byte{0x21, 0x43, 0x65, 0x77, 0xAA, 0xAA, 0xAA, 0xAA}},
		{name: "vunpack4", in: Instr{Mnemonic: "vunpack4", Form: isa.FormV, VM: true}, vs2: []byte{0x21, 0xF8, 3, 4}, expected: []byte{1, 2, 0xF8, 0xFF, 3, 0, 4, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := NewVRF(4, 64)
			require.NoError(t, err)
			copy(v.Regs[0], c.v0)
			require.NoError(t, v.Fill(1, isa.SEW8, 0xAA))
			copy(v.Regs[2], c.vs2)
			copy(v.Regs[3], c.vs1)
			in := c.in
			in.SEW, in.Vd, in.Vs2 = isa.SEW8, 1, 2
			require.NoError(t, v.Apply(in))
			require.Equal(t, c.expected, []byte(v.Regs[1]))
		})
	}

	t.Run("int4 round trip", func(t *testing.T) {
		v := newTestVRF(t)
		vals := []U64{0x00, 0x07, 0x08, 0x7F, 0xF8, 0xF7, 0x80, 0xFF, 0x03, 0xFD, 0x10, 0xEF, 0x01, 0x02, 0x04, 0xFC}
		require.NoError(t, v.SetElements(2, isa.SEW8, vals))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vpack4", Form: isa.FormV, SEW: isa.SEW8, Vd: 3, Vs2: 2, VM: true}))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vunpack4", Form: isa.FormV, SEW: isa.SEW8, Vd: 4, Vs2: 3, VM: true}))
		for i, e := range v.Elements(4, isa.SEW8) {
			require.Equal(t, trunc(U64(clampS(int64(signExtend(vals[i], 8)), 4)), 8), e, "element %d", i)
		}
	})
	t.Run("slides at sew32", func(t *testing.T) {
		v := newTestVRF(t)
		require.NoError(t, v.SetElements(2, isa.SEW32, []U64{0x11111111, 0x22222222, 0x33333333, 0x44444444}))
		require.NoError(t, v.Apply(Instr{Mnemonic: "vslide1up", Form: isa.FormVX, SEW: isa.SEW32, Vd: 2, Vs2: 2, Scalar: 0x1_DEADBEEF, VM: true}))
		require.Equal(t, []U64{0xDEADBEEF, 0x11111111, 0x22222222, 0x33333333}, v.Elements(2, isa.SEW32))
	})
	t.Run("errors", func(t *testing.T) {
		v, err := NewSeededVRF(16, 128, isa.SEW8, 3)
		require.NoError(t, err)
		before := v.Copy()
		for _, in := range []Instr{
			{Mnemonic: "vcompress", Form: isa.FormVM, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3},
			{Mnemonic: "vpack4", Form: isa.FormV, SEW: isa.SEW16, Vd: 1, Vs2: 2, VM: true},
			{Mnemonic: "vslideup", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true},
			{Mnemonic: "vcpop", Form: isa.FormM, SEW: isa.SEW8, Vd: 1, Vs2: 2, VM: true},
		} {
			require.Error(t, v.Apply(in), in.String())
			require.True(t, before.Equal(v), in.String())
		}
		err = v.Apply(Instr{Mnemonic: "vfirst", Form: isa.FormM, SEW: isa.SEW8, Vd: 5, Vs2: 2, VM: true})
		require.ErrorIs(t, err, ErrScalarDest)
		// unary forms do not read a vs1 register
		require.NoError(t, v.Apply(Instr{Mnemonic: "vid", Form: isa.FormV, SEW: isa.SEW8, Vd: 1, Vs1: 31, VM: true}))
	})
}

func TestApplyScalar(t *testing.T) {
	v, err := NewVRF(4, 64)
	require.NoError(t, err)
	v.Regs[0][0] = 0b0000_1100
	v.Regs[2][0], v.Regs[2][1] = 0b1011_0010, 0xFF

	r, err := v.ApplyScalar(Instr{Mnemonic: "vcpop", Form: isa.FormM, SEW: isa.SEW8, Vd: 5, Vs2: 2, VM: true})
	require.NoError(t, err)
	require.Equal(t, U64(4), r)
	r, err = v.ApplyScalar(Instr{Mnemonic: "vcpop", Form: isa.FormM, SEW: isa.SEW16, Vd: 5, Vs2: 2, VM: true})
	require.NoError(t, err)
	require.Equal(t, U64(1), r, "four elements at SEW 16")
	r, err = v.ApplyScalar(Instr{Mnemonic: "vfirst", Form: isa.FormM, SEW: isa.SEW8, Vd: 5, Vs2: 2, VM: true})
	require.NoError(t, err)
	require.Equal(t, U64(1), r)
	r, err = v.ApplyScalar(Instr{Mnemonic: "vfirst", Form: isa.FormM, SEW: isa.SEW8, Vd: 5, Vs2: 2})
	require.NoError(t, err)
	require.Equal(t, ^U64(0), r)

	_, err = v.ApplyScalar(Instr{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true})
	require.ErrorIs(t, err, isa.ErrUnsupportedForm)
}
