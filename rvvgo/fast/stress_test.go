package fast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
)

func TestStressReproducible(t *testing.T) {
	for _, sew := range isa.AllSEW {
		t.Run(sew.String(), func(t *testing.T) {
			cfg := StressConfig{Seed: 42, Count: 300, SEW: sew}
			a, err := Stress(cfg)
			require.NoError(t, err)
			b, err := Stress(cfg)
			require.NoError(t, err)
			require.Equal(t, a.FinalHash, b.FinalHash)
			require.Equal(t, a.Program, b.Program)
			require.True(t, a.Final.Equal(b.Final))

			cfg.Seed = 43
			c, err := Stress(cfg)
			require.NoError(t, err)
			require.NotEqual(t, a.FinalHash, c.FinalHash)
		})
	}
}

func TestStressProgram(t *testing.T) {
	cfg := StressConfig{Seed: 7, Count: 500, SEW: isa.SEW16}
	res, err := Stress(cfg)
	require.NoError(t, err)
	require.Len(t, res.Program, 500)
	require.Equal(t, uint64(256), res.Config.VLEN)

	pool := make(map[StressOp]bool)
	for _, sop := range StressPool(isa.SEW16) {
		pool[sop] = true
	}
	for i, step := range res.Program {
		require.True(t, pool[StressOp{step.Mnemonic, step.Form}], "step %d: %s", i, step.Asm)
		for _, r := range []uint8{step.Vd, step.Vs2, step.Vs1} {
			require.GreaterOrEqual(t, r, uint8(1))
			require.LessOrEqual(t, r, uint8(15))
		}
		enc, err := step.Instr.Encode()
		require.NoError(t, err)
		require.Equal(t, uint64(enc), uint64(step.Encoding))
		require.Equal(t, step.Instr.String(), step.Asm)
	}

	vsetvli, err := isa.EncodeVsetvli(isa.SEW16)
	require.NoError(t, err)
	require.Equal(t, uint64(vsetvli), uint64(res.Vsetvli))
	require.Len(t, res.Verify, 15)

	// the register file is drawn before the program
	initial, err := NewSeededVRF(32, 256, isa.SEW16, 7)
	require.NoError(t, err)
	require.True(t, initial.Equal(res.Initial))
	require.Equal(t, res.Initial.StateHash(), res.InitialHash)
	require.Equal(t, res.Final.StateHash(), res.FinalHash)

	// the final state is the sequential replay of the program
	program := make([]Instr, len(res.Program))
	for i, step := range res.Program {
		program[i] = step.Instr
	}
	final, err := RunSequence(initial, program)
	require.NoError(t, err)
	require.True(t, final.Equal(res.Final))
	require.Equal(t, res.InitialHash, initial.StateHash(), "replay must not modify its input")
}

func TestStressPool(t *testing.T) {
	require.Len(t, StressPool(isa.SEW8), 19)
	require.Len(t, StressPool(isa.SEW16), 19)
	require.Len(t, StressPool(isa.SEW32), 15)

	res, err := Stress(StressConfig{Seed: 1, Count: 1000, SEW: isa.SEW32})
	require.NoError(t, err)
	for _, step := range res.Program {
		op := isa.MustLookup(step.Mnemonic)
		require.NotEqual(t, isa.FamilyWidening, op.Family, step.Asm)
	}
}

func TestStressWidenFull(t *testing.T) {
	res, err := Stress(StressConfig{Seed: 9, Count: 200, SEW: isa.SEW8, VLEN: 512, Widen: WidenFull})
	require.NoError(t, err)
	require.Equal(t, uint64(512), res.Final.VLEN)
	require.Equal(t, WidenFull, res.Final.Widen)

	truncated, err := Stress(StressConfig{Seed: 9, Count: 200, SEW: isa.SEW8, VLEN: 512, Widen: WidenTruncate})
	require.NoError(t, err)
	require.Equal(t, res.Program, truncated.Program)
	require.Equal(t, WidenTruncate, truncated.Final.Widen)
	require.NotEqual(t, res.FinalHash, truncated.FinalHash)

	defaults, err := Stress(StressConfig{Seed: 9, Count: 200, SEW: isa.SEW8, VLEN: 512})
	require.NoError(t, err)
	require.Equal(t, res.FinalHash, defaults.FinalHash)
}

func TestStressConfigCheck(t *testing.T) {
	for _, cfg := range []StressConfig{
		{Seed: 1, Count: 10, SEW: isa.SEW(12)},
		{Seed: 1, Count: -1, SEW: isa.SEW8},
		{Seed: 1, Count: 10, SEW: isa.SEW8, VLEN: 100},
	} {
		_, err := Stress(cfg)
		require.Error(t, err)
	}
	res, err := Stress(StressConfig{Seed: 1, Count: 0, SEW: isa.SEW8})
	require.NoError(t, err)
	require.Empty(t, res.Program)
	require.Equal(t, res.InitialHash, res.FinalHash)
}

func TestStressCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := defaultEvaluator.Stress(ctx, StressConfig{Seed: 1, Count: 10, SEW: isa.SEW8})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunSequenceHazards(t *testing.T) {
	v, err := NewSeededVRF(16, 256, isa.SEW8, 3)
	require.NoError(t, err)
	program := []Instr{
		{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 1, Vs2: 2, Vs1: 3, VM: true},
		// reads the v1 just written
		{Mnemonic: "vadd", Form: isa.FormVV, SEW: isa.SEW8, Vd: 4, Vs2: 1, Vs1: 1, VM: true},
		{Mnemonic: "vredsum", Form: isa.FormVS, SEW: isa.SEW8, Vd: 5, Vs2: 4, Vs1: 4, VM: true},
	}
	out, err := RunSequence(v, program)
	require.NoError(t, err)

	v2, v3 := v.Elements(2, isa.SEW8), v.Elements(3, isa.SEW8)
	var v4 []U64
	for i := range v2 {
		v4 = append(v4, trunc((v2[i]+v3[i])*2, 8))
	}
	require.Equal(t, v4, out.Elements(4, isa.SEW8))
	sum := v4[0] // seed is element 0 of the new v4
	for _, e := range v4 {
		sum += e
	}
	require.Equal(t, trunc(sum, 8), out.Element(5, 8, 0))

	_, err = RunSequence(v, []Instr{program[0], {Mnemonic: "vfoo", Form: isa.FormVV, SEW: isa.SEW8, VM: true}})
	require.ErrorContains(t, err, "instruction 1")
}
