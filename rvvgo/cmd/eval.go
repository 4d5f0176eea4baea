package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/hpvpu/rvvgold/rvvgo/fast"
	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/suite"
)

func Eval(ctx *cli.Context) error {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return err
	}
	e, err := cfg.Evaluator()
	if err != nil {
		return err
	}
	form, err := isa.ParseForm(ctx.String(FormFlag.Name))
	if err != nil {
		return err
	}
	mnemonic := ctx.String(OpFlag.Name)
	vs2, operand, vd := ctx.Uint64(ValueVs2Flag.Name), ctx.Uint64(ValueOperandFlag.Name), ctx.Uint64(ValueVdFlag.Name)
	if op, err := isa.Lookup(mnemonic); err == nil && op.Family.RegisterLevel() {
		return evalRegister(ctx, e, cfg, form, vs2, operand, vd)
	}
	out, err := e.EvaluateForm(mnemonic, form, cfg.SEW, vs2, operand, vd)
	if err != nil {
		return fmt.Errorf("failed to evaluate %s.%s: %w", mnemonic, form, err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "%#x\n", out)
	return nil
}

// evalRegister runs a register-level op on replicated source registers and prints
// element 0 (or x[rd]) followed by the whole destination register.
func evalRegister(ctx *cli.Context, e *fast.Evaluator, cfg *Config, form isa.Form, vs2, operand, vd uint64) error {
	c := fast.Case{
		Mnemonic: ctx.String(OpFlag.Name), Form: form, SEW: cfg.SEW,
		Vd: suite.RegVd, Vs2: suite.RegVs2, Operand: suite.RegVs1, VM: true,
		Vs2Value: vs2, OperandValue: operand, VdValue: vd, VLEN: cfg.VLEN,
	}
	if form.Immediate() {
		c.Operand = uint32(operand)
	}
	rec, err := e.Golden(c)
	if err != nil {
		return fmt.Errorf("failed to evaluate %s.%s: %w", c.Mnemonic, form, err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "%#x\n", uint64(rec.Expected))
	if rec.Register != nil {
		_, _ = fmt.Fprintf(ctx.App.Writer, "v%d %s\n", c.Vd, rec.Register)
	}
	return nil
}

var EvalCommand = &cli.Command{
	Name:        "eval",
	Usage:       "Compute the expected element result of one op",
	Description: "Compute the bit-exact element result of one op at the configured SEW. Prints the value in hex.",
	Action:      Eval,
	Flags: []cli.Flag{
		OpFlag,
		FormFlag,
		SEWFlag,
		ValueVs2Flag,
		ValueOperandFlag,
		ValueVdFlag,
		VXRMFlag,
		LUTFlag,
	},
}

func Reduce(ctx *cli.Context) error {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return err
	}
	mnemonic := ctx.String(OpFlag.Name)
	elem, seed := ctx.Uint64(ElemFlag.Name), ctx.Uint64(SeedValueFlag.Name)
	count := fast.ElementCount(cfg.VLEN, cfg.SEW)
	expected, err := fast.Reduce(mnemonic, cfg.SEW, elem, seed, count)
	if err != nil {
		return fmt.Errorf("failed to reduce: %w", err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "expected %#x\n", expected)
	if fast.HasKnownSeedBug(mnemonic) {
		hw, err := fast.ReduceHardware(mnemonic, cfg.SEW, elem, seed, count)
		if err != nil {
			return fmt.Errorf("failed to reduce: %w", err)
		}
		if hw != expected {
			_, _ = fmt.Fprintf(ctx.App.Writer, "hardware %#x (known seed bug)\n", hw)
		}
	}
	return nil
}

var ReduceCommand = &cli.Command{
	Name:        "reduce",
	Usage:       "Compute a reduction over a replicated vector",
	Description: "Compute the reduction of VLEN/SEW copies of --elem into --seed. Ops with a known hardware seed bug also print the value the hardware produces.",
	Action:      Reduce,
	Flags: []cli.Flag{
		OpFlag,
		SEWFlag,
		ElemFlag,
		SeedValueFlag,
		VLENFlag,
	},
}
