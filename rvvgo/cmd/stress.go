package cmd

import (
	"fmt"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/hpvpu/rvvgold/rvvgo/fast"
)

func Stress(ctx *cli.Context) error {
	if ctx.Bool(PProfCPUFlag.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return err
	}
	l := cfg.Logger(ctx)
	e, err := cfg.Evaluator()
	if err != nil {
		return err
	}

	sc := fast.StressConfig{Seed: cfg.Seed, Count: cfg.Count, SEW: cfg.SEW, VLEN: cfg.VLEN, Widen: cfg.WidenMode()}
	l.Info("running stress program", "seed", sc.Seed, "instrs", sc.Count, "sew", sc.SEW, "vlen", sc.VLEN, "widen", sc.Widen)
	start := time.Now()
	res, err := e.Stress(ctx.Context, sc)
	if err != nil {
		return fmt.Errorf("stress run failed: %w", err)
	}
	delta := time.Since(start)
	l.Info("stress done",
		"seed", sc.Seed,
		"instrs", len(res.Program),
		"vsetvli", HexU32(res.Vsetvli),
		"initial", res.InitialHash,
		"hash", res.FinalHash,
		"ips", float64(len(res.Program))/delta.Seconds(),
	)
	for _, step := range res.Program {
		l.Trace("instr", "insn", HexU32(step.Encoding), "asm", step.Asm)
	}

	if err := jsonutil.WriteJSON(ctx.Path(OutputFlag.Name), res, OutFilePerm); err != nil {
		return fmt.Errorf("failed to write stress result: %w", err)
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, res.FinalHash.Hex())
	return nil
}

var StressCommand = &cli.Command{
	Name:        "stress",
	Usage:       "Generate and simulate a random instruction sequence",
	Description: "Generate a random program from the seed, run it on a seeded register file and report the final state hash. The full result, program and register files included, is written to --output.",
	Action:      Stress,
	Flags: []cli.Flag{
		SeedFlag,
		CountFlag,
		SEWFlag,
		VLENFlag,
		WidenFlag,
		VXRMFlag,
		OutputFlag,
		PProfCPUFlag,
	},
}
