package cmd

import (
	"fmt"
	"strings"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/suite"
)

// parseSEWList accepts repeated flags as well as comma separated lists.
func parseSEWList(values []string) ([]isa.SEW, error) {
	var out []isa.SEW
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			sew, err := isa.ParseSEW(part)
			if err != nil {
				return nil, err
			}
			out = append(out, sew)
		}
	}
	return out, nil
}

func Suite(ctx *cli.Context) error {
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
	sews, err := parseSEWList(ctx.StringSlice(SEWListFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid sew list: %w", err)
	}
	s, err := suite.Build(l, e, suite.Config{SEWs: sews, VLEN: cfg.VLEN})
	if err != nil {
		return err
	}
	if err := jsonutil.WriteJSON(ctx.Path(OutputFlag.Name), s, OutFilePerm); err != nil {
		return fmt.Errorf("failed to write suite: %w", err)
	}
	return nil
}

var SuiteCommand = &cli.Command{
	Name:        "suite",
	Usage:       "Build the directed compliance suite",
	Description: "Build the directed compliance suite: every op of every family against its test vectors, as golden records with encodings and expected values.",
	Action:      Suite,
	Flags: []cli.Flag{
		OutputFlag,
		SEWListFlag,
		VLENFlag,
		VXRMFlag,
		LUTFlag,
		PProfCPUFlag,
	},
}
