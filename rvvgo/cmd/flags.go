package cmd

import (
	"github.com/urfave/cli/v2"
)

const envVarPrefix = "RVVGOLD_"

func envVars(name string) []string {
	return []string{envVarPrefix + name}
}

var (
	ConfigFlag = &cli.PathFlag{
		Name:      "config",
		Usage:     "JSON config file, explicitly set flags override its values",
		EnvVars:   envVars("CONFIG"),
		TakesFile: true,
	}
	LogLevelFlag = &cli.StringFlag{
		Name:    "log.level",
		Usage:   "Log level: trace, debug, info, warn, error or crit",
		EnvVars: envVars("LOG_LEVEL"),
	}

	OpFlag = &cli.StringFlag{
		Name:     "op",
		Usage:    "Mnemonic without the form suffix, e.g. vadd",
		Required: true,
	}
	FormFlag = &cli.StringFlag{
		Name:  "form",
		Usage: "Operand form: vv, vx, vi, wv, wi, vs or mm",
		Value: "vv",
	}
	VdFlag = &cli.Uint64Flag{
		Name:  "vd",
		Usage: "Destination register index",
		Value: 3,
	}
	Vs2Flag = &cli.Uint64Flag{
		Name:  "vs2",
		Usage: "vs2 register index",
		Value: 2,
	}
	OperandFlag = &cli.Uint64Flag{
		Name:  "operand",
		Usage: "vs1 register, rs1 index or 5-bit immediate",
		Value: 1,
	}
	MaskedFlag = &cli.BoolFlag{
		Name:  "masked",
		Usage: "Encode vm=0, masked by v0",
	}
	OutputFlag = &cli.PathFlag{
		Name:      "output",
		Usage:     "Path of the JSON output, '-' for stdout",
		TakesFile: true,
	}

	SEWFlag = &cli.StringFlag{
		Name:    "sew",
		Usage:   "Element width: 8, 16 or 32",
		EnvVars: envVars("SEW"),
	}
	SEWListFlag = &cli.StringSliceFlag{
		Name:  "sew",
		Usage: "Element widths to generate, all if unset",
	}
	VLENFlag = &cli.Uint64Flag{
		Name:    "vlen",
		Usage:   "Vector register length in bits",
		EnvVars: envVars("VLEN"),
	}
	VXRMFlag = &cli.StringFlag{
		Name:    "vxrm",
		Usage:   "Fixed-point rounding mode: rnu, rne, rdn or rod",
		EnvVars: envVars("VXRM"),
	}
	LUTFlag = &cli.PathFlag{
		Name:      "lut",
		Usage:     "JSON file with the exp, recip, rsqrt and gelu tables",
		EnvVars:   envVars("LUT"),
		TakesFile: true,
	}

	ValueVs2Flag = &cli.Uint64Flag{
		Name:  "vs2",
		Usage: "vs2 element value (2*SEW wide for narrowing ops)",
	}
	ValueOperandFlag = &cli.Uint64Flag{
		Name:  "operand",
		Usage: "vs1 element, x[rs1] value or 5-bit immediate",
	}
	ValueVdFlag = &cli.Uint64Flag{
		Name:  "vd",
		Usage: "Old vd element, the accumulator of MAC ops",
	}
	ElemFlag = &cli.Uint64Flag{
		Name:     "elem",
		Usage:    "Value replicated in every vs2 element",
		Required: true,
	}
	SeedValueFlag = &cli.Uint64Flag{
		Name:  "seed",
		Usage: "vs1[0] seed of the reduction",
	}

	SeedFlag = &cli.Uint64Flag{
		Name:    "seed",
		Usage:   "Random seed of the register file and program",
		EnvVars: envVars("SEED"),
	}
	CountFlag = &cli.IntFlag{
		Name:    "count",
		Usage:   "Number of instructions",
		EnvVars: envVars("COUNT"),
	}
	WidenFlag = &cli.StringFlag{
		Name:    "widen",
		Usage:   "Widening write mode: truncate or full",
		EnvVars: envVars("WIDEN"),
	}
	PProfCPUFlag = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "Enable CPU profiling, written to the working directory",
	}
	DumpFlag = &cli.BoolFlag{
		Name:  "dump",
		Usage: "Dump the full op structs",
	}
)

// GlobalFlags are shared by every command.
var GlobalFlags = []cli.Flag{
	ConfigFlag,
	LogLevelFlag,
}
