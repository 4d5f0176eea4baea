package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/hpvpu/rvvgold/rvvgo/fast"
	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

var OutFilePerm = os.FileMode(0o755)

// Config is the file form of the shared settings. Zero fields keep their defaults.
type Config struct {
	VLEN     uint64         `json:"vlen,omitempty"`
	Seed     uint64         `json:"seed,omitempty"`
	Count    int            `json:"count,omitempty"`
	SEW      isa.SEW        `json:"sew,omitempty"`
	Widen    string `json:"widen,omitempty"`
	VXRM     string         `json:"vxrm,omitempty"`
	LogLevel string         `json:"log_level,omitempty"`
	LUT      string         `json:"lut,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		VLEN:     riscv.DefaultVLEN,
		Count:    1000,
		SEW:      isa.SEW8,
		Widen:    "truncate",
		VXRM:     "rnu",
		LogLevel: "info",
	}
}

func (c *Config) merge(o *Config) {
	if o.VLEN != 0 {
		c.VLEN = o.VLEN
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Count != 0 {
		c.Count = o.Count
	}
	if o.SEW != 0 {
		c.SEW = o.SEW
	}
	if o.Widen != "" {
		c.Widen = o.Widen
	}
	if o.VXRM != "" {
		c.VXRM = o.VXRM
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LUT != "" {
		c.LUT = o.LUT
	}
}

func (c *Config) Check() error {
	if c.VLEN < 64 || c.VLEN > riscv.MaxVLEN || c.VLEN&(c.VLEN-1) != 0 {
		return fmt.Errorf("invalid vlen %d: must be a power of two in [64, %d]", c.VLEN, riscv.MaxVLEN)
	}
	if !c.SEW.Valid() {
		return fmt.Errorf("invalid sew: %w: %d", isa.ErrUnsupportedSEW, uint8(c.SEW))
	}
	if c.Count < 0 {
		return fmt.Errorf("invalid count %d", c.Count)
	}
	if _, err := fast.ParseWidenMode(c.Widen); err != nil {
		return err
	}
	if _, err := ParseVXRM(c.VXRM); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseVXRM accepts the assembler names of the rounding modes.
func ParseVXRM(v string) (uint8, error) {
	switch strings.ToLower(v) {
	case "rnu", "":
		return riscv.VXRMRoundNearestUp, nil
	case "rne":
		return riscv.VXRMRoundNearestEven, nil
	case "rdn":
		return riscv.VXRMRoundDown, nil
	case "rod":
		return riscv.VXRMRoundOdd, nil
	}
	return 0, fmt.Errorf("unknown rounding mode %q", v)
}

// commandSets reports whether the running command defines f and it was set.
func commandSets(ctx *cli.Context, f cli.Flag) bool {
	if ctx.Command == nil {
		return false
	}
	for _, cf := range ctx.Command.Flags {
		if cf == f {
			return ctx.IsSet(f.Names()[0])
		}
	}
	return false
}

// LoadConfig layers the config file and then the explicitly set flags over the defaults.
func LoadConfig(ctx *cli.Context) (*Config, error) {
	cfg := DefaultConfig()
	if path := ctx.Path(ConfigFlag.Name); path != "" {
		loaded, err := jsonutil.LoadJSON[Config](path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %q: %w", path, err)
		}
		cfg.merge(loaded)
	}
	if ctx.IsSet(LogLevelFlag.Name) {
		cfg.LogLevel = ctx.String(LogLevelFlag.Name)
	}
	if commandSets(ctx, VLENFlag) {
		cfg.VLEN = ctx.Uint64(VLENFlag.Name)
	}
	if commandSets(ctx, SeedFlag) {
		cfg.Seed = ctx.Uint64(SeedFlag.Name)
	}
	if commandSets(ctx, CountFlag) {
		cfg.Count = ctx.Int(CountFlag.Name)
	}
	if commandSets(ctx, SEWFlag) {
		sew, err := isa.ParseSEW(ctx.String(SEWFlag.Name))
		if err != nil {
			return nil, fmt.Errorf("invalid sew: %w", err)
		}
		cfg.SEW = sew
	}
	if commandSets(ctx, WidenFlag) {
		cfg.Widen = ctx.String(WidenFlag.Name)
	}
	if commandSets(ctx, VXRMFlag) {
		cfg.VXRM = ctx.String(VXRMFlag.Name)
	}
	if commandSets(ctx, LUTFlag) {
		cfg.LUT = ctx.Path(LUTFlag.Name)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WidenMode returns the widening write mode. The stress command defaults to truncate.
func (c *Config) WidenMode() fast.WidenMode {
	mode, _ := fast.ParseWidenMode(c.Widen)
	return mode
}

// Logger writes to the app error writer at the configured level.
func (c *Config) Logger(ctx *cli.Context) log.Logger {
	lvl, _ := ParseLevel(c.LogLevel)
	return Logger(ctx.App.ErrWriter, lvl)
}

// Evaluator builds the evaluator of the configured rounding mode and lookup tables.
func (c *Config) Evaluator() (*fast.Evaluator, error) {
	vxrm, err := ParseVXRM(c.VXRM)
	if err != nil {
		return nil, err
	}
	e := &fast.Evaluator{VXRM: vxrm}
	if c.LUT != "" {
		tables, err := jsonutil.LoadJSON[fast.Tables](c.LUT)
		if err != nil {
			return nil, fmt.Errorf("failed to load lookup tables %q: %w", c.LUT, err)
		}
		if err := tables.Validate(); err != nil {
			return nil, err
		}
		e.LUT = tables
	}
	return e, nil
}
