package fast

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
	"github.com/hpvpu/rvvgold/rvvgo/riscv"
)

// StressOp is one entry of the stress op pool.
type StressOp struct {
	Mnemonic string
	Form     isa.Form
}

var (
	StressOpsNormal = []StressOp{
		{"vadd", isa.FormVV}, {"vsub", isa.FormVV}, {"vand", isa.FormVV},
		{"vor", isa.FormVV}, {"vxor", isa.FormVV}, {"vsll", isa.FormVV},
		{"vsra", isa.FormVV}, {"vmul", isa.FormVV}, {"vmacc", isa.FormVV},
	}
	StressOpsReduction = []StressOp{
		{"vredsum", isa.FormVS}, {"vredmax", isa.FormVS}, {"vredmin", isa.FormVS},
		{"vredand", isa.FormVS}, {"vredor", isa.FormVS}, {"vredxor", isa.FormVS},
	}
	StressOpsWidening = []StressOp{
		{"vwmulu", isa.FormVV}, {"vwmul", isa.FormVV}, {"vwadd", isa.FormVV}, {"vwaddu", isa.FormVV},
	}
)

const (
	// stress programs use v1..v15, v0 stays reserved for masks
	stressRegLo = 1
	stressRegHi = 15
)

// StressPool returns the ops a stress program at sew draws from.
// Narrowing is not part of the pool; widening is dropped when 2*SEW exceeds 32.
func StressPool(sew isa.SEW) []StressOp {
	pool := make([]StressOp, 0, len(StressOpsNormal)+len(StressOpsReduction)+len(StressOpsWidening))
	pool = append(pool, StressOpsNormal...)
	pool = append(pool, StressOpsReduction...)
	if sew.CanWiden() {
		pool = append(pool, StressOpsWidening...)
	}
	return pool
}

type StressConfig struct {
	Seed  uint64    `json:"seed"`
	Count int       `json:"count"`
	SEW   isa.SEW   `json:"sew"`
	VLEN  uint64    `json:"vlen"`
	Widen WidenMode `json:"widen"`
}

func (c *StressConfig) Check() error {
	if !c.SEW.Valid() {
		return fmt.Errorf("%w: %d", isa.ErrUnsupportedSEW, uint8(c.SEW))
	}
	if c.Count < 0 {
		return fmt.Errorf("invalid instruction count %d", c.Count)
	}
	return validateShape(riscv.RegCount, c.vlen())
}

func (c *StressConfig) vlen() uint64 {
	if c.VLEN == 0 {
		return riscv.DefaultVLEN
	}
	return c.VLEN
}

// GenerateStress draws cfg.Count instructions: op first, then vd, vs2 and vs1.
// Registers deliberately overlap to create back-to-back hazards.
func GenerateStress(cfg StressConfig, rng Rng) []Instr {
	pool := StressPool(cfg.SEW)
	program := make([]Instr, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		sop := pool[randBelow(rng, uint64(len(pool)))]
		program = append(program, Instr{
			Mnemonic: sop.Mnemonic,
			Form:     sop.Form,
			SEW:      cfg.SEW,
			Vd:       uint8(randRange(rng, stressRegLo, stressRegHi)),
			Vs2:      uint8(randRange(rng, stressRegLo, stressRegHi)),
			Vs1:      uint8(randRange(rng, stressRegLo, stressRegHi)),
			VM:       true,
		})
	}
	return program
}

// StressStep is an instruction of a stress program with its encoding.
type StressStep struct {
	Instr
	Encoding hexutil.Uint64 `json:"encoding"`
	Asm      string         `json:"asm"`
}

type StressResult struct {
	Config      StressConfig   `json:"config"`
	Vsetvli     hexutil.Uint64 `json:"vsetvli"`
	Program     []StressStep   `json:"program"`
	Initial     *VRF           `json:"initial"`
	Final       *VRF           `json:"final"`
	InitialHash common.Hash    `json:"initialHash"`
	FinalHash   common.Hash    `json:"finalHash"`
	// Verify lists the registers the final check compares.
	Verify []uint8 `json:"verify"`
}

// Stress builds a random program from cfg.Seed and simulates it.
// The register file is initialized from the generator before the program is drawn,
// so one seed fixes both.
func Stress(cfg StressConfig) (*StressResult, error) {
	return defaultEvaluator.Stress(context.Background(), cfg)
}

func (e *Evaluator) Stress(ctx context.Context, cfg StressConfig) (*StressResult, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	cfg.VLEN = cfg.vlen()
	rng := NewSplitMix64(cfg.Seed)
	initial, err := NewRandomVRF(riscv.RegCount, cfg.VLEN, cfg.SEW, rng)
	if err != nil {
		return nil, err
	}
	initial.Widen = cfg.Widen
	program := GenerateStress(cfg, rng)

	vsetvli, err := isa.EncodeVsetvli(cfg.SEW)
	if err != nil {
		return nil, err
	}
	steps := make([]StressStep, len(program))
	for i, in := range program {
		enc, err := in.Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode instruction %d: %w", i, err)
		}
		steps[i] = StressStep{Instr: in, Encoding: hexutil.Uint64(enc), Asm: in.String()}
	}

	final, err := e.RunSequence(ctx, initial, program)
	if err != nil {
		return nil, err
	}
	verify := make([]uint8, 0, stressRegHi-stressRegLo+1)
	for r := uint8(stressRegLo); r <= stressRegHi; r++ {
		verify = append(verify, r)
	}
	return &StressResult{
		Config:      cfg,
		Vsetvli:     hexutil.Uint64(vsetvli),
		Program:     steps,
		Initial:     initial,
		Final:       final,
		InitialHash: initial.StateHash(),
		FinalHash:   final.StateHash(),
		Verify:      verify,
	}, nil
}
