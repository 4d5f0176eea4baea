package fast

import (
	"context"
	"fmt"
)

// RunSequence applies the program to a copy of v in program order and returns the final state.
// Each instruction sees every earlier write of the sequence. v itself is not modified.
func RunSequence(v *VRF, program []Instr) (*VRF, error) {
	return defaultEvaluator.RunSequence(context.Background(), v, program)
}

func (e *Evaluator) RunSequence(ctx context.Context, v *VRF, program []Instr) (*VRF, error) {
	out := v.Copy()
	for i, in := range program {
		if i%100 == 0 { // don't do the ctx err check (includes lock) too often
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := e.Apply(out, in); err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return out, nil
}
