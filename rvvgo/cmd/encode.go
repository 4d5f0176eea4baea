package cmd

import (
	"fmt"
	"strconv"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
)

type EncodeOutput struct {
	Encoding hexutil.Uint64 `json:"encoding"`
	Asm      string         `json:"asm"`
	Family   isa.Family     `json:"family"`
	Fields   isa.Fields     `json:"fields"`
}

func newEncodeOutput(ins isa.Instruction, instr uint32) *EncodeOutput {
	return &EncodeOutput{
		Encoding: hexutil.Uint64(instr),
		Asm:      ins.String(),
		Family:   ins.Op.Family,
		Fields:   isa.DecodeFields(instr),
	}
}

func regFlag(ctx *cli.Context, name string) (uint32, error) {
	v := ctx.Uint64(name)
	if v > 31 {
		return 0, fmt.Errorf("invalid --%s %d: must be in [0, 31]", name, v)
	}
	return uint32(v), nil
}

func Encode(ctx *cli.Context) error {
	op, err := isa.Lookup(ctx.String(OpFlag.Name))
	if err != nil {
		return err
	}
	form, err := isa.ParseForm(ctx.String(FormFlag.Name))
	if err != nil {
		return err
	}
	var regs [3]uint32
	for i, name := range []string{VdFlag.Name, Vs2Flag.Name, OperandFlag.Name} {
		if regs[i], err = regFlag(ctx, name); err != nil {
			return err
		}
	}
	ins := isa.Instruction{Op: op, Form: form, Vd: regs[0], Vs2: regs[1], Operand: regs[2], VM: !ctx.Bool(MaskedFlag.Name)}
	instr, err := ins.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", op.Mnemonic, err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "%s %s\n", HexU32(instr), ins)
	if out := ctx.Path(OutputFlag.Name); out != "" {
		if err := jsonutil.WriteJSON(out, newEncodeOutput(ins, instr), OutFilePerm); err != nil {
			return fmt.Errorf("failed to write encoding: %w", err)
		}
	}
	return nil
}

var EncodeCommand = &cli.Command{
	Name:        "encode",
	Usage:       "Encode one OP-V instruction",
	Description: "Encode one OP-V instruction. Prints the 32-bit word and its assembly.",
	Action:      Encode,
	Flags: []cli.Flag{
		OpFlag,
		FormFlag,
		VdFlag,
		Vs2Flag,
		OperandFlag,
		MaskedFlag,
		OutputFlag,
	},
}

func Decode(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one instruction word, got %d arguments", ctx.NArg())
	}
	v, err := strconv.ParseUint(ctx.Args().First(), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid instruction word %q: %w", ctx.Args().First(), err)
	}
	instr := uint32(v)
	if sew, err := isa.DecodeVsetvli(instr); err == nil {
		_, _ = fmt.Fprintf(ctx.App.Writer, "%s vsetvli x%d, x%d, %s\n", HexU32(instr), isa.ParseVd(instr), isa.ParseVs1(instr), sew)
		return nil
	}
	ins, err := isa.Decode(instr)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "%s %s\n", HexU32(instr), ins)
	if out := ctx.Path(OutputFlag.Name); out != "" {
		if err := jsonutil.WriteJSON(out, newEncodeOutput(ins, instr), OutFilePerm); err != nil {
			return fmt.Errorf("failed to write decoding: %w", err)
		}
	}
	return nil
}

var DecodeCommand = &cli.Command{
	Name:        "decode",
	Usage:       "Decode one OP-V instruction word",
	Description: "Decode one OP-V or vsetvli instruction word given as the only argument, e.g. 0x022081d7.",
	ArgsUsage:   "<word>",
	Action:      Decode,
	Flags: []cli.Flag{
		OutputFlag,
	},
}
