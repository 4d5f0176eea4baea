package cmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/hpvpu/rvvgold/rvvgo/isa"
)

func Catalog(ctx *cli.Context) error {
	ops := isa.Ops()
	if ctx.Bool(DumpFlag.Name) {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cfg.Fdump(ctx.App.Writer, ops)
		return nil
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"mnemonic", "family", "funct6", "major", "forms"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	for _, op := range ops {
		table.Append([]string{op.Mnemonic, op.Family.String(), fmt.Sprintf("%06b", op.Funct6), op.Major.String(), op.Forms.String()})
	}
	table.Render()
	return nil
}

var CatalogCommand = &cli.Command{
	Name:        "catalog",
	Usage:       "List the supported operations",
	Description: "List every catalog op with its family, funct6, major opcode and forms.",
	Action:      Catalog,
	Flags: []cli.Flag{
		DumpFlag,
	},
}
