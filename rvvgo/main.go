package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hpvpu/rvvgold/rvvgo/cmd"
)

func main() {
	app := cli.NewApp()
	app.Name = "rvvgold"
	app.Usage = "RISC-V vector ALU golden model"
	app.Description = "Encode RVV 1.0 ALU instructions, compute bit-exact expected results and build compliance suites."
	app.Flags = cmd.GlobalFlags
	app.Commands = cmd.Commands
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			<-c
			cancel()
			fmt.Println("\r\nExiting...")
		}
	}()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			_, _ = fmt.Fprintf(os.Stderr, "command interrupted")
			os.Exit(130)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v", err)
			os.Exit(1)
		}
	}
}
