package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/any-hub/toolcache/internal/cli"
)

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run 在可中断的上下文中执行 CLI，并返回退出码，方便测试。
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Run(ctx, args, cli.Env{
		Out:    stdOut,
		Err:    stdErr,
		Getenv: os.Getenv,
	})
}
