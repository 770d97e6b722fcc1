package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jobcan-cli/cmd/jobcan/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
