package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/Sternrassler/admin-dashboard/pkg/cmd/root"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := root.NewCmdRoot(viper.New(), nil)
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
