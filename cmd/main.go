package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/parceldesk/pathao-go/internal/interfaces/cli"
	"github.com/parceldesk/pathao-go/internal/interfaces/di"
)

func main() {
	container := di.NewContainer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	cli.Execute(ctx, container)
}
