// Command work24-jobs sends the daily work24 job-listing digest.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deusflow/industry-news/internal/app"
	"github.com/deusflow/industry-news/internal/profile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Main(ctx, profile.Work24)
	stop()
	os.Exit(code)
}
