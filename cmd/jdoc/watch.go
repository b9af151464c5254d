package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/jdoc/pkg/adapters/lifecycle"
	"github.com/aretw0/jdoc/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Print changes to stored documents",
	Long:  `Stream CREATE, MODIFY and DELETE events for ids matching pattern until interrupted.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pattern := "**"
		if len(args) == 1 {
			pattern = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		repo, err := openRepository(ctx)
		if err != nil {
			fatal("Failed to open repository", err)
		}
		defer closeRepository(repo)

		w, ok := repo.(core.Watchable)
		if !ok {
			fatal("Cannot watch", fmt.Errorf("adapter %q does not report changes", adapter))
		}
		events, err := w.Watch(ctx, pattern)
		if err != nil {
			fatal("Failed to watch", err)
		}

		src := lifecycle.NewSource(events)
		if err := src.Start(ctx); err != nil {
			fatal("Failed to start watch", err)
		}
		for e := range src.Events() {
			fmt.Println(e.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
