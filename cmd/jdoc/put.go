package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <id> [file]",
	Short: "Store a document",
	Long:  `Decode a document (stdin when no file is given) and save it under id.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		doc, err := loadDocument(argOrStdin(args[1:]))
		if err != nil {
			fatal("Failed to read document", err)
		}

		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			fatal("Failed to open repository", err)
		}
		defer closeRepository(repo)

		if err := repo.Save(ctx, id, doc); err != nil {
			fatal("Failed to save document", err)
		}
		fmt.Printf("saved %s\n", id)
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
