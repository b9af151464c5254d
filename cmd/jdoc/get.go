package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/jdoc/pkg/core"
)

var (
	getInternal bool
	getYAML     bool
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			fatal("Failed to open repository", err)
		}
		defer closeRepository(repo)

		doc, err := repo.Get(ctx, args[0])
		if err != nil {
			fatal("Failed to get document", err)
		}

		codec := core.DefaultCodec()
		if getYAML {
			out, err := codec.EncodeYAML(doc, getInternal)
			if err != nil {
				fatal("Failed to encode document", err)
			}
			fmt.Print(string(out))
			return
		}
		out := codec.Encode(doc)
		if getInternal {
			if out, err = codec.EncodeInternal(doc); err != nil {
				fatal("Failed to encode document", err)
			}
		}
		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getInternal, "internal", false, "Include internal fields")
	getCmd.Flags().BoolVar(&getYAML, "yaml-out", false, "Print YAML instead of JSON")
}
