package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var findJSON bool

var findCmd = &cobra.Command{
	Use:   "find [condition]",
	Short: "List stored documents",
	Long: `List documents matching condition. The fs and memory adapters take a glob
over ids ("contacts/**"); sqlite takes a SQL expression over id, key and body.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		condition := ""
		if len(args) == 1 {
			condition = args[0]
		}

		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			fatal("Failed to open repository", err)
		}
		defer closeRepository(repo)

		records, err := repo.Find(ctx, condition)
		if err != nil {
			fatal("Failed to find documents", err)
		}

		if findJSON {
			out := make(map[string]json.RawMessage, len(records))
			for _, rec := range records {
				out[rec.ID] = json.RawMessage(rec.Doc.String())
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, rec := range records {
			fmt.Printf("%s %s\n", rec.ID, rec.Doc)
		}
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().BoolVar(&findJSON, "json", false, "Output a JSON object keyed by id")
}
