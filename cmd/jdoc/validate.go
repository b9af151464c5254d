package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/jdoc/pkg/contact"
	"github.com/aretw0/jdoc/pkg/core"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a document",
	Long: `Decode a document and run its schema checks. With --family contact the
document is routed to its subtype by the "type" field.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := loadDocument(argOrStdin(args))
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "invalid: %v\n", verr)
			os.Exit(2)
		}
		if err != nil {
			fatal("Failed to read document", err)
		}

		name := "document"
		if s := doc.Schema(); s != nil {
			name = s.Name
		}
		if key, ok := doc.Text(contact.FieldKey); ok {
			fmt.Printf("ok %s %s\n", name, key)
			return
		}
		fmt.Printf("ok %s\n", name)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
