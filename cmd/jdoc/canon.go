package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/jdoc/pkg/core"
)

var canonInternal bool

var canonCmd = &cobra.Command{
	Use:   "canon [file]",
	Short: "Print the canonical JSON of a document",
	Long:  `Decode a JSON, JSONC or YAML document and print its canonical form. Reads stdin when no file is given.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := loadDocument(argOrStdin(args))
		if err != nil {
			fatal("Failed to read document", err)
		}
		out := core.DefaultCodec().Encode(doc)
		if canonInternal {
			if out, err = core.DefaultCodec().EncodeInternal(doc); err != nil {
				fatal("Failed to encode document", err)
			}
		}
		fmt.Fprintln(os.Stdout, string(out))
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash [file]",
	Short: "Print the hash of a document",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := loadDocument(argOrStdin(args))
		if err != nil {
			fatal("Failed to read document", err)
		}
		fmt.Printf("%016x\n", doc.Hash())
	},
}

var equalCmd = &cobra.Command{
	Use:   "equal <a> <b>",
	Short: "Compare two documents by canonical form",
	Long:  `Exit with status 0 when both documents are equal and 2 when they differ.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadDocument(args[0])
		if err != nil {
			fatal("Failed to read "+args[0], err)
		}
		b, err := loadDocument(args[1])
		if err != nil {
			fatal("Failed to read "+args[1], err)
		}
		if !a.Equal(b) {
			fmt.Println("different")
			os.Exit(2)
		}
		fmt.Println("equal")
	},
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func init() {
	rootCmd.AddCommand(canonCmd, hashCmd, equalCmd)
	canonCmd.Flags().BoolVar(&canonInternal, "internal", false, "Include internal fields")
}
