package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/jdoc"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of jdoc",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jdoc version %s\n", strings.TrimSpace(jdoc.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
