package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/jdoc"
	"github.com/aretw0/jdoc/pkg/contact"
	"github.com/aretw0/jdoc/pkg/core"
)

var (
	verbose    bool
	adapter    string
	storePath  string
	format     string
	familyName string
	yamlInput  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jdoc",
	Short: "Canonical JSON documents with pluggable storage",
	Long: `jdoc builds immutable JSON documents, prints their canonical form and hash,
validates them against the contact family and stores them on the filesystem,
in SQLite or in memory.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "fs", "Storage adapter (fs, sqlite, memory)")
	rootCmd.PersistentFlags().StringVar(&storePath, "path", "", "Store location (default: nearest store root or the working directory)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "json", "File format of the fs adapter (json, yaml)")
	rootCmd.PersistentFlags().StringVar(&familyName, "family", "", "Document family to decode with (contact)")
	rootCmd.PersistentFlags().BoolVar(&yamlInput, "yaml", false, "Read input as YAML")
}

// newCodec returns the codec used for input, accepting JSONC comments.
func newCodec() *core.Codec {
	return core.NewCodec(core.WithComments(true), core.WithLogger(slog.Default()))
}

func newFamily(codec *core.Codec) (*contact.Family, error) {
	switch familyName {
	case "":
		return nil, nil
	case "contact":
		return contact.NewFamily(contact.WithCodec(codec)), nil
	default:
		return nil, fmt.Errorf("unknown family %q", familyName)
	}
}

// readInput reads a file argument, or stdin for "" and "-".
func readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func isYAML(name string) bool {
	if yamlInput {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// loadDocument decodes the named input, routing it through the selected family.
func loadDocument(name string) (*core.Document, error) {
	data, err := readInput(name)
	if err != nil {
		return nil, err
	}
	codec := newCodec()
	if isYAML(name) {
		doc, err := codec.DecodeYAML(data)
		if err != nil {
			return nil, err
		}
		if data, err = codec.EncodeInternal(doc); err != nil {
			return nil, err
		}
	}
	fam, err := newFamily(codec)
	if err != nil {
		return nil, err
	}
	if fam != nil {
		return fam.DecodeDocument(data)
	}
	return codec.Decode(data)
}

// openRepository opens the store selected by the persistent flags.
func openRepository(ctx context.Context) (core.Repository, error) {
	path := storePath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path = wd
		if root, err := jdoc.FindRoot(wd); err == nil {
			path = root
		}
	}

	codec := newCodec()
	opts := []jdoc.Option{
		jdoc.WithAdapter(adapter),
		jdoc.WithFormat(format),
		jdoc.WithCodec(codec),
		jdoc.WithLogger(slog.Default()),
	}
	fam, err := newFamily(codec)
	if err != nil {
		return nil, err
	}
	if fam != nil {
		opts = append(opts, jdoc.WithDecoder(fam.Decoder()), jdoc.WithUniqueField(contact.FieldKey))
	}
	return jdoc.Open(ctx, path, opts...)
}

func closeRepository(repo core.Repository) {
	if c, ok := repo.(core.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("close repository", "error", err)
		}
	}
}
