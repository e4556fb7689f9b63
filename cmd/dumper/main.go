// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	metadump "github.com/leaguetoolkit/metadump"
	"github.com/leaguetoolkit/metadump/internal/log"
)

var (
	verbose    bool
	outputPath string
	pretty     bool
)

func runDump(cmd *cobra.Command, args []string) error {
	input := args[0]

	level := log.LevelWarn
	if verbose {
		level = log.LevelDebug
	}
	logger := log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(level)))
	metadump.SetLogger(logger)

	doc, err := metadump.DumpClassesFromFile(input)
	if err != nil {
		return fmt.Errorf("dump %s: %w", input, err)
	}

	var out []byte
	if pretty || outputPath != "" {
		out, err = json.MarshalIndent(doc, "", "  ")
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(out))
		return nil
	}
	return os.WriteFile(outputPath, out, 0o644)
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "dumper <INPUT>",
		Short: "Dumps the metaclass registry of a League of Legends client executable",
		Long:  "Locates the metaclass reflection registry inside a League of Legends client executable (PE or Mach-O) and emits it as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose progress output")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write JSON to this file instead of stdout")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "pretty-print the JSON output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
