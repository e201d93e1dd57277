// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nftgateway",
		Short: "Cross-domain NFT gateway tools",
		Long: `nftgateway custodies ERC-721 instances on layer 1 and exchanges finalize
instructions with its layer-2 counterpart through a cross-domain messenger.

This CLI encodes and decodes finalize payloads, validates gateway
configuration, and serves an in-memory gateway with a metrics endpoint.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}
