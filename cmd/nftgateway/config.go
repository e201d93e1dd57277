// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/luxfi/nftgateway/config"
	"github.com/spf13/cobra"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return config.Config{}, fmt.Errorf("couldn't configure flags: %w", err)
	}
	return config.NewConfig(v)
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a gateway config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config is valid\n")
			fmt.Fprintf(out, "  Chain:       %s\n", cfg.GetChainID())
			fmt.Fprintf(out, "  Remote:      %s\n", cfg.GetRemoteChainID())
			fmt.Fprintf(out, "  Gateway:     %s\n", cfg.GetGatewayAddress())
			fmt.Fprintf(out, "  Counterpart: %s\n", cfg.GetCounterpartAddress())
			fmt.Fprintf(out, "  Mappings:    %d\n", len(cfg.GetTokenMappings()))
			return nil
		},
	}

	cmd.Flags().String(config.ConfigFileKey, "", "Specifies the gateway config file")
	return cmd
}
