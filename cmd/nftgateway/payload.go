// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/common/math"
	"github.com/luxfi/nftgateway/payload"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a finalize payload",
		Long:  `Encode a finalize instruction as the ABI call data a gateway sends to its counterpart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			methodName, _ := cmd.Flags().GetString("method")
			rawIDs, _ := cmd.Flags().GetStringSlice("token-ids")

			method, err := payload.ParseMethod(methodName)
			if err != nil {
				return err
			}

			var addrs [4]common.Address
			for i, name := range []string{"local", "remote", "from", "to"} {
				raw, _ := cmd.Flags().GetString(name)
				if !common.IsHexAddress(raw) {
					return fmt.Errorf("invalid %s address %q", name, raw)
				}
				addrs[i] = common.HexToAddress(raw)
			}

			tokenIDs := make([]*big.Int, 0, len(rawIDs))
			for _, raw := range rawIDs {
				id, ok := math.ParseBig256(raw)
				if !ok {
					return fmt.Errorf("invalid token id %q", raw)
				}
				tokenIDs = append(tokenIDs, id)
			}

			call, err := payload.NewFinalizeCall(method, addrs[0], addrs[1], addrs[2], addrs[3], tokenIDs)
			if err != nil {
				return err
			}
			data, err := call.Pack()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))
			return nil
		},
	}

	cmd.Flags().StringP("method", "m", payload.FinalizeDeposit.String(), "Finalize method name")
	cmd.Flags().String("local", "", "Layer-1 token address")
	cmd.Flags().String("remote", "", "Layer-2 token address")
	cmd.Flags().String("from", "", "Depositor or withdrawer address")
	cmd.Flags().String("to", "", "Recipient address")
	cmd.Flags().StringSlice("token-ids", nil, "Token ids (decimal or 0x hex)")
	for _, name := range []string{"local", "remote", "from", "to", "token-ids"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a finalize payload",
		Long:  `Decode 0x-prefixed ABI call data produced by a gateway.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataHex, _ := cmd.Flags().GetString("data")

			data, err := hexutil.Decode(dataHex)
			if err != nil {
				return fmt.Errorf("invalid hex data: %w", err)
			}
			call, err := payload.Decode(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Method:       %s\n", call.Method)
			fmt.Fprintf(out, "Local token:  %s\n", call.LocalToken)
			fmt.Fprintf(out, "Remote token: %s\n", call.RemoteToken)
			fmt.Fprintf(out, "From:         %s\n", call.From)
			fmt.Fprintf(out, "To:           %s\n", call.To)
			fmt.Fprintf(out, "Token ids:    %v\n", call.TokenIDs)
			return nil
		},
	}

	cmd.Flags().StringP("data", "d", "", "Call data (0x hex)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
