package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusHash string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a transaction hash was already processed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statusHash == "" {
			return errors.New("--hash is required")
		}
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		ctx, cancel := commandContext(cmd, sess.cfg.RPCTimeout)
		defer cancel()
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"tx_hash":   statusHash,
			"processed": sess.tracker.IsAlreadyProcessed(ctx, statusHash),
			"store":     sess.cfg.HashStore,
		})
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusHash, "hash", "", "transaction hash (required)")
}
