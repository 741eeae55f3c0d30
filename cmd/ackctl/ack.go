package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"mysterybox/internal/application"
	"mysterybox/internal/streaming"

	"github.com/spf13/cobra"
)

var (
	ackHash   string
	ackSender string
	ackKind   string
	ackWait   bool
)

var ackCmd = &cobra.Command{
	Use:   "ack",
	Short: "Acknowledge a transaction and trigger its side effect once",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ackHash == "" || ackSender == "" {
			return errors.New("--hash and --sender are required")
		}
		kind, err := streaming.ParseAckKind(ackKind)
		if err != nil {
			return err
		}
		effect, err := application.EffectFor(kind)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		var result application.AckResult
		if ackWait {
			ctx, cancel := commandContext(cmd, sess.cfg.AckMaxElapsed)
			defer cancel()
			poller, err := application.NewPoller(sess.tracker, application.PollPolicy{
				InitialInterval: sess.cfg.AckInitialInterval,
				MaxElapsed:      sess.cfg.AckMaxElapsed,
				MaxAttempts:     sess.cfg.AckMaxAttempts,
			})
			if err != nil {
				return err
			}
			result, err = poller.AwaitAcknowledgement(ctx, ackHash, ackSender, effect)
			if err != nil && result.Err == nil {
				result.Err = err
			}
		} else {
			ctx, cancel := commandContext(cmd, sess.cfg.RPCTimeout)
			defer cancel()
			result = sess.tracker.Acknowledge(ctx, ackHash, ackSender, effect)
		}

		if err := printJSON(cmd.OutOrStdout(), ackOutput(result)); err != nil {
			return err
		}
		if !result.Done() {
			return fmt.Errorf("transaction %s not acknowledged: %s", ackHash, result.State)
		}
		return nil
	},
}

type ackReport struct {
	TxHash  string               `json:"tx_hash"`
	State   application.AckState `json:"state"`
	Outcome json.RawMessage      `json:"outcome,omitempty"`
	Event   *streaming.AckEvent  `json:"event,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func ackOutput(result application.AckResult) ackReport {
	report := ackReport{TxHash: result.Hash, State: result.State, Event: result.Event}
	if result.Outcome != nil && !result.Outcome.Empty() {
		report.Outcome = result.Outcome.Raw()
	}
	if result.Err != nil {
		report.Error = result.Err.Error()
	}
	return report
}

func init() {
	ackCmd.Flags().StringVar(&ackHash, "hash", "", "transaction hash (required)")
	ackCmd.Flags().StringVar(&ackSender, "sender", "", "signer account id (required)")
	ackCmd.Flags().StringVar(&ackKind, "kind", "notification", "effect: claim|quest_created|notification")
	ackCmd.Flags().BoolVar(&ackWait, "wait", false, "retry with backoff until the transaction is acknowledged")
}
