package results

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/swimprotocol/pkg/cmd/util"
	"github.com/mpapenbr/swimprotocol/pkg/model"
)

var dryRun bool

// ResultKey builds the composite key from the discipline and participant args
func ResultKey(disciplineID, participantID string) (string, error) {
	d, err := uuid.Parse(disciplineID)
	if err != nil {
		return "", fmt.Errorf("invalid discipline id %q: %w", disciplineID, err)
	}
	p, err := uuid.Parse(participantID)
	if err != nil {
		return "", fmt.Errorf("invalid participant id %q: %w", participantID, err)
	}
	return model.CompositeKey(d, p), nil
}

func NewRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <competition-id> <discipline-id> <participant-id> <time>",
		Short: "records the finish time of an individual start",
		Long: `Records the finish time of an individual start.
An empty time ("") removes the recorded result.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := ResultKey(args[1], args[2])
			if err != nil {
				return err
			}
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Session(ctx, args[0])
				if err != nil {
					return err
				}
				return s.RecordResult(ctx, key, args[3])
			})
		},
	}
}

func NewRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "edits the legs of a relay result",
	}
	cmd.AddCommand(newRelayAddCmd())
	cmd.AddCommand(newRelayRmCmd())
	return cmd
}

func newRelayAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <competition-id> <discipline-id> <participant-id> <meters> <time>",
		Short: "appends a leg (0..100 m, mm:ss:SS)",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := ResultKey(args[1], args[2])
			if err != nil {
				return err
			}
			meters, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid distance %q: %w", args[3], err)
			}
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Session(ctx, args[0])
				if err != nil {
					return err
				}
				entry, err := s.AddRelayEntry(ctx, key, meters, args[4])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d m %s\n", entry.ID, entry.Distance, entry.Time)
				return nil
			})
		},
	}
}

func newRelayRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <competition-id> <discipline-id> <participant-id> <entry-id>",
		Short: "removes a leg",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := ResultKey(args[1], args[2])
			if err != nil {
				return err
			}
			entryID, err := uuid.Parse(args[3])
			if err != nil {
				return fmt.Errorf("invalid entry id %q: %w", args[3], err)
			}
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Session(ctx, args[0])
				if err != nil {
					return err
				}
				return s.RemoveRelayEntry(ctx, key, entryID)
			})
		},
	}
}

func NewSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <competition-id>",
		Short: "sends the finish protocol to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Session(ctx, args[0])
				if err != nil {
					return err
				}
				if dryRun {
					entries, err := s.Entries()
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(entries)
				}
				res, err := s.Submit(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Message())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the payload instead of sending it")
	return cmd
}
