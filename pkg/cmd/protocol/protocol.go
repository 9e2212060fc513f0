package protocol

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/swimprotocol/pkg/cmd/util"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
)

var checkCollisions bool

func NewFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <competition-id>",
		Short: "downloads the start protocol and saves it with the recorded results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Session(ctx, args[0])
				if err != nil {
					return err
				}
				if err := s.Refresh(ctx); err != nil {
					return err
				}
				p := s.Saved().Protocol
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d disciplines, %d participants\n",
					p.CompetitionName, len(p.Disciplines), p.ParticipantCount())
				return nil
			})
		},
	}
}

func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <competition-id>",
		Short: "prints the saved protocol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Store(ctx)
				if err != nil {
					return err
				}
				sp, err := s.Load(ctx, args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("%w: run fetch %s first", err, args[0])
				}
				if err != nil {
					return err
				}
				if err := RenderSaved(cmd.OutOrStdout(), sp); err != nil {
					return err
				}
				if checkCollisions {
					fmt.Fprintln(cmd.OutOrStdout())
					_, err = RenderCollisions(cmd.OutOrStdout(), sp.Protocol)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&checkCollisions, "check", false,
		"report participants sharing a derived id")
	return cmd
}

func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "lists the locally saved competition ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Store(ctx)
				if err != nil {
					return err
				}
				ids, err := s.List(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <competition-id>",
		Short: "removes the saved protocol and all recorded results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Store(ctx)
				if err != nil {
					return err
				}
				return s.Delete(ctx, args[0])
			})
		},
	}
}
