package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/client"
	"github.com/mpapenbr/swimprotocol/pkg/cmd/competitions"
	"github.com/mpapenbr/swimprotocol/pkg/cmd/util"
	"github.com/mpapenbr/swimprotocol/pkg/config"
	"github.com/mpapenbr/swimprotocol/pkg/session"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
)

var syncActive bool

func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [competition-id...]",
		Short: "refreshes several start protocols in parallel",
		Long: `Refreshes the given competitions. Without arguments all competitions
offered by the server are refreshed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				s, err := env.Store(ctx)
				if err != nil {
					return err
				}
				c, err := env.Client()
				if err != nil {
					return err
				}
				ids := args
				if len(ids) == 0 {
					list, err := c.FetchCompetitions(ctx)
					if err != nil {
						return err
					}
					if syncActive {
						list = competitions.FilterActive(list)
					}
					for i := range list {
						ids = append(ids, list[i].ID)
					}
				}
				return Sync(ctx, cmd.OutOrStdout(), s, c, ids, config.SyncConcurrency)
			})
		},
	}
	cmd.Flags().BoolVar(&syncActive, "active", false,
		"refresh only active competitions when no ids are given")
	return cmd
}

// Sync refreshes every competition in its own session, at most limit at a
// time. A failing competition does not stop the others, all failures are
// returned joined.
//
//nolint:whitespace // editor/linter issue
func Sync(
	ctx context.Context,
	w io.Writer,
	store storage.Store,
	api session.API,
	ids []string,
	limit int,
) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	if limit > 0 {
		g.SetLimit(limit)
	}
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}
	for _, id := range ids {
		g.Go(func() error {
			s := session.New(id, store, api)
			s.Open(ctx)
			if err := s.Refresh(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				mu.Unlock()
				report("%s: failed: %s\n", id, describe(err))
				return nil
			}
			p := s.Saved().Protocol
			report("%s: %s, %d participants\n", id, p.CompetitionName, p.ParticipantCount())
			return nil
		})
	}
	//nolint:errcheck // workers report through errs
	g.Wait()
	log.Debug("sync done", log.Int("competitions", len(ids)), log.Int("failed", len(errs)))
	return errors.Join(errs...)
}

func describe(err error) string {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("server responded with %d", httpErr.StatusCode)
	}
	return err.Error()
}
