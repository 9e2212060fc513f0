package competitions

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/swimprotocol/pkg/cmd/util"
	"github.com/mpapenbr/swimprotocol/pkg/model"
)

var activeOnly bool

func NewCompetitionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "competitions",
		Short: "lists the competitions offered by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Run(cmd, func(ctx context.Context, env *util.Env) error {
				c, err := env.Client()
				if err != nil {
					return err
				}
				list, err := c.FetchCompetitions(ctx)
				if err != nil {
					return err
				}
				if activeOnly {
					list = FilterActive(list)
				}
				return Render(cmd.OutOrStdout(), list)
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "show only active competitions")
	return cmd
}

func FilterActive(list []model.Competition) []model.Competition {
	return lo.Filter(list, func(c model.Competition, _ int) bool {
		return c.IsActive
	})
}

// Render writes the competitions as table
func Render(w io.Writer, list []model.Competition) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tLOCATION\tREGISTERED\tACTIVE")
	for i := range list {
		c := &list[i]
		active := ""
		if c.IsActive {
			active = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.FormattedDate(), c.Description, c.Location, c.RegisteredCount, active)
	}
	return tw.Flush()
}
