package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List blocks flagged as double bookings",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		orgID, err := organization(app)
		if err != nil {
			return err
		}

		blocks := app.CheckConflictsHandler.Handle(cmd.Context(), queries.CheckConflictsQuery{OrganizationID: orgID})
		if jsonOutput {
			return printJSON(cmd, blocks)
		}

		out := cmd.OutOrStdout()
		if len(blocks) == 0 {
			fmt.Fprintln(out, "No conflicts")
			return nil
		}
		fmt.Fprintf(out, "%d conflicting block(s)\n", len(blocks))
		for _, b := range blocks {
			fmt.Fprintf(out, "  %s %s  %-30s %s\n",
				b.StartTime.UTC().Format("2006-01-02"), formatSpan(b.StartTime, b.EndTime), b.Title, b.ID)
		}
		return nil
	},
}
