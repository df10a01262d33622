package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
)

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "List jobs waiting to be scheduled",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		orgID, err := organization(app)
		if err != nil {
			return err
		}

		jobs, err := app.ListBacklogHandler.Handle(cmd.Context(), queries.ListBacklogQuery{OrganizationID: orgID})
		if err != nil {
			return fmt.Errorf("failed to list backlog: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd, jobs)
		}

		out := cmd.OutOrStdout()
		if len(jobs) == 0 {
			fmt.Fprintln(out, "Backlog is empty")
			return nil
		}
		for _, job := range jobs {
			estimate := "-"
			if job.EstimatedDurationMinutes != nil {
				estimate = fmt.Sprintf("%dm", *job.EstimatedDurationMinutes)
			}
			fmt.Fprintf(out, "%-10s %-8s %-6s %-30s %s  %s\n",
				job.DisplayID, job.Priority, estimate, job.Title, valueOr(job.ClientName, "-"), job.ID)
		}
		return nil
	},
}
