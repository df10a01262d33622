package schedule

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Show the dispatch board for a day",
	Long: `Show technicians, their blocks, personal events and the unscheduled
backlog for one day.

Examples:
  iworkr schedule day
  iworkr schedule day --date 2025-03-14 --json`,
	Aliases: []string{"show", "board"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		orgID, err := organization(app)
		if err != nil {
			return err
		}
		day, err := selectedDay()
		if err != nil {
			return err
		}

		view, err := app.GetDayViewHandler.Handle(cmd.Context(), queries.GetDayViewQuery{
			OrganizationID: orgID,
			Date:           day,
		})
		if err != nil {
			return fmt.Errorf("failed to load day view: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd, view)
		}
		printDayView(cmd, view)
		return nil
	},
}

func printDayView(cmd *cobra.Command, view *queries.DayViewDTO) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dispatch board for %s (%s)\n", view.Date, view.Source)
	if len(view.MissingSections) > 0 {
		fmt.Fprintf(out, "Unavailable: %s\n", strings.Join(view.MissingSections, ", "))
	}
	fmt.Fprintln(out, strings.Repeat("-", 50))

	byTech := make(map[string][]queries.BlockDTO)
	for _, b := range view.Blocks {
		key := domain.UnassignedKey
		if b.TechnicianID != nil {
			key = b.TechnicianID.String()
		}
		byTech[key] = append(byTech[key], b)
	}

	for _, tech := range view.Technicians {
		fmt.Fprintf(out, "%s\n", tech.DisplayName)
		printBlockLines(cmd, byTech[tech.ID.String()])
		delete(byTech, tech.ID.String())
	}
	if unassigned := byTech[domain.UnassignedKey]; len(unassigned) > 0 {
		fmt.Fprintln(out, "Unassigned")
		printBlockLines(cmd, unassigned)
		delete(byTech, domain.UnassignedKey)
	}
	for key, blocks := range byTech {
		fmt.Fprintf(out, "%s\n", key)
		printBlockLines(cmd, blocks)
	}

	if len(view.Events) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Events")
		printEventLines(cmd, view.Events)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Backlog: %d job(s)\n", len(view.Backlog))
	for _, job := range view.Backlog {
		fmt.Fprintf(out, "  %-10s %s\n", job.DisplayID, job.Title)
	}
}

func printBlockLines(cmd *cobra.Command, blocks []queries.BlockDTO) {
	out := cmd.OutOrStdout()
	if len(blocks) == 0 {
		fmt.Fprintln(out, "  (no blocks)")
		return
	}
	for _, b := range blocks {
		fmt.Fprintf(out, "  %s  %-30s %-12s %s%s\n",
			formatSpan(b.StartTime, b.EndTime), b.Title, b.Status, b.ID, conflictMarker(b.IsConflict))
	}
}
