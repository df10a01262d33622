package schedule

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List schedule blocks for a day grouped by technician",
	Aliases: []string{"ls", "blocks"},
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

		grouped, err := app.ListBlocksHandler.Handle(cmd.Context(), queries.ListBlocksQuery{
			OrganizationID: orgID,
			Date:           day,
		})
		if err != nil {
			return fmt.Errorf("failed to list blocks: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd, grouped)
		}

		out := cmd.OutOrStdout()
		if len(grouped) == 0 {
			fmt.Fprintf(out, "No blocks scheduled for %s\n", day.Format(domain.DateLayout))
			return nil
		}

		keys := make([]string, 0, len(grouped))
		for k := range grouped {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			blocks := grouped[k]
			label := k
			if k != domain.UnassignedKey && blocks[0].TechnicianName != "" {
				label = blocks[0].TechnicianName
			}
			fmt.Fprintln(out, label)
			printBlockLines(cmd, blocks)
		}
		return nil
	},
}
