package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
)

var removeCmd = &cobra.Command{
	Use:     "remove <block-id>",
	Short:   "Delete a schedule block",
	Aliases: []string{"rm", "delete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		blockID, err := parseID("block", args[0])
		if err != nil {
			return err
		}

		if err := app.DeleteBlockHandler.Handle(cmd.Context(), commands.DeleteBlockCommand{BlockID: blockID}); err != nil {
			return fmt.Errorf("failed to remove block: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"deleted": true, "block_id": blockID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed block %s\n", blockID)
		return nil
	},
}
