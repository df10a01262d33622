package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
)

var resizeEnd string

var resizeCmd = &cobra.Command{
	Use:   "resize <block-id>",
	Short: "Change the end time of a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		blockID, err := parseID("block", args[0])
		if err != nil {
			return err
		}
		end, err := parseClock("end", resizeEnd)
		if err != nil {
			return err
		}

		block, err := app.ResizeBlockHandler.Handle(cmd.Context(), commands.ResizeBlockCommand{
			BlockID: blockID,
			EndTime: end,
		})
		if err != nil {
			return fmt.Errorf("failed to resize block: %w", err)
		}

		dto := queries.ToBlockDTO(block)
		if jsonOutput {
			return printJSON(cmd, dto)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resized block %s to %s (%s)\n",
			dto.ID, formatSpan(dto.StartTime, dto.EndTime), formatDuration(dto.EndTime.Sub(dto.StartTime)))
		return nil
	},
}

func init() {
	resizeCmd.Flags().StringVar(&resizeEnd, "end", "", "new end time (HH:MM or RFC3339, required)")
	_ = resizeCmd.MarkFlagRequired("end")
}
