package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
)

var (
	moveStart      string
	moveEnd        string
	moveTechnician string
)

type moveOutput struct {
	Success         bool   `json:"success"`
	Conflict        bool   `json:"conflict"`
	BlockID         string `json:"block_id"`
	Tier            string `json:"tier"`
	ConflictChecked bool   `json:"conflict_checked"`
}

var moveCmd = &cobra.Command{
	Use:   "move <block-id>",
	Short: "Move a block to new times or another technician",
	Long: `Move a block on the dispatch board. The move is placed atomically and
re-checked for double bookings; if the atomic path is unavailable the
block is still moved but the conflict flag is left as it was.

Examples:
  iworkr schedule move <id> --start 13:00 --end 15:00
  iworkr schedule move <id> --tech <technician-id> --start 13:00 --end 15:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		blockID, err := parseID("block", args[0])
		if err != nil {
			return err
		}
		start, err := parseClock("start", moveStart)
		if err != nil {
			return err
		}
		end, err := parseClock("end", moveEnd)
		if err != nil {
			return err
		}
		techID, err := optionalID("technician", moveTechnician)
		if err != nil {
			return err
		}

		result, err := app.MoveBlockHandler.Handle(cmd.Context(), commands.MoveBlockCommand{
			BlockID:      blockID,
			TechnicianID: techID,
			StartTime:    start,
			EndTime:      end,
		})
		if err != nil {
			return fmt.Errorf("failed to move block: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, moveOutput{
				Success:         result.Success,
				Conflict:        result.Conflict,
				BlockID:         result.BlockID.String(),
				Tier:            string(result.Tier),
				ConflictChecked: result.ConflictChecked,
			})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Moved block %s to %s (%s)%s\n", result.BlockID, formatSpan(start, end), result.Tier, conflictMarker(result.Conflict))
		if !result.ConflictChecked {
			fmt.Fprintln(out, "  Conflicts were not re-checked; run `iworkr schedule conflicts` to review")
		}
		return nil
	},
}

func init() {
	moveCmd.Flags().StringVar(&moveStart, "start", "", "new start time (HH:MM or RFC3339, required)")
	moveCmd.Flags().StringVar(&moveEnd, "end", "", "new end time (HH:MM or RFC3339, required)")
	moveCmd.Flags().StringVar(&moveTechnician, "tech", "", "technician to move the block to (default: keep)")

	_ = moveCmd.MarkFlagRequired("start")
	_ = moveCmd.MarkFlagRequired("end")
}
