package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
)

var (
	assignTechnician string
	assignStart      string
	assignEnd        string
)

type assignOutput struct {
	Block    queries.BlockDTO `json:"block"`
	JobID    string           `json:"job_id"`
	Conflict bool             `json:"conflict"`
}

var assignCmd = &cobra.Command{
	Use:   "assign <job-id>",
	Short: "Schedule a backlog job onto a technician",
	Long: `Create a block for a backlog job on a technician's timeline and mark the
job as scheduled.

Example:
  iworkr schedule assign <job-id> --tech <technician-id> --start 09:00 --end 11:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		orgID, err := organization(app)
		if err != nil {
			return err
		}
		jobID, err := parseID("job", args[0])
		if err != nil {
			return err
		}
		techID, err := parseID("technician", assignTechnician)
		if err != nil {
			return err
		}
		start, err := parseClock("start", assignStart)
		if err != nil {
			return err
		}
		end, err := parseClock("end", assignEnd)
		if err != nil {
			return err
		}

		result, err := app.AssignJobHandler.Handle(cmd.Context(), commands.AssignJobCommand{
			OrganizationID: orgID,
			JobID:          jobID,
			TechnicianID:   techID,
			StartTime:      start,
			EndTime:        end,
		})
		if err != nil {
			return fmt.Errorf("failed to assign job: %w", err)
		}

		dto := queries.ToBlockDTO(result.Block)
		if jsonOutput {
			return printJSON(cmd, assignOutput{Block: dto, JobID: result.JobID.String(), Conflict: result.Conflict})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Assigned %q to %s at %s (block %s)%s\n",
			dto.Title, techID, formatSpan(dto.StartTime, dto.EndTime), dto.ID, conflictMarker(result.Conflict))
		return nil
	},
}

func init() {
	assignCmd.Flags().StringVar(&assignTechnician, "tech", "", "technician id (required)")
	assignCmd.Flags().StringVar(&assignStart, "start", "", "start time (HH:MM or RFC3339, required)")
	assignCmd.Flags().StringVar(&assignEnd, "end", "", "end time (HH:MM or RFC3339, required)")

	_ = assignCmd.MarkFlagRequired("tech")
	_ = assignCmd.MarkFlagRequired("start")
	_ = assignCmd.MarkFlagRequired("end")
}
