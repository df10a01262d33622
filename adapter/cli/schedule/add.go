package schedule

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
)

var (
	addTitle      string
	addStart      string
	addEnd        string
	addTechnician string
	addJob        string
	addClient     string
	addLocation   string
	addStatus     string
	addTravel     int
	addNotes      string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a schedule block",
	Long: `Add a block to a technician's timeline. Overlapping blocks are saved
and flagged as conflicts.

Examples:
  iworkr schedule add --title "Boiler service" --tech <id> --start 09:00 --end 11:00
  iworkr schedule add --title "Site survey" --start 2025-03-14T13:00:00Z --end 2025-03-14T14:30:00Z`,
	Aliases: []string{"new"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		orgID, err := organization(app)
		if err != nil {
			return err
		}
		start, err := parseClock("start", addStart)
		if err != nil {
			return err
		}
		end, err := parseClock("end", addEnd)
		if err != nil {
			return err
		}
		techID, err := optionalID("technician", addTechnician)
		if err != nil {
			return err
		}
		jobID, err := optionalID("job", addJob)
		if err != nil {
			return err
		}

		command := commands.CreateBlockCommand{
			OrganizationID: orgID,
			TechnicianID:   techID,
			JobID:          jobID,
			Title:          addTitle,
			ClientName:     optionalString(addClient),
			Location:       optionalString(addLocation),
			StartTime:      start,
			EndTime:        end,
			Status:         strings.ToLower(addStatus),
			Notes:          optionalString(addNotes),
		}
		if cmd.Flags().Changed("travel") {
			travel := addTravel
			command.TravelMinutes = &travel
		}

		block, err := app.CreateBlockHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to add block: %w", err)
		}

		dto := queries.ToBlockDTO(block)
		if jsonOutput {
			return printJSON(cmd, dto)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added block%s\n", conflictMarker(dto.IsConflict))
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  Title:    %s\n", dto.Title)
		fmt.Fprintf(out, "  Time:     %s (%s)\n", formatSpan(dto.StartTime, dto.EndTime), formatDuration(dto.EndTime.Sub(dto.StartTime)))
		fmt.Fprintf(out, "  Date:     %s\n", dto.StartTime.UTC().Format("Monday, January 2, 2006"))
		fmt.Fprintf(out, "  Block ID: %s\n", dto.ID)
		if dto.IsConflict {
			fmt.Fprintln(out, "  Warning:  overlaps another block for this technician")
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "block title (required)")
	addCmd.Flags().StringVar(&addStart, "start", "", "start time (HH:MM or RFC3339, required)")
	addCmd.Flags().StringVar(&addEnd, "end", "", "end time (HH:MM or RFC3339, required)")
	addCmd.Flags().StringVar(&addTechnician, "tech", "", "technician id (default: unassigned)")
	addCmd.Flags().StringVar(&addJob, "job", "", "job id")
	addCmd.Flags().StringVar(&addClient, "client", "", "client name")
	addCmd.Flags().StringVar(&addLocation, "location", "", "job site location")
	addCmd.Flags().StringVar(&addStatus, "status", "", "block status (scheduled, en_route, in_progress, complete, cancelled)")
	addCmd.Flags().IntVar(&addTravel, "travel", 0, "travel minutes before the block")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-form notes")

	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("start")
	_ = addCmd.MarkFlagRequired("end")
}
