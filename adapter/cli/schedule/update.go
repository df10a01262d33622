package schedule

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

var (
	updateTitle      string
	updateStart      string
	updateEnd        string
	updateTechnician string
	updateUnassign   bool
	updateClient     string
	updateLocation   string
	updateStatus     string
	updateTravel     int
	updateNotes      string
)

var updateCmd = &cobra.Command{
	Use:   "update <block-id>",
	Short: "Update fields of a schedule block",
	Long: `Update the given fields of a block. Only flags that are passed change.
Changing the technician or times re-checks the block for double bookings.

Examples:
  iworkr schedule update <id> --status en_route
  iworkr schedule update <id> --start 10:00 --end 12:00
  iworkr schedule update <id> --unassign`,
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
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to update: pass at least one field flag")
		}

		block, err := app.UpdateBlockHandler.Handle(cmd.Context(), commands.UpdateBlockCommand{
			BlockID: blockID,
			Patch:   patch,
		})
		if err != nil {
			return fmt.Errorf("failed to update block: %w", err)
		}

		dto := queries.ToBlockDTO(block)
		if jsonOutput {
			return printJSON(cmd, dto)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated block %s: %s %s [%s]%s\n",
			dto.ID, dto.Title, formatSpan(dto.StartTime, dto.EndTime), dto.Status, conflictMarker(dto.IsConflict))
		return nil
	},
}

func patchFromFlags(cmd *cobra.Command) (domain.BlockPatch, error) {
	var patch domain.BlockPatch
	flags := cmd.Flags()

	if flags.Changed("title") {
		patch.Title = domain.Some(updateTitle)
	}
	if flags.Changed("start") {
		start, err := parseClock("start", updateStart)
		if err != nil {
			return patch, err
		}
		patch.StartTime = domain.Some(start)
	}
	if flags.Changed("end") {
		end, err := parseClock("end", updateEnd)
		if err != nil {
			return patch, err
		}
		patch.EndTime = domain.Some(end)
	}
	switch {
	case updateUnassign:
		patch.TechnicianID = domain.Some[*uuid.UUID](nil)
	case flags.Changed("tech"):
		techID, err := parseID("technician", updateTechnician)
		if err != nil {
			return patch, err
		}
		patch.TechnicianID = domain.Some(&techID)
	}
	if flags.Changed("client") {
		patch.ClientName = domain.Some(optionalString(updateClient))
	}
	if flags.Changed("location") {
		patch.Location = domain.Some(optionalString(updateLocation))
	}
	if flags.Changed("status") {
		patch.Status = domain.Some(domain.BlockStatus(updateStatus))
	}
	if flags.Changed("travel") {
		travel := updateTravel
		patch.TravelMinutes = domain.Some(&travel)
	}
	if flags.Changed("notes") {
		patch.Notes = domain.Some(optionalString(updateNotes))
	}
	return patch, nil
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateStart, "start", "", "new start time (HH:MM or RFC3339)")
	updateCmd.Flags().StringVar(&updateEnd, "end", "", "new end time (HH:MM or RFC3339)")
	updateCmd.Flags().StringVar(&updateTechnician, "tech", "", "new technician id")
	updateCmd.Flags().BoolVar(&updateUnassign, "unassign", false, "remove the technician from the block")
	updateCmd.Flags().StringVar(&updateClient, "client", "", "client name (empty clears)")
	updateCmd.Flags().StringVar(&updateLocation, "location", "", "location (empty clears)")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "block status")
	updateCmd.Flags().IntVar(&updateTravel, "travel", 0, "travel minutes")
	updateCmd.Flags().StringVar(&updateNotes, "notes", "", "notes (empty clears)")
	updateCmd.MarkFlagsMutuallyExclusive("tech", "unassign")
}
