package schedule

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

var (
	eventType  string
	eventTitle string
	eventStart string
	eventEnd   string
	eventNotes string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Manage personal schedule events",
	Long:  `Breaks, meetings, personal time and unavailability for the current user.`,
}

var eventsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List events for a day",
	Aliases: []string{"ls"},
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

		events, err := app.ListEventsHandler.Handle(cmd.Context(), queries.ListEventsQuery{
			OrganizationID: orgID,
			Date:           day,
		})
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd, events)
		}
		if len(events) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No events on %s\n", day.Format(domain.DateLayout))
			return nil
		}
		printEventLines(cmd, events)
		return nil
	},
}

var eventsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a personal event",
	Long: `Add a personal event for the current user.

Event types: break, meeting, personal, unavailable

Example:
  iworkr schedule events add --type break --title "Lunch" --start 12:00 --end 12:30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		orgID, err := organization(app)
		if err != nil {
			return err
		}
		start, err := parseClock("start", eventStart)
		if err != nil {
			return err
		}
		end, err := parseClock("end", eventEnd)
		if err != nil {
			return err
		}

		event, err := app.CreateEventHandler.Handle(cmd.Context(), commands.CreateEventCommand{
			OrganizationID: orgID,
			Type:           strings.ToLower(eventType),
			Title:          eventTitle,
			StartTime:      start,
			EndTime:        end,
			Notes:          optionalString(eventNotes),
		})
		if err != nil {
			return fmt.Errorf("failed to add event: %w", err)
		}

		dto := queries.ToEventDTO(event)
		if jsonOutput {
			return printJSON(cmd, dto)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s event %q at %s (event %s)\n",
			dto.Type, dto.Title, formatSpan(dto.StartTime, dto.EndTime), dto.ID)
		return nil
	},
}

var eventsRemoveCmd = &cobra.Command{
	Use:     "remove <event-id>",
	Short:   "Delete a personal event",
	Aliases: []string{"rm", "delete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		eventID, err := parseID("event", args[0])
		if err != nil {
			return err
		}
		if err := app.DeleteEventHandler.Handle(cmd.Context(), commands.DeleteEventCommand{EventID: eventID}); err != nil {
			return fmt.Errorf("failed to remove event: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd, map[string]any{"deleted": true, "event_id": eventID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed event %s\n", eventID)
		return nil
	},
}

func printEventLines(cmd *cobra.Command, events []queries.EventDTO) {
	out := cmd.OutOrStdout()
	for _, e := range events {
		fmt.Fprintf(out, "  %s  %-12s %-30s %s\n", formatSpan(e.StartTime, e.EndTime), e.Type, e.Title, e.ID)
	}
}

func init() {
	eventsAddCmd.Flags().StringVarP(&eventType, "type", "t", "personal", "event type (break, meeting, personal, unavailable)")
	eventsAddCmd.Flags().StringVar(&eventTitle, "title", "", "event title (required)")
	eventsAddCmd.Flags().StringVar(&eventStart, "start", "", "start time (HH:MM or RFC3339, required)")
	eventsAddCmd.Flags().StringVar(&eventEnd, "end", "", "end time (HH:MM or RFC3339, required)")
	eventsAddCmd.Flags().StringVar(&eventNotes, "notes", "", "notes")

	_ = eventsAddCmd.MarkFlagRequired("title")
	_ = eventsAddCmd.MarkFlagRequired("start")
	_ = eventsAddCmd.MarkFlagRequired("end")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsAddCmd)
	eventsCmd.AddCommand(eventsRemoveCmd)
}
