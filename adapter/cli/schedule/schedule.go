package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/adapter/cli"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

const clockLayout = "15:04"

var (
	orgFlag    string
	dateFlag   string
	jsonOutput bool
)

// Cmd is the schedule command group
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage technician schedules",
	Long: `View and manage the dispatch board: schedule blocks, personal events,
the job backlog and double bookings.

Times accept HH:MM on the --date day (UTC) or a full RFC3339 timestamp.`,
}

func init() {
	Cmd.PersistentFlags().StringVar(&orgFlag, "org", "", "organization id (default: IWORKR_ORGANIZATION_ID)")
	Cmd.PersistentFlags().StringVarP(&dateFlag, "date", "d", "", "day to operate on (YYYY-MM-DD, default: today UTC)")
	Cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	Cmd.AddCommand(dayCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(resizeCmd)
	Cmd.AddCommand(assignCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(backlogCmd)
	Cmd.AddCommand(conflictsCmd)
	Cmd.AddCommand(eventsCmd)
}

func requireApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.ListBlocksHandler == nil {
		return nil, fmt.Errorf("schedule commands require a database connection")
	}
	return app, nil
}

func organization(app *cli.App) (uuid.UUID, error) {
	return app.ResolveOrganization(orgFlag)
}

// selectedDay returns the --date day at UTC midnight, or today.
func selectedDay() (time.Time, error) {
	if dateFlag == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := domain.ParseDate(dateFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return day, nil
}

// parseClock reads an RFC3339 timestamp or an HH:MM time on the selected day.
func parseClock(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required", name)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	clock, err := time.Parse(clockLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s time, use HH:MM or RFC3339: %q", name, value)
	}
	day, err := selectedDay()
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), nil
}

func parseID(kind, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id: %w", kind, err)
	}
	return id, nil
}

func optionalID(kind, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseID(kind, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatSpan(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.UTC().Format(clockLayout), end.UTC().Format(clockLayout))
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 && minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}

func conflictMarker(conflict bool) string {
	if conflict {
		return " [CONFLICT]"
	}
	return ""
}

func valueOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
