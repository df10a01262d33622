package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database and cache connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return fmt.Errorf("app not initialized")
		}
		return runHealth(cmd, app.Health)
	},
}

func runHealth(cmd *cobra.Command, registry *observability.HealthRegistry) error {
	health := registry.Check(cmd.Context())
	out := cmd.OutOrStdout()

	names := make([]string, 0, len(health.Checks))
	for name := range health.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(out, "status: %s\n", health.Status)
	for _, name := range names {
		check := health.Checks[name]
		if check.Message != "" {
			fmt.Fprintf(out, "  %-10s %s (%s)\n", name, check.Status, check.Message)
			continue
		}
		fmt.Fprintf(out, "  %-10s %s\n", name, check.Status)
	}

	if health.Status == observability.HealthStatusUnhealthy {
		return fmt.Errorf("unhealthy")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
