package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/adapter/cli"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

const timeLayout = "15:04"

var errNoDatabase = errors.New("schedule tools require database connection")

// parseDate reads a YYYY-MM-DD day, falling back to today in UTC.
func parseDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}

// parseInstant accepts RFC3339 or HH:MM on the given UTC day.
func parseInstant(field string, date time.Time, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, use RFC3339 or HH:MM", field)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), nil
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func parseOptionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseUUID(value)
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

func organizationID(app *cli.App, value string) (uuid.UUID, error) {
	return app.ResolveOrganization(value)
}
