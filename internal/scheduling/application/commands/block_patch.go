package commands

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// DecodeBlockPatch reads a JSON object into a BlockPatch. Absent keys are
// left unset; an explicit null clears nullable fields.
func DecodeBlockPatch(data []byte) (domain.BlockPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.BlockPatch{}, domain.NewValidationError("body", "must be a JSON object")
	}
	return BlockPatchFromFields(raw)
}

// BlockPatchFromFields builds a BlockPatch from already split JSON fields.
func BlockPatchFromFields(raw map[string]json.RawMessage) (domain.BlockPatch, error) {
	var (
		patch domain.BlockPatch
		bad   = map[string]string{}
	)

	for key, value := range raw {
		switch key {
		case "technician_id":
			patch.TechnicianID = decodeField[*uuid.UUID](value, key, bad)
		case "job_id":
			patch.JobID = decodeField[*uuid.UUID](value, key, bad)
		case "title":
			patch.Title = decodeField[string](value, key, bad)
		case "client_name":
			patch.ClientName = decodeField[*string](value, key, bad)
		case "location":
			patch.Location = decodeField[*string](value, key, bad)
		case "start_time":
			patch.StartTime = decodeField[time.Time](value, key, bad)
		case "end_time":
			patch.EndTime = decodeField[time.Time](value, key, bad)
		case "status":
			patch.Status = decodeField[domain.BlockStatus](value, key, bad)
		case "travel_minutes":
			patch.TravelMinutes = decodeField[*int](value, key, bad)
		case "notes":
			patch.Notes = decodeField[*string](value, key, bad)
		case "metadata":
			patch.Metadata = decodeField[map[string]any](value, key, bad)
		default:
			bad[key] = "unknown field"
		}
	}

	if len(bad) > 0 {
		return domain.BlockPatch{}, &domain.ValidationError{Fields: bad}
	}
	return patch, nil
}

func decodeField[T any](value json.RawMessage, key string, bad map[string]string) domain.Optional[T] {
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		bad[key] = "invalid value"
		return domain.Optional[T]{}
	}
	return domain.Some(v)
}
