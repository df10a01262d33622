package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

const maxBodyBytes = 1 << 20

// ScheduleHandler handles scheduling API requests.
type ScheduleHandler struct {
	createBlock    *commands.CreateBlockHandler
	updateBlock    *commands.UpdateBlockHandler
	deleteBlock    *commands.DeleteBlockHandler
	moveBlock      *commands.MoveBlockHandler
	resizeBlock    *commands.ResizeBlockHandler
	assignJob      *commands.AssignJobHandler
	createEvent    *commands.CreateEventHandler
	deleteEvent    *commands.DeleteEventHandler
	listBlocks     *queries.ListBlocksHandler
	listBacklog    *queries.ListBacklogHandler
	listEvents     *queries.ListEventsHandler
	getDayView     *queries.GetDayViewHandler
	checkConflicts *queries.CheckConflictsHandler
	logger         *slog.Logger
	now            func() time.Time
}

// ScheduleHandlerConfig holds dependencies for the schedule handler.
type ScheduleHandlerConfig struct {
	CreateBlock    *commands.CreateBlockHandler
	UpdateBlock    *commands.UpdateBlockHandler
	DeleteBlock    *commands.DeleteBlockHandler
	MoveBlock      *commands.MoveBlockHandler
	ResizeBlock    *commands.ResizeBlockHandler
	AssignJob      *commands.AssignJobHandler
	CreateEvent    *commands.CreateEventHandler
	DeleteEvent    *commands.DeleteEventHandler
	ListBlocks     *queries.ListBlocksHandler
	ListBacklog    *queries.ListBacklogHandler
	ListEvents     *queries.ListEventsHandler
	GetDayView     *queries.GetDayViewHandler
	CheckConflicts *queries.CheckConflictsHandler
	Logger         *slog.Logger
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(cfg ScheduleHandlerConfig) *ScheduleHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ScheduleHandler{
		createBlock:    cfg.CreateBlock,
		updateBlock:    cfg.UpdateBlock,
		deleteBlock:    cfg.DeleteBlock,
		moveBlock:      cfg.MoveBlock,
		resizeBlock:    cfg.ResizeBlock,
		assignJob:      cfg.AssignJob,
		createEvent:    cfg.CreateEvent,
		deleteEvent:    cfg.DeleteEvent,
		listBlocks:     cfg.ListBlocks,
		listBacklog:    cfg.ListBacklog,
		listEvents:     cfg.ListEvents,
		getDayView:     cfg.GetDayView,
		checkConflicts: cfg.CheckConflicts,
		logger:         cfg.Logger,
		now:            time.Now,
	}
}

type createBlockRequest struct {
	TechnicianID  *uuid.UUID     `json:"technician_id"`
	JobID         *uuid.UUID     `json:"job_id"`
	Title         string         `json:"title"`
	ClientName    *string        `json:"client_name"`
	Location      *string        `json:"location"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	Status        string         `json:"status"`
	TravelMinutes *int           `json:"travel_minutes"`
	Notes         *string        `json:"notes"`
	Metadata      map[string]any `json:"metadata"`
}

type moveBlockRequest struct {
	TechnicianID *uuid.UUID `json:"technician_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
}

type resizeBlockRequest struct {
	EndTime time.Time `json:"end_time"`
}

type assignJobRequest struct {
	JobID        uuid.UUID `json:"job_id"`
	TechnicianID uuid.UUID `json:"technician_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

type createEventRequest struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes"`
}

type moveBlockResponse struct {
	Success         bool      `json:"success"`
	Conflict        bool      `json:"conflict"`
	BlockID         uuid.UUID `json:"block_id"`
	Tier            string    `json:"tier"`
	ConflictChecked bool      `json:"conflict_checked"`
}

type assignJobResponse struct {
	Block    queries.BlockDTO `json:"block"`
	JobID    uuid.UUID        `json:"job_id"`
	Conflict bool             `json:"conflict"`
}

// ListBlocks handles GET /api/v1/organizations/{orgID}/blocks?date=
func (h *ScheduleHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	orgID, date, ok := h.orgAndDate(w, r)
	if !ok {
		return
	}

	grouped, err := h.listBlocks.Handle(r.Context(), queries.ListBlocksQuery{OrganizationID: orgID, Date: date})
	if err != nil {
		writeDomainError(w, r, h.logger, "list_blocks", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":   date.Format(domain.DateLayout),
		"blocks": grouped,
	})
}

// CreateBlock handles POST /api/v1/organizations/{orgID}/blocks
func (h *ScheduleHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}
	var req createBlockRequest
	if !decodeBody(w, r, &req) {
		return
	}

	block, err := h.createBlock.Handle(r.Context(), commands.CreateBlockCommand{
		OrganizationID: orgID,
		TechnicianID:   req.TechnicianID,
		JobID:          req.JobID,
		Title:          req.Title,
		ClientName:     req.ClientName,
		Location:       req.Location,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         req.Status,
		TravelMinutes:  req.TravelMinutes,
		Notes:          req.Notes,
		Metadata:       req.Metadata,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, "create_block", err)
		return
	}

	writeJSON(w, http.StatusCreated, queries.ToBlockDTO(block))
}

// UpdateBlock handles PATCH /api/v1/blocks/{blockID}
func (h *ScheduleHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	blockID, ok := pathUUID(w, r, "blockID")
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "unreadable request body")
		return
	}
	patch, err := commands.DecodeBlockPatch(body)
	if err != nil {
		writeDomainError(w, r, h.logger, "update_block", err)
		return
	}

	block, err := h.updateBlock.Handle(r.Context(), commands.UpdateBlockCommand{BlockID: blockID, Patch: patch})
	if err != nil {
		writeDomainError(w, r, h.logger, "update_block", err)
		return
	}

	writeJSON(w, http.StatusOK, queries.ToBlockDTO(block))
}

// DeleteBlock handles DELETE /api/v1/blocks/{blockID}
func (h *ScheduleHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	blockID, ok := pathUUID(w, r, "blockID")
	if !ok {
		return
	}

	if err := h.deleteBlock.Handle(r.Context(), commands.DeleteBlockCommand{BlockID: blockID}); err != nil {
		writeDomainError(w, r, h.logger, "delete_block", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveBlock handles POST /api/v1/blocks/{blockID}/move
func (h *ScheduleHandler) MoveBlock(w http.ResponseWriter, r *http.Request) {
	blockID, ok := pathUUID(w, r, "blockID")
	if !ok {
		return
	}
	var req moveBlockRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.moveBlock.Handle(r.Context(), commands.MoveBlockCommand{
		BlockID:      blockID,
		TechnicianID: req.TechnicianID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, "move_block", err)
		return
	}

	writeJSON(w, http.StatusOK, moveBlockResponse{
		Success:         result.Success,
		Conflict:        result.Conflict,
		BlockID:         result.BlockID,
		Tier:            string(result.Tier),
		ConflictChecked: result.ConflictChecked,
	})
}

// ResizeBlock handles POST /api/v1/blocks/{blockID}/resize
func (h *ScheduleHandler) ResizeBlock(w http.ResponseWriter, r *http.Request) {
	blockID, ok := pathUUID(w, r, "blockID")
	if !ok {
		return
	}
	var req resizeBlockRequest
	if !decodeBody(w, r, &req) {
		return
	}

	block, err := h.resizeBlock.Handle(r.Context(), commands.ResizeBlockCommand{BlockID: blockID, EndTime: req.EndTime})
	if err != nil {
		writeDomainError(w, r, h.logger, "resize_block", err)
		return
	}

	writeJSON(w, http.StatusOK, queries.ToBlockDTO(block))
}

// AssignJob handles POST /api/v1/organizations/{orgID}/assignments
func (h *ScheduleHandler) AssignJob(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}
	var req assignJobRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.assignJob.Handle(r.Context(), commands.AssignJobCommand{
		OrganizationID: orgID,
		JobID:          req.JobID,
		TechnicianID:   req.TechnicianID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, "assign_job", err)
		return
	}

	writeJSON(w, http.StatusCreated, assignJobResponse{
		Block:    queries.ToBlockDTO(result.Block),
		JobID:    result.JobID,
		Conflict: result.Conflict,
	})
}

// ListBacklog handles GET /api/v1/organizations/{orgID}/backlog
func (h *ScheduleHandler) ListBacklog(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}

	jobs, err := h.listBacklog.Handle(r.Context(), queries.ListBacklogQuery{OrganizationID: orgID})
	if err != nil {
		writeDomainError(w, r, h.logger, "list_backlog", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// ListEvents handles GET /api/v1/organizations/{orgID}/events?date=
func (h *ScheduleHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	orgID, date, ok := h.orgAndDate(w, r)
	if !ok {
		return
	}

	events, err := h.listEvents.Handle(r.Context(), queries.ListEventsQuery{OrganizationID: orgID, Date: date})
	if err != nil {
		writeDomainError(w, r, h.logger, "list_events", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":   date.Format(domain.DateLayout),
		"events": events,
	})
}

// CreateEvent handles POST /api/v1/organizations/{orgID}/events
func (h *ScheduleHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}
	var req createEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := h.createEvent.Handle(r.Context(), commands.CreateEventCommand{
		OrganizationID: orgID,
		Type:           req.Type,
		Title:          req.Title,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Notes:          req.Notes,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, "create_event", err)
		return
	}

	writeJSON(w, http.StatusCreated, queries.ToEventDTO(event))
}

// DeleteEvent handles DELETE /api/v1/events/{eventID}
func (h *ScheduleHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	if err := h.deleteEvent.Handle(r.Context(), commands.DeleteEventCommand{EventID: eventID}); err != nil {
		writeDomainError(w, r, h.logger, "delete_event", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDayView handles GET /api/v1/organizations/{orgID}/day-view?date=
func (h *ScheduleHandler) GetDayView(w http.ResponseWriter, r *http.Request) {
	orgID, date, ok := h.orgAndDate(w, r)
	if !ok {
		return
	}

	view, err := h.getDayView.Handle(r.Context(), queries.GetDayViewQuery{OrganizationID: orgID, Date: date})
	if err != nil {
		writeDomainError(w, r, h.logger, "get_day_view", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// CheckConflicts handles GET /api/v1/organizations/{orgID}/conflicts
func (h *ScheduleHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}

	blocks := h.checkConflicts.Handle(r.Context(), queries.CheckConflictsQuery{OrganizationID: orgID})
	writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

// orgAndDate reads the organization path variable and the optional date
// query parameter, which defaults to today in UTC.
func (h *ScheduleHandler) orgAndDate(w http.ResponseWriter, r *http.Request) (uuid.UUID, time.Time, bool) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return uuid.Nil, time.Time{}, false
	}

	raw := r.URL.Query().Get("date")
	if raw == "" {
		day, _ := domain.DayBounds(h.now())
		return orgID, day, true
	}
	date, err := domain.ParseDate(raw)
	if err != nil {
		writeDomainError(w, r, h.logger, "parse_date", err)
		return uuid.Nil, time.Time{}, false
	}
	return orgID, date, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}
