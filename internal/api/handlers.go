package api

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/config"
	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/events"
	"github.com/tazuo/autoloot/internal/health"
	"github.com/tazuo/autoloot/internal/journal"
	"github.com/tazuo/autoloot/internal/session"
	"github.com/tazuo/autoloot/internal/settings"
)

// Engine is the running loot session as seen by the API.
type Engine interface {
	Status() session.Status
	Post(ev events.Event)
	RecheckAll()
	ForceLoot(serial uint32)
	Highlight(ctx context.Context, serial uint32) (domain.MatchResult, bool, error)
	Settings(ctx context.Context) (*settings.Settings, error)
	Friends(ctx context.Context) (*settings.Friends, error)
	Profile() *session.LiveProfile
	Journal() *journal.Journal
}

// World is the writable game state fed by the host.
type World interface {
	domain.World
	Put(item domain.ItemSnapshot)
	Remove(serial uint32)
	SetCursorHolding(holding bool)
}

// MoveSource hands out the moves the loot queue has requested.
type MoveSource interface {
	Take() []uint32
}

// Handlers contains the HTTP handlers that are not tied to one rule kind.
type Handlers struct {
	engine  Engine
	world   World
	moves   MoveSource
	checker *health.Checker
}

func NewHandlers(engine Engine, world World, moves MoveSource, checker *health.Checker) *Handlers {
	return &Handlers{engine: engine, world: world, moves: moves, checker: checker}
}

// ErrorResponse represents the standard error response format
// @Description Standard error response format
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Invalid input provided"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse represents the standard success response format
// @Description Standard success response format
type SuccessResponse struct {
	Status string `json:"status" example:"success"`
	Data   any    `json:"data"`
}

// HealthResponse represents the health check response
// @Description Health check response
type HealthResponse struct {
	Status     string                         `json:"status" example:"healthy"`
	Timestamp  string                         `json:"timestamp" example:"2026-01-01T12:00:00Z"`
	Components map[string]domain.HealthStatus `json:"components"`
	Uptime     string                         `json:"uptime" example:"1h2m3s"`
}

// JournalResponse lists loot actions, newest first
type JournalResponse struct {
	Entries []domain.JournalEntry `json:"entries"`
	Count   int                   `json:"count" example:"20"`
}

func success(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(SuccessResponse{Status: "success", Data: data})
}

// sendError sends a standardized error response
func sendError(c *fiber.Ctx, appErr *domain.AppError) error {
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{
		Status:  "error",
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// sendErr maps any error onto the standard error response.
func sendErr(c *fiber.Ctx, err error, operation string) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return sendError(c, appErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return sendError(c, domain.NewAppError(domain.ErrUnavailable, "Request timed out", fiber.StatusServiceUnavailable, nil))
	}
	if errors.Is(err, session.ErrNotStarted) || errors.Is(err, session.ErrStopped) {
		return sendError(c, domain.NewAppError(domain.ErrUnavailable, err.Error(), fiber.StatusServiceUnavailable, nil))
	}
	log.Error().Err(err).Str("request_id", requestID(c)).Str("operation", operation).Msg("Request failed")
	return sendError(c, domain.NewAppError(domain.ErrInternal, "Internal Server Error", fiber.StatusInternalServerError, nil))
}

func invalidInput(c *fiber.Ctx, message string, err error) error {
	details := map[string]string{}
	if err != nil {
		details["error"] = err.Error()
	}
	return sendError(c, domain.NewAppError(domain.ErrInvalidInput, message, fiber.StatusBadRequest, details))
}

func requestID(c *fiber.Ctx) string {
	if rid, ok := c.Locals("requestid").(string); ok {
		return rid
	}
	return ""
}

// parseSerial accepts decimal or 0x-prefixed hex serials.
func parseSerial(raw string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func (h *Handlers) serialParam(c *fiber.Ctx) (uint32, bool) {
	serial, err := parseSerial(c.Params("serial"))
	if err != nil {
		return 0, false
	}
	return serial, true
}

// HealthHandler handles GET /health requests
// @Summary      Health check
// @Description  Aggregated health of the rule stores, matcher, settings databases and journal
// @Tags         System
// @Produce      json
// @Success      200 {object} HealthResponse "Healthy or degraded"
// @Failure      503 {object} HealthResponse "Unhealthy"
// @Router       /health [get]
func (h *Handlers) HealthHandler(c *fiber.Ctx) error {
	report := h.checker.CheckHealth(c.UserContext())

	status := fiber.StatusOK
	if report.Status == domain.HealthStatusUnhealthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(HealthResponse{
		Status:     report.Status,
		Timestamp:  report.Timestamp.Format(time.RFC3339),
		Components: report.Components,
		Uptime:     report.Uptime.String(),
	})
}

// StatusHandler handles GET /v1/status requests
// @Summary      Engine status
// @Description  Queue depth, loot progress and rule counts from the last tick
// @Tags         System
// @Produce      json
// @Success      200 {object} SuccessResponse{data=session.Status}
// @Router       /v1/status [get]
func (h *Handlers) StatusHandler(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, h.engine.Status())
}

// ProfileResponse is the wire form of the live loot switches.
type ProfileResponse struct {
	AutoLoot     bool  `json:"autoloot"`
	Scavenger    bool  `json:"scavenger"`
	HumanCorpses bool  `json:"loot_human_corpses"`
	OpenRange    int   `json:"auto_open_range"`
	DelayMS      int64 `json:"action_delay_ms"`
}

// ProfileUpdate changes only the fields that are present.
type ProfileUpdate struct {
	AutoLoot     *bool  `json:"autoloot"`
	Scavenger    *bool  `json:"scavenger"`
	HumanCorpses *bool  `json:"loot_human_corpses"`
	OpenRange    *int   `json:"auto_open_range"`
	DelayMS      *int64 `json:"action_delay_ms"`
}

func profileResponse(p config.Profile) ProfileResponse {
	return ProfileResponse{
		AutoLoot:     p.AutoLoot,
		Scavenger:    p.Scavenger,
		HumanCorpses: p.HumanCorpses,
		OpenRange:    p.OpenRange,
		DelayMS:      p.Delay.Milliseconds(),
	}
}

// GetProfileHandler handles GET /v1/profile requests
// @Summary      Get loot profile
// @Tags         Profile
// @Produce      json
// @Success      200 {object} SuccessResponse{data=ProfileResponse}
// @Router       /v1/profile [get]
func (h *Handlers) GetProfileHandler(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, profileResponse(h.engine.Profile().Get()))
}

// UpdateProfileHandler handles PATCH /v1/profile requests
// @Summary      Update loot profile
// @Description  Changes only the switches present in the body
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Param        profile body ProfileUpdate true "Switches to change"
// @Success      200 {object} SuccessResponse{data=ProfileResponse}
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Router       /v1/profile [patch]
func (h *Handlers) UpdateProfileHandler(c *fiber.Ctx) error {
	var req ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}

	p := h.engine.Profile().Get()
	if req.AutoLoot != nil {
		p.AutoLoot = *req.AutoLoot
	}
	if req.Scavenger != nil {
		p.Scavenger = *req.Scavenger
	}
	if req.HumanCorpses != nil {
		p.HumanCorpses = *req.HumanCorpses
	}
	if req.OpenRange != nil {
		if *req.OpenRange < 0 || *req.OpenRange > 24 {
			return sendError(c, domain.NewAppError(domain.ErrValidationFailed, "auto_open_range must be between 0 and 24", fiber.StatusUnprocessableEntity,
				map[string]string{"field": "auto_open_range"}))
		}
		p.OpenRange = *req.OpenRange
	}
	if req.DelayMS != nil {
		if *req.DelayMS < 0 {
			return sendError(c, domain.NewAppError(domain.ErrValidationFailed, "action_delay_ms must not be negative", fiber.StatusUnprocessableEntity,
				map[string]string{"field": "action_delay_ms"}))
		}
		p.Delay = time.Duration(*req.DelayMS) * time.Millisecond
	}
	h.engine.Profile().Set(p)

	log.Info().
		Str("request_id", requestID(c)).
		Bool("autoloot", p.AutoLoot).
		Bool("scavenger", p.Scavenger).
		Int("range", p.OpenRange).
		Msg("Loot profile updated")
	return success(c, fiber.StatusOK, profileResponse(p))
}

// JournalHandler handles GET /v1/journal?limit=n requests
// @Summary      Recent loot actions
// @Tags         Loot
// @Produce      json
// @Param        limit query int false "Number of entries, newest first" default(50)
// @Success      200 {object} SuccessResponse{data=JournalResponse}
// @Failure      503 {object} ErrorResponse "Journal is not open"
// @Router       /v1/journal [get]
func (h *Handlers) JournalHandler(c *fiber.Ctx) error {
	j := h.engine.Journal()
	if j == nil {
		return sendError(c, domain.NewAppError(domain.ErrUnavailable, "Loot journal is not open", fiber.StatusServiceUnavailable, nil))
	}
	limit := c.QueryInt("limit", 50)
	entries, err := j.Recent(limit)
	if err != nil {
		return sendErr(c, err, "journal_recent")
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return success(c, fiber.StatusOK, JournalResponse{Entries: entries, Count: len(entries)})
}

// HighlightHandler handles GET /v1/highlights/:serial requests
// @Summary      Highlight of an item
// @Tags         Highlight
// @Produce      json
// @Param        serial path string true "Item serial, decimal or 0x hex"
// @Success      200 {object} SuccessResponse{data=domain.MatchResult}
// @Failure      400 {object} ErrorResponse "Invalid serial"
// @Failure      404 {object} ErrorResponse "Item is not highlighted"
// @Failure      503 {object} ErrorResponse "Engine is not running"
// @Router       /v1/highlights/{serial} [get]
func (h *Handlers) HighlightHandler(c *fiber.Ctx) error {
	serial, ok := h.serialParam(c)
	if !ok {
		return invalidInput(c, "Invalid serial", nil)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	res, found, err := h.engine.Highlight(ctx, serial)
	if err != nil {
		return sendErr(c, err, "highlight_lookup")
	}
	if !found {
		return sendError(c, domain.NewAppError(domain.ErrNotFound, "Item is not highlighted", fiber.StatusNotFound,
			map[string]any{"serial": serial}))
	}
	return success(c, fiber.StatusOK, res)
}

// RecheckHandler handles POST /v1/highlight/recheck requests
// @Summary      Re-evaluate every known item
// @Tags         Highlight
// @Produce      json
// @Success      202 {object} SuccessResponse
// @Router       /v1/highlight/recheck [post]
func (h *Handlers) RecheckHandler(c *fiber.Ctx) error {
	h.engine.RecheckAll()
	return success(c, fiber.StatusAccepted, fiber.Map{"message": "Recheck scheduled"})
}

// ForceLootHandler handles POST /v1/containers/:serial/loot requests
// @Summary      Loot a container now
// @Description  Runs the auto-loot check over a container's contents regardless of range
// @Tags         Loot
// @Produce      json
// @Param        serial path string true "Container serial"
// @Success      202 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse "Invalid serial"
// @Failure      404 {object} ErrorResponse "Container not found"
// @Router       /v1/containers/{serial}/loot [post]
func (h *Handlers) ForceLootHandler(c *fiber.Ctx) error {
	serial, ok := h.serialParam(c)
	if !ok {
		return invalidInput(c, "Invalid serial", nil)
	}
	if _, exists := h.world.Item(serial); !exists {
		return sendError(c, domain.NewAppError(domain.ErrNotFound, "Container not found", fiber.StatusNotFound,
			map[string]any{"serial": serial}))
	}
	h.engine.ForceLoot(serial)
	return success(c, fiber.StatusAccepted, fiber.Map{"serial": serial})
}
