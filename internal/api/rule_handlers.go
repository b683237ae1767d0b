package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/storage"
)

// RuleHandlers serves one rule kind. Every successful mutation is saved to
// the rule file and reported through onChange.
type RuleHandlers[T domain.Rule[T]] struct {
	kind     string
	store    *storage.RuleStore[T]
	onChange func()
}

func NewRuleHandlers[T domain.Rule[T]](kind string, store *storage.RuleStore[T], onChange func()) *RuleHandlers[T] {
	return &RuleHandlers[T]{kind: kind, store: store, onChange: onChange}
}

// MoveRequest moves a rule one position up or down.
type MoveRequest struct {
	Direction string `json:"direction" example:"up"`
}

// RuleListResponse represents the response for listing rules
// @Description Rules in display order
type RuleListResponse struct {
	Rules  []any `json:"rules"`
	Count  int   `json:"count" example:"5"`
	Loaded bool  `json:"loaded" example:"true"`
}

func (h *RuleHandlers[T]) register(r fiber.Router) {
	r.Get("", h.List)
	r.Post("", h.Create)
	r.Post("/import", h.Import)
	r.Post("/save", h.Save)
	r.Get("/:id", h.Get)
	r.Put("/:id", h.Update)
	r.Delete("/:id", h.Delete)
	r.Post("/:id/move", h.Move)
}

func (h *RuleHandlers[T]) changed(c *fiber.Ctx) error {
	if err := h.store.Save(); err != nil {
		return err
	}
	if h.onChange != nil {
		h.onChange()
	}
	log.Debug().Str("request_id", requestID(c)).Str("kind", h.kind).Int("count", h.store.Len()).Msg("Rules changed")
	return nil
}

func (h *RuleHandlers[T]) notFound(c *fiber.Ctx, id string) error {
	return sendError(c, domain.NewAppError(domain.ErrNotFound, "Rule not found", fiber.StatusNotFound, map[string]string{"rule_id": id}))
}

// List handles GET requests for the whole rule set in display order.
// @Summary      List rules
// @Tags         Rules
// @Produce      json
// @Success      200 {object} SuccessResponse{data=RuleListResponse}
// @Router       /v1/highlight/rules [get]
// @Router       /v1/autoloot/entries [get]
func (h *RuleHandlers[T]) List(c *fiber.Ctx) error {
	rules := h.store.All()
	if rules == nil {
		rules = []T{}
	}
	return success(c, fiber.StatusOK, fiber.Map{"rules": rules, "count": len(rules), "loaded": h.store.Loaded()})
}

// Get handles GET requests for one rule by id.
// @Summary      Get a rule
// @Tags         Rules
// @Produce      json
// @Param        id path string true "Rule ID"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Router       /v1/highlight/rules/{id} [get]
// @Router       /v1/autoloot/entries/{id} [get]
func (h *RuleHandlers[T]) Get(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	rule, ok := h.store.Get(id)
	if !ok {
		return h.notFound(c, id)
	}
	return success(c, fiber.StatusOK, fiber.Map{"rule": rule})
}

// Create adds a rule. An equivalent existing rule is returned with 200
// instead of adding a duplicate.
// @Summary      Create a rule
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        rule body domain.HighlightRule true "Highlight rule, or an auto-loot entry on /v1/autoloot/entries"
// @Success      201 {object} SuccessResponse "Created"
// @Success      200 {object} SuccessResponse "An equivalent rule already exists"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Router       /v1/highlight/rules [post]
// @Router       /v1/autoloot/entries [post]
func (h *RuleHandlers[T]) Create(c *fiber.Ctx) error {
	var rule T
	if err := c.BodyParser(&rule); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}

	stored, created, err := h.store.Add(rule)
	if err != nil {
		return sendErr(c, err, "create_rule")
	}
	if !created {
		return success(c, fiber.StatusOK, fiber.Map{"rule": stored, "created": false})
	}
	if err := h.changed(c); err != nil {
		return sendErr(c, err, "save_rules")
	}
	return success(c, fiber.StatusCreated, fiber.Map{"rule": stored, "created": true})
}

// Update replaces the rule with the path id.
// @Summary      Replace a rule
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID"
// @Param        rule body domain.HighlightRule true "Highlight rule, or an auto-loot entry on /v1/autoloot/entries"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Router       /v1/highlight/rules/{id} [put]
// @Router       /v1/autoloot/entries/{id} [put]
func (h *RuleHandlers[T]) Update(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	var rule T
	if err := c.BodyParser(&rule); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}
	rule = rule.WithID(id)

	if err := h.store.Update(rule); err != nil {
		return sendErr(c, err, "update_rule")
	}
	if err := h.changed(c); err != nil {
		return sendErr(c, err, "save_rules")
	}
	return success(c, fiber.StatusOK, fiber.Map{"rule": rule})
}

// Delete handles DELETE requests for one rule.
// @Summary      Delete a rule
// @Tags         Rules
// @Produce      json
// @Param        id path string true "Rule ID"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Router       /v1/highlight/rules/{id} [delete]
// @Router       /v1/autoloot/entries/{id} [delete]
func (h *RuleHandlers[T]) Delete(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if !h.store.Remove(id) {
		return h.notFound(c, id)
	}
	if err := h.changed(c); err != nil {
		return sendErr(c, err, "save_rules")
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": "Rule deleted successfully", "rule_id": id})
}

// Move reorders a rule. Moving past either end leaves the order unchanged.
// @Summary      Move a rule up or down
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID"
// @Param        request body MoveRequest true "up or down"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Failure      422 {object} ErrorResponse "Invalid direction"
// @Router       /v1/highlight/rules/{id}/move [post]
// @Router       /v1/autoloot/entries/{id}/move [post]
func (h *RuleHandlers[T]) Move(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	var req MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}
	if req.Direction != "up" && req.Direction != "down" {
		return sendError(c, domain.NewAppError(domain.ErrValidationFailed, "direction must be up or down", fiber.StatusUnprocessableEntity,
			map[string]string{"field": "direction"}))
	}
	if _, ok := h.store.Get(id); !ok {
		return h.notFound(c, id)
	}

	moved := h.store.Move(id, req.Direction == "up")
	if moved {
		if err := h.changed(c); err != nil {
			return sendErr(c, err, "save_rules")
		}
	}
	return success(c, fiber.StatusOK, fiber.Map{"moved": moved, "rule_id": id})
}

// Import merges a list of rules, skipping equivalents and invalid rules.
// @Summary      Import rules
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        source query string false "Label for the import report" default(api)
// @Param        rules body []domain.HighlightRule true "Highlight rules, or auto-loot entries on /v1/autoloot/entries"
// @Success      200 {object} SuccessResponse{data=domain.ImportReport}
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Router       /v1/highlight/rules/import [post]
// @Router       /v1/autoloot/entries/import [post]
func (h *RuleHandlers[T]) Import(c *fiber.Ctx) error {
	var rules []T
	if err := c.BodyParser(&rules); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}

	source := c.Query("source", "api")
	report := h.store.Import(rules, source)
	if report.Imported > 0 {
		if err := h.changed(c); err != nil {
			return sendErr(c, err, "save_rules")
		}
	}
	return success(c, fiber.StatusOK, report)
}

// Save writes the rule file now.
// @Summary      Save the rule file
// @Tags         Rules
// @Produce      json
// @Success      200 {object} SuccessResponse
// @Failure      500 {object} ErrorResponse "Save failed"
// @Router       /v1/highlight/rules/save [post]
// @Router       /v1/autoloot/entries/save [post]
func (h *RuleHandlers[T]) Save(c *fiber.Ctx) error {
	if err := h.store.Save(); err != nil {
		return sendErr(c, err, "save_rules")
	}
	return success(c, fiber.StatusOK, fiber.Map{"path": h.store.Path(), "count": h.store.Len()})
}
