package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/events"
	"github.com/tazuo/autoloot/internal/matcher"
)

// EventRequest is one host event by name, e.g. "container_opened".
type EventRequest struct {
	Type   string `json:"type"`
	Serial uint32 `json:"serial"`
}

// CursorRequest reports whether the player holds an item on the cursor.
type CursorRequest struct {
	Holding bool `json:"holding"`
}

// PutItemsHandler handles POST /v1/world/items requests. Each snapshot is
// stored and announced as item_created or item_updated. Property lines sent
// as raw tooltip text are parsed into name and values.
// @Summary      Feed item snapshots
// @Tags         World
// @Accept       json
// @Produce      json
// @Param        items body []domain.ItemSnapshot true "Items to store"
// @Success      202 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Item serial is required"
// @Router       /v1/world/items [post]
func (h *Handlers) PutItemsHandler(c *fiber.Ctx) error {
	var items []domain.ItemSnapshot
	if err := c.BodyParser(&items); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}

	created := 0
	for _, item := range items {
		if item.Serial == 0 {
			return sendError(c, domain.NewAppError(domain.ErrValidationFailed, "Item serial is required", fiber.StatusUnprocessableEntity,
				map[string]string{"field": "serial"}))
		}
	}
	for _, item := range items {
		for i, line := range item.Properties {
			item.Properties[i] = matcher.CompleteProperty(line)
		}
		typ := events.ItemUpdated
		if _, exists := h.world.Item(item.Serial); !exists {
			typ = events.ItemCreated
			created++
		}
		h.world.Put(item)
		h.engine.Post(events.Event{Type: typ, Serial: item.Serial})
	}
	return success(c, fiber.StatusAccepted, fiber.Map{"received": len(items), "created": created})
}

// DeleteItemHandler handles DELETE /v1/world/items/:serial requests
// @Summary      Forget an item
// @Tags         World
// @Produce      json
// @Param        serial path string true "Item serial"
// @Success      200 {object} SuccessResponse
// @Router       /v1/world/items/{serial} [delete]
func (h *Handlers) DeleteItemHandler(c *fiber.Ctx) error {
	serial, ok := h.serialParam(c)
	if !ok {
		return invalidInput(c, "Invalid serial", nil)
	}
	h.world.Remove(serial)
	return success(c, fiber.StatusOK, fiber.Map{"serial": serial})
}

// CursorHandler handles PUT /v1/world/cursor requests
// @Summary      Report the cursor state
// @Tags         World
// @Accept       json
// @Produce      json
// @Param        request body CursorRequest true "Whether an item is held"
// @Success      200 {object} SuccessResponse{data=CursorRequest}
// @Router       /v1/world/cursor [put]
func (h *Handlers) CursorHandler(c *fiber.Ctx) error {
	var req CursorRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}
	h.world.SetCursorHolding(req.Holding)
	return success(c, fiber.StatusOK, req)
}

// EventsHandler handles POST /v1/events requests. Events are queued for the
// next tick in the order given.
// @Summary      Feed game events
// @Tags         World
// @Accept       json
// @Produce      json
// @Param        events body []EventRequest true "Events in arrival order"
// @Success      202 {object} SuccessResponse
// @Failure      422 {object} ErrorResponse "Unknown event type"
// @Router       /v1/events [post]
func (h *Handlers) EventsHandler(c *fiber.Ctx) error {
	var reqs []EventRequest
	if err := c.BodyParser(&reqs); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}

	evs := make([]events.Event, 0, len(reqs))
	for _, req := range reqs {
		typ, ok := events.ParseType(req.Type)
		if !ok {
			return sendError(c, domain.NewAppError(domain.ErrValidationFailed, "Unknown event type", fiber.StatusUnprocessableEntity,
				map[string]string{"field": "type", "value": req.Type}))
		}
		evs = append(evs, events.Event{Type: typ, Serial: req.Serial})
	}
	for _, ev := range evs {
		h.engine.Post(ev)
	}
	return success(c, fiber.StatusAccepted, fiber.Map{"queued": len(evs)})
}

// MovesHandler handles POST /v1/moves/take requests: the host collects the
// item moves requested since its last call.
// @Summary      Collect requested item moves
// @Tags         World
// @Produce      json
// @Success      200 {object} SuccessResponse
// @Router       /v1/moves/take [post]
func (h *Handlers) MovesHandler(c *fiber.Ctx) error {
	moves := h.moves.Take()
	if moves == nil {
		moves = []uint32{}
	}
	return success(c, fiber.StatusOK, fiber.Map{"moves": moves, "count": len(moves)})
}
