package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/settings"
)

// SettingRequest is the body of PUT /v1/settings/:name.
type SettingRequest struct {
	Value string `json:"value"`
}

// FriendRequest is the body of PUT /v1/friends/:serial.
type FriendRequest struct {
	Name string `json:"name"`
}

// ListSettingsHandler handles GET /v1/settings requests
// @Summary      List settings
// @Tags         Settings
// @Produce      json
// @Success      200 {object} SuccessResponse
// @Failure      503 {object} ErrorResponse "Settings store unavailable"
// @Router       /v1/settings [get]
func (h *Handlers) ListSettingsHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	st, err := h.engine.Settings(ctx)
	if err != nil {
		return sendErr(c, err, "open_settings")
	}
	all, err := st.GetAll(ctx)
	if err != nil {
		return sendErr(c, err, "list_settings")
	}
	return success(c, fiber.StatusOK, fiber.Map{"scope": settings.Scope, "settings": all, "count": len(all)})
}

// GetSettingHandler handles GET /v1/settings/:name requests
// @Summary      Get a setting
// @Tags         Settings
// @Produce      json
// @Param        name path string true "Setting name"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse "Setting is not set"
// @Router       /v1/settings/{name} [get]
func (h *Handlers) GetSettingHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	name := strings.TrimSpace(c.Params("name"))
	st, err := h.engine.Settings(ctx)
	if err != nil {
		return sendErr(c, err, "open_settings")
	}
	value, ok, err := st.Lookup(ctx, name)
	if err != nil {
		return sendErr(c, err, "get_setting")
	}
	if !ok {
		return sendError(c, domain.NewAppError(domain.ErrNotFound, "Setting not found", fiber.StatusNotFound, map[string]string{"name": name}))
	}
	return success(c, fiber.StatusOK, fiber.Map{"name": name, "value": value})
}

// PutSettingHandler handles PUT /v1/settings/:name requests
// @Summary      Store a setting
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        name path string true "Setting name"
// @Param        request body SettingRequest true "Value"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Router       /v1/settings/{name} [put]
func (h *Handlers) PutSettingHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	name := strings.TrimSpace(c.Params("name"))
	if name == "" {
		return sendError(c, domain.NewAppError(domain.ErrValidationFailed, "Setting name is required", fiber.StatusUnprocessableEntity,
			map[string]string{"field": "name"}))
	}
	var req SettingRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}

	st, err := h.engine.Settings(ctx)
	if err != nil {
		return sendErr(c, err, "open_settings")
	}
	if err := st.Set(ctx, name, req.Value); err != nil {
		return sendErr(c, err, "set_setting")
	}
	return success(c, fiber.StatusOK, fiber.Map{"name": name, "value": req.Value})
}

// DeleteSettingHandler handles DELETE /v1/settings/:name requests
// @Summary      Delete a setting
// @Tags         Settings
// @Produce      json
// @Param        name path string true "Setting name"
// @Success      200 {object} SuccessResponse
// @Router       /v1/settings/{name} [delete]
func (h *Handlers) DeleteSettingHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	name := strings.TrimSpace(c.Params("name"))
	st, err := h.engine.Settings(ctx)
	if err != nil {
		return sendErr(c, err, "open_settings")
	}
	if err := st.Delete(ctx, name); err != nil {
		return sendErr(c, err, "delete_setting")
	}
	return success(c, fiber.StatusOK, fiber.Map{"name": name})
}

// ListFriendsHandler handles GET /v1/friends requests
// @Summary      List friends
// @Tags         Friends
// @Produce      json
// @Success      200 {object} SuccessResponse
// @Router       /v1/friends [get]
func (h *Handlers) ListFriendsHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	friends, err := h.engine.Friends(ctx)
	if err != nil {
		return sendErr(c, err, "open_friends")
	}
	list, err := friends.List(ctx)
	if err != nil {
		return sendErr(c, err, "list_friends")
	}
	if list == nil {
		list = []settings.Friend{}
	}
	return success(c, fiber.StatusOK, fiber.Map{"friends": list, "count": len(list)})
}

// PutFriendHandler handles PUT /v1/friends/:serial requests
// @Summary      Add or rename a friend
// @Tags         Friends
// @Accept       json
// @Produce      json
// @Param        serial path string true "Mobile serial"
// @Param        request body FriendRequest true "Friend name"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse "Invalid serial"
// @Failure      422 {object} ErrorResponse "Name is required"
// @Router       /v1/friends/{serial} [put]
func (h *Handlers) PutFriendHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	serial, ok := h.serialParam(c)
	if !ok || serial == 0 {
		return invalidInput(c, "Invalid serial", nil)
	}
	var req FriendRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, "Invalid JSON payload", err)
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return sendError(c, domain.NewAppError(domain.ErrValidationFailed, "Friend name is required", fiber.StatusUnprocessableEntity,
			map[string]string{"field": "name"}))
	}

	friends, err := h.engine.Friends(ctx)
	if err != nil {
		return sendErr(c, err, "open_friends")
	}
	if err := friends.Add(ctx, serial, req.Name); err != nil {
		return sendErr(c, err, "add_friend")
	}
	friend, _, err := friends.Get(ctx, serial)
	if err != nil {
		return sendErr(c, err, "get_friend")
	}
	return success(c, fiber.StatusOK, fiber.Map{"friend": friend})
}

// DeleteFriendHandler handles DELETE /v1/friends/:serial requests
// @Summary      Remove a friend
// @Tags         Friends
// @Produce      json
// @Param        serial path string true "Mobile serial"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse "Invalid serial"
// @Router       /v1/friends/{serial} [delete]
func (h *Handlers) DeleteFriendHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	serial, ok := h.serialParam(c)
	if !ok {
		return invalidInput(c, "Invalid serial", nil)
	}
	friends, err := h.engine.Friends(ctx)
	if err != nil {
		return sendErr(c, err, "open_friends")
	}
	if err := friends.Remove(ctx, serial); err != nil {
		return sendErr(c, err, "remove_friend")
	}
	return success(c, fiber.StatusOK, fiber.Map{"serial": serial})
}
