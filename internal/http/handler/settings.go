package handler

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"settingsapi/internal/service"
)

// fieldPatch is the PATCH /field/:field request body.
type fieldPatch struct {
	Value json.RawMessage `json:"value" swaggertype:"object"`
}

// GetSettings returns the caller's settings, creating defaults on first access.
//
//	@Summary	Get settings
//	@Tags		settings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		userId	path		string	true	"User ID (24-hex ObjectID)"
//	@Success	200		{object}	model.Settings
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Failure	403		{object}	errorPayload
//	@Router		/settings/{userId} [get]
func GetSettings(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.Get(c.UserContext(), c.Params("userId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(s)
	}
}

// ReplaceSettings upserts any subset of settings fields.
//
//	@Summary	Replace settings
//	@Tags		settings
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		userId	path		string			true	"User ID"
//	@Param		body	body		model.Settings	true	"Fields to write; server-managed keys are ignored"
//	@Success	200		{object}	model.Settings
//	@Failure	400		{object}	errorPayload
//	@Failure	403		{object}	errorPayload
//	@Router		/settings/{userId} [put]
func ReplaceSettings(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "body must be a JSON object")
		}
		s, err := svc.Replace(c.UserContext(), c.Params("userId"), patch)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(s)
	}
}

// ResetSettings discards the record and restores defaults.
//
//	@Summary	Reset settings to defaults
//	@Tags		settings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		userId	path		string	true	"User ID"
//	@Success	200		{object}	model.Settings
//	@Failure	403		{object}	errorPayload
//	@Router		/settings/{userId} [delete]
func ResetSettings(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.Reset(c.UserContext(), c.Params("userId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(s)
	}
}

// GetEffectiveSettings returns values derived from the settings at the current time, or at
// the RFC 3339 instant in ?at=.
//
//	@Summary	Effective settings
//	@Tags		settings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		userId	path		string	true	"User ID"
//	@Param		at		query		string	false	"RFC 3339 instant"
//	@Success	200		{object}	service.Effective
//	@Failure	400		{object}	errorPayload
//	@Router		/settings/{userId}/effective [get]
func GetEffectiveSettings(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		if at := c.Query("at"); at != "" {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "at must be an RFC 3339 timestamp")
			}
			now = t
		}
		eff, err := svc.Effective(c.UserContext(), c.Params("userId"), now)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(eff)
	}
}

// GetSettingsField returns a single field as {field: value}.
//
//	@Summary	Get one settings field
//	@Tags		settings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		userId	path		string	true	"User ID"
//	@Param		field	path		string	true	"Field name, e.g. fontSize"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400		{object}	errorPayload
//	@Failure	404		{object}	errorPayload
//	@Router		/settings/{userId}/field/{field} [get]
func GetSettingsField(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.GetField(c.UserContext(), c.Params("userId"), c.Params("field"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}

// SetSettingsField writes a single field from {"value": ...}.
//
//	@Summary	Set one settings field
//	@Tags		settings
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		userId	path		string		true	"User ID"
//	@Param		field	path		string		true	"Field name"
//	@Param		body	body		fieldPatch	true	"New value"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400		{object}	errorPayload
//	@Router		/settings/{userId}/field/{field} [patch]
func SetSettingsField(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body fieldPatch
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "body must be a JSON object")
		}
		if len(body.Value) == 0 {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "value is required")
		}
		out, err := svc.SetField(c.UserContext(), c.Params("userId"), c.Params("field"), body.Value)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}
