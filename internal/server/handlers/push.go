package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/EZ-CORE/EZ-GEN/internal/database"
	"github.com/EZ-CORE/EZ-GEN/internal/models"
	"github.com/EZ-CORE/EZ-GEN/internal/services"
)

// PushRegister upserts a device token sent by a generated app on startup.
func PushRegister(c *fiber.Ctx) error {
	if !database.Enabled() {
		return fiber.NewError(fiber.StatusServiceUnavailable, "device registry disabled")
	}
	var in struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
		AppID    string `json:"appId"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if in.Token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token required")
	}
	now := time.Now()
	var device models.PushDevice
	if err := database.DB.Where("token = ?", in.Token).First(&device).Error; err != nil {
		device = models.PushDevice{Token: in.Token, Platform: in.Platform, AppID: in.AppID, LastSeenAt: &now}
		if err := database.DB.Create(&device).Error; err != nil {
			return fiber.ErrInternalServerError
		}
	} else {
		device.Platform = in.Platform
		device.AppID = in.AppID
		device.LastSeenAt = &now
		_ = database.DB.Save(&device).Error
	}
	return c.JSON(fiber.Map{"ok": true})
}

// PushSend fans a notification out to registered devices, optionally scoped
// to one generated app. Admin only.
func PushSend(c *fiber.Ctx) error {
	if !database.Enabled() {
		return fiber.NewError(fiber.StatusServiceUnavailable, "device registry disabled")
	}
	var in struct {
		Title string                 `json:"title"`
		Body  string                 `json:"body"`
		Data  map[string]interface{} `json:"data"`
		AppID string                 `json:"appId"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if in.Title == "" && in.Body == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title or body required")
	}

	q := database.DB.Model(&models.PushDevice{})
	if in.AppID != "" {
		q = q.Where("app_id = ?", in.AppID)
	}
	var tokens []string
	if err := q.Pluck("token", &tokens).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if err := services.SendPushToTokens(c.Context(), tokens, services.PushMessage{
		Title: in.Title, Body: in.Body, Data: in.Data,
	}); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"ok": true, "devices": len(tokens)})
}
