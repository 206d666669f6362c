package handlers

import (
	"crypto/subtle"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/EZ-CORE/EZ-GEN/internal/config"
	"github.com/EZ-CORE/EZ-GEN/internal/database"
	"github.com/EZ-CORE/EZ-GEN/internal/models"
	"github.com/EZ-CORE/EZ-GEN/internal/services"
)

func LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"title": "Login"})
}

func LoginSubmit(c *fiber.Ctx) error {
	password := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(password), []byte(config.Current.AdminPassword)) != 1 {
		return c.Render("login", fiber.Map{"title": "Login", "error": "wrong password"})
	}
	token, err := services.GenerateAdminToken(12 * time.Hour)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	c.Cookie(&fiber.Cookie{
		Name:     "admin_token",
		Value:    token,
		HTTPOnly: true,
		Expires:  time.Now().Add(12 * time.Hour),
	})
	return c.Redirect("/admin")
}

func Logout(c *fiber.Ctx) error {
	c.ClearCookie("admin_token")
	return c.Redirect("/admin/login")
}

// Dashboard shows generation counts and the state breakdown.
func Dashboard(c *fiber.Ctx) error {
	stats := fiber.Map{"title": "Dashboard", "registry": database.Enabled()}
	if database.Enabled() {
		var total, done, partial int64
		database.DB.Model(&models.BuildRecord{}).Count(&total)
		database.DB.Model(&models.BuildRecord{}).Where("state = ?", "Done").Count(&done)
		database.DB.Model(&models.BuildRecord{}).Where("state = ?", "PartiallyDone").Count(&partial)
		var devices int64
		database.DB.Model(&models.PushDevice{}).Count(&devices)
		stats["total"] = total
		stats["done"] = done
		stats["partial"] = partial
		stats["devices"] = devices
	}
	return c.Render("dashboard", stats)
}

// BuildsPage lists registry rows, newest first.
func BuildsPage(c *fiber.Ctx) error {
	var records []models.BuildRecord
	if database.Enabled() {
		database.DB.Order("created_at desc").Limit(200).Find(&records)
	}
	return c.Render("builds", fiber.Map{
		"title":    "Builds",
		"records":  records,
		"registry": database.Enabled(),
	})
}

// AppsList returns the registry as JSON for the admin API.
func AppsList(c *fiber.Ctx) error {
	if !database.Enabled() {
		return fiber.NewError(fiber.StatusServiceUnavailable, "registry disabled")
	}
	var records []models.BuildRecord
	if err := database.DB.Order("created_at desc").Find(&records).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"apps": records})
}

// AppDelete removes a generated app: workspace, relocated artifacts, and the
// registry row.
func AppDelete(c *fiber.Ctx) error {
	appID := c.Params("appId")
	dir, err := workspaceDir(appID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fiber.ErrInternalServerError
	}
	_ = os.RemoveAll(filepath.Join(config.Current.OutputDir, appID))
	if database.Enabled() {
		_ = database.DB.Delete(&models.BuildRecord{}, "id = ?", appID).Error
	}
	return c.JSON(fiber.Map{"ok": true})
}
