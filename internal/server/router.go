package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/EZ-CORE/EZ-GEN/internal/config"
	"github.com/EZ-CORE/EZ-GEN/internal/pipeline"
	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/server/handlers"
	"github.com/EZ-CORE/EZ-GEN/internal/server/middleware"
)

// Configure injects the boot-time collaborators into the handlers package.
func Configure(p *pipeline.Orchestrator, hub *progress.Hub) {
	handlers.Pipe = p
	handlers.Hub = hub
}

func RegisterRoutes(app *fiber.App) {
	// Static frontend (the generator's own web UI)
	app.Static("/", config.Current.PublicDir)

	// Generation API
	app.Post("/api/generate-app", handlers.GenerateApp)
	app.Get("/api/download/:appId", handlers.DownloadWorkspace)
	app.Get("/api/download-apk/:appId", handlers.DownloadArtifact("-debug.apk"))
	app.Get("/api/download-release-apk/:appId", handlers.DownloadArtifact("-release.apk"))
	app.Get("/api/download-aab/:appId", handlers.DownloadArtifact(".aab"))
	app.Get("/api/download-guide/:appId", handlers.DownloadGuide)

	// Live session log stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/logs/:sessionId", websocket.New(handlers.LogsSocket))

	// Push relay
	app.Post("/api/push/register", handlers.PushRegister)
	app.Post("/api/push/send", middleware.AuthRequired(), handlers.PushSend)

	// Admin
	app.Get("/admin/login", handlers.LoginPage)
	app.Post("/admin/login", handlers.LoginSubmit)
	app.Get("/admin/logout", handlers.Logout)
	admin := app.Group("/admin", middleware.AuthRequired())
	admin.Get("/", handlers.Dashboard)
	admin.Get("/builds", handlers.BuildsPage)
	app.Get("/api/apps", middleware.AuthRequired(), handlers.AppsList)
	app.Delete("/api/admin/apps/:appId", middleware.AuthRequired(), handlers.AppDelete)

	// Health
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "time": time.Now()})
	})
}
