package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/EZ-CORE/EZ-GEN/internal/database"
	"github.com/EZ-CORE/EZ-GEN/internal/models"
	"github.com/EZ-CORE/EZ-GEN/internal/pipeline"
	"github.com/EZ-CORE/EZ-GEN/internal/progress"
)

// Package-level collaborators, set once at boot by server.Configure.
var (
	Pipe *pipeline.Orchestrator
	Hub  *progress.Hub
)

// GenerateApp handles POST /api/generate-app. The response is synchronous:
// it is sent after the pipeline finished or degraded. Live progress goes out
// over the websocket log stream keyed by sessionId.
func GenerateApp(c *fiber.Ctx) error {
	req := pipeline.Request{
		AppName:     c.FormValue("appName"),
		WebsiteURL:  c.FormValue("websiteUrl"),
		PackageName: c.FormValue("packageName"),
		SessionID:   c.FormValue("sessionId"),
	}

	// Uploaded artwork lands in a temp dir; the materializer consumes and
	// deletes it.
	tmpDir, err := os.MkdirTemp("", "ezgen-upload-*")
	if err != nil {
		return fiber.ErrInternalServerError
	}
	defer os.RemoveAll(tmpDir)
	for _, f := range []struct {
		field string
		dest  *string
	}{
		{"logo", &req.LogoPath},
		{"splash", &req.SplashPath},
	} {
		fh, err := c.FormFile(f.field)
		if err != nil || fh == nil {
			continue
		}
		path := filepath.Join(tmpDir, f.field+filepath.Ext(fh.Filename))
		if err := c.SaveFile(fh, path); err != nil {
			continue
		}
		*f.dest = path
	}

	out := Pipe.Generate(c.Context(), req)
	recordOutcome(out)

	if out.Fatal() {
		status := fiber.StatusInternalServerError
		message := "app generation failed"
		if out.FailedStage == pipeline.Validating {
			status = fiber.StatusBadRequest
			message = "invalid input"
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": message,
			"error":   out.Err.Error(),
		})
	}

	// A workspace exists, so the request succeeded even if later stages
	// degraded; missing artifacts surface as 404s on their download URLs.
	return c.JSON(fiber.Map{
		"success":               true,
		"appId":                 out.AppID,
		"sessionId":             out.SessionID,
		"state":                 out.State,
		"downloadUrl":           "/api/download/" + out.AppID,
		"apkDownloadUrl":        "/api/download-apk/" + out.AppID,
		"releaseApkDownloadUrl": "/api/download-release-apk/" + out.AppID,
		"aabDownloadUrl":        "/api/download-aab/" + out.AppID,
		"guideUrl":              "/api/download-guide/" + out.AppID,
	})
}

// recordOutcome writes the registry row, best effort. A dead registry never
// fails a generation.
func recordOutcome(out pipeline.Outcome) {
	if !database.Enabled() || out.AppID == "" {
		return
	}
	rec := models.BuildRecord{
		ID:          out.AppID,
		SessionID:   out.SessionID,
		AppName:     out.AppName,
		PackageName: out.PackageName,
		WebsiteURL:  out.WebsiteURL,
		State:       string(out.State),
		FailedStage: string(out.FailedStage),
		Warnings:    len(out.Warnings),
		DurationMS:  out.Duration.Milliseconds(),
	}
	if out.Build != nil {
		rec.VersionCode = out.Build.VersionCode
		rec.VersionName = out.Build.VersionName
		if raw, err := json.Marshal(out.Build.Artifacts()); err == nil {
			rec.Artifacts = datatypes.JSON(raw)
		}
	}
	if err := database.DB.Save(&rec).Error; err != nil {
		logrus.WithError(err).Warn("registry write failed")
	}
}
