package handlers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/EZ-CORE/EZ-GEN/internal/config"
	"github.com/EZ-CORE/EZ-GEN/internal/pipeline"
	"github.com/EZ-CORE/EZ-GEN/internal/utils"
)

// workspaceDir resolves an appId to its workspace path, rejecting anything
// that is not a bare uuid-ish segment.
func workspaceDir(appID string) (string, error) {
	if appID == "" || strings.ContainsAny(appID, "/\\.") {
		return "", fiber.ErrBadRequest
	}
	dir := filepath.Join(config.Current.WorkspaceDir, appID)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fiber.ErrNotFound
	}
	return dir, nil
}

// DownloadWorkspace streams the whole workspace as a zip. The zip is built
// on the fly; workspaces with node_modules would otherwise be gigabytes.
func DownloadWorkspace(c *fiber.Ctx) error {
	dir, err := workspaceDir(c.Params("appId"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.zip"`, c.Params("appId")))

	pr, pw := io.Pipe()
	go func() {
		err := utils.ZipDir(pw, dir)
		if err != nil {
			logrus.WithError(err).Warn("workspace zip stream aborted")
		}
		pw.CloseWithError(err)
	}()
	return c.SendStream(pr)
}

// DownloadArtifact serves a named build artifact: first from the flat output
// directory (keyed by workspace id), then by searching the workspace's native
// build-output tree for runs where relocation failed. A 404 is the contract
// signal that the artifact never materialized.
func DownloadArtifact(suffix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		appID := c.Params("appId")
		if appID == "" || strings.ContainsAny(appID, "/\\.") {
			return fiber.ErrBadRequest
		}
		outDir := filepath.Join(config.Current.OutputDir, appID)
		if entries, err := os.ReadDir(outDir); err == nil {
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
					return c.Download(filepath.Join(outDir, e.Name()), e.Name())
				}
			}
		}
		ws, err := workspaceDir(appID)
		if err != nil {
			return err
		}
		outputs := filepath.Join(ws, "android", "app", "build", "outputs")
		if path, ok := utils.FindFile(outputs, suffix); ok {
			return c.Download(path, filepath.Base(path))
		}
		return fiber.ErrNotFound
	}
}

// DownloadGuide serves the submission guide from the workspace root.
func DownloadGuide(c *fiber.Ctx) error {
	dir, err := workspaceDir(c.Params("appId"))
	if err != nil {
		return err
	}
	path := filepath.Join(dir, pipeline.GuideFileName)
	if _, err := os.Stat(path); err != nil {
		return fiber.ErrNotFound
	}
	return c.Download(path, pipeline.GuideFileName)
}
