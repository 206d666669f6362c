package android

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/scaffold"
	"github.com/EZ-CORE/EZ-GEN/internal/toolrun"
	"github.com/EZ-CORE/EZ-GEN/internal/utils"
)

// Native asset locations the sync tool would populate, relative to the
// workspace root.
var platformAssetDirs = []struct{ platform, dest string }{
	{"android", "android/app/src/main/assets/public"},
	{"ios", "ios/App/App/public"},
}

// Sync makes the built web assets available to each native platform project.
// The Capacitor CLI is preferred, but it hangs non-deterministically in
// headless environments, so it runs under a wall-clock bound; on timeout or
// nonzero exit the essential effect is reproduced by copying the web output
// into the native asset directories directly. Only a fallback copy failure is
// fatal for this stage.
func Sync(ctx context.Context, r toolrun.Runner, hub *progress.Hub, session string, ws *scaffold.Workspace, timeout time.Duration) error {
	hub.Log(session, progress.Info, "Syncing web assets to native platforms (%s limit)", timeout)
	res, err := r.Run(ctx, toolrun.Spec{
		Name:    "npx",
		Args:    []string{"cap", "sync"},
		Dir:     ws.Dir,
		Timeout: timeout,
	})
	switch {
	case err != nil:
		hub.Log(session, progress.Warning, "Sync tool unavailable (%v), copying assets manually", err)
	case res.TimedOut:
		hub.Log(session, progress.Warning, "Sync tool hung past %s, killed it, copying assets manually", timeout)
	case res.ExitCode != 0:
		hub.Log(session, progress.Warning, "Sync tool exited %d, copying assets manually", res.ExitCode)
	default:
		hub.Log(session, progress.Success, "Platform sync completed")
		return nil
	}
	return manualSync(hub, session, ws)
}

// manualSync copies the built web output into each existing platform's asset
// directory, replacing any stale copy. Platforms absent from the workspace
// are skipped.
func manualSync(hub *progress.Hub, session string, ws *scaffold.Workspace) error {
	webDir, ok := ws.WebDir()
	if !ok {
		return fmt.Errorf("no built web output (www/ or dist/) in workspace %s", ws.ID)
	}
	synced := 0
	for _, p := range platformAssetDirs {
		platformDir := filepath.Join(ws.Dir, p.platform)
		if info, err := os.Stat(platformDir); err != nil || !info.IsDir() {
			continue
		}
		dest := filepath.Join(ws.Dir, filepath.FromSlash(p.dest))
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("clearing %s assets: %w", p.platform, err)
		}
		if err := utils.CopyDir(webDir, dest); err != nil {
			return fmt.Errorf("copying web output to %s: %w", p.platform, err)
		}
		hub.Log(session, progress.Info, "Copied web assets into %s project", p.platform)
		synced++
	}
	if synced == 0 {
		return fmt.Errorf("no native platform directories found in workspace %s", ws.ID)
	}
	hub.Log(session, progress.Success, "Manual asset sync completed (%d platform(s))", synced)
	return nil
}
