package android

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/scaffold"
	"github.com/EZ-CORE/EZ-GEN/internal/toolrun"
)

func testWorkspace(t *testing.T, withWeb bool) *scaffold.Workspace {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "android", "app", "src", "main"), 0o755); err != nil {
		t.Fatal(err)
	}
	if withWeb {
		if err := os.MkdirAll(filepath.Join(dir, "www"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "www", "index.html"), []byte("<html>web</html>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &scaffold.Workspace{
		ID:          "ws-test",
		Dir:         dir,
		AppName:     "MyStore",
		PackageName: "com.mystore.app",
	}
}

func androidAssets(ws *scaffold.Workspace) string {
	return filepath.Join(ws.Dir, "android", "app", "src", "main", "assets", "public")
}

func TestSyncToolSucceeds(t *testing.T) {
	ws := testWorkspace(t, true)
	r := &fakeRunner{}
	if err := Sync(context.Background(), r, progress.NewHub(4), "s", ws, 30*time.Second); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n := r.callsMatching("npx", "cap sync"); n != 1 {
		t.Fatalf("sync tool invoked %d times, want 1", n)
	}
	// Tool succeeded, so the manual copy must not have run.
	if _, err := os.Stat(androidAssets(ws)); !os.IsNotExist(err) {
		t.Fatal("fallback copy ran despite tool success")
	}
}

func TestSyncTimeoutFallsBack(t *testing.T) {
	ws := testWorkspace(t, true)
	r := &fakeRunner{handler: func(spec toolrun.Spec) (toolrun.Result, error) {
		return toolrun.Result{TimedOut: true, ExitCode: -1}, nil
	}}
	if err := Sync(context.Background(), r, progress.NewHub(4), "s", ws, 30*time.Second); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n := r.callsMatching("npx", "cap sync"); n != 1 {
		t.Fatalf("sync tool invoked %d times, want exactly 1", n)
	}
	raw, err := os.ReadFile(filepath.Join(androidAssets(ws), "index.html"))
	if err != nil {
		t.Fatalf("web output not copied into android assets: %v", err)
	}
	if string(raw) != "<html>web</html>" {
		t.Fatalf("asset content = %q", raw)
	}
}

func TestSyncNonzeroExitFallsBack(t *testing.T) {
	ws := testWorkspace(t, true)
	r := &fakeRunner{handler: func(spec toolrun.Spec) (toolrun.Result, error) {
		return toolrun.Result{ExitCode: 1, Stderr: "boom"}, nil
	}}
	if err := Sync(context.Background(), r, progress.NewHub(4), "s", ws, 30*time.Second); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := os.Stat(filepath.Join(androidAssets(ws), "index.html")); err != nil {
		t.Fatalf("fallback did not populate assets: %v", err)
	}
}

func TestSyncSkipsAbsentPlatform(t *testing.T) {
	ws := testWorkspace(t, true) // no ios/ directory
	r := &fakeRunner{handler: func(spec toolrun.Spec) (toolrun.Result, error) {
		return toolrun.Result{ExitCode: 1}, nil
	}}
	if err := Sync(context.Background(), r, progress.NewHub(4), "s", ws, time.Second); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.Dir, "ios")); !os.IsNotExist(err) {
		t.Fatal("ios directory appeared out of nowhere")
	}
}

func TestSyncFallbackWithoutWebOutputIsFatal(t *testing.T) {
	ws := testWorkspace(t, false)
	r := &fakeRunner{handler: func(spec toolrun.Spec) (toolrun.Result, error) {
		return toolrun.Result{TimedOut: true}, nil
	}}
	if err := Sync(context.Background(), r, progress.NewHub(4), "s", ws, time.Second); err == nil {
		t.Fatal("fallback with no web output must fail the stage")
	}
}
