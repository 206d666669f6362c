package scaffold

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/ini.v1"

	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/utils"
)

// Identity values baked into the stock template. Every occurrence is
// rewritten to the customer's values during materialization.
const (
	templatePackage    = "io.ionic.starter"
	templateAltPackage = "com.ezassist.timeless"
	templateAppName    = "Timeless"
	templateURL        = "https://timeless.ezassist.me"
	templateCacheName  = "timeless-cache"
)

// Inputs carries everything needed to materialize one workspace.
type Inputs struct {
	AppName     string
	PackageName string
	WebsiteURL  string

	LogoPath   string // optional, consumed (deleted) after copy
	SplashPath string // optional, consumed (deleted) after copy

	TemplateDir  string
	WorkspaceDir string
	SDKDir       string
	JavaHome     string
}

// Workspace is a materialized, uniquely identified copy of the template. It
// is mutated in place by every later pipeline stage and is itself the
// deliverable, so it stays on disk after generation.
type Workspace struct {
	ID          string
	Dir         string
	AppName     string
	PackageName string
	WebsiteURL  string
}

// AndroidDir returns the native Android project root.
func (w *Workspace) AndroidDir() string { return filepath.Join(w.Dir, "android") }

// WebDir returns the built web output directory, preferring www over dist.
func (w *Workspace) WebDir() (string, bool) {
	for _, d := range []string{"www", "dist"} {
		p := filepath.Join(w.Dir, d)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, true
		}
	}
	return "", false
}

type replacement struct{ old, new string }

// fileRole binds a named template file role to its candidate locations and
// the substitutions it needs. Adding a new identity-bearing file to the
// template means adding one row here.
type fileRole struct {
	role  string
	paths []string
	repl  func(in Inputs) []replacement
}

func identity(in Inputs) []replacement {
	return []replacement{
		{templatePackage, in.PackageName},
		{templateAltPackage, in.PackageName},
		{templateURL, strings.TrimRight(in.WebsiteURL, "/")},
		{templateAppName, in.AppName},
	}
}

var roles = []fileRole{
	{
		role:  "manifest strings",
		paths: []string{"android/app/src/main/res/values/strings.xml"},
		repl:  identity,
	},
	{
		role:  "android manifest",
		paths: []string{"android/app/src/main/AndroidManifest.xml"},
		repl:  identity,
	},
	{
		role:  "gradle application id",
		paths: []string{"android/app/build.gradle"},
		repl:  identity,
	},
	{
		role:  "firebase package binding",
		paths: []string{"android/app/google-services.json"},
		repl:  identity,
	},
	{
		role:  "capacitor config",
		paths: []string{"capacitor.config.ts", "capacitor.config.json"},
		repl:  identity,
	},
	{
		role:  "web entry component",
		paths: []string{"src/app/home/home.page.ts", "src/app/app.component.ts", "src/index.html"},
		repl:  identity,
	},
	{
		role:  "caching worker",
		paths: []string{"src/sw.js", "public/sw.js", "www/sw.js"},
		repl: func(in Inputs) []replacement {
			site := strings.TrimRight(in.WebsiteURL, "/")
			return append(identity(in),
				replacement{templateCacheName, utils.SanitizeName(in.AppName) + "-cache"},
				replacement{originOf(templateURL), originOf(site)},
			)
		},
	},
}

// Materializer produces workspaces from the template. Hub/Session are
// optional; when set, patch warnings are mirrored to the session log.
type Materializer struct {
	Hub     *progress.Hub
	Session string
}

func (m *Materializer) logf(level progress.Level, format string, args ...interface{}) {
	if m.Hub != nil {
		m.Hub.Log(m.Session, level, format, args...)
	}
}

// Materialize copies the template into a fresh workspace and rewrites every
// identity-bearing file. Only the initial copy is fatal; individual patch
// failures degrade to warnings so a slightly unusual template still yields a
// usable project skeleton.
func (m *Materializer) Materialize(in Inputs) (*Workspace, error) {
	if _, err := os.Stat(in.TemplateDir); err != nil {
		return nil, fmt.Errorf("template %s unreadable: %w", in.TemplateDir, err)
	}
	id := uuid.New().String()
	dir := filepath.Join(in.WorkspaceDir, id)
	if err := utils.CopyDir(in.TemplateDir, dir, "node_modules", ".git", ".gradle", "build"); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("copying template: %w", err)
	}
	ws := &Workspace{
		ID:          id,
		Dir:         dir,
		AppName:     in.AppName,
		PackageName: in.PackageName,
		WebsiteURL:  strings.TrimRight(in.WebsiteURL, "/"),
	}

	if err := NormalizeGradlew(ws.Dir); err != nil {
		m.logf(progress.Warning, "gradlew normalization skipped: %v", err)
	}
	if err := writeLocalProperties(ws.Dir, in.SDKDir); err != nil {
		m.logf(progress.Warning, "local.properties not written: %v", err)
	}
	if err := writeGradleProperties(ws.Dir, in.JavaHome); err != nil {
		m.logf(progress.Warning, "gradle.properties not updated: %v", err)
	}

	for _, r := range roles {
		if err := m.applyRole(ws.Dir, r, in); err != nil {
			m.logf(progress.Warning, "patching %s: %v", r.role, err)
		}
	}
	if err := m.relocateJavaPackage(ws.Dir, in.PackageName); err != nil {
		m.logf(progress.Warning, "relocating Java package: %v", err)
	}
	if err := AllowHostname(ws.Dir, hostOf(in.WebsiteURL)); err != nil {
		m.logf(progress.Warning, "network security config: %v", err)
	}
	if err := m.placeArtwork(ws.Dir, in); err != nil {
		m.logf(progress.Warning, "artwork: %v", err)
	}

	m.logf(progress.Success, "Workspace %s materialized for %s", id, in.AppName)
	return ws, nil
}

// applyRole patches every existing candidate for the role. A role with no
// existing candidate at all is reported so template drift shows up in logs.
func (m *Materializer) applyRole(dir string, r fileRole, in Inputs) error {
	patched := 0
	for _, rel := range r.paths {
		path := filepath.Join(dir, rel)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := substituteFile(path, r.repl(in)); err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		patched++
	}
	if patched == 0 {
		return fmt.Errorf("no candidate file present (%s)", strings.Join(r.paths, ", "))
	}
	return nil
}

func substituteFile(path string, repl []replacement) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out := string(raw)
	for _, r := range repl {
		if r.old == r.new {
			continue
		}
		out = strings.ReplaceAll(out, r.old, r.new)
	}
	if out == string(raw) {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), info.Mode().Perm())
}

// relocateJavaPackage moves the template's Java sources from the stock
// package directory tree to the customer package's tree, rewriting package
// declarations and imports, then removes the old tree.
func (m *Materializer) relocateJavaPackage(dir, pkg string) error {
	base := filepath.Join(dir, "android", "app", "src", "main", "java")
	newDir := filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/")))
	moved := 0
	for _, oldPkg := range []string{templatePackage, templateAltPackage} {
		oldDir := filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(oldPkg, ".", "/")))
		entries, err := os.ReadDir(oldDir)
		if err != nil {
			continue
		}
		if oldDir == newDir {
			// The requested package matches this template tree. The sources
			// are already in place; rewrite their identifiers without moving
			// anything, and never delete the tree.
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				if err := substituteFile(filepath.Join(oldDir, e.Name()), []replacement{
					{templatePackage, pkg},
					{templateAltPackage, pkg},
				}); err != nil {
					return err
				}
				moved++
			}
			continue
		}
		if err := os.MkdirAll(newDir, 0o755); err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(oldDir, e.Name()))
			if err != nil {
				return err
			}
			src := strings.ReplaceAll(string(raw), templatePackage, pkg)
			src = strings.ReplaceAll(src, templateAltPackage, pkg)
			if err := os.WriteFile(filepath.Join(newDir, e.Name()), []byte(src), 0o644); err != nil {
				return err
			}
			moved++
		}
		if err := removePackageTree(base, oldDir); err != nil {
			return err
		}
	}
	if moved == 0 {
		return fmt.Errorf("no template Java sources found under %s", base)
	}
	return nil
}

// removePackageTree deletes oldDir and any now-empty parents up to base.
func removePackageTree(base, oldDir string) error {
	if err := os.RemoveAll(oldDir); err != nil {
		return err
	}
	for p := filepath.Dir(oldDir); strings.HasPrefix(p, base) && p != base; p = filepath.Dir(p) {
		entries, err := os.ReadDir(p)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(p); err != nil {
			break
		}
	}
	return nil
}

func (m *Materializer) placeArtwork(dir string, in Inputs) error {
	resources := filepath.Join(dir, "resources")
	pairs := []struct{ src, dst string }{
		{in.LogoPath, filepath.Join(resources, "icon.png")},
		{in.SplashPath, filepath.Join(resources, "splash.png")},
	}
	for _, p := range pairs {
		if p.src == "" {
			continue
		}
		if err := utils.CopyFile(p.src, p.dst, 0o644); err != nil {
			return err
		}
		_ = os.Remove(p.src)
	}
	return nil
}

// NormalizeGradlew strips carriage returns from the Gradle wrapper script and
// restores its executable bit. Templates checked out on Windows otherwise
// ship a gradlew whose shebang line the shell refuses.
func NormalizeGradlew(wsDir string) error {
	path := filepath.Join(wsDir, "android", "gradlew")
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	clean := strings.ReplaceAll(string(raw), "\r", "")
	if clean != string(raw) {
		if err := os.WriteFile(path, []byte(clean), 0o755); err != nil {
			return err
		}
	}
	if runtime.GOOS != "windows" {
		return os.Chmod(path, 0o755)
	}
	return nil
}

// writeLocalProperties points the workspace at the build machine's SDK,
// replacing whatever path the template inherited.
func writeLocalProperties(wsDir, sdkDir string) error {
	if sdkDir == "" {
		return nil
	}
	path := filepath.Join(wsDir, "android", "local.properties")
	cfg := ini.Empty()
	cfg.Section("").Key("sdk.dir").SetValue(filepath.ToSlash(sdkDir))
	return cfg.SaveTo(path)
}

func writeGradleProperties(wsDir, javaHome string) error {
	path := filepath.Join(wsDir, "android", "gradle.properties")
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return err
	}
	sec := cfg.Section("")
	if javaHome != "" {
		sec.Key("org.gradle.java.home").SetValue(filepath.ToSlash(javaHome))
	} else {
		sec.DeleteKey("org.gradle.java.home")
	}
	return cfg.SaveTo(path)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
