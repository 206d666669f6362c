package android

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/scaffold"
	"github.com/EZ-CORE/EZ-GEN/internal/toolrun"
	"github.com/EZ-CORE/EZ-GEN/internal/utils"
)

// BuildResult lists the artifacts a build run produced. Any artifact may be
// empty on partial failure; the release APK is the only one whose absence
// fails the stage.
type BuildResult struct {
	ReleaseAPK  string
	ReleaseAAB  string
	DebugAPK    string
	VersionCode int64
	VersionName string
}

// Artifacts returns the non-empty artifact filenames in a stable order.
func (b *BuildResult) Artifacts() []string {
	var out []string
	for _, a := range []string{b.ReleaseAPK, b.ReleaseAAB, b.DebugAPK} {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// BuildOptions carries the per-run knobs of the release build driver.
type BuildOptions struct {
	OutputDir   string // flat artifact directory outside the workspace
	Timeout     time.Duration
	VersionCode int64
	VersionName string
}

var (
	versionCodeRe = regexp.MustCompile(`versionCode\s+\d+`)
	versionNameRe = regexp.MustCompile(`versionName\s+"[^"]*"`)
)

// ConfigureSigning injects a release signing config referencing the
// workspace keystore into android/app/build.gradle (once; re-running is a
// no-op) and stamps the version metadata. Gradle merges repeated release
// blocks inside buildTypes, which keeps the injection independent of the
// template's own buildTypes content.
func ConfigureSigning(ws *scaffold.Workspace, ks *KeystoreInfo, opt BuildOptions) error {
	path := filepath.Join(ws.AndroidDir(), "app", "build.gradle")
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading build.gradle: %w", err)
	}
	content := string(raw)

	if !strings.Contains(content, "signingConfigs") {
		block := fmt.Sprintf(`    signingConfigs {
        release {
            storeFile file("../../%s")
            storePassword "%s"
            keyAlias "%s"
            keyPassword "%s"
        }
    }
`, keystoreFileName, ks.StorePassword, ks.KeyAlias, ks.KeyPassword)
		idx := strings.Index(content, "android {")
		if idx < 0 {
			return fmt.Errorf("no android block in build.gradle")
		}
		insertAt := idx + len("android {") + 1
		if insertAt > len(content) {
			insertAt = len(content)
		}
		content = content[:insertAt] + block + content[insertAt:]
	}
	if !strings.Contains(content, "signingConfig signingConfigs.release") {
		content = strings.Replace(content, "buildTypes {",
			"buildTypes {\n        release {\n            signingConfig signingConfigs.release\n        }", 1)
	}

	content = versionCodeRe.ReplaceAllString(content, fmt.Sprintf("versionCode %d", opt.VersionCode))
	content = versionNameRe.ReplaceAllString(content, fmt.Sprintf("versionName %q", opt.VersionName))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing build.gradle: %w", err)
	}
	// The wrapper may have been touched since materialization.
	return scaffold.NormalizeGradlew(ws.Dir)
}

// BuildAll drives the native build: clean, release APK, release bundle,
// debug APK. A failed clean or bundle degrades to a warning; only a failed
// release APK assembly fails the stage. Produced artifacts are relocated to
// OutputDir/<workspace id>/ so they survive workspace cleanup under stable
// names.
func BuildAll(ctx context.Context, r toolrun.Runner, hub *progress.Hub, session string, ws *scaffold.Workspace, opt BuildOptions) (*BuildResult, error) {
	result := &BuildResult{VersionCode: opt.VersionCode, VersionName: opt.VersionName}
	name := utils.SanitizeName(ws.AppName)
	if name == "" {
		name = "app"
	}

	if res, err := runGradle(ctx, r, ws, "clean", opt.Timeout); err != nil || res.ExitCode != 0 || res.TimedOut {
		hub.Log(session, progress.Warning, "Gradle clean failed, continuing: %s", gradleFailure(res, err))
	}

	hub.Log(session, progress.Info, "Assembling release APK")
	res, err := runGradle(ctx, r, ws, "assembleRelease", opt.Timeout)
	if err != nil || res.ExitCode != 0 || res.TimedOut {
		return nil, fmt.Errorf("release build failed: %s", gradleFailure(res, err))
	}
	apk, err := relocateArtifact(ws, "apk/release/app-release.apk", opt.OutputDir, name+"-release.apk")
	if err != nil {
		return nil, fmt.Errorf("release build produced no APK: %w", err)
	}
	result.ReleaseAPK = apk
	hub.Log(session, progress.Success, "Release APK ready: %s", apk)

	hub.Log(session, progress.Info, "Assembling release bundle (AAB)")
	if res, err := runGradle(ctx, r, ws, "bundleRelease", opt.Timeout); err != nil || res.ExitCode != 0 || res.TimedOut {
		hub.Log(session, progress.Warning, "Bundle build failed, release APK is still usable: %s", gradleFailure(res, err))
	} else if aab, err := relocateArtifact(ws, "bundle/release/app-release.aab", opt.OutputDir, name+"-release.aab"); err != nil {
		hub.Log(session, progress.Warning, "Bundle output missing: %v", err)
	} else {
		result.ReleaseAAB = aab
		hub.Log(session, progress.Success, "Release bundle ready: %s", aab)
	}

	if apk, ok := BuildDebug(ctx, r, hub, session, ws, opt); ok {
		result.DebugAPK = apk
	}
	return result, nil
}

// BuildDebug assembles a debug APK on a best-effort basis. It also serves as
// the degraded path when keystore generation failed and no release build is
// possible.
func BuildDebug(ctx context.Context, r toolrun.Runner, hub *progress.Hub, session string, ws *scaffold.Workspace, opt BuildOptions) (string, bool) {
	hub.Log(session, progress.Info, "Assembling debug APK")
	name := utils.SanitizeName(ws.AppName)
	if name == "" {
		name = "app"
	}
	res, err := runGradle(ctx, r, ws, "assembleDebug", opt.Timeout)
	if err != nil || res.ExitCode != 0 || res.TimedOut {
		hub.Log(session, progress.Warning, "Debug build failed: %s", gradleFailure(res, err))
		return "", false
	}
	apk, err := relocateArtifact(ws, "apk/debug/app-debug.apk", opt.OutputDir, name+"-debug.apk")
	if err != nil {
		hub.Log(session, progress.Warning, "Debug output missing: %v", err)
		return "", false
	}
	hub.Log(session, progress.Success, "Debug APK ready: %s", apk)
	return apk, true
}

func runGradle(ctx context.Context, r toolrun.Runner, ws *scaffold.Workspace, task string, timeout time.Duration) (toolrun.Result, error) {
	wrapper := "./gradlew"
	if runtime.GOOS == "windows" {
		wrapper = "gradlew.bat"
	}
	return r.Run(ctx, toolrun.Spec{
		Name:    wrapper,
		Args:    []string{task, "--no-daemon"},
		Dir:     ws.AndroidDir(),
		Timeout: timeout,
	})
}

// relocateArtifact copies a build output into the flat artifact directory,
// keyed by workspace id so concurrent requests sharing an app name cannot
// overwrite each other. rel is tried at the conventional Gradle output path
// first, then located by filename anywhere under the outputs tree.
func relocateArtifact(ws *scaffold.Workspace, rel, outDir, destName string) (string, error) {
	outputs := filepath.Join(ws.AndroidDir(), "app", "build", "outputs")
	src := filepath.Join(outputs, filepath.FromSlash(rel))
	if _, err := os.Stat(src); err != nil {
		found, ok := utils.FindFile(outputs, filepath.Base(rel))
		if !ok {
			return "", fmt.Errorf("%s not found under %s", filepath.Base(rel), outputs)
		}
		src = found
	}
	dest := filepath.Join(outDir, ws.ID, destName)
	if err := utils.CopyFile(src, dest, 0o644); err != nil {
		return "", err
	}
	return destName, nil
}

// gradleFailure condenses a Gradle run into a short diagnostic: the failure
// and exception lines of the captured output, or the exec error itself.
func gradleFailure(res toolrun.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if res.TimedOut {
		return fmt.Sprintf("timed out after %s", res.Duration.Round(time.Second))
	}
	var picked []string
	for _, line := range strings.Split(res.Output(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "FAILURE:") ||
			strings.Contains(trimmed, "error:") ||
			strings.Contains(trimmed, "Exception") ||
			strings.HasPrefix(trimmed, "* What went wrong") {
			picked = append(picked, trimmed)
			if len(picked) >= 8 {
				break
			}
		}
	}
	if len(picked) == 0 {
		return fmt.Sprintf("exit code %d", res.ExitCode)
	}
	return fmt.Sprintf("exit code %d: %s", res.ExitCode, strings.Join(picked, " | "))
}
