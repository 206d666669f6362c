package android

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/scaffold"
	"github.com/EZ-CORE/EZ-GEN/internal/toolrun"
)

const testGradle = `apply plugin: 'com.android.application'

android {
    namespace "com.mystore.app"
    defaultConfig {
        applicationId "com.mystore.app"
        versionCode 1
        versionName "1.0"
    }
    buildTypes {
        release {
            minifyEnabled false
        }
    }
}
`

func buildWorkspace(t *testing.T) *scaffold.Workspace {
	t.Helper()
	ws := testWorkspace(t, false)
	gradlePath := filepath.Join(ws.Dir, "android", "app", "build.gradle")
	if err := os.MkdirAll(filepath.Dir(gradlePath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(gradlePath, []byte(testGradle), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ws.Dir, "android", "gradlew"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return ws
}

func testKeystore(ws *scaffold.Workspace) *KeystoreInfo {
	return &KeystoreInfo{
		KeystorePath:  filepath.Join(ws.Dir, keystoreFileName),
		StorePassword: "deadbeefdeadbeefdeadbeef",
		KeyAlias:      "mystore",
		KeyPassword:   "deadbeefdeadbeefdeadbeef",
	}
}

// produceOnAssemble scripts a runner that writes the conventional Gradle
// outputs for succeeding tasks and fails the tasks listed in fail.
func produceOnAssemble(ws *scaffold.Workspace, fail ...string) func(toolrun.Spec) (toolrun.Result, error) {
	failSet := map[string]bool{}
	for _, f := range fail {
		failSet[f] = true
	}
	outputs := filepath.Join(ws.Dir, "android", "app", "build", "outputs")
	artifacts := map[string]string{
		"assembleRelease": "apk/release/app-release.apk",
		"bundleRelease":   "bundle/release/app-release.aab",
		"assembleDebug":   "apk/debug/app-debug.apk",
	}
	return func(spec toolrun.Spec) (toolrun.Result, error) {
		task := gradleTask(spec)
		if failSet[task] {
			return toolrun.Result{ExitCode: 1, Stdout: "FAILURE: Build failed with an exception.\n* What went wrong:\nExecution failed for task ':app:" + task + "'."}, nil
		}
		if rel, ok := artifacts[task]; ok {
			path := filepath.Join(outputs, filepath.FromSlash(rel))
			os.MkdirAll(filepath.Dir(path), 0o755)
			os.WriteFile(path, []byte(task+" bytes"), 0o644)
		}
		return toolrun.Result{}, nil
	}
}

func buildOpts(t *testing.T) BuildOptions {
	return BuildOptions{
		OutputDir:   t.TempDir(),
		Timeout:     time.Minute,
		VersionCode: 1700000000,
		VersionName: "1.0.0",
	}
}

func TestConfigureSigning(t *testing.T) {
	ws := buildWorkspace(t)
	opt := buildOpts(t)
	if err := ConfigureSigning(ws, testKeystore(ws), opt); err != nil {
		t.Fatalf("ConfigureSigning: %v", err)
	}
	raw, _ := os.ReadFile(filepath.Join(ws.Dir, "android", "app", "build.gradle"))
	content := string(raw)
	if !strings.Contains(content, `storeFile file("../../release-key.keystore")`) {
		t.Fatalf("signing config missing:\n%s", content)
	}
	if !strings.Contains(content, "signingConfig signingConfigs.release") {
		t.Fatalf("release build type not wired to signing config:\n%s", content)
	}
	if !strings.Contains(content, "versionCode 1700000000") || !strings.Contains(content, `versionName "1.0.0"`) {
		t.Fatalf("version metadata not stamped:\n%s", content)
	}

	// Re-running must not inject a second block.
	if err := ConfigureSigning(ws, testKeystore(ws), opt); err != nil {
		t.Fatal(err)
	}
	raw, _ = os.ReadFile(filepath.Join(ws.Dir, "android", "app", "build.gradle"))
	if got := strings.Count(string(raw), "signingConfigs {"); got != 1 {
		t.Fatalf("signingConfigs injected %d times", got)
	}
}

func TestBuildAll(t *testing.T) {
	ws := buildWorkspace(t)
	opt := buildOpts(t)
	r := &fakeRunner{handler: produceOnAssemble(ws)}
	result, err := BuildAll(context.Background(), r, progress.NewHub(4), "s", ws, opt)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	want := BuildResult{
		ReleaseAPK:  "mystore-release.apk",
		ReleaseAAB:  "mystore-release.aab",
		DebugAPK:    "mystore-debug.apk",
		VersionCode: opt.VersionCode,
		VersionName: "1.0.0",
	}
	if *result != want {
		t.Fatalf("result = %+v, want %+v", *result, want)
	}
	for _, task := range []string{"clean", "assembleRelease", "bundleRelease", "assembleDebug"} {
		if n := r.callsMatching("gradlew", task); n != 1 {
			t.Errorf("%s invoked %d times", task, n)
		}
	}
	for _, name := range result.Artifacts() {
		if _, err := os.Stat(filepath.Join(opt.OutputDir, ws.ID, name)); err != nil {
			t.Errorf("artifact %s not relocated: %v", name, err)
		}
	}
}

func TestBuildAllBundleFailureKeepsAPK(t *testing.T) {
	ws := buildWorkspace(t)
	opt := buildOpts(t)
	r := &fakeRunner{handler: produceOnAssemble(ws, "bundleRelease")}
	result, err := BuildAll(context.Background(), r, progress.NewHub(4), "s", ws, opt)
	if err != nil {
		t.Fatalf("bundle failure must not fail the stage: %v", err)
	}
	if result.ReleaseAPK != "mystore-release.apk" {
		t.Fatalf("release APK lost: %+v", result)
	}
	if result.ReleaseAAB != "" {
		t.Fatalf("AAB reported despite failed bundle: %+v", result)
	}
}

func TestBuildAllReleaseFailureIsFatal(t *testing.T) {
	ws := buildWorkspace(t)
	r := &fakeRunner{handler: produceOnAssemble(ws, "assembleRelease")}
	_, err := BuildAll(context.Background(), r, progress.NewHub(4), "s", ws, buildOpts(t))
	if err == nil {
		t.Fatal("release APK failure accepted")
	}
	if !strings.Contains(err.Error(), "What went wrong") {
		t.Fatalf("diagnostic lines not scanned out of tool output: %v", err)
	}
}

func TestBuildAllCleanFailureContinues(t *testing.T) {
	ws := buildWorkspace(t)
	r := &fakeRunner{handler: produceOnAssemble(ws, "clean")}
	result, err := BuildAll(context.Background(), r, progress.NewHub(4), "s", ws, buildOpts(t))
	if err != nil {
		t.Fatalf("clean failure must not fail the stage: %v", err)
	}
	if result.ReleaseAPK == "" {
		t.Fatal("release APK missing after tolerated clean failure")
	}
}

func TestBuildDebugOnly(t *testing.T) {
	ws := buildWorkspace(t)
	opt := buildOpts(t)
	r := &fakeRunner{handler: produceOnAssemble(ws)}
	apk, ok := BuildDebug(context.Background(), r, progress.NewHub(4), "s", ws, opt)
	if !ok || apk != "mystore-debug.apk" {
		t.Fatalf("BuildDebug = %q, %v", apk, ok)
	}
}
