package android

import (
	"os"
	"os/exec"
	"path/filepath"
)

// Check is one toolchain probe result. Hint tells the operator how to fix a
// missing tool; it is surfaced by the doctor command and the pipeline's
// pre-flight guard.
type Check struct {
	OK   bool
	Path string
	Hint string
}

// EnvReport is the build environment pre-flight report.
type EnvReport struct {
	SDK  Check
	Java Check
	Node Check
	NPM  Check
}

// BuildReady reports whether a native release build is worth attempting.
func (r EnvReport) BuildReady() bool { return r.SDK.OK && r.Java.OK }

// WebReady reports whether the web toolchain stages can run.
func (r EnvReport) WebReady() bool { return r.Node.OK && r.NPM.OK }

// CheckEnvironment probes the host toolchain. sdkHint and javaHint come from
// configuration (ANDROID_HOME / JAVA_HOME); empty hints fall back to common
// install locations and PATH.
func CheckEnvironment(sdkHint, javaHint string) EnvReport {
	var r EnvReport

	if sdk, ok := DetectSDK(sdkHint); ok {
		r.SDK = Check{OK: true, Path: sdk}
	} else {
		r.SDK = Check{Hint: "install the Android SDK and set ANDROID_HOME"}
	}

	if javaHint != "" {
		if info, err := os.Stat(javaHint); err == nil && info.IsDir() {
			r.Java = Check{OK: true, Path: javaHint}
		}
	}
	if !r.Java.OK {
		if p, err := exec.LookPath("java"); err == nil {
			r.Java = Check{OK: true, Path: p}
		} else {
			r.Java = Check{Hint: "install a JDK (17+) and set JAVA_HOME"}
		}
	}

	if p, err := exec.LookPath("node"); err == nil {
		r.Node = Check{OK: true, Path: p}
	} else {
		r.Node = Check{Hint: "install Node.js 18+"}
	}
	if p, err := exec.LookPath("npm"); err == nil {
		r.NPM = Check{OK: true, Path: p}
	} else {
		r.NPM = Check{Hint: "npm ships with Node.js; check your PATH"}
	}
	return r
}

// DetectSDK finds an Android SDK directory: the hint first, then common
// install locations. A directory only counts when it carries a platforms/ or
// build-tools/ subdirectory, so an empty ANDROID_HOME stub is not mistaken
// for an SDK.
func DetectSDK(hint string) (string, bool) {
	candidates := []string{}
	if hint != "" {
		candidates = append(candidates, hint)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, "Android", "Sdk"),
			filepath.Join(home, "Library", "Android", "sdk"),
		)
	}
	candidates = append(candidates, "/usr/lib/android-sdk", "/opt/android-sdk")

	for _, dir := range candidates {
		if isSDKDir(dir) {
			return dir, true
		}
	}
	return "", false
}

func isSDKDir(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, marker := range []string{"platforms", "build-tools"} {
		if mi, err := os.Stat(filepath.Join(dir, marker)); err == nil && mi.IsDir() {
			return true
		}
	}
	return false
}
