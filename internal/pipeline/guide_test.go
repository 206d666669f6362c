package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EZ-CORE/EZ-GEN/internal/android"
	"github.com/EZ-CORE/EZ-GEN/internal/scaffold"
)

func TestWriteGuide(t *testing.T) {
	ws := &scaffold.Workspace{
		ID: "ws-guide", Dir: t.TempDir(),
		AppName: "MyStore", PackageName: "com.mystore.app", WebsiteURL: "https://mystoreapp.com",
	}
	ks := &android.KeystoreInfo{
		KeystorePath:  filepath.Join(ws.Dir, "release-key.keystore"),
		StorePassword: "cafebabe", KeyAlias: "mystore", KeyPassword: "cafebabe",
	}
	build := &android.BuildResult{
		ReleaseAPK: "mystore-release.apk", DebugAPK: "mystore-debug.apk",
		VersionCode: 1700000000, VersionName: "1.0.0",
	}
	if err := WriteGuide(ws, ks, build, "", []string{"something minor"}); err != nil {
		t.Fatalf("WriteGuide: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(ws.Dir, GuideFileName))
	if err != nil {
		t.Fatal(err)
	}
	guide := string(raw)
	for _, want := range []string{
		"MyStore", "com.mystore.app", "https://mystoreapp.com",
		"mystore-release.apk", "mystore-debug.apk",
		"cafebabe", "SENSITIVE", "1700000000", "something minor",
	} {
		if !strings.Contains(guide, want) {
			t.Errorf("guide missing %q", want)
		}
	}
	if strings.Contains(guide, "mystore-release.aab") {
		t.Error("guide lists an artifact that was not produced")
	}
}

func TestWriteGuideDegraded(t *testing.T) {
	ws := &scaffold.Workspace{
		ID: "ws-degraded", Dir: t.TempDir(),
		AppName: "MyStore", PackageName: "com.mystore.app", WebsiteURL: "https://mystoreapp.com",
	}
	if err := WriteGuide(ws, nil, nil, GeneratingKeystore, nil); err != nil {
		t.Fatalf("WriteGuide: %v", err)
	}
	raw, _ := os.ReadFile(filepath.Join(ws.Dir, GuideFileName))
	guide := string(raw)
	if !strings.Contains(guide, "GeneratingKeystore") {
		t.Error("degraded guide does not name the failed stage")
	}
	if !strings.Contains(guide, "No build artifacts were produced") {
		t.Error("degraded guide does not explain missing artifacts")
	}
	if strings.Contains(guide, "Signing credentials") {
		t.Error("credentials section rendered without a keystore")
	}
}
