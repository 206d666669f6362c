package pipeline

import (
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/EZ-CORE/EZ-GEN/internal/android"
	"github.com/EZ-CORE/EZ-GEN/internal/scaffold"
)

// GuideFileName is the submission guide written at the workspace root.
const GuideFileName = "PLAY_STORE_SUBMISSION_GUIDE.md"

var guideTmpl = template.Must(template.New("guide").Parse(`# Play Store Submission Guide

Generated {{.GeneratedAt}} for **{{.AppName}}** (` + "`{{.PackageName}}`" + `).
Website: {{.WebsiteURL}}

{{if .FailedStage}}> **Note:** generation stopped at the {{.FailedStage}} stage.
> Everything listed below was still produced and is usable.

{{end}}## Artifacts
{{if .Artifacts}}{{range .Artifacts}}- ` + "`{{.}}`" + `
{{end}}{{else}}No build artifacts were produced. The workspace itself is a complete
native project; open it in Android Studio to build locally.
{{end}}
Version code: {{.VersionCode}}
Version name: {{.VersionName}}

{{if .Keystore}}## Signing credentials (SENSITIVE, store safely)

These credentials sign your releases. Losing them means you can never update
the app on the Play Store; leaking them lets anyone publish as you.

| | |
|---|---|
| Keystore file | ` + "`{{.Keystore.KeystorePath}}`" + ` |
| Store password | ` + "`{{.Keystore.StorePassword}}`" + ` |
| Key alias | ` + "`{{.Keystore.KeyAlias}}`" + ` |
| Key password | ` + "`{{.Keystore.KeyPassword}}`" + ` |

{{end}}{{if .Warnings}}## Warnings
{{range .Warnings}}- {{.}}
{{end}}
{{end}}## Next steps

1. Create a Play Console listing for ` + "`{{.PackageName}}`" + `.
2. Upload the ` + "`.aab`" + ` bundle (preferred) or the release APK.
3. Keep the keystore and this guide somewhere safe and private.
4. Sideload the release APK on a device to verify the app loads {{.WebsiteURL}}.
`))

type guideData struct {
	AppName     string
	PackageName string
	WebsiteURL  string
	GeneratedAt string
	FailedStage State
	Artifacts   []string
	VersionCode int64
	VersionName string
	Keystore    *android.KeystoreInfo
	Warnings    []string
}

// WriteGuide renders the human-readable submission guide into the workspace.
// It embeds the signing credentials deliberately; the guide is part of the
// customer's deliverable and the keystore is theirs.
func WriteGuide(ws *scaffold.Workspace, ks *android.KeystoreInfo, build *android.BuildResult, failedStage State, warnings []string) error {
	data := guideData{
		AppName:     ws.AppName,
		PackageName: ws.PackageName,
		WebsiteURL:  ws.WebsiteURL,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		FailedStage: failedStage,
		Keystore:    ks,
		Warnings:    warnings,
		VersionName: "1.0.0",
	}
	if build != nil {
		data.Artifacts = build.Artifacts()
		data.VersionCode = build.VersionCode
		data.VersionName = build.VersionName
	}
	f, err := os.Create(filepath.Join(ws.Dir, GuideFileName))
	if err != nil {
		return err
	}
	if err := guideTmpl.Execute(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
