package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/EZ-CORE/EZ-GEN/internal/android"
	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/scaffold"
	"github.com/EZ-CORE/EZ-GEN/internal/toolrun"
	"github.com/EZ-CORE/EZ-GEN/internal/validate"
)

// State names the pipeline stages in execution order, plus the two terminal
// states. PartiallyDone means the workspace exists and is a valid deliverable
// even though a later stage failed.
type State string

const (
	Validating             State = "Validating"
	Materializing          State = "Materializing"
	InstallingDependencies State = "InstallingDependencies"
	BuildingWeb            State = "BuildingWeb"
	GeneratingAssets       State = "GeneratingAssets"
	Syncing                State = "Syncing"
	EnvironmentValidating  State = "EnvironmentValidating"
	GeneratingKeystore     State = "GeneratingKeystore"
	ConfiguringRelease     State = "ConfiguringRelease"
	BuildingArtifacts      State = "BuildingArtifacts"
	GeneratingGuide        State = "GeneratingGuide"
	Done                   State = "Done"
	PartiallyDone          State = "PartiallyDone"
)

// Request is one validated-to-be generation request.
type Request struct {
	AppName     string
	WebsiteURL  string
	PackageName string
	LogoPath    string
	SplashPath  string
	SessionID   string
}

// Outcome is what one generation run produced. Err is non-nil for any
// failure, but only a nil AppID (no workspace) makes the run a hard failure;
// everything else is a degraded success.
type Outcome struct {
	State        State
	FailedStage  State
	Err          error
	AppID        string
	SessionID    string
	AppName      string
	PackageName  string
	WebsiteURL   string
	WorkspaceDir string
	Build        *android.BuildResult
	Keystore     *android.KeystoreInfo
	Warnings     []string
	Duration     time.Duration
}

// Fatal reports whether the run failed before a usable workspace existed.
func (o Outcome) Fatal() bool { return o.AppID == "" }

// Options carries the orchestrator's configuration snapshot.
type Options struct {
	TemplateDir  string
	WorkspaceDir string
	OutputDir    string
	SDKHint      string
	JavaHint     string

	SyncTimeout    time.Duration
	SmokeTimeout   time.Duration
	InstallTimeout time.Duration
	BuildTimeout   time.Duration

	MaxConcurrentBuilds int
	SeparateKeyPassword bool
}

// Orchestrator sequences the generation pipeline. CheckEnv is swappable for
// tests; it defaults to probing the real host toolchain.
type Orchestrator struct {
	Runner   toolrun.Runner
	Hub      *progress.Hub
	Opts     Options
	CheckEnv func() android.EnvReport

	buildSlots chan struct{}
}

func New(r toolrun.Runner, hub *progress.Hub, opts Options) *Orchestrator {
	o := &Orchestrator{Runner: r, Hub: hub, Opts: opts}
	o.CheckEnv = func() android.EnvReport {
		return android.CheckEnvironment(opts.SDKHint, opts.JavaHint)
	}
	if opts.MaxConcurrentBuilds > 0 {
		o.buildSlots = make(chan struct{}, opts.MaxConcurrentBuilds)
	}
	return o
}

// Generate runs the full pipeline for one request. Stages run strictly
// sequentially; each depends on the filesystem state left by its
// predecessor. From Syncing onward a stage failure stops advancement but
// keeps everything already produced.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (out Outcome) {
	start := time.Now()
	session := req.SessionID
	if session == "" {
		session = uuid.New().String()
	}
	out.SessionID = session
	out.AppName = req.AppName
	out.PackageName = req.PackageName
	out.WebsiteURL = req.WebsiteURL
	// Named return so the deferred stamp lands on whatever value is returned.
	defer func() { out.Duration = time.Since(start) }()

	// Validating: the only stage with no side effects; a failure here leaves
	// no trace on disk.
	warnings, err := validate.Request(validate.Input{
		AppName:     req.AppName,
		WebsiteURL:  req.WebsiteURL,
		PackageName: req.PackageName,
	})
	if err != nil {
		out.State, out.FailedStage, out.Err = Validating, Validating, err
		return out
	}
	for _, w := range warnings {
		o.Hub.Log(session, progress.Warning, "%s", w)
		out.Warnings = append(out.Warnings, w)
	}
	o.Hub.Log(session, progress.Info, "Starting generation for %s (%s)", req.AppName, req.PackageName)

	// Materializing
	sdkDir, _ := android.DetectSDK(o.Opts.SDKHint)
	m := &scaffold.Materializer{Hub: o.Hub, Session: session}
	ws, err := m.Materialize(scaffold.Inputs{
		AppName:      req.AppName,
		PackageName:  req.PackageName,
		WebsiteURL:   req.WebsiteURL,
		LogoPath:     req.LogoPath,
		SplashPath:   req.SplashPath,
		TemplateDir:  o.Opts.TemplateDir,
		WorkspaceDir: o.Opts.WorkspaceDir,
		SDKDir:       sdkDir,
		JavaHome:     o.Opts.JavaHint,
	})
	if err != nil {
		o.Hub.Log(session, progress.Error, "Materialization failed: %v", err)
		out.State, out.FailedStage, out.Err = Materializing, Materializing, err
		return out
	}
	out.AppID = ws.ID
	out.WorkspaceDir = ws.Dir

	// InstallingDependencies
	o.Hub.Log(session, progress.Info, "Installing npm dependencies")
	if res, err := o.Runner.Run(ctx, toolrun.Spec{
		Name: "npm", Args: []string{"install", "--no-audit", "--no-fund"},
		Dir: ws.Dir, Timeout: o.Opts.InstallTimeout,
		OnLine: o.lineLogger(session),
	}); err != nil || res.ExitCode != 0 || res.TimedOut {
		return o.degrade(&out, session, InstallingDependencies, toolFailure("npm install", res, err))
	}

	// BuildingWeb
	o.Hub.Log(session, progress.Info, "Building web assets")
	if res, err := o.Runner.Run(ctx, toolrun.Spec{
		Name: "npm", Args: []string{"run", "build"},
		Dir: ws.Dir, Timeout: o.Opts.BuildTimeout,
		OnLine: o.lineLogger(session),
	}); err != nil || res.ExitCode != 0 || res.TimedOut {
		return o.degrade(&out, session, BuildingWeb, toolFailure("npm run build", res, err))
	}
	o.smokeTest(ctx, session, ws)

	// GeneratingAssets: only worth running when custom artwork was supplied.
	if req.LogoPath != "" || req.SplashPath != "" {
		o.Hub.Log(session, progress.Info, "Generating launcher icons and splash screens")
		if res, err := o.Runner.Run(ctx, toolrun.Spec{
			Name: "npx", Args: []string{"@capacitor/assets", "generate"},
			Dir: ws.Dir, Timeout: o.Opts.BuildTimeout,
		}); err != nil || res.ExitCode != 0 || res.TimedOut {
			warn := toolFailure("asset generation", res, err)
			o.Hub.Log(session, progress.Warning, "%s, keeping template artwork", warn)
			out.Warnings = append(out.Warnings, warn.Error())
		}
	}

	// Syncing
	if err := android.Sync(ctx, o.Runner, o.Hub, session, ws, o.Opts.SyncTimeout); err != nil {
		return o.degrade(&out, session, Syncing, err)
	}

	// EnvironmentValidating: cheap guard so a missing SDK fails with a clear
	// diagnostic instead of twenty minutes into a Gradle run.
	if rep := o.CheckEnv(); !rep.BuildReady() {
		return o.degrade(&out, session, EnvironmentValidating, environmentError(rep))
	}

	if o.buildSlots != nil {
		select {
		case o.buildSlots <- struct{}{}:
			defer func() { <-o.buildSlots }()
		case <-ctx.Done():
			return o.degrade(&out, session, GeneratingKeystore,
				fmt.Errorf("cancelled while waiting for a build slot: %w", ctx.Err()))
		}
	}

	// GeneratingKeystore
	ks, err := android.GenerateKeystore(ctx, o.Runner, o.Hub, session, ws,
		android.KeystoreOptions{SeparateKeyPassword: o.Opts.SeparateKeyPassword})
	buildOpts := android.BuildOptions{
		OutputDir:   o.Opts.OutputDir,
		Timeout:     o.Opts.BuildTimeout,
		VersionCode: time.Now().Unix(),
		VersionName: "1.0.0",
	}
	if err != nil {
		o.degradeKeep(&out, session, GeneratingKeystore, err)
		o.debugFallback(ctx, &out, session, ws, buildOpts)
		o.writeGuide(&out, session, ws, nil)
		return out
	}
	out.Keystore = ks

	// ConfiguringRelease
	if err := android.ConfigureSigning(ws, ks, buildOpts); err != nil {
		o.degradeKeep(&out, session, ConfiguringRelease, err)
		o.debugFallback(ctx, &out, session, ws, buildOpts)
		o.writeGuide(&out, session, ws, ks)
		return out
	}

	// BuildingArtifacts
	build, err := android.BuildAll(ctx, o.Runner, o.Hub, session, ws, buildOpts)
	if err != nil {
		o.degradeKeep(&out, session, BuildingArtifacts, err)
		o.debugFallback(ctx, &out, session, ws, buildOpts)
		o.writeGuide(&out, session, ws, ks)
		return out
	}
	out.Build = build

	// GeneratingGuide
	if !o.writeGuide(&out, session, ws, ks) {
		out.State = PartiallyDone
		return out
	}

	out.State = Done
	o.Hub.Log(session, progress.Success, "Generation complete for %s", req.AppName)
	return out
}

// degrade marks the run PartiallyDone at the failed stage. The workspace
// stays; nothing is reverted.
func (o *Orchestrator) degrade(out *Outcome, session string, stage State, err error) Outcome {
	return *o.degradeKeep(out, session, stage, err)
}

func (o *Orchestrator) degradeKeep(out *Outcome, session string, stage State, err error) *Outcome {
	o.Hub.Log(session, progress.Error, "Stage %s failed: %v", stage, err)
	o.Hub.Log(session, progress.Warning, "Stopping here; everything produced so far remains downloadable")
	out.State = PartiallyDone
	out.FailedStage = stage
	out.Err = err
	return out
}

// debugFallback salvages a debug APK when the release path is gone.
func (o *Orchestrator) debugFallback(ctx context.Context, out *Outcome, session string, ws *scaffold.Workspace, opt android.BuildOptions) {
	if out.Build != nil {
		return
	}
	if apk, ok := android.BuildDebug(ctx, o.Runner, o.Hub, session, ws, opt); ok {
		out.Build = &android.BuildResult{DebugAPK: apk, VersionCode: opt.VersionCode, VersionName: opt.VersionName}
	}
}

func (o *Orchestrator) writeGuide(out *Outcome, session string, ws *scaffold.Workspace, ks *android.KeystoreInfo) bool {
	if err := WriteGuide(ws, ks, out.Build, out.FailedStage, out.Warnings); err != nil {
		o.Hub.Log(session, progress.Warning, "Guide generation failed: %v", err)
		if out.FailedStage == "" {
			out.FailedStage = GeneratingGuide
		}
		if out.Err == nil {
			out.Err = err
		}
		return false
	}
	o.Hub.Log(session, progress.Info, "Submission guide written")
	return true
}

// smokeTest serves the built web output for up to the configured window and
// watches stdout for the server's ready banner. The server never exits on
// its own, so the run always ends with the timeout kill; whether it managed
// to start is the only signal. Warn-only either way.
func (o *Orchestrator) smokeTest(ctx context.Context, session string, ws *scaffold.Workspace) {
	webDir, ok := ws.WebDir()
	if !ok {
		o.Hub.Log(session, progress.Warning, "No web output to smoke-test")
		return
	}
	o.Hub.Log(session, progress.Info, "Smoke-testing built web app (%s)", o.Opts.SmokeTimeout)
	started := false
	res, err := o.Runner.Run(ctx, toolrun.Spec{
		Name:    "npx",
		Args:    []string{"http-server", webDir, "-p", "0", "-s"},
		Dir:     ws.Dir,
		Timeout: o.Opts.SmokeTimeout,
		OnLine: func(line string) {
			if strings.Contains(line, "Available on") || strings.Contains(line, "Hit CTRL-C") {
				started = true
			}
		},
	})
	switch {
	case err != nil:
		o.Hub.Log(session, progress.Warning, "Smoke test skipped: %v", err)
	case started:
		o.Hub.Log(session, progress.Success, "Web app served successfully")
	case res.TimedOut:
		o.Hub.Log(session, progress.Warning, "Test server never reported ready before the timeout")
	default:
		o.Hub.Log(session, progress.Warning, "Test server exited early (%d)", res.ExitCode)
	}
}

func (o *Orchestrator) lineLogger(session string) func(string) {
	n := 0
	return func(line string) {
		// Tool output is chatty; sample it into the session log.
		n++
		if n%20 == 1 && strings.TrimSpace(line) != "" {
			o.Hub.Log(session, progress.Info, "%s", line)
		}
	}
}

func toolFailure(what string, res toolrun.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s could not start: %w", what, err)
	}
	if res.TimedOut {
		return fmt.Errorf("%s timed out", what)
	}
	out := strings.TrimSpace(res.Output())
	if len(out) > 400 {
		out = "..." + out[len(out)-400:]
	}
	return fmt.Errorf("%s exited %d: %s", what, res.ExitCode, out)
}

func environmentError(rep android.EnvReport) error {
	var missing []string
	if !rep.SDK.OK {
		missing = append(missing, "Android SDK ("+rep.SDK.Hint+")")
	}
	if !rep.Java.OK {
		missing = append(missing, "Java ("+rep.Java.Hint+")")
	}
	return fmt.Errorf("build environment incomplete: %s", strings.Join(missing, "; "))
}
