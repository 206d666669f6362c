package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/EZ-CORE/EZ-GEN/internal/config"
	"github.com/EZ-CORE/EZ-GEN/internal/database"
	"github.com/EZ-CORE/EZ-GEN/internal/pipeline"
	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/server"
	"github.com/EZ-CORE/EZ-GEN/internal/toolrun"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the generator HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		initLogging()

		// The registry is optional; the generator works without it.
		if config.Current.DatabaseURL != "" {
			if err := database.Connect(config.Current.DatabaseURL); err != nil {
				logrus.WithError(err).Warn("registry unavailable, continuing without it")
			} else if err := database.AutoMigrate(); err != nil {
				logrus.WithError(err).Warn("registry migration failed, continuing without it")
				database.DB = nil
			}
		}

		for _, dir := range []string{config.Current.WorkspaceDir, config.Current.OutputDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}

		hub := progress.NewHub(config.Current.MaxSessions)
		orch := pipeline.New(toolrun.ExecRunner{}, hub, pipeline.Options{
			TemplateDir:         config.Current.TemplateDir,
			WorkspaceDir:        config.Current.WorkspaceDir,
			OutputDir:           config.Current.OutputDir,
			SDKHint:             config.Current.AndroidHome,
			JavaHint:            config.Current.JavaHome,
			SyncTimeout:         config.Current.SyncTimeout,
			SmokeTimeout:        config.Current.SmokeTimeout,
			InstallTimeout:      config.Current.InstallTimeout,
			BuildTimeout:        config.Current.BuildTimeout,
			MaxConcurrentBuilds: config.Current.MaxConcurrentBuilds,
			SeparateKeyPassword: config.Current.SeparateKeyPassword,
		})
		server.Configure(orch, hub)

		engine := html.New("web/templates", ".html")
		app := fiber.New(fiber.Config{
			Views:        engine,
			ViewsLayout:  "layout",
			ServerHeader: "EZ-GEN",
			AppName:      "EZ-GEN",
			BodyLimit:    50 * 1024 * 1024, // logo/splash uploads
		})
		server.RegisterRoutes(app)

		logrus.Infof("listening on :%s", config.Current.Port)
		return app.Listen(":" + config.Current.Port)
	},
}

func initLogging() {
	level, err := logrus.ParseLevel(config.Current.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
