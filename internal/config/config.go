package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string `yaml:"port"`
	DatabaseURL   string `yaml:"database_url"`
	JWTSecret     string `yaml:"jwt_secret"`
	AdminPassword string `yaml:"admin_password"`
	FCMServerKey  string `yaml:"fcm_server_key"`
	LogLevel      string `yaml:"log_level"`

	TemplateDir  string `yaml:"template_dir"`
	WorkspaceDir string `yaml:"workspace_dir"`
	OutputDir    string `yaml:"output_dir"`
	PublicDir    string `yaml:"public_dir"`

	AndroidHome string `yaml:"android_home"`
	JavaHome    string `yaml:"java_home"`

	SyncTimeout    time.Duration `yaml:"-"`
	SmokeTimeout   time.Duration `yaml:"-"`
	InstallTimeout time.Duration `yaml:"-"`
	BuildTimeout   time.Duration `yaml:"-"`

	MaxSessions         int  `yaml:"max_sessions"`
	MaxConcurrentBuilds int  `yaml:"max_concurrent_builds"`
	SeparateKeyPassword bool `yaml:"keystore_separate_key_password"`
}

var Current Config

// Load resolves configuration in three layers: hard defaults, an optional
// ezgen.yaml in the working directory, then environment variables (.env is
// loaded first so it behaves like the environment).
func Load() error {
	_ = godotenv.Load()

	Current = Config{
		Port:                "3000",
		DatabaseURL:         "",
		JWTSecret:           "dev-secret-change",
		AdminPassword:       "admin1234",
		LogLevel:            "info",
		TemplateDir:         "templates/ionic-webview-template",
		WorkspaceDir:        "generated-apps",
		OutputDir:           "output",
		PublicDir:           "public",
		SyncTimeout:         30 * time.Second,
		SmokeTimeout:        30 * time.Second,
		InstallTimeout:      10 * time.Minute,
		BuildTimeout:        20 * time.Minute,
		MaxSessions:         256,
		MaxConcurrentBuilds: 0,
	}

	if raw, err := os.ReadFile("ezgen.yaml"); err == nil {
		if err := yaml.Unmarshal(raw, &Current); err != nil {
			return err
		}
	}

	Current.Port = getenv("APP_PORT", Current.Port)
	Current.DatabaseURL = getenv("DATABASE_URL", Current.DatabaseURL)
	Current.JWTSecret = getenv("JWT_SECRET", Current.JWTSecret)
	Current.AdminPassword = getenv("ADMIN_PASSWORD", Current.AdminPassword)
	Current.FCMServerKey = getenv("FCM_SERVER_KEY", Current.FCMServerKey)
	Current.LogLevel = getenv("LOG_LEVEL", Current.LogLevel)
	Current.TemplateDir = getenv("TEMPLATE_DIR", Current.TemplateDir)
	Current.WorkspaceDir = getenv("WORKSPACE_DIR", Current.WorkspaceDir)
	Current.OutputDir = getenv("OUTPUT_DIR", Current.OutputDir)
	Current.PublicDir = getenv("PUBLIC_DIR", Current.PublicDir)
	Current.AndroidHome = getenv("ANDROID_HOME", getenv("ANDROID_SDK_ROOT", Current.AndroidHome))
	Current.JavaHome = getenv("JAVA_HOME", Current.JavaHome)

	Current.SyncTimeout = secondsEnv("SYNC_TIMEOUT_SECONDS", Current.SyncTimeout)
	Current.SmokeTimeout = secondsEnv("SMOKE_TIMEOUT_SECONDS", Current.SmokeTimeout)
	Current.InstallTimeout = minutesEnv("INSTALL_TIMEOUT_MINUTES", Current.InstallTimeout)
	Current.BuildTimeout = minutesEnv("BUILD_TIMEOUT_MINUTES", Current.BuildTimeout)
	Current.MaxSessions = intEnv("MAX_SESSIONS", Current.MaxSessions)
	Current.MaxConcurrentBuilds = intEnv("MAX_CONCURRENT_BUILDS", Current.MaxConcurrentBuilds)
	if v := os.Getenv("KEYSTORE_SEPARATE_KEY_PASSWORD"); v != "" {
		Current.SeparateKeyPassword = v == "1" || v == "true"
	}

	if Current.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if Current.MaxSessions < 1 {
		return errors.New("MAX_SESSIONS must be at least 1")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func secondsEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func minutesEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return def
}
