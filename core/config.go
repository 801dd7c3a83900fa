package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	APIConfig struct {
		BaseURL string
		Timeout time.Duration // 0: transport default
	}

	SessionConfig struct {
		Backend       string // file | redis | memory
		Path          string
		Prefix        string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
	}

	FeedbackConfig struct {
		BulkMode    string // probe | trusted | disabled
		Concurrency int
		PageSize    int
	}

	Config struct {
		Env      string // DEV (local; default), TEST, PROD
		Build    string
		AppName  string
		Debug    bool
		TestMode bool
		Dir      string

		API      APIConfig
		Session  SessionConfig
		Feedback FeedbackConfig

		RollbarToken     string
		SendgridAPIKey   string
		DefaultFromEmail mail.Address
	}
)

// NewConfig loads the configuration from defaults, an optional `.env.<env>` file found in the config directory
// and NIVA_ prefixed environment variables (eg. NIVA_API_BASEURL, NIVA_SESSION_BACKEND).
func NewConfig() (*Config, error) {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	dir := ConfigDir()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env != "PROD")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Niva")
	v.SetDefault("build", "dev")
	v.SetDefault("api.baseURL", "http://localhost:8000/api/v1")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("session.backend", "file")
	v.SetDefault("session.path", filepath.Join(dir, "session.json"))
	v.SetDefault("session.prefix", "niva_")
	v.SetDefault("session.redisAddr", "127.0.0.1:6379")
	v.SetDefault("session.redisPassword", "")
	v.SetDefault("session.redisDB", 0)
	v.SetDefault("feedback.bulkMode", "probe")
	v.SetDefault("feedback.concurrency", 1)
	v.SetDefault("feedback.pageSize", 100)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridAPIKey", "")
	v.SetDefault("defaultFromEmail", "Niva AI <noreply@localhost>")

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(dir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix("NIVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}

	conf := &Config{
		Env:      env,
		Build:    v.GetString("build"),
		AppName:  v.GetString("appName"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		Dir:      dir,
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.baseURL"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Session: SessionConfig{
			Backend:       CleanString(v.GetString("session.backend"), true /* lower */),
			Path:          v.GetString("session.path"),
			Prefix:        v.GetString("session.prefix"),
			RedisAddr:     v.GetString("session.redisAddr"),
			RedisPassword: v.GetString("session.redisPassword"),
			RedisDB:       v.GetInt("session.redisDB"),
		},
		Feedback: FeedbackConfig{
			BulkMode:    CleanString(v.GetString("feedback.bulkMode"), true /* lower */),
			Concurrency: v.GetInt("feedback.concurrency"),
			PageSize:    v.GetInt("feedback.pageSize"),
		},
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
		DefaultFromEmail: *from,
	}
	if conf.Feedback.Concurrency < 1 {
		conf.Feedback.Concurrency = 1
	}
	return conf, nil
}

// ConfigDir returns NIVA_CONFIG_DIR, or `~/.niva` when it is not set.
func ConfigDir() string {
	if dir := os.Getenv("NIVA_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".niva"
	}
	return filepath.Join(home, ".niva")
}
