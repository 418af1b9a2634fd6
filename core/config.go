package core

import (
	"fmt"
	"net"
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
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		DisableReqLogs            bool
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		SessionIdleTimeout        time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite file
	}

	Config struct {
		Env       string
		Build     string
		Debug     bool
		TestMode  bool
		AppName   string
		SecretKey string
		WorkDir   string

		FrontendBaseURL           string
		DefaultFromEmailName      string
		DefaultFromEmailAddress   string
		PasswordResetTimeoutDelta time.Duration

		RollbarToken   string
		SendgridApiKey string

		Server   ServerConfig
		Database DatabaseConfig
	}
)

// Address returns the "host:port" of the database server.
func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// DefaultFromEmail is the sender used for every outgoing email.
func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromEmailName, Address: c.DefaultFromEmailAddress}
}

// NewConfig loads the configuration of the current environment.
// Lookup order: environment variables (prefixed with the env name, eg. DEV_DEBUG),
// then config/.env.<env> if present, then defaults.
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}
	return loadConfig(env, wd)
}

func loadConfig(env, workDir string) (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Study Planner")
	v.SetDefault("secretKey", "7kq2-yv)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2ept")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmailName", "Study Planner")
	v.SetDefault("defaultFromEmailAddress", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.jwtExpirationDelta", 4*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.sessionIdleTimeout", 24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "studyplanner")
	v.SetDefault("database.user", "studyplanner")
	v.SetDefault("database.password", "studyplanner")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", filepath.Join(workDir, "studyplanner.db"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{
		Env:       env,
		Build:     v.GetString("build"),
		Debug:     v.GetBool("debug"),
		TestMode:  v.GetBool("testMode"),
		AppName:   v.GetString("appName"),
		SecretKey: v.GetString("secretKey"),
		WorkDir:   workDir,

		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		DefaultFromEmailName:      v.GetString("defaultFromEmailName"),
		DefaultFromEmailAddress:   v.GetString("defaultFromEmailAddress"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),

		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			SessionIdleTimeout:        v.GetDuration("server.sessionIdleTimeout"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
	}

	switch conf.Database.Engine {
	case "postgres", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
	return conf, nil
}

// NewTestConfig returns a configuration suitable for tests: in-memory storage, fixed secret.
func NewTestConfig() *Config {
	conf, err := loadConfig("TEST", os.TempDir())
	if err != nil {
		panic(err)
	}
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.Database.Engine = "memory"
	conf.Server.DisableReqLogs = true
	return conf
}
