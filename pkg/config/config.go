package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      App      `yaml:"app"`
	Database Database `yaml:"database"`
	Logger   Logger   `yaml:"logger"`
	Gateway  Gateway  `yaml:"gateway"`
	Allows   Allows   `yaml:"allows"`
}

type App struct {
	Name string `yaml:"name"`
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

type Database struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	Name string `yaml:"name"`
}

type Logger struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// Gateway holds the tuning knobs of the session engine. Durations are in
// seconds except BroadcastDelayMs, which needs sub-second resolution.
type Gateway struct {
	CountryCode      string `yaml:"country_code"`
	SessionsDir      string `yaml:"sessions_dir"`
	ReconnectSec     int    `yaml:"reconnect_sec"`
	ReadyTimeoutSec  int    `yaml:"ready_timeout_sec"`
	BroadcastDelayMs int    `yaml:"broadcast_delay_ms"`
}

type Allows struct {
	Methods []string `yaml:"methods"`
	Origins []string `yaml:"origins"`
	Headers []string `yaml:"headers"`
}

func (g Gateway) ReconnectDelay() time.Duration {
	if g.ReconnectSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.ReconnectSec) * time.Second
}

func (g Gateway) ReadyTimeout() time.Duration {
	if g.ReadyTimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(g.ReadyTimeoutSec) * time.Second
}

func (g Gateway) BroadcastDelay() time.Duration {
	if g.BroadcastDelayMs <= 0 {
		return time.Second
	}
	return time.Duration(g.BroadcastDelayMs) * time.Millisecond
}

func (g Gateway) DefaultCountryCode() string {
	if g.CountryCode == "" {
		return "62"
	}
	return g.CountryCode
}

func (g Gateway) SessionsRoot() string {
	if g.SessionsDir == "" {
		return "./sessions"
	}
	return g.SessionsDir
}

func InitConfig() *Config {
	var configs Config
	file_name, _ := filepath.Abs("./config.yaml")
	yaml_file, _ := os.ReadFile(file_name)
	yaml.Unmarshal(yaml_file, &configs)

	// Override with environment variables if they exist (for Docker)
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		configs.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		configs.Database.Port = dbPort
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		configs.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		configs.Database.Pass = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		configs.Database.Name = dbName
	}

	// Override app configuration with environment variables
	if appHost := os.Getenv("APP_HOST"); appHost != "" {
		configs.App.Host = appHost
	}
	if appPort := os.Getenv("APP_PORT"); appPort != "" {
		configs.App.Port = appPort
	}
	if appName := os.Getenv("APP_NAME"); appName != "" {
		configs.App.Name = appName
	}

	if sessionsDir := os.Getenv("SESSIONS_DIR"); sessionsDir != "" {
		configs.Gateway.SessionsDir = sessionsDir
	}
	if countryCode := os.Getenv("COUNTRY_CODE"); countryCode != "" {
		configs.Gateway.CountryCode = countryCode
	}

	return &configs
}
