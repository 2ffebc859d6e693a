package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Metric describes one monitored metric and its limits.
type Metric struct {
	Name     string  `yaml:"name"`
	Soft     float64 `yaml:"soft"`
	Hard     float64 `yaml:"hard"`
	Path     string  `yaml:"path"`
	InfoOnly bool    `yaml:"info_only"`
}

// Mail holds the alert delivery settings. Any of key, secret, sender, or
// recipient being empty disables delivery without disabling evaluation.
type Mail struct {
	APIKey     string   `yaml:"api_key"`
	APISecret  string   `yaml:"api_secret"`
	Sender     string   `yaml:"sender"`
	SenderName string   `yaml:"sender_name"`
	Recipient  string   `yaml:"recipient"`
	Endpoint   string   `yaml:"endpoint"`
	Timeout    Duration `yaml:"timeout"`
}

// ServerConfig holds watch-mode HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	Interval Duration `yaml:"interval"`
	Digest   bool     `yaml:"digest"`
}

// Config is the root application configuration, resolved once at startup.
type Config struct {
	LogFile string       `yaml:"log_file"`
	Mail    Mail         `yaml:"mail"`
	Metrics []Metric     `yaml:"metrics"`
	Server  ServerConfig `yaml:"server"`
	Watch   WatchConfig  `yaml:"watch"`
}

const (
	DefaultLogFile  = "server_monitoring.log"
	DefaultEndpoint = "https://api.mailjet.com/v3.1/send"
	DefaultTimeout  = 20 * time.Second
)

// ValidMetrics are the metric names the collector factory understands.
var ValidMetrics = map[string]bool{
	"disk_usage":    true,
	"memory_usage":  true,
	"process_count": true,
	"user_count":    true,
}

func defaultMetrics() []Metric {
	return []Metric{
		{Name: "disk_usage", Soft: 80, Hard: 95, Path: "/"},
		{Name: "memory_usage", Soft: 80, Hard: 95},
		{Name: "process_count", Soft: 300, Hard: 500},
		{Name: "user_count", InfoOnly: true},
	}
}

// Load reads the config file at path, applies defaults, environment
// overrides, and validation. A missing file is not an error: defaults plus
// environment apply, so the tool runs unconfigured out of the box.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}
	if cfg.Mail.Endpoint == "" {
		cfg.Mail.Endpoint = DefaultEndpoint
	}
	if cfg.Mail.Timeout.Duration == 0 {
		cfg.Mail.Timeout = Duration{DefaultTimeout}
	}
	if cfg.Mail.SenderName == "" {
		cfg.Mail.SenderName = "Server Monitor"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Watch.Interval.Duration == 0 {
		cfg.Watch.Interval = Duration{60 * time.Second}
	}
	if len(cfg.Metrics) == 0 {
		cfg.Metrics = defaultMetrics()
	}
	for i := range cfg.Metrics {
		if cfg.Metrics[i].Name == "disk_usage" && cfg.Metrics[i].Path == "" {
			cfg.Metrics[i].Path = "/"
		}
	}
}

// applyEnv overlays environment values onto cfg. The environment always wins
// over the file so deployments can inject credentials without editing it.
func applyEnv(cfg *Config) {
	setIfPresent := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setIfPresent(&cfg.LogFile, "MONITOR_LOG")
	setIfPresent(&cfg.Mail.APIKey, "MAILJET_API_KEY")
	setIfPresent(&cfg.Mail.APISecret, "MAILJET_API_SECRET")
	setIfPresent(&cfg.Mail.Sender, "MAIL_FROM")
	setIfPresent(&cfg.Mail.Recipient, "MAIL_TO")
	setIfPresent(&cfg.Mail.SenderName, "MAIL_SENDER_NAME")
}

func validate(cfg *Config) error {
	names := make(map[string]bool, len(cfg.Metrics))
	for i, m := range cfg.Metrics {
		if m.Name == "" {
			return fmt.Errorf("metric[%d]: name is required", i)
		}
		if !ValidMetrics[m.Name] {
			return fmt.Errorf("metric %q: unknown metric (must be disk_usage, memory_usage, process_count, or user_count)", m.Name)
		}
		if names[m.Name] {
			return fmt.Errorf("duplicate metric %q", m.Name)
		}
		names[m.Name] = true

		if m.Soft > m.Hard {
			return fmt.Errorf("metric %q: soft limit %g exceeds hard limit %g", m.Name, m.Soft, m.Hard)
		}
	}
	return nil
}
