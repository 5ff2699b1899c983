package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Naver    Naver    `yaml:"naver"`
	Telegram Telegram `yaml:"telegram"`
	Filter   Filter   `yaml:"filter"`
	Sources  Sources  `yaml:"sources"`
	Fetch    Fetch    `yaml:"fetch"`
	Delivery Delivery `yaml:"delivery"`
	Output   Output   `yaml:"output"`
	Logging  Logging  `yaml:"logging"`
}

type Naver struct {
	ClientIDEnv     string `yaml:"client_id_env"`
	ClientSecretEnv string `yaml:"client_secret_env"`
	Display         int    `yaml:"display"`
}

type Telegram struct {
	BotTokenEnv string `yaml:"bot_token_env"`
	ChatID      string `yaml:"chat_id"`
}

type Filter struct {
	Keywords        []string `yaml:"keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

type Sources struct {
	Feeds []Feed `yaml:"feeds"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Fetch struct {
	Pace    Duration `yaml:"pace"`
	Timeout Duration `yaml:"timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "200ms" or "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Delivery struct {
	RecordPolicy string `yaml:"record_policy"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for newswatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newswatch")
}

// DataDir returns the XDG data directory for newswatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newswatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newswatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newswatch init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Naver: Naver{
			ClientIDEnv:     "NAVER_CLIENT_ID",
			ClientSecretEnv: "NAVER_CLIENT_SECRET",
			Display:         10,
		},
		Telegram: Telegram{
			BotTokenEnv: "TELEGRAM_BOT_TOKEN",
		},
		Fetch: Fetch{
			Pace:    Duration(200 * time.Millisecond),
			Timeout: Duration(10 * time.Second),
		},
		Delivery: Delivery{RecordPolicy: "best-effort"},
		Logging:  Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Naver.Display <= 0 || c.Naver.Display > 100 {
		return fmt.Errorf("naver.display must be between 1 and 100, got %d", c.Naver.Display)
	}
	if c.Fetch.Pace < 0 {
		return fmt.Errorf("fetch.pace cannot be negative")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	switch c.Delivery.RecordPolicy {
	case "best-effort", "strict":
	default:
		return fmt.Errorf("delivery.record_policy must be %q or %q, got %q", "best-effort", "strict", c.Delivery.RecordPolicy)
	}
	for _, f := range c.Sources.Feeds {
		if f.URL == "" {
			return fmt.Errorf("sources.feeds entries need a url")
		}
	}
	return nil
}

// NaverCredentials resolves the Naver API credentials from the
// configured environment variables. Both must be set to run.
func (c *Config) NaverCredentials() (clientID, clientSecret string, err error) {
	clientID = os.Getenv(c.Naver.ClientIDEnv)
	clientSecret = os.Getenv(c.Naver.ClientSecretEnv)
	if clientID == "" || clientSecret == "" {
		return "", "", fmt.Errorf("naver credentials missing: set %s and %s", c.Naver.ClientIDEnv, c.Naver.ClientSecretEnv)
	}
	return clientID, clientSecret, nil
}

// TelegramCredentials resolves the bot token and returns it with the
// configured chat id. Both must be present to run.
func (c *Config) TelegramCredentials() (botToken, chatID string, err error) {
	botToken = os.Getenv(c.Telegram.BotTokenEnv)
	if botToken == "" {
		return "", "", fmt.Errorf("telegram bot token missing: set %s", c.Telegram.BotTokenEnv)
	}
	if c.Telegram.ChatID == "" {
		return "", "", fmt.Errorf("telegram.chat_id is not configured")
	}
	return botToken, c.Telegram.ChatID, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
