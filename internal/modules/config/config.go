package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"turtle_bot/internal/helper"
	"turtle_bot/internal/strategy"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	envPrefix         = "TURTLE"
)

type Binance struct {
	APIKey     string  `mapstructure:"api_key"`
	APISecret  string  `mapstructure:"api_secret"`
	Host       string  `mapstructure:"host"`
	TestHost   string  `mapstructure:"test_host"`
	Proxy      string  `mapstructure:"proxy"`
	WSBase     string  `mapstructure:"ws_base"`
	Testnet    bool    `mapstructure:"testnet"`
	RecvWindow int64   `mapstructure:"recv_window"` // мс, < 60000
	RatePerSec float64 `mapstructure:"rate_per_sec"`
}

type Balances struct {
	Source string  `mapstructure:"source"` // config | account
	USDT   float64 `mapstructure:"usdt"`
	BTC    float64 `mapstructure:"btc"`
}

type Executor struct {
	Mode  string `mapstructure:"mode"` // dry | test | live
	Queue int    `mapstructure:"queue"`
}

type Journal struct {
	Driver string `mapstructure:"driver"` // none | sqlite | postgres
	DSN    string `mapstructure:"dsn"`
}

type Telegram struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

type Tracing struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

type Health struct {
	Addr string `mapstructure:"addr"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Config ...
type Config struct {
	Symbol   string `mapstructure:"symbol"`
	Interval string `mapstructure:"interval"`

	// Параметры черепах
	Window       int     `mapstructure:"window"`
	RiskFraction float64 `mapstructure:"risk_fraction"` // unit = risk_fraction * equity / N
	ProfitTarget float64 `mapstructure:"profit_target"`
	StopMultiple float64 `mapstructure:"stop_multiple"`
	MaxUnits     int     `mapstructure:"max_units"`

	Binance  Binance  `mapstructure:"binance"`
	Balances Balances `mapstructure:"balances"`
	Executor Executor `mapstructure:"executor"`
	Journal  Journal  `mapstructure:"journal"`
	Telegram Telegram `mapstructure:"telegram"`
	Tracing  Tracing  `mapstructure:"tracing"`
	Health   Health   `mapstructure:"health"`
	Log      Log      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("symbol", "BTCUSDT")
	v.SetDefault("interval", "1d")
	v.SetDefault("window", strategy.DefaultWindow)
	v.SetDefault("risk_fraction", strategy.DefaultRiskFraction)
	v.SetDefault("profit_target", strategy.DefaultProfitTarget)
	v.SetDefault("stop_multiple", strategy.DefaultStopMultiple)
	v.SetDefault("max_units", strategy.DefaultMaxUnits)

	v.SetDefault("binance.api_key", "")
	v.SetDefault("binance.api_secret", "")
	v.SetDefault("binance.host", "https://api.binance.com")
	v.SetDefault("binance.test_host", "https://testnet.binance.vision")
	v.SetDefault("binance.proxy", "")
	v.SetDefault("binance.ws_base", "wss://stream.binance.com:9443/ws")
	v.SetDefault("binance.testnet", false)
	v.SetDefault("binance.recv_window", 5000)
	v.SetDefault("binance.rate_per_sec", 10)

	v.SetDefault("balances.source", "config")
	v.SetDefault("balances.usdt", 10000)
	v.SetDefault("balances.btc", 0)

	v.SetDefault("executor.mode", "dry")
	v.SetDefault("executor.queue", 64)

	v.SetDefault("journal.driver", "none")
	v.SetDefault("journal.dsn", "")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("health.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// NewConfig читает configs/<CONFIG_FILE>, потом .env и TURTLE_* из окружения.
// Файла может не быть: тогда работают дефолты и env.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	name := os.Getenv(configFilePathENV)
	if name == "" {
		name = "values_local.yaml"
	}
	dir := os.Getenv(configDirENV)
	if dir == "" {
		dir = "configs"
	}
	return Load(filepath.Join(dir, name))
}

func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) && !errors.As(err, new(viper.ConfigFileNotFoundError)) {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Symbol))
	cfg.Interval = helper.NormInterval(cfg.Interval)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol is required")
	}
	if _, err := c.Period(); err != nil {
		return err
	}
	if c.Binance.RecvWindow <= 0 || c.Binance.RecvWindow >= 60000 {
		return errors.Errorf("binance.recv_window must be in (0, 60000), got %d", c.Binance.RecvWindow)
	}
	switch c.Executor.Mode {
	case "dry", "test", "live":
	default:
		return errors.Errorf("executor.mode: unknown %q", c.Executor.Mode)
	}
	switch c.Balances.Source {
	case "config", "account":
	default:
		return errors.Errorf("balances.source: unknown %q", c.Balances.Source)
	}
	switch c.Journal.Driver {
	case "none", "sqlite", "postgres":
	default:
		return errors.Errorf("journal.driver: unknown %q", c.Journal.Driver)
	}
	if (c.Executor.Mode != "dry" || c.Balances.Source == "account") &&
		(c.Binance.APIKey == "" || c.Binance.APISecret == "") {
		return errors.New("binance.api_key and binance.api_secret are required for signed endpoints")
	}
	return nil
}

// RESTHost - testnet или боевой хост.
func (b Binance) RESTHost() string {
	if b.Testnet && b.TestHost != "" {
		return b.TestHost
	}
	return b.Host
}

// Period - длина свечи из interval.
func (c *Config) Period() (time.Duration, error) {
	d, ok := helper.IntervalDuration(c.Interval)
	if !ok {
		return 0, errors.Errorf("interval: unsupported %q", c.Interval)
	}
	return d, nil
}

func (c *Config) StrategyConfig() strategy.Config {
	period, _ := c.Period()
	return strategy.Config{
		Window:       c.Window,
		Period:       period,
		MaxUnits:     c.MaxUnits,
		RiskFraction: c.RiskFraction,
		ProfitTarget: c.ProfitTarget,
		StopMultiple: c.StopMultiple,
	}
}
