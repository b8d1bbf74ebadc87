package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	databaseDSN       = "DATABASE_DSN"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
)

// Config собирается viper'ом: yaml-файл + env-оверрайды + дефолты.
type Config struct {
	DB string `mapstructure:"db_dsn"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Gateway struct {
		BaseURL   string `mapstructure:"base_url"`
		WSURL     string `mapstructure:"ws_url"`
		APIKey    string `mapstructure:"api_key"`
		APISecret string `mapstructure:"api_secret"`
		Exchange  string `mapstructure:"exchange"` // префикс ltp-ключей, напр. NFO
		// символы, которые стримим по ws с самого старта
		WatchSymbols []string `mapstructure:"watch_symbols"`
	} `mapstructure:"gateway"`

	Service struct {
		Host       string `mapstructure:"host"`
		HealthAddr string `mapstructure:"health_addr"`
	} `mapstructure:"service"`

	// Движок бумажной торговли
	VirtualCapital  float64       `mapstructure:"virtual_capital"`
	CycleInterval   time.Duration `mapstructure:"cycle_interval"`
	IdleInterval    time.Duration `mapstructure:"idle_interval"`
	ErrorBackoff    time.Duration `mapstructure:"error_backoff"`
	StopJoinTimeout time.Duration `mapstructure:"stop_join_timeout"`
	SnapshotPath    string        `mapstructure:"snapshot_path"`

	// Торговое окно (время биржи)
	MarketOpen     string `mapstructure:"market_open"`  // "09:15"
	MarketClose    string `mapstructure:"market_close"` // "15:30"
	MarketTimezone string `mapstructure:"market_timezone"`

	// Файл с пресетами стратегий, поднимаемых на старте
	PresetsFile string `mapstructure:"presets_file"`
}

func NewConfig() (*Config, error) {
	v := viper.New()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	v.SetConfigFile("configs/" + configFileName)
	v.SetConfigType("yaml")

	v.SetDefault("virtual_capital", 200000.0)
	v.SetDefault("cycle_interval", "30s")
	v.SetDefault("idle_interval", "60s")
	v.SetDefault("error_backoff", "30s")
	v.SetDefault("stop_join_timeout", "10s")
	v.SetDefault("snapshot_path", "data/paper_trading_state.json")
	v.SetDefault("market_open", "09:15")
	v.SetDefault("market_close", "15:30")
	v.SetDefault("market_timezone", "Asia/Kolkata")
	v.SetDefault("gateway.exchange", "NFO")
	v.SetDefault("service.health_addr", ":8080")
	v.SetDefault("presets_file", "configs/strategies.yaml")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}

	return &config, nil
}

// StrategyPreset — декларация инстанса стратегии, создаваемого на старте.
type StrategyPreset struct {
	Name              string                 `yaml:"name"`
	Class             string                 `yaml:"class"`
	Mode              string                 `yaml:"mode"`
	CapitalAllocation float64                `yaml:"capital_allocation"`
	Parameters        map[string]interface{} `yaml:"parameters"`
	RiskLimits        map[string]float64     `yaml:"risk_limits"`
	Activate          bool                   `yaml:"activate"`
}

type presetsFile struct {
	Strategies []StrategyPreset `yaml:"strategies"`
}

// LoadPresets читает yaml с пресетами. Отсутствие файла — не ошибка:
// движок просто стартует без стратегий.
func LoadPresets(path string) ([]StrategyPreset, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open presets file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var pf presetsFile
	if err := yaml.NewDecoder(file).Decode(&pf); err != nil {
		return nil, fmt.Errorf("decode presets file: %w", err)
	}
	return pf.Strategies, nil
}
