package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	apiKeyENV         = "BINANCE_API_KEY"
	apiSecretENV      = "BINANCE_API_SECRET"
	databaseDSN       = "DATABASE_DSN"
	redisAddrENV      = "REDIS_ADDR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
)

type Config struct {
	Binance struct {
		APIKey     string `mapstructure:"api_key"`
		APISecret  string `mapstructure:"api_secret"`
		RecvWindow int    `mapstructure:"recv_window"`
	} `mapstructure:"binance"`

	DB        string `mapstructure:"db_dsn"`
	RedisAddr string `mapstructure:"redis_addr"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Jaeger struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`

	Health struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"health"`

	Monitor Monitor `mapstructure:"monitor"`
}

// Monitor — вся поверхность настроек цикла наблюдения/автостопа.
type Monitor struct {
	Interval time.Duration `mapstructure:"interval"`
	DryRun   bool          `mapstructure:"dry_run"`
	Verbose  bool          `mapstructure:"verbose"`
	Symbols  []string      `mapstructure:"symbols"` // пустой список = все

	AutoSL bool   `mapstructure:"auto_sl"`
	Mode   string `mapstructure:"sl_mode"` // breakeven | lock_profit

	StepPct           float64 `mapstructure:"sl_step_pct"`
	TrailPct          float64 `mapstructure:"sl_trail_pct"`
	ActivateProfitPct float64 `mapstructure:"sl_activate_profit_pct"`
	MaxLossPct        float64 `mapstructure:"sl_max_loss_pct"`

	MinUpdateInterval time.Duration `mapstructure:"sl_min_interval"`
	BufferTicks       int           `mapstructure:"sl_buffer_ticks"`
	StopRefresh       time.Duration `mapstructure:"sl_refresh"`
	SettleDelay       time.Duration `mapstructure:"sl_settle_delay"`

	HistoryKeep  int    `mapstructure:"sl_log_keep"`
	HistoryFile  string `mapstructure:"sl_log_file"`
	HistoryLines int    `mapstructure:"sl_log_lines"`

	MarkStream bool `mapstructure:"mark_stream"`
}

func NewConfig() (*Config, error) {
	v := viper.New()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	v.SetConfigFile("configs/" + configFileName)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// файла может не быть: env + дефолтов достаточно
		if _, ok := err.(*os.PathError); !ok {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, errors.Wrap(err, "read config file")
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	applyEnv(config)

	if config.Binance.APIKey == "" || config.Binance.APISecret == "" {
		return nil, errors.New(
			"binance credentials missing: set BINANCE_API_KEY/BINANCE_API_SECRET or binance.api_key/api_secret in config")
	}

	config.Monitor.Symbols = upperAll(config.Monitor.Symbols)
	if config.Monitor.Interval < 200*time.Millisecond {
		config.Monitor.Interval = 200 * time.Millisecond
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("binance.recv_window", 10000)

	v.SetDefault("health.addr", ":8080")
	v.SetDefault("jaeger.port", 6831)

	v.SetDefault("monitor.interval", "1s")
	v.SetDefault("monitor.sl_mode", "lock_profit")
	v.SetDefault("monitor.sl_step_pct", 0.05)
	v.SetDefault("monitor.sl_trail_pct", 0.5)
	v.SetDefault("monitor.sl_activate_profit_pct", 0.5)
	v.SetDefault("monitor.sl_max_loss_pct", 0.5)
	v.SetDefault("monitor.sl_min_interval", "5s")
	v.SetDefault("monitor.sl_buffer_ticks", 2)
	v.SetDefault("monitor.sl_refresh", "5s")
	v.SetDefault("monitor.sl_settle_delay", "1s")
	v.SetDefault("monitor.sl_log_keep", 200)
	v.SetDefault("monitor.sl_log_lines", 30)
	v.SetDefault("monitor.mark_stream", true)
}

// applyEnv — секреты и адреса из окружения всегда сильнее файла.
func applyEnv(config *Config) {
	if k := os.Getenv(apiKeyENV); k != "" {
		config.Binance.APIKey = k
	}
	if s := os.Getenv(apiSecretENV); s != "" {
		config.Binance.APISecret = s
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}
	if addr := os.Getenv(redisAddrENV); addr != "" {
		config.RedisAddr = addr
	}
	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if chat := os.Getenv(chatTelegramENV); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
