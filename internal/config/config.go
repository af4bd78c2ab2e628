package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	DB           DBConfig           `mapstructure:"db"`
	Cron         CronConfig         `mapstructure:"cron"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	ResultSource ResultSourceConfig `mapstructure:"result_source"`
	Betting      BettingConfig      `mapstructure:"betting"`
	Detector     DetectorConfig     `mapstructure:"detector"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	DetectorSweep string `mapstructure:"detector_sweep"`
	Reconcile     string `mapstructure:"reconcile"`
}

type LedgerConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	ContractAddress string        `mapstructure:"contract_address"`
	PrivateKey      string        `mapstructure:"private_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ConfirmAttempts int           `mapstructure:"confirm_attempts"`
	ConfirmInterval time.Duration `mapstructure:"confirm_interval"`
	GasLimit        uint64        `mapstructure:"gas_limit"`
}

type ResultSourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BettingConfig struct {
	MinOdds string `mapstructure:"min_odds"`
	MaxOdds string `mapstructure:"max_odds"`
	MinBet  string `mapstructure:"min_bet"`
	MaxBet  string `mapstructure:"max_bet"`
}

type DetectorConfig struct {
	// DurationBudget is how long after kickoff a live match with no confirmed
	// result is still considered in play; OvertimeMargin pads it.
	DurationBudget time.Duration `mapstructure:"duration_budget"`
	OvertimeMargin time.Duration `mapstructure:"overtime_margin"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.detector_sweep", "@every 1m")
	v.SetDefault("cron.reconcile", "@every 10m")
	v.SetDefault("ledger.timeout", "15s")
	v.SetDefault("ledger.confirm_attempts", 30)
	v.SetDefault("ledger.confirm_interval", "2s")
	v.SetDefault("ledger.gas_limit", 300000)
	v.SetDefault("result_source.timeout", "15s")
	v.SetDefault("betting.min_odds", "1.01")
	v.SetDefault("betting.max_odds", "100")
	v.SetDefault("betting.min_bet", "0.1")
	v.SetDefault("betting.max_bet", "10000")
	v.SetDefault("detector.duration_budget", "2h")
	v.SetDefault("detector.overtime_margin", "30m")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
