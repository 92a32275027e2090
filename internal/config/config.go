package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	defaultConfigFile = "values_local.yaml"
	configDir         = "configs"
)

const (
	BreachManage = "manage" // при просадке ведём открытые позиции, новые входы запрещены
	BreachSkip   = "skip"   // при просадке пропускаем весь цикл
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	// Биржа
	Exchange      string `yaml:"exchange"`
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
	APIPassphrase string `yaml:"api_passphrase"`
	BaseURL       string `yaml:"base_url"`

	Symbols   string `yaml:"symbols"` // "BTC/USDT,ETH/USDT"
	Timeframe string `yaml:"timeframe"`

	// Риск
	RiskPerTrade     float64 `yaml:"risk_per_trade"`
	DailyMaxDD       float64 `yaml:"daily_max_dd"`
	MaxConcurrentPos int     `yaml:"max_concurrent_pos"`
	InitialEquity    float64 `yaml:"initial_equity"`
	BreachPolicy     string  `yaml:"breach_policy"` // manage|skip

	// Стратегия
	HHVLen       int     `yaml:"hhv_len"`
	ATRLen       int     `yaml:"atr_len"`
	ATRMultSL    float64 `yaml:"atr_mult_sl"`
	ATRMultTrail float64 `yaml:"atr_mult_trail"`
	VolZMin      float64 `yaml:"vol_z_min"`
	Lookback     int     `yaml:"lookback"`
	RegimeSymbol string  `yaml:"regime_symbol"` // пусто: фильтр выключен
	RegimeEMA    int     `yaml:"regime_ema"`

	DryRun       bool          `yaml:"dry_run"`
	PollInterval time.Duration `yaml:"poll_interval"`

	// Хранилище
	StoreDriver string `yaml:"store_driver"` // sqlite|postgres|memory, пусто: по DATABASE_DSN
	DBPath      string `yaml:"db_path"`
	DatabaseDSN string `yaml:"db_dsn"`

	// Telegram
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`

	// Сервис
	AdminToken string `yaml:"admin_token"`
	HTTPAddr   string `yaml:"http_addr"`
	LogLevel   string `yaml:"log_level"`
	JaegerHost string `yaml:"jaeger_host"`
	JaegerPort int    `yaml:"jaeger_port"`
}

// Default: значения по умолчанию для бумажной торговли.
func Default() Config {
	return Config{
		Exchange:         "okx",
		BaseURL:          "https://www.okx.com",
		Symbols:          "BTC/USDT,ETH/USDT",
		Timeframe:        "1m",
		RiskPerTrade:     0.0075,
		DailyMaxDD:       0.05,
		MaxConcurrentPos: 2,
		InitialEquity:    1000,
		BreachPolicy:     BreachManage,
		HHVLen:           50,
		ATRLen:           14,
		ATRMultSL:        1.8,
		ATRMultTrail:     2.2,
		VolZMin:          2.0,
		Lookback:         200,
		RegimeEMA:        20,
		DryRun:           true,
		PollInterval:     5 * time.Second,
		DBPath:           "data/bot.db",
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		JaegerPort:       6831,
	}
}

// Load: дефолты -> yaml (если есть) -> .env -> переменные окружения.
func Load() (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(configFilePath()); err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(viper.New()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configFilePath() string {
	name := os.Getenv(configFilePathENV)
	if name == "" {
		name = defaultConfigFile
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(configDir, name)
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

var envKeys = []string{
	"EXCHANGE", "API_KEY", "API_SECRET", "API_PASSPHRASE", "OKX_BASE_URL",
	"SYMBOLS", "TIMEFRAME",
	"RISK_PER_TRADE", "DAILY_MAX_DD", "MAX_CONCURRENT_POS", "INITIAL_EQUITY", "BREACH_POLICY",
	"HHV_LEN", "ATR_LEN", "ATR_MULT_SL", "ATR_MULT_TRAIL", "VOL_Z_MIN", "LOOKBACK",
	"REGIME_SYMBOL", "REGIME_EMA",
	"DRY_RUN", "POLL_INTERVAL",
	"STORE_DRIVER", "DB_PATH", "DATABASE_DSN",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"ADMIN_TOKEN", "HTTP_ADDR", "LOG_LEVEL", "JAEGER_HOST", "JAEGER_PORT",
}

func (c *Config) applyEnv(v *viper.Viper) error {
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return err
		}
	}

	var errs []error
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = strings.TrimSpace(v.GetString(key))
		}
	}
	num := func(key string, dst *float64) {
		if !v.IsSet(key) {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
	integer := func(key string, dst *int) {
		if !v.IsSet(key) {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	boolean := func(key string, dst *bool) {
		if !v.IsSet(key) {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	str("EXCHANGE", &c.Exchange)
	str("API_KEY", &c.APIKey)
	str("API_SECRET", &c.APISecret)
	str("API_PASSPHRASE", &c.APIPassphrase)
	str("OKX_BASE_URL", &c.BaseURL)
	str("SYMBOLS", &c.Symbols)
	str("TIMEFRAME", &c.Timeframe)
	num("RISK_PER_TRADE", &c.RiskPerTrade)
	num("DAILY_MAX_DD", &c.DailyMaxDD)
	integer("MAX_CONCURRENT_POS", &c.MaxConcurrentPos)
	num("INITIAL_EQUITY", &c.InitialEquity)
	str("BREACH_POLICY", &c.BreachPolicy)
	integer("HHV_LEN", &c.HHVLen)
	integer("ATR_LEN", &c.ATRLen)
	num("ATR_MULT_SL", &c.ATRMultSL)
	num("ATR_MULT_TRAIL", &c.ATRMultTrail)
	num("VOL_Z_MIN", &c.VolZMin)
	integer("LOOKBACK", &c.Lookback)
	str("REGIME_SYMBOL", &c.RegimeSymbol)
	integer("REGIME_EMA", &c.RegimeEMA)
	boolean("DRY_RUN", &c.DryRun)
	str("STORE_DRIVER", &c.StoreDriver)
	str("DB_PATH", &c.DBPath)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("TELEGRAM_BOT_TOKEN", &c.TelegramBotToken)
	str("ADMIN_TOKEN", &c.AdminToken)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("JAEGER_HOST", &c.JaegerHost)
	integer("JAEGER_PORT", &c.JaegerPort)

	if v.IsSet("TELEGRAM_CHAT_ID") {
		id, err := strconv.ParseInt(strings.TrimSpace(v.GetString("TELEGRAM_CHAT_ID")), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err))
		} else {
			c.TelegramChatID = id
		}
	}
	if v.IsSet("POLL_INTERVAL") {
		d, err := parseInterval(v.GetString("POLL_INTERVAL"))
		if err != nil {
			errs = append(errs, fmt.Errorf("POLL_INTERVAL: %w", err))
		} else {
			c.PollInterval = d
		}
	}

	return errors.Join(errs...)
}

// parseInterval понимает "5s" и голое число секунд "5".
func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.SymbolList()) == 0 {
		errs = append(errs, errors.New("SYMBOLS is empty"))
	}
	if c.Exchange != "okx" {
		errs = append(errs, fmt.Errorf("unsupported EXCHANGE %q", c.Exchange))
	}
	if c.Timeframe == "" {
		errs = append(errs, errors.New("TIMEFRAME is empty"))
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 0.5 {
		errs = append(errs, fmt.Errorf("RISK_PER_TRADE must be in (0, 0.5], got %v", c.RiskPerTrade))
	}
	if c.DailyMaxDD <= 0 || c.DailyMaxDD >= 1 {
		errs = append(errs, fmt.Errorf("DAILY_MAX_DD must be in (0, 1), got %v", c.DailyMaxDD))
	}
	if c.MaxConcurrentPos <= 0 {
		errs = append(errs, errors.New("MAX_CONCURRENT_POS must be > 0"))
	}
	if c.InitialEquity <= 0 {
		errs = append(errs, errors.New("INITIAL_EQUITY must be > 0"))
	}
	if c.HHVLen <= 0 || c.ATRLen <= 0 || c.Lookback <= 0 {
		errs = append(errs, errors.New("HHV_LEN, ATR_LEN and LOOKBACK must be > 0"))
	}
	if c.ATRMultSL <= 0 || c.ATRMultTrail <= 0 {
		errs = append(errs, errors.New("ATR multipliers must be > 0"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be > 0"))
	}
	if c.BreachPolicy != BreachManage && c.BreachPolicy != BreachSkip {
		errs = append(errs, fmt.Errorf("unknown BREACH_POLICY %q", c.BreachPolicy))
	}
	if c.RegimeSymbol != "" && c.RegimeEMA <= 0 {
		errs = append(errs, errors.New("REGIME_EMA must be > 0"))
	}
	switch c.StoreDriver {
	case "", StoreSQLite, StoreMemory:
	case StorePostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if !c.DryRun && (c.APIKey == "" || c.APISecret == "" || c.APIPassphrase == "") {
		errs = append(errs, errors.New("live mode requires API_KEY, API_SECRET and API_PASSPHRASE"))
	}
	return errors.Join(errs...)
}

// SymbolList: символы из SYMBOLS без пробелов и пустых элементов.
func (c *Config) SymbolList() []string {
	var out []string
	for _, s := range strings.Split(c.Symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// VolumeWindow: окно z-score объёма, min(lookback, 60).
func (c *Config) VolumeWindow() int {
	return min(c.Lookback, 60)
}

// FetchLimit: сколько баров тянуть за цикл, max(lookback, 200).
func (c *Config) FetchLimit() int {
	return max(c.Lookback, 200)
}

// Store: выбранный драйвер хранилища.
func (c *Config) Store() string {
	if c.StoreDriver != "" {
		return c.StoreDriver
	}
	if c.DatabaseDSN != "" {
		return StorePostgres
	}
	return StoreSQLite
}

// Redacted: копия без секретов для вывода.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.APIKey = mask(c.APIKey)
	c.APISecret = mask(c.APISecret)
	c.APIPassphrase = mask(c.APIPassphrase)
	c.TelegramBotToken = mask(c.TelegramBotToken)
	c.AdminToken = mask(c.AdminToken)
	c.DatabaseDSN = mask(c.DatabaseDSN)
	return c
}

// YAML: эффективный конфиг в yaml без секретов.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return "", err
	}
	return string(out), nil
}
