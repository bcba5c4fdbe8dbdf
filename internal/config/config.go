package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"p2p-lending-core/internal/usecase/lifecycle"
	"p2p-lending-core/internal/usecase/reminder"
	"p2p-lending-core/internal/usecase/review"
)

// Config is resolved in three layers: built-in defaults, then the optional
// YAML file named by CONFIG_FILE, then environment variables (a .env file in
// the working directory is loaded first when present).
type Config struct {
	AppName  string `yaml:"app_name"`
	AppPort  string `yaml:"app_port"`
	LogLevel string `yaml:"log_level"`
	SQLLog   bool   `yaml:"sql_log"`

	// Empty MySQLHost selects the in-memory store.
	MySQLHost string `yaml:"mysql_host"`
	MySQLPort string `yaml:"mysql_port"`
	MySQLDB   string `yaml:"mysql_db"`
	MySQLUser string `yaml:"mysql_user"`
	MySQLPass string `yaml:"mysql_pass"`

	// Empty RedisAddr disables the idempotency middleware.
	RedisAddr    string `yaml:"redis_addr"`
	RedisPass    string `yaml:"redis_pass"`
	RedisDB      int    `yaml:"redis_db"`
	IdempTTLSecs int    `yaml:"idempotency_ttl_seconds"`

	TickInterval time.Duration `yaml:"tick_interval"`

	Review    ReviewConfig    `yaml:"review"`
	Reminders ReminderConfig  `yaml:"reminders"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Twilio    TwilioConfig    `yaml:"twilio"`
}

type ReviewConfig struct {
	DocumentsWindow time.Duration `yaml:"documents_window"`
	FastTrackRate   float64       `yaml:"fast_track_rate"`
}

type ReminderConfig struct {
	UpcomingDays    []int         `yaml:"upcoming_days"`
	OverdueDays     []int         `yaml:"overdue_days"`
	FinalNoticeDays int           `yaml:"final_notice_days"`
	MaxAttempts     int           `yaml:"max_attempts"`
	RetryBase       time.Duration `yaml:"retry_base"`
	RetryCap        time.Duration `yaml:"retry_cap"`
	PaymentLinkBase string        `yaml:"payment_link_base"`
}

type LifecycleConfig struct {
	DefaultAfterDays int           `yaml:"default_after_days"`
	DueSoonWindow    time.Duration `yaml:"due_soon_window"`
}

// TwilioConfig enables SMS delivery when AccountSID and AuthToken are set.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

func (t TwilioConfig) Enabled() bool { return t.AccountSID != "" && t.AuthToken != "" }

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func defaults() *Config {
	rv := review.DefaultConfig()
	rm := reminder.DefaultConfig()
	lc := lifecycle.DefaultConfig()
	return &Config{
		AppName:      "p2p-lending-core",
		AppPort:      "8080",
		LogLevel:     "info",
		MySQLPort:    "3306",
		IdempTTLSecs: 300,
		TickInterval: time.Minute,
		Review:       ReviewConfig{DocumentsWindow: rv.DocumentsWindow, FastTrackRate: rv.FastTrackRate},
		Reminders: ReminderConfig{
			UpcomingDays:    rm.UpcomingDays,
			OverdueDays:     rm.OverdueDays,
			FinalNoticeDays: rm.FinalNoticeDays,
			MaxAttempts:     rm.MaxAttempts,
			RetryBase:       rm.RetryBase,
			RetryCap:        rm.RetryCap,
			PaymentLinkBase: rm.PaymentLinkBase,
		},
		Lifecycle: LifecycleConfig{DefaultAfterDays: lc.DefaultAfterDays, DueSoonWindow: lc.DueSoonWindow},
	}
}

// Load resolves the configuration. A missing .env is fine; a missing or
// malformed CONFIG_FILE is not.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.AppName = getenv("APP_NAME", c.AppName)
	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)

	c.MySQLHost = getenv("MYSQL_HOST", c.MySQLHost)
	c.MySQLPort = getenv("MYSQL_PORT", c.MySQLPort)
	c.MySQLDB = getenv("MYSQL_DB", c.MySQLDB)
	c.MySQLUser = getenv("MYSQL_USER", c.MySQLUser)
	c.MySQLPass = getenv("MYSQL_PASS", c.MySQLPass)

	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = getenv("REDIS_PASSWORD", c.RedisPass)

	c.Reminders.PaymentLinkBase = getenv("PAYMENT_LINK_BASE", c.Reminders.PaymentLinkBase)
	c.Twilio.AccountSID = getenv("TWILIO_ACCOUNT_SID", c.Twilio.AccountSID)
	c.Twilio.AuthToken = getenv("TWILIO_AUTH_TOKEN", c.Twilio.AuthToken)
	c.Twilio.FromNumber = getenv("TWILIO_PHONE_NUMBER", c.Twilio.FromNumber)

	var err error
	if c.SQLLog, err = envBool("SQL_LOG", c.SQLLog); err != nil {
		return err
	}
	if c.RedisDB, err = envInt("REDIS_DB", c.RedisDB); err != nil {
		return err
	}
	if c.IdempTTLSecs, err = envInt("IDEMPOTENCY_TTL_SECONDS", c.IdempTTLSecs); err != nil {
		return err
	}
	if c.TickInterval, err = envDuration("TICK_INTERVAL", c.TickInterval); err != nil {
		return err
	}
	if c.Reminders.MaxAttempts, err = envInt("REMINDER_MAX_ATTEMPTS", c.Reminders.MaxAttempts); err != nil {
		return err
	}
	if c.Lifecycle.DefaultAfterDays, err = envInt("DEFAULT_AFTER_DAYS", c.Lifecycle.DefaultAfterDays); err != nil {
		return err
	}
	return nil
}

func envInt(k string, d int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return n, nil
}

func envBool(k string, d bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return d, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return b, nil
}

func envDuration(k string, d time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d, nil
	}
	n, err := time.ParseDuration(v)
	if err != nil {
		return d, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return n, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.UseMySQL() {
		if c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("idempotency ttl must be positive, got %d", c.IdempTTLSecs)
	}
	if c.Reminders.MaxAttempts < 1 {
		return fmt.Errorf("reminders.max_attempts must be at least 1, got %d", c.Reminders.MaxAttempts)
	}
	if c.Reminders.RetryBase <= 0 || c.Reminders.RetryCap < c.Reminders.RetryBase {
		return errors.New("reminders: retry_base must be positive and not above retry_cap")
	}
	for _, d := range append(append([]int{}, c.Reminders.UpcomingDays...), c.Reminders.OverdueDays...) {
		if d <= 0 {
			return fmt.Errorf("reminder offsets must be positive days, got %d", d)
		}
	}
	if c.Lifecycle.DefaultAfterDays <= 0 {
		return fmt.Errorf("lifecycle.default_after_days must be positive, got %d", c.Lifecycle.DefaultAfterDays)
	}
	if c.Review.FastTrackRate < 0 {
		return fmt.Errorf("review.fast_track_rate must not be negative, got %v", c.Review.FastTrackRate)
	}
	if c.Twilio.Enabled() && c.Twilio.FromNumber == "" {
		return errors.New("twilio: from_number is required when credentials are set")
	}
	return nil
}

func (c *Config) UseMySQL() bool { return c.MySQLHost != "" }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime is needed for DATETIME; loc=UTC keeps due dates on the wall clock they were written with
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) IdempTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) ReviewConfig() review.Config {
	return review.Config{DocumentsWindow: c.Review.DocumentsWindow, FastTrackRate: c.Review.FastTrackRate}
}

func (c *Config) ReminderConfig() reminder.Config {
	r := c.Reminders
	return reminder.Config{
		UpcomingDays:    r.UpcomingDays,
		OverdueDays:     r.OverdueDays,
		FinalNoticeDays: r.FinalNoticeDays,
		MaxAttempts:     r.MaxAttempts,
		RetryBase:       r.RetryBase,
		RetryCap:        r.RetryCap,
		PaymentLinkBase: r.PaymentLinkBase,
	}
}

func (c *Config) LifecycleConfig() lifecycle.Config {
	return lifecycle.Config{DefaultAfterDays: c.Lifecycle.DefaultAfterDays, DueSoonWindow: c.Lifecycle.DueSoonWindow}
}
