package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	"github.com/wolfman30/cashbarber-autobook/internal/cashbarber"
	"github.com/wolfman30/cashbarber-autobook/internal/recurrence"
	"github.com/wolfman30/cashbarber-autobook/internal/timezone"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	CashBarberEmail    string
	CashBarberPassword string
	CashBarberBaseURL  string
	BranchID           int
	ServiceIDs         []int
	BookDelay          time.Duration
	MaxBookingDays     int
	HTTPTimeout        time.Duration
	Timezone           string
	Cycle              string
	CycleReference     string
	ListingBestEffort  bool
	DryRun             bool

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	RunLockTTL    time.Duration

	TriggerJWTSecret     string
	TriggerRatePerMinute int

	NotifyProvider     string
	NotifyEmailTo      string
	NotifyOnlyOnErrors bool
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CashBarberEmail:    strings.TrimSpace(os.Getenv("CASHBARBER_EMAIL")),
		CashBarberPassword: os.Getenv("CASHBARBER_PASSWORD"),
		CashBarberBaseURL:  getEnv("CASHBARBER_BASE_URL", cashbarber.DefaultBaseURL),
		BranchID:           getEnvAsInt("CASHBARBER_AGE_ID_FILIAL", 3483),
		ServiceIDs:         getEnvAsIntList("CASHBARBER_SERVICOS", []int{50954, 50952}),
		BookDelay:          time.Duration(getEnvAsInt("CASHBARBER_BOOK_DELAY_MS", 3000)) * time.Millisecond,
		MaxBookingDays:     getEnvAsInt("CASHBARBER_MAX_BOOKING_DAYS", 15),
		HTTPTimeout:        getEnvAsDuration("CASHBARBER_HTTP_TIMEOUT", 15*time.Second),
		Timezone:           getEnv("CASHBARBER_TIMEZONE", timezone.DefaultTimezone),
		Cycle:              getEnv("CASHBARBER_CYCLE", ""),
		CycleReference:     getEnv("CASHBARBER_CYCLE_REFERENCE", ""),
		ListingBestEffort:  getEnvAsBool("CASHBARBER_LISTING_BEST_EFFORT", true),
		DryRun:             getEnvAsBool("CASHBARBER_DRY_RUN", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		RunLockTTL:    getEnvAsDuration("RUN_LOCK_TTL", 10*time.Minute),

		TriggerJWTSecret:     getEnv("TRIGGER_JWT_SECRET", ""),
		TriggerRatePerMinute: getEnvAsInt("TRIGGER_RATE_PER_MINUTE", 6),

		NotifyProvider:     strings.ToLower(getEnv("NOTIFY_PROVIDER", "")),
		NotifyEmailTo:      getEnv("NOTIFY_EMAIL_TO", ""),
		NotifyOnlyOnErrors: getEnvAsBool("NOTIFY_ONLY_ON_ERRORS", true),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding the real environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Validate reports everything that would make a run fail before it reaches
// the network. Missing credentials come first.
func (c *Config) Validate() error {
	if c.CashBarberEmail == "" || c.CashBarberPassword == "" {
		return apperr.New(apperr.KindConfig, "Missing CASHBARBER_EMAIL or CASHBARBER_PASSWORD")
	}
	return c.ValidateSettings()
}

// ValidateSettings checks everything except the credentials, which a
// long-running server may receive later and the run itself enforces.
func (c *Config) ValidateSettings() error {
	var problems []string
	if c.BranchID <= 0 {
		problems = append(problems, "CASHBARBER_AGE_ID_FILIAL must be a positive id")
	}
	if len(c.ServiceIDs) == 0 {
		problems = append(problems, "CASHBARBER_SERVICOS must list at least one service id")
	}
	if c.BookDelay < 0 {
		problems = append(problems, "CASHBARBER_BOOK_DELAY_MS must not be negative")
	}
	if c.MaxBookingDays <= 0 {
		problems = append(problems, "CASHBARBER_MAX_BOOKING_DAYS must be positive")
	}
	if !timezone.IsValid(c.Timezone) {
		problems = append(problems, "CASHBARBER_TIMEZONE is not a known time zone: "+c.Timezone)
	}
	if _, err := c.BuildGenerator(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return apperr.New(apperr.KindConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Credentials returns the CashBarber account credentials.
func (c *Config) Credentials() cashbarber.Credentials {
	return cashbarber.Credentials{Email: c.CashBarberEmail, Password: c.CashBarberPassword}
}

// Location returns the booking time zone, falling back to UTC-3.
func (c *Config) Location() *time.Location {
	return timezone.Location(c.Timezone)
}

// BuildGenerator returns the slot generator for the configured cycle, or the
// default cycle and reference when they are unset.
func (c *Config) BuildGenerator() (*recurrence.Generator, error) {
	loc := c.Location()

	cycle := recurrence.DefaultCycle()
	if strings.TrimSpace(c.Cycle) != "" {
		parsed, err := recurrence.ParseCycle(c.Cycle)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindConfig, err, "CASHBARBER_CYCLE: "+err.Error())
		}
		cycle = parsed
	}

	reference := recurrence.DefaultReference(loc)
	if strings.TrimSpace(c.CycleReference) != "" {
		parsed, err := recurrence.ParseReference(c.CycleReference, loc)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindConfig, err, "CASHBARBER_CYCLE_REFERENCE: "+err.Error())
		}
		reference = parsed
	}

	return recurrence.NewGenerator(reference, cycle)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsIntList parses a comma separated list. Any bad entry yields the default.
func getEnvAsIntList(key string, defaultValue []int) []int {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
