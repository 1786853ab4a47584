package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Store      StoreConfig
	MongoDB    MongoDBConfig
	Forecast   ForecastConfig
	Production ProductionConfig
	Weather    WeatherConfig
	Reporting  ReportingConfig
	Sheets     SheetsConfig
	WhatsApp   WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Driver string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// ForecastConfig tunes the baseline estimator.
type ForecastConfig struct {
	WindowDays   int
	OutlierSigma float64
}

// ProductionConfig holds aggregation and editing options.
type ProductionConfig struct {
	WastePercentage float64
	AutosaveDelay   time.Duration
}

// WeatherConfig points at an Open-Meteo compatible forecast API. An empty
// BaseURL disables weather lookups.
type WeatherConfig struct {
	BaseURL         string
	Latitude        float64
	Longitude       float64
	RainThresholdMM float64
	Timeout         time.Duration
	MaxRetries      uint64
}

// Enabled reports whether weather lookups are configured.
func (w WeatherConfig) Enabled() bool {
	return w.BaseURL != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
	Recipient    string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the sheet export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
}

// Enabled reports whether digests can be sent.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment is set directly.
		_ = godotenv.Load()
	}

	var p parser
	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: getenvWithDefault("STORE_DRIVER", StoreDriverMongo),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "bakery"),
		},
		Forecast: ForecastConfig{
			WindowDays:   p.int("FORECAST_WINDOW_DAYS", 90),
			OutlierSigma: p.float("FORECAST_OUTLIER_SIGMA", 2),
		},
		Production: ProductionConfig{
			WastePercentage: p.float("PRODUCTION_WASTE_PERCENTAGE", 10),
			AutosaveDelay:   p.duration("PRODUCTION_AUTOSAVE_DELAY", 30*time.Second),
		},
		Weather: WeatherConfig{
			BaseURL:         os.Getenv("WEATHER_BASE_URL"),
			Latitude:        p.float("WEATHER_LATITUDE", 9.6412),
			Longitude:       p.float("WEATHER_LONGITUDE", -13.5784),
			RainThresholdMM: p.float("WEATHER_RAIN_THRESHOLD_MM", 1),
			Timeout:         p.duration("WEATHER_TIMEOUT", 5*time.Second),
			MaxRetries:      uint64(p.int("WEATHER_MAX_RETRIES", 2)),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 21 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
			Recipient:    os.Getenv("WHATSAPP_REPORT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverMongo, StoreDriverMemory, c.Store.Driver)
	}

	if c.Forecast.WindowDays <= 0 {
		return errors.New("FORECAST_WINDOW_DAYS must be greater than 0")
	}
	if c.Forecast.OutlierSigma <= 0 {
		return errors.New("FORECAST_OUTLIER_SIGMA must be greater than 0")
	}

	if c.Production.WastePercentage < 0 || c.Production.WastePercentage > 100 {
		return errors.New("PRODUCTION_WASTE_PERCENTAGE must be between 0 and 100")
	}
	if c.Production.AutosaveDelay <= 0 {
		return errors.New("PRODUCTION_AUTOSAVE_DELAY must be positive")
	}

	if c.Weather.Enabled() && c.Weather.RainThresholdMM < 0 {
		return errors.New("WEATHER_RAIN_THRESHOLD_MM must not be negative")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Reporting.Recipient != "" && !c.WhatsApp.Enabled() {
		return errors.New("WHATSAPP_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be provided to send reports")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parser reads typed values and keeps the first parse error.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" || p.err != nil {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = fmt.Errorf("%s must be an integer: %w", key, err)
		return fallback
	}
	return v
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" || p.err != nil {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("%s must be a number: %w", key, err)
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" || p.err != nil {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.err = fmt.Errorf("%s must be a duration: %w", key, err)
		return fallback
	}
	return v
}
