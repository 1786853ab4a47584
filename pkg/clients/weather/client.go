package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/config"
)

const (
	dateLayout   = "2006-01-02"
	retryBackoff = 200 * time.Millisecond
)

// ErrNoForecast is returned when the API has no value for the requested day.
var ErrNoForecast = errors.New("no precipitation forecast for date")

// Client answers whether a day is rainy using an Open-Meteo compatible API.
type Client struct {
	httpClient *resty.Client
	latitude   float64
	longitude  float64
	threshold  float64
	maxRetries uint64
	logger     *zap.Logger
}

// NewClient builds a weather client from configuration.
func NewClient(cfg config.WeatherConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{
		httpClient: restyClient,
		latitude:   cfg.Latitude,
		longitude:  cfg.Longitude,
		threshold:  cfg.RainThresholdMM,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

type forecastResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Precipitation returns the forecast daily precipitation sum in millimetres.
func (c *Client) Precipitation(ctx context.Context, date time.Time) (float64, error) {
	day := date.Format(dateLayout)
	result := new(forecastResponse)

	err := backoff.Retry(
		func() error {
			apiErr := new(apiError)
			resp, err := c.httpClient.R().
				SetContext(ctx).
				SetQueryParams(map[string]string{
					"latitude":   fmt.Sprintf("%.4f", c.latitude),
					"longitude":  fmt.Sprintf("%.4f", c.longitude),
					"daily":      "precipitation_sum",
					"start_date": day,
					"end_date":   day,
					"timezone":   "auto",
				}).
				SetResult(result).
				SetError(apiErr).
				Get("/v1/forecast")
			if err != nil {
				return fmt.Errorf("request forecast: %w", err)
			}

			switch code := resp.StatusCode(); {
			case code >= http.StatusInternalServerError || code == http.StatusTooManyRequests:
				return fmt.Errorf("weather api status %d", code)
			case code >= http.StatusBadRequest:
				return backoff.Permanent(fmt.Errorf("weather api error: code=%d, reason=%s", code, apiErr.Reason))
			}
			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(retryBackoff), c.maxRetries),
			ctx,
		),
	)
	if err != nil {
		return 0, err
	}

	for i, t := range result.Daily.Time {
		if t != day || i >= len(result.Daily.PrecipitationSum) {
			continue
		}
		if v := result.Daily.PrecipitationSum[i]; v != nil {
			return *v, nil
		}
	}
	return 0, fmt.Errorf("%s: %w", day, ErrNoForecast)
}

// IsRainy reports whether precipitation on date reaches the rain threshold.
func (c *Client) IsRainy(ctx context.Context, date time.Time) (bool, error) {
	mm, err := c.Precipitation(ctx, date)
	if err != nil {
		return false, err
	}
	rainy := mm >= c.threshold
	c.logger.Debug("weather lookup",
		zap.String("date", date.Format(dateLayout)),
		zap.Float64("precipitation_mm", mm),
		zap.Bool("rainy", rainy))
	return rainy, nil
}
