// Package nager reads public holiday calendars from the Nager.Date API.
package nager

import (
	"context"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/httpx"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/platform/schema"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://date.nager.at/api/v3"

type Client struct {
	http    *httpx.Client
	baseURL string
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    httpx.New(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type holiday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

var holidaysSchema = schema.MustCompile("nager.holidays", `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["date", "name"],
    "properties": {
      "date": {"type": "string"},
      "name": {"type": "string"},
      "localName": {"type": "string"}
    }
  }
}`)

// PublicHolidays implements ports.HolidayProvider.
func (c *Client) PublicHolidays(ctx context.Context, country string, year int) (_ []domain.Holiday, err error) {
	defer obs.Time(ctx, c.logger, "nager.holidays")(&err)

	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", c.baseURL, year, strings.ToUpper(country))

	var decoded []holiday
	err = c.http.DoJSON(ctx, func() (*http.Request, error) {
		return c.http.NewRequest(ctx, http.MethodGet, url, nil)
	}, holidaysSchema, &decoded)
	if err != nil {
		return nil, fmt.Errorf("holidays %s/%d: %w", country, year, err)
	}

	out := make([]domain.Holiday, 0, len(decoded))
	for _, h := range decoded {
		d, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			c.logger.WarnContext(ctx, "nager: skipping holiday with bad date",
				slog.String("country", country), slog.String("date", h.Date))
			continue
		}
		out = append(out, domain.Holiday{Date: d, Name: h.Name, LocalName: h.LocalName})
	}
	return out, nil
}
