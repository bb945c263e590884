// Package datex reads a DATEX II situation publication (XML) such as the one
// published by the Spanish DGT national access point.
package datex

import (
	"context"
	"encoding/xml"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/httpx"
	"freight-quote-service/internal/platform/obs"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultURL = "https://nap.dgt.es/datex2/v3/dgt/SituationPublication/datex2_v36.xml"

type Feed struct {
	http    *httpx.Client
	url     string
	country string
	logger  *slog.Logger
}

func NewFeed(url, country string, timeout time.Duration, logger *slog.Logger) *Feed {
	if url == "" {
		url = defaultURL
	}
	if country == "" {
		country = "ES"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		http:    httpx.New(timeout, httpx.WithHeader("Accept", "application/xml, text/xml")),
		url:     url,
		country: strings.ToUpper(country),
		logger:  logger,
	}
}

func (f *Feed) Country() string { return f.country }

type publication struct {
	XMLName    xml.Name `xml:"d2LogicalModel"`
	Situations []struct {
		ID      string            `xml:"id,attr"`
		Records []situationRecord `xml:"situationRecord"`
	} `xml:"payloadPublication>situation"`
}

type situationRecord struct {
	ID       string   `xml:"id,attr"`
	Severity string   `xml:"severity"`
	Comments []string `xml:"generalPublicComment>comment>values>value"`
	Start    string   `xml:"validity>validityTimeSpecification>overallStartTime"`
	End      string   `xml:"validity>validityTimeSpecification>overallEndTime"`
}

// Situations implements ports.TrafficFeed.
func (f *Feed) Situations(ctx context.Context) (_ []domain.TrafficSituation, err error) {
	defer obs.Time(ctx, f.logger, "datex.situations")(&err)

	resp, err := f.http.Do(ctx, func() (*http.Request, error) {
		return f.http.NewRequest(ctx, http.MethodGet, f.url, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("datex feed: %w", err)
	}

	body, err := httpx.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("datex feed: %w", err)
	}

	return Parse(body)
}

// Parse extracts situation records from a DATEX II document.
func Parse(doc []byte) ([]domain.TrafficSituation, error) {
	var pub publication
	if err := xml.Unmarshal(doc, &pub); err != nil {
		return nil, fmt.Errorf("decode datex document: %w", err)
	}

	var out []domain.TrafficSituation
	for _, s := range pub.Situations {
		for _, r := range s.Records {
			id := r.ID
			if id == "" {
				id = s.ID
			}
			severity := strings.TrimSpace(r.Severity)
			if severity == "" {
				severity = "medium"
			}
			out = append(out, domain.TrafficSituation{
				ID:       id,
				Comment:  strings.TrimSpace(strings.Join(r.Comments, " ")),
				Severity: severity,
				Start:    parseTime(r.Start),
				End:      parseTime(r.End),
			})
		}
	}
	return out, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
