package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

// DefaultBaseURL is the public Oura cloud API.
const DefaultBaseURL = "https://api.ouraring.com"

// maxPages bounds next_token pagination for a single fetch.
const maxPages = 100

// OuraProvider implements ring.Fetcher for the v2 usercollection endpoints.
type OuraProvider struct {
	name    string
	token   string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOuraProvider(client *http.Client, baseURL, token string) *OuraProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "oura",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &OuraProvider{
		name:    "oura",
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{Client: client},
		circuit: cb,
	}
}

func (p *OuraProvider) Name() string {
	return p.name
}

// Fetch requests every record of schema.DataType inside w, following next_token
// pages. A 2xx body without a data array is ring.ErrMalformedResponse.
func (p *OuraProvider) Fetch(ctx context.Context, schema *ring.Schema, w ring.Window) ([]ring.RawRecord, error) {
	if p.token == "" {
		return nil, ring.ErrMissingToken
	}

	log.Printf("INFO: requesting %s data for %s", schema.DataType, w)

	var (
		records []ring.RawRecord
		next    string
	)
	for page := 0; page < maxPages; page++ {
		data, token, err := p.fetchPage(ctx, schema, w, next)
		if err != nil {
			return nil, err
		}
		records = append(records, data...)
		if token == "" {
			log.Printf("INFO: received %d %s records", len(records), schema.DataType)
			return records, nil
		}
		next = token
	}
	return nil, fmt.Errorf("%w: more than %d pages for %s", ring.ErrMalformedResponse, maxPages, schema.DataType)
}

func (p *OuraProvider) fetchPage(ctx context.Context, schema *ring.Schema, w ring.Window, next string) ([]ring.RawRecord, string, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		if schema.Instant {
			values.Set("start_datetime", w.Start.Format(time.RFC3339))
			values.Set("end_datetime", w.End.Format(time.RFC3339))
		} else {
			values.Set("start_date", w.Start.Format(ring.DateLayout))
			values.Set("end_date", w.End.Format(ring.DateLayout))
		}
		if next != "" {
			values.Set("next_token", next)
		}

		u := fmt.Sprintf("%s/v2/usercollection/%s?%s", p.baseURL, schema.DataType, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+p.token)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Data      *[]ring.RawRecord `json:"data"`
		NextToken *string           `json:"next_token"`
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ring.ErrMalformedResponse, err)
	}
	if payload.Data == nil {
		return nil, "", fmt.Errorf("%w: body has no data array", ring.ErrMalformedResponse)
	}

	token := ""
	if payload.NextToken != nil {
		token = *payload.NextToken
	}
	return *payload.Data, token, nil
}
