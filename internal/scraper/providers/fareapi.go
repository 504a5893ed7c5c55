package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/faredrop/faredrop-backend/internal/scraper"
)

const FareAPIName = "fareapi"

// FareAPI fetches quotes from a JSON fare-aggregation endpoint. The upstream
// contract is GET {base}/v1/quotes with route/date query parameters returning
// {"quotes": [...]}. The client holds no session state; every Fetch is an
// independent request.
type FareAPI struct {
	baseURL string
	client  *http.Client
}

type fareAPIQuote struct {
	PriceCents        int64      `json:"price_cents"`
	Currency          string     `json:"currency"`
	Airline           string     `json:"airline"`
	CabinClass        string     `json:"cabin_class"`
	Stops             *int       `json:"stops"`
	OutboundDeparture *time.Time `json:"outbound_departure"`
	OutboundArrival   *time.Time `json:"outbound_arrival"`
	ReturnDeparture   *time.Time `json:"return_departure"`
	ReturnArrival     *time.Time `json:"return_arrival"`
}

type fareAPIResponse struct {
	Quotes []fareAPIQuote `json:"quotes"`
}

// NewFareAPI returns a factory bound to the given base URL. The http.Client
// deliberately has no timeout of its own: the per-attempt deadline comes from
// the caller's context.
func NewFareAPI(baseURL string) scraper.Factory {
	return func() scraper.Provider {
		return &FareAPI{baseURL: baseURL, client: http.DefaultClient}
	}
}

func (p *FareAPI) Name() string { return FareAPIName }

func (p *FareAPI) Fetch(ctx context.Context, q scraper.Query) ([]scraper.PriceResult, error) {
	if p.baseURL == "" {
		return nil, scraper.Terminal(fmt.Errorf("fareapi: base URL not configured"))
	}
	if q.Origin == "" || q.Destination == "" {
		return nil, scraper.Terminal(fmt.Errorf("fareapi: origin and destination are required"))
	}

	params := url.Values{}
	params.Set("origin", q.Origin)
	params.Set("destination", q.Destination)
	params.Set("departure_date", q.DepartureDate.Format("2006-01-02"))
	if q.ReturnDate != nil {
		params.Set("return_date", q.ReturnDate.Format("2006-01-02"))
	}
	params.Set("travelers", strconv.Itoa(q.Travelers))
	if q.CabinClass != "" {
		params.Set("cabin_class", q.CabinClass)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/v1/quotes?"+params.Encode(), nil)
	if err != nil {
		return nil, scraper.Terminal(fmt.Errorf("fareapi: build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fareapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("fareapi: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("fareapi: upstream returned %d", resp.StatusCode)
	default:
		// 4xx other than 429 means the query itself is bad.
		return nil, scraper.Terminal(fmt.Errorf("fareapi: upstream rejected request with %d", resp.StatusCode))
	}

	var decoded fareAPIResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("fareapi: decode response: %w", err)
	}

	scrapedAt := time.Now().UTC()
	results := make([]scraper.PriceResult, 0, len(decoded.Quotes))
	for _, quote := range decoded.Quotes {
		if quote.PriceCents <= 0 {
			continue
		}
		currency := quote.Currency
		if currency == "" {
			currency = "USD"
		}
		raw, _ := json.Marshal(quote)
		results = append(results, scraper.PriceResult{
			Provider:          FareAPIName,
			Price:             quote.PriceCents,
			Currency:          currency,
			CabinClass:        quote.CabinClass,
			Airline:           quote.Airline,
			OutboundDeparture: quote.OutboundDeparture,
			OutboundArrival:   quote.OutboundArrival,
			ReturnDeparture:   quote.ReturnDeparture,
			ReturnArrival:     quote.ReturnArrival,
			Stops:             quote.Stops,
			RawData:           raw,
			ScrapedAt:         scrapedAt,
		})
	}
	return results, nil
}
