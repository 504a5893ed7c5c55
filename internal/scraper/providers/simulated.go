// Package providers contains the built-in Provider implementations. None of
// them parse provider HTML; the fare API client consumes a JSON endpoint and
// the simulated provider synthesizes prices for development and testing.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/faredrop/faredrop-backend/internal/scraper"
)

const SimulatedName = "simulated"

var simulatedAirlines = []string{"Delta", "United", "American", "JetBlue", "Alaska"}

// Simulated produces deterministic pseudo-random prices derived from the
// query itself, so repeated fetches for the same trip and day agree with
// each other. Useful for development environments without network access.
type Simulated struct{}

func NewSimulated() scraper.Provider { return Simulated{} }

func (Simulated) Name() string { return SimulatedName }

func (Simulated) Fetch(ctx context.Context, q scraper.Query) ([]scraper.PriceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Origin == "" || q.Destination == "" {
		return nil, scraper.Terminal(fmt.Errorf("simulated: origin and destination are required"))
	}

	rng := rand.New(rand.NewSource(simulatedSeed(q)))

	results := make([]scraper.PriceResult, 0, 3)
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		base := 18000 + rng.Int63n(42000) // $180.00 - $600.00
		stops := rng.Intn(3)
		airline := simulatedAirlines[rng.Intn(len(simulatedAirlines))]
		dep := q.DepartureDate.Add(time.Duration(6+3*i) * time.Hour)
		arr := dep.Add(time.Duration(3+stops) * time.Hour)

		raw, _ := json.Marshal(map[string]any{
			"provider": SimulatedName,
			"origin":   q.Origin,
			"dest":     q.Destination,
			"airline":  airline,
			"price":    base,
			"stops":    stops,
		})

		results = append(results, scraper.PriceResult{
			Provider:          SimulatedName,
			Price:             base,
			Currency:          "USD",
			CabinClass:        q.CabinClass,
			Airline:           airline,
			OutboundDeparture: &dep,
			OutboundArrival:   &arr,
			Stops:             &stops,
			RawData:           raw,
			ScrapedAt:         now,
		})
	}
	return results, nil
}

// simulatedSeed hashes the route, dates, and current day so prices drift
// day to day but stay stable within one.
func simulatedSeed(q scraper.Query) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d|%s|%s",
		q.Origin, q.Destination,
		q.DepartureDate.Format("2006-01-02"),
		q.Travelers, q.CabinClass,
		time.Now().UTC().Format("2006-01-02"),
	)
	return int64(h.Sum64())
}
