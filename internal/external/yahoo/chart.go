package yahoo

import (
	"time"

	"github.com/wonny/betascope/internal/contracts"
)

// chartResponse is the response structure from the Yahoo Finance chart API
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		Currency           string   `json:"currency"`
		GMTOffset          int64    `json:"gmtoffset"` // seconds
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// points converts bars to one price per exchange-local trading date.
// adjclose is preferred over close; null bars (holidays, halts) are skipped;
// when two bars share a date the later one wins.
func (r *chartResult) points() []contracts.PricePoint {
	var closes, adj []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	points := make([]contracts.PricePoint, 0, len(r.Timestamp))
	index := make(map[time.Time]int, len(r.Timestamp))

	for i, ts := range r.Timestamp {
		price, ok := pick(adj, closes, i)
		if !ok {
			continue
		}
		date := tradingDate(ts, r.Meta.GMTOffset)
		if j, dup := index[date]; dup {
			points[j].Price = price
			continue
		}
		index[date] = len(points)
		points = append(points, contracts.PricePoint{Time: date, Price: price})
	}
	return points
}

func pick(adj, closes []*float64, i int) (float64, bool) {
	if i < len(adj) && adj[i] != nil && *adj[i] > 0 {
		return *adj[i], true
	}
	if i < len(closes) && closes[i] != nil && *closes[i] > 0 {
		return *closes[i], true
	}
	return 0, false
}

// tradingDate is midnight UTC of the exchange-local calendar date
func tradingDate(ts, gmtOffset int64) time.Time {
	local := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
