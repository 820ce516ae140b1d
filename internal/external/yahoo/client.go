package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/pkg/httputil"
	"github.com/wonny/betascope/pkg/logger"
)

// DefaultBaseURL is the public Yahoo Finance query host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client is a PriceSource backed by the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	symbolMap  map[string]string // maps user symbols to Yahoo tickers
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		symbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

// Symbol maps an alias to its Yahoo ticker
func (c *Client) Symbol(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if mapped, ok := c.symbolMap[ticker]; ok {
		return mapped
	}
	return ticker
}

// FetchPrices returns daily (adjusted) closes over period, e.g. "2y"
func (c *Client) FetchPrices(ctx context.Context, ticker, period string) (*contracts.PriceSeries, error) {
	chart, err := c.fetchChart(ctx, ticker, "1d", period)
	if err != nil {
		return nil, err
	}

	points := chart.points()
	if len(points) == 0 {
		return nil, &contracts.DataFetchError{Ticker: ticker, Reason: "no price data returned"}
	}

	series, err := contracts.NewPriceSeries(ticker, points)
	if err != nil {
		return nil, &contracts.DataFetchError{Ticker: ticker, Reason: "malformed price data", Err: err}
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"period": period,
		"count":  series.Len(),
	}).Debug("Fetched prices")
	return series, nil
}

// FetchCurrentPrice returns the regular market price, or the last close of today's bar
func (c *Client) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	chart, err := c.fetchChart(ctx, ticker, "1d", "1d")
	if err != nil {
		return 0, err
	}

	if p := chart.Meta.RegularMarketPrice; p != nil && *p > 0 {
		return *p, nil
	}
	points := chart.points()
	if len(points) == 0 {
		return 0, &contracts.DataFetchError{Ticker: ticker, Reason: "no price data returned"}
	}
	return points[len(points)-1].Price, nil
}

func (c *Client) fetchChart(ctx context.Context, ticker, interval, rng string) (*chartResult, error) {
	params := url.Values{}
	params.Set("interval", interval)
	params.Set("range", rng)
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(c.Symbol(ticker)), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			// Yahoo answers unknown symbols with 404 and an error object
			return nil, &contracts.DataFetchError{Ticker: ticker, Reason: fmt.Sprintf("status %d", statusErr.StatusCode), Err: err}
		}
		return nil, &contracts.DataFetchError{Ticker: ticker, Reason: "request failed", Err: err}
	}

	if resp.Chart.Error != nil {
		return nil, &contracts.DataFetchError{
			Ticker: ticker,
			Reason: fmt.Sprintf("api error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description),
		}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, &contracts.DataFetchError{Ticker: ticker, Reason: "no data returned"}
	}
	return &resp.Chart.Result[0], nil
}
