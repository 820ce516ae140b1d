package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/pkg/httputil"
	"github.com/wonny/betascope/pkg/logger"
)

// 2024-01-02 14:30 UTC (09:30 New York)
const firstOpen = int64(1704205800)

const newYorkOffset = -18000

func chartJSON(timestamps []int64, closes, adj []string) string {
	adjBlock := ""
	if adj != nil {
		adjBlock = fmt.Sprintf(`,"adjclose":[{"adjclose":[%s]}]`, strings.Join(adj, ","))
	}
	ts := make([]string, len(timestamps))
	for i, t := range timestamps {
		ts[i] = fmt.Sprint(t)
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD","gmtoffset":%d,"regularMarketPrice":187.5},
"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]%s}}],"error":null}}`,
		newYorkOffset, strings.Join(ts, ","), strings.Join(closes, ","), adjBlock)
}

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, p)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.RequestURI())
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	httpClient := httputil.New(logger.Nop(), 5*time.Second).DisableRetry()
	return NewClient(httpClient, logger.Nop(), server.URL), rec
}

func TestFetchPrices(t *testing.T) {
	day := int64(24 * 3600)
	body := chartJSON(
		[]int64{firstOpen, firstOpen + day, firstOpen + 2*day, firstOpen + 3*day},
		[]string{"185.0", "null", "186.5", "184.0"},
		[]string{"184.2", "null", "185.7", "null"},
	)

	c, paths := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	ps, err := c.FetchPrices(context.Background(), "AAPL", "2y")
	require.NoError(t, err)

	assert.Equal(t, []string{"/v8/finance/chart/AAPL?interval=1d&range=2y"}, paths.all())
	assert.Equal(t, "AAPL", ps.Ticker())
	require.Equal(t, 3, ps.Len(), "null bar skipped")

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ps.At(0).Time)
	assert.Equal(t, 184.2, ps.At(0).Price, "adjclose preferred")
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), ps.At(1).Time)
	assert.Equal(t, 184.0, ps.At(2).Price, "close used when adjclose is null")
}

func TestFetchPrices_SameDateKeepsLast(t *testing.T) {
	body := chartJSON([]int64{firstOpen, firstOpen + 3600}, []string{"100", "101"}, nil)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	ps, err := c.FetchPrices(context.Background(), "AAPL", "5d")
	require.NoError(t, err)
	require.Equal(t, 1, ps.Len())
	assert.Equal(t, 101.0, ps.At(0).Price)
}

func TestFetchPrices_Aliases(t *testing.T) {
	body := chartJSON([]int64{firstOpen}, []string{"4700"}, nil)
	c, paths := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	_, err := c.FetchPrices(context.Background(), "spx", "2y")
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/%5EGSPC?interval=1d&range=2y", paths.all()[0])
	assert.Equal(t, "BRK-B", c.Symbol(" brk-b "))
}

func TestFetchPrices_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, "status 404"},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid range"}}}`, "Invalid range"},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, "no data returned"},
		{"all null", http.StatusOK, chartJSON([]int64{firstOpen}, []string{"null"}, nil), "no price data"},
		{"garbage", http.StatusOK, `<html>`, "request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			ps, err := c.FetchPrices(context.Background(), "ZZZZ", "2y")
			assert.Nil(t, ps)
			require.ErrorIs(t, err, contracts.ErrDataFetch)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFetchCurrentPrice(t *testing.T) {
	body := chartJSON([]int64{firstOpen}, []string{"186.0"}, nil)
	c, paths := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	price, err := c.FetchCurrentPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 187.5, price, "regularMarketPrice wins")
	assert.Contains(t, paths.all()[0], "range=1d")
}

func TestFetchCurrentPrice_FallsBackToClose(t *testing.T) {
	body := strings.Replace(chartJSON([]int64{firstOpen}, []string{"186.0"}, nil), `"regularMarketPrice":187.5`, `"regularMarketPrice":null`, 1)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	price, err := c.FetchCurrentPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 186.0, price)
}

func TestTradingDate(t *testing.T) {
	// 2024-01-02 21:00 UTC is still Jan 2 in New York but Jan 3 in Seoul
	ts := time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), tradingDate(ts, newYorkOffset))
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), tradingDate(ts, 9*3600))
}
