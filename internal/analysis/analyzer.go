package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/betascope/internal/beta"
	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/report"
	"github.com/wonny/betascope/internal/series"
	"github.com/wonny/betascope/pkg/logger"
)

// Config holds analyzer configuration
type Config struct {
	Benchmark   string // used when the portfolio names none
	Period      string
	Concurrency int // number of concurrent price fetches
	Report      report.Options
}

// Analyzer runs the fetch → align → estimate → aggregate pipeline
// ⭐ SSOT: 포트폴리오 분석 오케스트레이션은 여기서만
type Analyzer struct {
	source    contracts.PriceSource
	estimator *beta.Estimator
	cache     *beta.Cache
	logger    *logger.Logger
	cfg       Config
	now       func() time.Time
}

// New creates an Analyzer
func New(source contracts.PriceSource, estimator *beta.Estimator, log *logger.Logger, cfg Config) *Analyzer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Report.HighBetaThreshold == 0 && cfg.Report.ConcentrationThreshold == 0 {
		cfg.Report = report.DefaultOptions(cfg.Period)
	}
	if cfg.Report.Period == "" {
		cfg.Report.Period = cfg.Period
	}
	return &Analyzer{
		source:    source,
		estimator: estimator,
		cache:     beta.NewCache(),
		logger:    log.WithComponent("analysis"),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Benchmark returns the default benchmark ticker
func (a *Analyzer) Benchmark() string {
	return a.cfg.Benchmark
}

// Period returns the lookback period passed to the price source
func (a *Analyzer) Period() string {
	return a.cfg.Period
}

// Analyze computes the beta report for p.
// The caller must not mutate p until Analyze returns.
func (a *Analyzer) Analyze(ctx context.Context, p *portfolio.Portfolio) (*contracts.PortfolioReport, error) {
	if p.IsEmpty() {
		return nil, &contracts.EmptyPortfolioError{}
	}

	benchmark := p.Benchmark
	if benchmark == "" {
		benchmark = a.cfg.Benchmark
	}

	start := time.Now()
	tickers := p.Tickers()

	a.logger.WithFields(map[string]interface{}{
		"benchmark": benchmark,
		"period":    a.cfg.Period,
		"holdings":  len(tickers),
	}).Info("Starting portfolio analysis")

	// 1. Benchmark series (fail-closed)
	bench, err := a.source.FetchPrices(ctx, benchmark, a.cfg.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch benchmark %s: %w", benchmark, err)
	}

	// 2. Holding series
	fetched, err := a.fetchAll(ctx, tickers)
	if err != nil {
		return nil, err
	}

	// 3. Beta per holding
	benchFP := series.Fingerprint(bench)
	outcomes := make(map[string]contracts.BetaOutcome, len(fetched))
	for _, f := range fetched {
		if f.Err != nil {
			outcomes[f.Ticker] = contracts.BetaOutcome{Err: f.Err}
			continue
		}
		res, err := a.estimate(f.Series, bench, benchFP)
		outcomes[f.Ticker] = contracts.BetaOutcome{Result: res, Err: err}
	}

	// 4. Report
	opts := a.cfg.Report
	work := p
	if p.Benchmark != benchmark {
		work = withBenchmark(p, benchmark)
	}
	rep, err := report.Build(work, outcomes, opts)
	if err != nil {
		return nil, err
	}
	rep.RunID = uuid.NewString()
	rep.GeneratedAt = a.now().UTC()

	a.logger.WithFields(map[string]interface{}{
		"run_id":         rep.RunID,
		"portfolio_beta": rep.PortfolioBeta,
		"risk_level":     rep.RiskLevel,
		"included":       len(rep.Holdings),
		"excluded":       len(rep.Excluded),
		"duration":       time.Since(start),
	}).Info("Portfolio analysis completed")

	return rep, nil
}

// Beta computes a single ticker's beta against the default benchmark
func (a *Analyzer) Beta(ctx context.Context, ticker string) (*contracts.BetaResult, error) {
	ticker = portfolio.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", contracts.ErrInvalidTicker)
	}

	bench, err := a.source.FetchPrices(ctx, a.cfg.Benchmark, a.cfg.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch benchmark %s: %w", a.cfg.Benchmark, err)
	}
	asset, err := a.source.FetchPrices(ctx, ticker, a.cfg.Period)
	if err != nil {
		return nil, err
	}
	return a.estimate(asset, bench, series.Fingerprint(bench))
}

// estimate aligns, converts to returns and estimates, reusing a cached result
// when neither series has changed since the last run
func (a *Analyzer) estimate(asset, bench *contracts.PriceSeries, benchFP string) (*contracts.BetaResult, error) {
	ticker := asset.Ticker()
	assetFP := series.Fingerprint(asset)
	if res, ok := a.cache.Get(ticker, assetFP, benchFP); ok {
		return res, nil
	}

	ra, rb, err := series.AlignedReturns(asset, bench, a.estimator.MinSamples)
	if err != nil {
		return nil, err
	}
	res, err := a.estimator.Estimate(ra, rb)
	if err != nil {
		return nil, err
	}

	a.cache.Put(ticker, assetFP, benchFP, res)
	return res, nil
}

// withBenchmark copies p under a different benchmark so the report names the one actually used
func withBenchmark(p *portfolio.Portfolio, benchmark string) *portfolio.Portfolio {
	cp := portfolio.New(benchmark, p.Policy())
	// records come from a valid portfolio, so this cannot fail
	_ = cp.FromRecords(p.Records())
	return cp
}
