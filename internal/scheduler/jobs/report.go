package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/betascope/internal/analysis"
	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/scheduler"
	"github.com/wonny/betascope/internal/store"
	"github.com/wonny/betascope/pkg/logger"
	"github.com/wonny/betascope/pkg/redis"
)

// ReportJob analyzes the saved portfolio on a schedule
type ReportJob struct {
	store     contracts.HoldingStore
	analyzer  *analysis.Analyzer
	cache     *redis.Cache
	schedule  string
	benchmark string
	policy    portfolio.DuplicatePolicy
	logger    *logger.Logger

	mu   sync.Mutex
	last *contracts.PortfolioReport
}

// NewReportJob creates a report job; cache may be disabled
func NewReportJob(
	holdingStore contracts.HoldingStore,
	analyzer *analysis.Analyzer,
	cache *redis.Cache,
	schedule string,
	policy portfolio.DuplicatePolicy,
	log *logger.Logger,
) *ReportJob {
	return &ReportJob{
		store:     holdingStore,
		analyzer:  analyzer,
		cache:     cache,
		schedule:  schedule,
		benchmark: analyzer.Benchmark(),
		policy:    policy,
		logger:    log.WithField("job", "portfolio_report"),
	}
}

// Name returns the job name
func (j *ReportJob) Name() string {
	return "portfolio_report"
}

// Schedule returns the cron schedule (weekdays after the US close by default)
func (j *ReportJob) Schedule() string {
	return j.schedule
}

// Last returns the report of the most recent successful run
func (j *ReportJob) Last() *contracts.PortfolioReport {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Run loads the saved holdings, analyzes them and logs the result
func (j *ReportJob) Run(ctx context.Context) error {
	records, err := j.store.Load(ctx)
	if errors.Is(err, store.ErrNoSavedPortfolio) {
		return fmt.Errorf("%w: %v", scheduler.ErrSkipped, err)
	}
	if err != nil {
		return fmt.Errorf("load holdings: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: saved portfolio is empty", scheduler.ErrSkipped)
	}

	p := portfolio.New(j.benchmark, j.policy)
	if err := p.FromRecords(records); err != nil {
		// bad data does not heal on retry
		j.logger.WithError(err).Error("Saved portfolio is invalid")
		return fmt.Errorf("%w: %v", scheduler.ErrSkipped, err)
	}

	rep, err := j.analyzer.Analyze(ctx, p)
	if err != nil {
		return fmt.Errorf("analyze portfolio: %w", err)
	}
	j.mu.Lock()
	j.last = rep
	j.mu.Unlock()

	for _, ex := range rep.Excluded {
		j.logger.WithFields(map[string]interface{}{
			"ticker": ex.Ticker,
			"reason": ex.Reason,
		}).Warn("Holding excluded from portfolio beta")
	}
	for _, w := range rep.Warnings {
		j.logger.Warn(w)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":         rep.RunID,
		"portfolio_beta": rep.PortfolioBeta,
		"risk_level":     rep.RiskLevel,
		"total_value":    rep.TotalValue,
		"excluded":       len(rep.Excluded),
	}).Info("Scheduled portfolio report")

	if err := j.cache.Set(ctx, redis.ReportKey(rep.Benchmark), rep, redis.TTLDaily); err != nil {
		j.logger.WithError(err).Warn("Failed to cache report")
	}
	return nil
}
