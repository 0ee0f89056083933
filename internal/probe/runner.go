package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
)

// ErrViolations is returned when at least one invariant failed.
var ErrViolations = errors.New("ranking invariants violated")

// DefaultTypes are the leaderboard types probed when none are configured.
var DefaultTypes = []string{"ytd_spend", "payment_speed", "order_frequency", "credit_utilization", "ontime_payment_rate"}

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	defaultTimeout      = 30 * time.Second
)

// Run probes the service and returns the report. The error wraps
// ErrViolations when any check failed; the report is complete either way.
func Run(ctx context.Context, cfg Config) (Report, error) {
	start := time.Now()
	log := logger.Get().Named("probe")
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU() * 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if len(cfg.Types) == 0 {
		cfg.Types = DefaultTypes
	}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := c.health(ctx); err != nil {
		return Report{}, fmt.Errorf("service health check failed: %w", err)
	}

	var rep Report
	ids, err := discover(ctx, c, cfg.ClientIDs, &rep)
	if err != nil {
		return rep, err
	}
	rep.Clients = len(ids)
	log.Info(ctx, "probing clients",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("clients", len(ids)),
		logger.Int("types", len(cfg.Types)),
		logger.Int("workers", cfg.Workers),
	)

	var (
		mu    sync.Mutex
		byTyp = make(map[string][]leaderboard, len(cfg.Types))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, typ := range cfg.Types {
		for _, id := range ids {
			g.Go(func() error {
				lb, err := c.leaderboard(gctx, id, typ, cfg.Limit)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case skippable(err):
					rep.Skipped++
					return nil
				case err != nil:
					return fmt.Errorf("leaderboard %s for %s: %w", typ, id, err)
				}
				rep.Leaderboards++
				byTyp[typ] = append(byTyp[typ], lb)
				rep.Violations = append(rep.Violations, checkLeaderboard(lb)...)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	for _, typ := range cfg.Types {
		lbs := byTyp[typ]
		sort.Slice(lbs, func(i, j int) bool { return lbs[i].ClientID < lbs[j].ClientID })
		rep.Violations = append(rep.Violations, checkPopulation(typ, lbs)...)
	}
	sort.SliceStable(rep.Violations, func(i, j int) bool {
		a, b := rep.Violations[i], rep.Violations[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ClientID < b.ClientID
	})
	rep.Duration = time.Since(start)

	if cfg.Verbose {
		for _, v := range rep.Violations {
			log.Warn(ctx, "invariant violated",
				logger.String("rule", v.Rule),
				logger.String("clientId", v.ClientID),
				logger.String("type", v.Type),
				logger.String("detail", v.Detail),
			)
		}
	}
	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, rep); err != nil {
			log.Warn(ctx, "failed to save probe report", logger.Error(err))
		}
	}
	log.Info(ctx, "probe finished",
		logger.Int("leaderboards", rep.Leaderboards),
		logger.Int("credits", rep.Credits),
		logger.Int("skipped", rep.Skipped),
		logger.Int("violations", len(rep.Violations)),
		logger.Duration("duration", rep.Duration),
	)
	if !rep.OK() {
		return rep, fmt.Errorf("%d checks failed: %w", len(rep.Violations), ErrViolations)
	}
	return rep, nil
}

// discover checks the credit results of the probed clients. Without explicit
// ids a recalculation lists every active client.
func discover(ctx context.Context, c *client, ids []string, rep *Report) ([]string, error) {
	var credits []credit
	if len(ids) == 0 {
		res, err := c.recalculate(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("list active clients: %w", err)
		}
		credits = res.Results
		for _, cr := range credits {
			ids = append(ids, cr.ClientID)
		}
	} else {
		for _, id := range ids {
			cr, err := c.credit(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("credit for %s: %w", id, err)
			}
			credits = append(credits, cr)
		}
	}
	for _, cr := range credits {
		rep.Credits++
		rep.Violations = append(rep.Violations, checkCredit(cr)...)
	}
	return ids, nil
}

func saveReport(filename string, rep Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(filename, b, filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
