// Package weightupdater runs the periodic job that rescoring every
// registered (provider, chain) pair's live weight from recent success/
// error counts, queried from a Prometheus-compatible metrics backend.
package weightupdater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/metrics"
	"github.com/walletgate/rpc-gateway/internal/provider"
	"github.com/walletgate/rpc-gateway/internal/weight"
)

// Sample is one (provider, chain) observation window's success/error
// counts.
type Sample struct {
	Provider provider.Kind
	Chain    chain.ID
	Success  float64
	Errors   float64
}

// QueryFunc fetches the current window's samples. Production code uses
// PrometheusQuery; tests substitute a fixed table.
type QueryFunc func(ctx context.Context) ([]Sample, error)

// Updater runs the named "bounded success-ratio with probing floor"
// scoring policy on a fixed tick:
//
//	score = clamp(round(maxWeight * success / max(success+errors, 1)), floor, maxWeight)
//
// floor is 0 for a pair never observed this window (holds its current
// weight unchanged), 1 otherwise, or 0 if the pair has been all-error for
// GraceTicks consecutive ticks in a row (lets a truly dead provider drop
// out of rotation instead of taking a trickle of probe traffic forever).
type Updater struct {
	table      *weight.Table
	query      QueryFunc
	metrics    metrics.Sink
	log        *zap.Logger
	interval   time.Duration
	maxWeight  uint32
	graceTicks int

	allErrorStreak map[streakKey]int
}

type streakKey struct {
	provider provider.Kind
	chain    chain.ID
}

// New returns an Updater. maxWeight bounds every cell's score; graceTicks
// is the number of consecutive all-error ticks before a pair's floor
// drops from 1 to 0.
func New(table *weight.Table, query QueryFunc, sink metrics.Sink, log *zap.Logger, interval time.Duration, maxWeight uint32, graceTicks int) *Updater {
	return &Updater{
		table:          table,
		query:          query,
		metrics:        sink,
		log:            log,
		interval:       interval,
		maxWeight:      maxWeight,
		graceTicks:     graceTicks,
		allErrorStreak: make(map[streakKey]int),
	}
}

// Run blocks, ticking every interval until ctx is cancelled. Each tick's
// failures are logged and skipped; a bad tick never panics the loop.
func (u *Updater) Run(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := u.Tick(ctx); err != nil {
				u.log.Warn("weightupdater: tick failed", zap.Error(err))
			}
		}
	}
}

// Tick runs one scoring pass immediately, querying the current window and
// writing every observed pair's new weight. Exported so tests can drive
// the scoring policy without waiting on the ticker.
func (u *Updater) Tick(ctx context.Context) error {
	samples, err := u.query(ctx)
	if err != nil {
		return fmt.Errorf("weightupdater: query: %w", err)
	}

	seen := make(map[streakKey]bool, len(samples))
	for _, s := range samples {
		key := streakKey{provider: s.Provider, chain: s.Chain}
		seen[key] = true

		cell, ok := u.table.Find(s.Provider, s.Chain)
		if !ok {
			continue // topology is immutable; an unregistered pair is ignored
		}

		total := s.Success + s.Errors
		if total == 0 {
			continue // never observed this window, hold current weight
		}

		if s.Success == 0 {
			u.allErrorStreak[key]++
		} else {
			u.allErrorStreak[key] = 0
		}

		floor := uint32(1)
		if u.allErrorStreak[key] >= u.graceTicks {
			floor = 0
		}

		score := uint32(math.Round(float64(u.maxWeight) * s.Success / total))
		if score < floor {
			score = floor
		}
		if score > u.maxWeight {
			score = u.maxWeight
		}

		cell.Store(score)
		u.metrics.SetProviderWeight(string(s.Provider), string(s.Chain), score)
	}

	for key := range u.allErrorStreak {
		if !seen[key] {
			u.allErrorStreak[key] = 0
		}
	}
	return nil
}

// PrometheusQuery queries a Prometheus HTTP API instant query endpoint for
// provider_status_code_counter, aggregated over window, and retries
// transient failures with an exponential backoff.
func PrometheusQuery(baseURL string, window time.Duration, client *http.Client) QueryFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) ([]Sample, error) {
		query := fmt.Sprintf("increase(provider_status_code_counter[%s])", window)
		reqURL := fmt.Sprintf("%s/api/v1/query?query=%s", baseURL, url.QueryEscape(query))

		var result promResult
		op := func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			resp, err := client.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 {
				return fmt.Errorf("prometheus: status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return backoff.Permanent(fmt.Errorf("prometheus: status %d: %s", resp.StatusCode, body))
			}
			return json.NewDecoder(resp.Body).Decode(&result)
		}

		bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
			return nil, err
		}
		return result.toSamples(), nil
	}
}

// promResult mirrors the subset of Prometheus's instant-query response
// this updater consumes: a vector of {metric labels, [timestamp, value]}.
type promResult struct {
	Data struct {
		Result []struct {
			Metric struct {
				Provider string `json:"provider"`
				Chain    string `json:"chain"`
				Status   string `json:"status"`
			} `json:"metric"`
			Value [2]any `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

func (r promResult) toSamples() []Sample {
	agg := make(map[streakKey]*Sample)
	for _, row := range r.Data.Result {
		key := streakKey{provider: provider.Kind(row.Metric.Provider), chain: chain.ID(row.Metric.Chain)}
		s, ok := agg[key]
		if !ok {
			s = &Sample{Provider: key.provider, Chain: key.chain}
			agg[key] = s
		}

		v := 0.0
		if len(row.Value) == 2 {
			if str, ok := row.Value[1].(string); ok {
				fmt.Sscanf(str, "%f", &v)
			}
		}

		if isSuccessStatus(row.Metric.Status) {
			s.Success += v
		} else {
			s.Errors += v
		}
	}

	out := make([]Sample, 0, len(agg))
	for _, s := range agg {
		out = append(out, *s)
	}
	return out
}

func isSuccessStatus(status string) bool {
	return len(status) == 3 && status[0] == '2'
}
