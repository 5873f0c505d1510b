// Package numerator provides Postgres-backed document numbering.
package numerator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	core "factura/internal/core/numerator"
)

// Querier is the subset of pgx used by the service.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierProvider returns the querier for ctx: the active transaction when
// there is one, the pool otherwise.
type QuerierProvider func(ctx context.Context) Querier

type cachedRange struct {
	current int64
	max     int64
}

// Service implements core.Generator on the sys_sequences table.
//
// Strict numbers are taken through the context querier, so they roll back
// with the document that consumed them. Cached ranges are reserved through
// the pool: a reservation that rolled back would hand out the same numbers twice.
type Service struct {
	strict QuerierProvider
	ranges Querier

	cacheMu sync.Mutex
	cache   map[string]*cachedRange
}

// New creates a service that uses q for everything. Tests and tools.
func New(q Querier) *Service {
	return &Service{
		strict: func(context.Context) Querier { return q },
		ranges: q,
		cache:  make(map[string]*cachedRange),
	}
}

// NewWithProvider creates a service taking strict numbers from the context
// querier and reserving cached ranges on pool.
func NewWithProvider(provider QuerierProvider, pool Querier) *Service {
	return &Service{
		strict: provider,
		ranges: pool,
		cache:  make(map[string]*cachedRange),
	}
}

// GetNextNumber generates the next document code.
// Pattern: PREFIX[-SERIES]-YEAR-NNNNN (e.g. FAC-A-2026-00001).
func (s *Service) GetNextNumber(ctx context.Context, cfg core.Config, opts *core.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if opts == nil {
		opts = core.StrictOptions()
	}

	key := buildKey(cfg, period)

	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case core.StrategyCached:
		num, err = s.getNextCached(ctx, key, opts)
	default:
		num, err = s.getNextStrict(ctx, key)
	}
	if err != nil {
		return "", err
	}

	return formatNumber(cfg, period, num), nil
}

// getNextStrict bumps the sequence by one with UPSERT + RETURNING.
func (s *Service) getNextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.strict(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

// getNextCached serves numbers from memory, reserving a new range when the
// current one is exhausted. current_val holds the last reserved value.
func (s *Service) getNextCached(ctx context.Context, key string, opts *core.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, ok := s.cache[key]
	if !ok {
		rng = &cachedRange{}
		s.cache[key] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50
		}

		var newMax int64
		err := s.ranges.QueryRow(ctx, `
			INSERT INTO sys_sequences (key, current_val)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
			RETURNING current_val
		`, key, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		// Range is (newMax-size, newMax].
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber sets the last used value so the next number is value+1.
func (s *Service) SetNextNumber(ctx context.Context, cfg core.Config, period time.Time, value int64) error {
	key := buildKey(cfg, period)

	var result int64
	err := s.strict(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)

	s.cacheMu.Lock()
	delete(s.cache, key)
	s.cacheMu.Unlock()

	if err != nil {
		return fmt.Errorf("set next number: %w", err)
	}
	return nil
}

// buildKey creates the sequence key from config and period.
func buildKey(cfg core.Config, period time.Time) string {
	base := cfg.Prefix
	if cfg.Series != "" {
		base += "_" + cfg.Series
	}
	switch cfg.ResetPeriod {
	case "month":
		return base + "_" + period.Format("2006_01")
	case "year":
		return base + "_" + period.Format("2006")
	default:
		return base
	}
}

func formatNumber(cfg core.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	parts := []string{cfg.Prefix}
	if cfg.Series != "" {
		parts = append(parts, cfg.Series)
	}
	if cfg.IncludeYear {
		parts = append(parts, period.Format("2006"))
	}
	parts = append(parts, fmt.Sprintf("%0*d", padWidth, num))
	return strings.Join(parts, "-")
}

var _ core.Generator = (*Service)(nil)
