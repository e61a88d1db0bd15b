package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// SavepointTx runs fn inside a savepoint of tx. Without tx it opens a new
// transaction.
func (s *Store) SavepointTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx == nil {
		return s.InTx(ctx, fn)
	}
	return tx.WithContext(ctx).Transaction(fn)
}

func (s *Store) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func first[T any](query *gorm.DB) (*T, error) {
	var item T
	err := query.First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func applySeries(query *gorm.DB, timeColumn string, params repository.ListSeriesParams) *gorm.DB {
	if code := strings.TrimSpace(params.SensorCode); code != "" {
		query = query.Where("mas_sensor_code = ?", code)
	}
	if params.From != nil {
		query = query.Where(timeColumn+" >= ?", params.From.UTC())
	}
	if params.To != nil {
		query = query.Where(timeColumn+" <= ?", params.To.UTC())
	}
	return query
}

func applyRange(query *gorm.DB, timeColumn string, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where(timeColumn+" >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where(timeColumn+" <= ?", to.UTC())
	}
	return query
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
