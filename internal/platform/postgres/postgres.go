// Package postgres opens the shared database handle and classifies driver errors.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "memberpanel/pkg/domain"
)

const uniqueViolation = pq.ErrorCode("23505")

// Open connects with lib/pq and verifies the connection before returning.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, errors.New("database url is required")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// IsUniqueViolation reports whether err is a unique constraint violation, optionally
// restricted to a named constraint.
func IsUniqueViolation(err error, constraint ...string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if pqErr.Constraint == c {
			return true
		}
	}
	return false
}

// AdvisoryKey maps a lock key onto the bigint space of pg_advisory_xact_lock.
func AdvisoryKey(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// NullableUUID turns an optional typed id into a query argument (NULL when nil).
func NullableUUID[T ~[16]byte](v *T) any {
	if v == nil {
		return nil
	}
	return uuid.UUID(*v)
}

// GeoScopeFromNull builds a scope from nullable province and district columns.
func GeoScopeFromNull(province, district uuid.NullUUID) id.GeoScope {
	var g id.GeoScope
	if province.Valid {
		p := id.ProvinceID(province.UUID)
		g.ProvinceID = &p
	}
	if district.Valid {
		d := id.DistrictID(district.UUID)
		g.DistrictID = &d
	}
	return g
}
