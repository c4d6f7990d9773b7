// Package postgres holds the sqlx-backed repositories for the sync pipeline's
// tables.
package postgres

import (
	"database/sql"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"

	sonic "github.com/bytedance/sonic"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/history"
	qb "github.com/ujpest-analytics/transferroom-sync/internal/platform/querybuilder"
)

const uniqueViolationCode = "23505"

func isNotFound(err error) bool {
	return crerr.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if crerr.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

func mustColumns(model any) []string {
	cols, err := qb.ModelColumns(model)
	if err != nil {
		panic(err)
	}
	return cols
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	out := v.String
	return &out
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	out := int(v.Int64)
	return &out
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	out := v.Float64
	return &out
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func boolPtr(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	out := v.Bool
	return &out
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	out := v.Time
	return &out
}

// historyJSON encodes a snapshot sequence for a JSONB column; an empty
// sequence stores NULL.
func historyJSON(snaps []history.Snapshot) (sql.NullString, error) {
	if len(snaps) == 0 {
		return sql.NullString{}, nil
	}
	encoded, err := sonic.Marshal(snaps)
	if err != nil {
		return sql.NullString{}, crerr.Wrap(err, "encode history")
	}
	return sql.NullString{String: string(encoded), Valid: true}, nil
}

func historyFromJSON(v sql.NullString) ([]history.Snapshot, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var snaps []history.Snapshot
	if err := sonic.Unmarshal([]byte(v.String), &snaps); err != nil {
		return nil, crerr.Wrap(err, "decode history")
	}
	return snaps, nil
}
