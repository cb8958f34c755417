package repository

import (
	"database/sql"
	"math"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
)

// NullFloat stores NaN and infinities as NULL
func NullFloat(f model.Float) sql.NullFloat64 {
	if !f.Valid() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(f), Valid: true}
}

// FloatOf reads NULL back as NaN
func FloatOf(n sql.NullFloat64) model.Float {
	if !n.Valid {
		return model.NaN()
	}
	return model.Float(n.Float64)
}

// NullInt stores whole number values, NULL for NaN
func NullInt(f model.Float) sql.NullInt64 {
	if !f.Valid() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(math.Round(float64(f))), Valid: true}
}

func FloatOfInt(n sql.NullInt64) model.Float {
	if !n.Valid {
		return model.NaN()
	}
	return model.Float(n.Int64)
}

func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
