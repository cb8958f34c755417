package model

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	sixty = decimal.NewFromInt(60)
	ten   = decimal.NewFromInt(10)
)

// FormatLapTime renders seconds as m:ss.mmm, "-" for unknown values.
func FormatLapTime(sec float64) string {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec <= 0 {
		return "-"
	}
	d := decimal.NewFromFloat(sec).Round(3)
	minutes := d.Div(sixty).Floor()
	rest := d.Sub(minutes.Mul(sixty))
	if minutes.IsZero() {
		return rest.StringFixed(3)
	}
	secs := rest.StringFixed(3)
	if rest.LessThan(ten) {
		secs = "0" + secs
	}
	return fmt.Sprintf("%s:%s", minutes.String(), secs)
}

// FormatSpeed renders km/h with one decimal, "-" for unknown values.
func FormatSpeed(kmh float64) string {
	if math.IsNaN(kmh) || math.IsInf(kmh, 0) || kmh <= 0 {
		return "-"
	}
	return decimal.NewFromFloat(kmh).StringFixed(1)
}
