package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyScale is the currency's minor-unit precision (cents).
const moneyScale = 2

// Money is a fixed-point currency amount. Every monetary value in the system
// is represented, computed and persisted through this type; binary floating
// point never enters the money path.
type Money struct {
	dec decimal.Decimal
}

// ParseMoney parses a decimal string such as "149.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{dec: d}, nil
}

// MustMoney parses s or panics. For constants and tests.
func MustMoney(s string) Money {
	return Money{dec: decimal.RequireFromString(s)}
}

func ZeroMoney() Money {
	return Money{}
}

func (m Money) Add(o Money) Money {
	return Money{dec: m.dec.Add(o.dec)}
}

func (m Money) Sub(o Money) Money {
	return Money{dec: m.dec.Sub(o.dec)}
}

// MulInt multiplies by an integer quantity. Exact given cent-precision input,
// so no rounding is applied.
func (m Money) MulInt(q int) Money {
	return Money{dec: m.dec.Mul(decimal.NewFromInt(int64(q)))}
}

// MulRate applies a fractional rate such as a tax or discount rate. The result
// is unrounded; callers round explicitly.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{dec: m.dec.Mul(rate)}
}

// Round rounds half-up to cent precision. Amounts here are non-negative, so
// decimal's half-away-from-zero rounding is exactly half-up.
func (m Money) Round() Money {
	return Money{dec: m.dec.Round(moneyScale)}
}

func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

func (m Money) Equal(o Money) bool {
	return m.dec.Equal(o.dec)
}

func (m Money) Decimal() decimal.Decimal {
	return m.dec
}

// String renders with exactly two decimal places, e.g. "322.92".
func (m Money) String() string {
	return m.dec.StringFixed(moneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores Money as a DECIMAL(12,2) string.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads a DECIMAL column; the MySQL driver yields []byte.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	case int64:
		m.dec = decimal.NewFromInt(v)
		return nil
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
}

func (m *Money) scanString(s string) error {
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
