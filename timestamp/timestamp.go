// Package timestamp implements a fixed-point elapsed time value.
//
// A timestamp holds an integral count of ticks, one microsecond each by default,
// so arithmetic is exact and the text form is stable:
//
//	"123456.654321" i.e. \d{6}\.\d{6}
//
// Floating point appears only at the Seconds/FromSeconds boundary.
// Negative tick counts are outside of the supported range.
package timestamp

import (
	"fmt"
	"unsafe"

	"github.com/gwos/tstamp/errors"
)

// Rep defines the integer representation of a tick count
type Rep interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Period defines the tick size as a number of ticks per second
type Period interface {
	PerSecond() int64
}

// Micro defines microsecond ticks, the default period
type Micro struct{}

// PerSecond implements Period interface
func (Micro) PerSecond() int64 { return 1_000_000 }

// Milli defines millisecond ticks
type Milli struct{}

// PerSecond implements Period interface
func (Milli) PerSecond() int64 { return 1_000 }

// Nano defines nanosecond ticks
type Nano struct{}

// PerSecond implements Period interface
func (Nano) PerSecond() int64 { return 1_000_000_000 }

// Base is a non-negative elapsed time counted in P ticks stored as R.
// The zero value is zero time.
type Base[R Rep, P Period] struct {
	ticks R
}

// Timestamp is the default instantiation: int64 count of microseconds
type Timestamp = Base[int64, Micro]

// New returns Timestamp of raw microsecond ticks.
// Note, the argument is ticks, not seconds: New(1) is one microsecond.
func New(ticks int64) Timestamp {
	return Timestamp{ticks: ticks}
}

// Of returns a timestamp of raw ticks for any instantiation
func Of[R Rep, P Period](ticks R) Base[R, P] {
	return Base[R, P]{ticks: ticks}
}

// MaxTicks returns the largest value of R
func MaxTicks[R Rep]() R {
	var zero R
	bits := unsafe.Sizeof(zero) * 8
	return R(uint64(1)<<(bits-1) - 1)
}

func perSecond[P Period]() int64 {
	var p P
	return p.PerSecond()
}

// Ticks returns raw tick count
func (t Base[R, P]) Ticks() R {
	return t.ticks
}

// IsZero reports whether t is zero time
func (t Base[R, P]) IsZero() bool {
	return t.ticks == 0
}

// Compare returns -1, 0 or +1 as t is less, equal or greater than u
func (t Base[R, P]) Compare(u Base[R, P]) int {
	switch {
	case t.ticks < u.ticks:
		return -1
	case t.ticks > u.ticks:
		return 1
	}
	return 0
}

// Add adds u to t.
// Fails with ErrOverflow if the sum exceeds MaxTicks, t is unchanged then.
func (t *Base[R, P]) Add(u Base[R, P]) error {
	/* overflow when a+b>max, i.e. a>max-b */
	if u.ticks > 0 && t.ticks > MaxTicks[R]()-u.ticks {
		return fmt.Errorf("%w: %v + %v", errors.ErrOverflow, *t, u)
	}
	t.ticks += u.ticks
	return nil
}

// Sub subtracts u from t saturating at zero
func (t *Base[R, P]) Sub(u Base[R, P]) {
	if u.ticks > t.ticks {
		t.ticks = 0
		return
	}
	t.ticks -= u.ticks
}

// Plus returns t+u, see Add
func (t Base[R, P]) Plus(u Base[R, P]) (Base[R, P], error) {
	err := t.Add(u)
	return t, err
}

// Minus returns t-u saturated at zero, see Sub
func (t Base[R, P]) Minus(u Base[R, P]) Base[R, P] {
	t.Sub(u)
	return t
}
