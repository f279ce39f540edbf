package timestamp

import (
	"fmt"
	"math"
	"math/bits"
	"regexp"
	"strconv"

	"github.com/gwos/tstamp/errors"
)

// The text form is always 6.6 digits of seconds and microseconds,
// no matter what the period is.
const (
	StringDecimal = 6
	StringLen     = StringDecimal + 1 + StringDecimal

	microPerSecond = 1_000_000
)

var (
	strictRe  = regexp.MustCompile(`^\d{6}\.\d{6}$`)
	decimalRe = regexp.MustCompile(`^\+?(\d+)(?:\.(\d*))?$|^\+?\.(\d+)$`)
)

// String returns the canonical text form "SSSSSS.FFFFFF".
// Seconds wider than 6 digits are kept as is, fraction is always 6 digits.
func (t Base[R, P]) String() string {
	return string(t.AppendFormat(make([]byte, 0, StringLen+1)))
}

// AppendFormat appends the canonical text form to dst
func (t Base[R, P]) AppendFormat(dst []byte) []byte {
	v := int64(t.ticks)
	if v == 0 {
		return append(dst, "000000.000000"...)
	}
	/* negative values are out of contract, rendered with sign for diagnostics only */
	mag := uint64(v)
	if v < 0 {
		dst = append(dst, '-')
		mag = uint64(-(v + 1)) + 1
	}
	per := uint64(perSecond[P]())
	sec, rem := mag/per, mag%per
	hi, lo := bits.Mul64(rem, microPerSecond)
	frac, _ := bits.Div64(hi, lo, per)

	dst = appendPadded(dst, sec)
	dst = append(dst, '.')
	return appendPadded(dst, frac)
}

func appendPadded(dst []byte, v uint64) []byte {
	var buf [20]byte
	b := strconv.AppendUint(buf[:0], v, 10)
	for i := len(b); i < StringDecimal; i++ {
		dst = append(dst, '0')
	}
	return append(dst, b...)
}

// FromString sets t from a text form in seconds.
// With strict validation the input must be "######.######",
// otherwise any float literal is accepted.
// On error t is unchanged.
func (t *Base[R, P]) FromString(s string, strict bool) error {
	if strict {
		if !strictRe.MatchString(s) {
			return fmt.Errorf("%w: %q", errors.ErrFormat, s)
		}
		return t.fromDecimal(s, s[:StringDecimal], s[StringDecimal+1:])
	}
	if m := decimalRe.FindStringSubmatch(s); m != nil {
		if m[3] != "" {
			return t.fromDecimal(s, "0", m[3])
		}
		return t.fromDecimal(s, m[1], m[2])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !isRangeErr(err) {
		return fmt.Errorf("%w: %q: %w", errors.ErrParse, s, err)
	}
	/* out of range values are +-Inf or rounded to zero here, FromSeconds decides */
	return t.FromSeconds(f)
}

func isRangeErr(err error) bool {
	numErr, ok := err.(*strconv.NumError)
	return ok && numErr.Err == strconv.ErrRange
}

// fromDecimal converts digits of whole and fractional seconds without
// going through float, so every canonical string decodes to its exact ticks.
// The fraction is truncated to the tick size as FromSeconds does.
func (t *Base[R, P]) fromDecimal(s, whole, fraction string) error {
	per := uint64(perSecond[P]())
	scale, ok := decimalDigits(per)
	if !ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", errors.ErrParse, s, err)
		}
		return t.FromSeconds(f)
	}
	overflow := fmt.Errorf("%w: %q", errors.ErrOverflow, s)
	limit := uint64(MaxTicks[R]())

	var sec uint64
	for i := 0; i < len(whole); i++ {
		d := uint64(whole[i] - '0')
		if sec > (limit-d)/10 {
			return overflow
		}
		sec = sec*10 + d
	}
	hi, ticks := bits.Mul64(sec, per)
	if hi != 0 {
		return overflow
	}
	var frac uint64
	for i := 0; i < scale; i++ {
		frac *= 10
		if i < len(fraction) {
			frac += uint64(fraction[i] - '0')
		}
	}
	ticks, carry := bits.Add64(ticks, frac, 0)
	if carry != 0 || ticks > limit {
		return overflow
	}
	t.ticks = R(ticks)
	return nil
}

// decimalDigits returns k for per == 10^k
func decimalDigits(per uint64) (int, bool) {
	k := 0
	for ; per > 1; per /= 10 {
		if per%10 != 0 {
			return 0, false
		}
		k++
	}
	return k, per == 1
}

// Seconds returns t as floating point seconds.
// Precision is lost for large values: with microsecond ticks
// FromSeconds(t.Seconds()) gives t back exactly below 2^52 ticks only.
func (t Base[R, P]) Seconds() float64 {
	return float64(t.ticks) / float64(perSecond[P]())
}

// FromSeconds sets t from floating point seconds truncating toward zero.
// A value which is the nearest float to a whole tick count gives that count.
// On error t is unchanged.
func (t *Base[R, P]) FromSeconds(seconds float64) error {
	if math.IsNaN(seconds) {
		return fmt.Errorf("%w: %v", errors.ErrParse, seconds)
	}
	if seconds < 0.0 {
		return fmt.Errorf("%w: %v", errors.ErrNegativeTime, seconds)
	}
	per := float64(perSecond[P]())
	limit := float64(MaxTicks[R]())
	if seconds > limit/per {
		return fmt.Errorf("%w: %v seconds", errors.ErrOverflow, seconds)
	}
	/* float64(max int64) rounds up to 2^63, so compare with limit+1 */
	ticks := math.Trunc(seconds * per)
	if ticks >= limit+1 {
		return fmt.Errorf("%w: %v seconds", errors.ErrOverflow, seconds)
	}
	/* the float nearest to a tick boundary stands for that boundary */
	if next := ticks + 1; next < 1<<53 && next < limit+1 && next/per == seconds {
		ticks = next
	}
	t.ticks = R(ticks)
	return nil
}

// Parse returns Timestamp of any float literal in seconds
func Parse(s string) (Timestamp, error) {
	var t Timestamp
	err := t.FromString(s, false)
	return t, err
}

// ParseStrict returns Timestamp of "######.######" text
func ParseStrict(s string) (Timestamp, error) {
	var t Timestamp
	err := t.FromString(s, true)
	return t, err
}

// FromSeconds returns Timestamp of floating point seconds
func FromSeconds(seconds float64) (Timestamp, error) {
	var t Timestamp
	err := t.FromSeconds(seconds)
	return t, err
}
