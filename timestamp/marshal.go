package timestamp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/gwos/tstamp/errors"
	"gopkg.in/yaml.v3"
)

// MarshalText implements encoding.TextMarshaler interface
func (t Base[R, P]) MarshalText() ([]byte, error) {
	return t.AppendFormat(make([]byte, 0, StringLen)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
// Accepts any float literal as the canonical form widens past 6 digits of seconds.
func (t *Base[R, P]) UnmarshalText(input []byte) error {
	return t.FromString(string(input), false)
}

// MarshalJSON implements json.Marshaler interface
func (t Base[R, P]) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, StringLen+2)
	buf = append(buf, '"')
	buf = t.AppendFormat(buf)
	return append(buf, '"'), nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
// Accepts quoted text form and bare number of seconds.
func (t *Base[R, P]) UnmarshalJSON(input []byte) error {
	input = bytes.TrimSpace(input)
	if bytes.Equal(input, []byte("null")) {
		return nil
	}
	if len(input) > 0 && input[0] == '"' {
		var s string
		if err := json.Unmarshal(input, &s); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrParse, err)
		}
		return t.FromString(s, false)
	}
	return t.FromString(string(input), false)
}

// MarshalYAML implements yaml.Marshaler interface
func (t Base[R, P]) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler interface
func (t *Base[R, P]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected scalar", errors.ErrParse, value.Line)
	}
	if value.Tag == "!!null" {
		return nil
	}
	return t.FromString(value.Value, false)
}

// Set implements pflag.Value interface
func (t *Base[R, P]) Set(s string) error {
	return t.FromString(s, false)
}

// Type implements pflag.Value interface
func (t *Base[R, P]) Type() string {
	return "timestamp"
}

// Duration returns t as time.Duration.
// Fails with ErrOverflow above ~292 years.
func (t Base[R, P]) Duration() (time.Duration, error) {
	if t.ticks < 0 {
		return 0, fmt.Errorf("%w: %v", errors.ErrNegativeTime, t)
	}
	ns, ok := rescale(uint64(t.ticks), uint64(perSecond[P]()), uint64(time.Second))
	if !ok || ns > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v", errors.ErrOverflow, t)
	}
	return time.Duration(ns), nil
}

// FromDuration sets t from time.Duration truncating to the tick size
func (t *Base[R, P]) FromDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %v", errors.ErrNegativeTime, d)
	}
	ticks, ok := rescale(uint64(d), uint64(time.Second), uint64(perSecond[P]()))
	if !ok || ticks > uint64(MaxTicks[R]()) {
		return fmt.Errorf("%w: %v", errors.ErrOverflow, d)
	}
	t.ticks = R(ticks)
	return nil
}

// FromDuration returns Timestamp of time.Duration
func FromDuration(d time.Duration) (Timestamp, error) {
	var t Timestamp
	err := t.FromDuration(d)
	return t, err
}

// rescale returns v*to/from truncated, reports false if the result overflows uint64
func rescale(v, from, to uint64) (uint64, bool) {
	hi, lo := bits.Mul64(v, to)
	if hi >= from {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, from)
	return q, true
}
