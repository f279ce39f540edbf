package timestamp

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/gwos/tstamp/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_String(t *testing.T) {
	tests := []struct {
		name  string
		ticks int64
		want  string
	}{
		{"zero", 0, "000000.000000"},
		{"one microsecond", 1, "000000.000001"},
		{"one second", 1_000_000, "000001.000000"},
		{"full", 123456_654321, "123456.654321"},
		{"wide seconds", 1234567_000001, "1234567.000001"},
		{"max", math.MaxInt64, "9223372036854.775807"},
		{"negative", -1_500_000, "-000001.500000"},
		{"min", math.MinInt64, "-9223372036854.775808"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := New(tt.ticks)
			assert.Equal(t, tt.want, ts.String())
			assert.Equal(t, tt.want, fmt.Sprint(ts))
			assert.Equal(t, "x="+tt.want, string(ts.AppendFormat([]byte("x="))))
		})
	}
}

func TestTimestamp_StringPeriods(t *testing.T) {
	assert.Equal(t, "000001.500000", Of[int64, Milli](1_500).String())
	assert.Equal(t, "000001.000001", Of[int64, Nano](1_000_001_999).String())
	assert.Equal(t, "000000.000127", Of[int8, Micro](127).String())
}

func TestTimestamp_FromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		strict  bool
		want    int64
		wantErr func(error) bool
	}{
		{"strict", "123456.789012", true, 123456_789012, nil},
		{"strict zero", "000000.000000", true, 0, nil},
		{"strict short seconds", "12345.678901", true, 0, errors.IsErrorFormat},
		{"strict short fraction", "123456.78901", true, 0, errors.IsErrorFormat},
		{"strict wide seconds", "1234567.000000", true, 0, errors.IsErrorFormat},
		{"strict no separator", "123456789012", true, 0, errors.IsErrorFormat},
		{"strict leading space", " 123456.789012", true, 0, errors.IsErrorFormat},
		{"strict trailing newline", "123456.789012\n", true, 0, errors.IsErrorFormat},
		{"strict sign", "-23456.789012", true, 0, errors.IsErrorFormat},
		{"relaxed integer", "42", false, 42_000_000, nil},
		{"relaxed decimal", "123.45", false, 123_450_000, nil},
		{"relaxed leading dot", ".5", false, 500_000, nil},
		{"relaxed trailing dot", "7.", false, 7_000_000, nil},
		{"relaxed plus", "+1.25", false, 1_250_000, nil},
		{"relaxed truncates", "1.9999995", false, 1_999_999, nil},
		{"relaxed wide", "1234567.000001", false, 1234567_000001, nil},
		{"relaxed exponent", "1.5e3", false, 1_500_000_000, nil},
		{"relaxed small exponent", "25e-6", false, 25, nil},
		{"relaxed max", "9223372036854.775807", false, math.MaxInt64, nil},
		{"relaxed overflow", "9223372036854.775808", false, 0, errors.IsErrorOverflow},
		{"relaxed huge", "99999999999999999999999", false, 0, errors.IsErrorOverflow},
		{"relaxed exponent overflow", "1e300", false, 0, errors.IsErrorOverflow},
		{"relaxed out of range", "1e400", false, 0, errors.IsErrorOverflow},
		{"relaxed negative", "-0.001", false, 0, errors.IsErrorNegativeTime},
		{"relaxed negative zero", "-0", false, 0, nil},
		{"relaxed nan", "NaN", false, 0, errors.IsErrorParse},
		{"relaxed garbage", "12abc", false, 0, errors.IsErrorParse},
		{"relaxed empty", "", false, 0, errors.IsErrorParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := New(77)
			err := ts.FromString(tt.input, tt.strict)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				assert.Equal(t, int64(77), ts.Ticks(), "unchanged on error")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ts.Ticks())
		})
	}
}

func TestTimestamp_FromStringErrorContext(t *testing.T) {
	_, err := ParseStrict("12345.678901")
	assert.ErrorContains(t, err, `"12345.678901"`)
	_, err = Parse("12abc")
	assert.ErrorContains(t, err, `"12abc"`)
}

func TestTimestamp_RelaxedEqualsSeconds(t *testing.T) {
	a, err := Parse("42")
	require.NoError(t, err)
	b, err := FromSeconds(42.0)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestTimestamp_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	values := []int64{0, 1, 999_999, 1_000_000, 123456_789012, 999999_999999, 1_000000_000000, math.MaxInt64 - 1, math.MaxInt64}
	for i := 0; i < 10_000; i++ {
		values = append(values, rnd.Int63n(1_000000_000000), rnd.Int63())
	}
	for _, v := range values {
		s := New(v).String()
		got, err := Parse(s)
		require.NoError(t, err, s)
		require.Equal(t, v, got.Ticks(), s)
		if len(s) == StringLen {
			got, err = ParseStrict(s)
			require.NoError(t, err, s)
			require.Equal(t, v, got.Ticks(), s)
		}
	}
}

func TestTimestamp_FromStringPeriods(t *testing.T) {
	ms := Of[int64, Milli](0)
	assert.NoError(t, ms.FromString("000001.999999", true))
	assert.Equal(t, int64(1_999), ms.Ticks())

	ns := Of[int64, Nano](0)
	assert.NoError(t, ns.FromString("000001.000001", true))
	assert.Equal(t, int64(1_000_001_000), ns.Ticks())

	narrow := Of[int8, Micro](0)
	assert.NoError(t, narrow.FromString("000000.000127", true))
	assert.Equal(t, int8(127), narrow.Ticks())
	assert.True(t, errors.IsErrorOverflow(narrow.FromString("000000.000128", true)))
	assert.True(t, errors.IsErrorOverflow(narrow.FromString("1", false)))
}

func TestTimestamp_Seconds(t *testing.T) {
	assert.Equal(t, 0.0, New(0).Seconds())
	assert.Equal(t, 1.5, New(1_500_000).Seconds())
	assert.Equal(t, 0.000001, New(1).Seconds())
	assert.Equal(t, 1.5, Of[int32, Milli](1_500).Seconds())
}

func TestTimestamp_FromSeconds(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    int64
		wantErr func(error) bool
	}{
		{"zero", 0, 0, nil},
		{"one and half", 1.5, 1_500_000, nil},
		{"truncates", 1.9999995, 1_999_999, nil},
		{"microsecond", 0.000001, 1, nil},
		{"large", 1e12, 1e18, nil},
		{"negative", -0.001, 0, errors.IsErrorNegativeTime},
		{"negative inf", math.Inf(-1), 0, errors.IsErrorNegativeTime},
		{"overflow", 1e13, 0, errors.IsErrorOverflow},
		{"limit", float64(math.MaxInt64) / 1e6, 0, errors.IsErrorOverflow},
		{"inf", math.Inf(1), 0, errors.IsErrorOverflow},
		{"nan", math.NaN(), 0, errors.IsErrorParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := ts.FromSeconds(tt.seconds)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				assert.Equal(t, int64(0), ts.Ticks())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ts.Ticks())
		})
	}
}

func TestTimestamp_SecondsIdempotence(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	/* above 2^52 microseconds neighbour ticks share the same float seconds */
	for i := 0; i < 10_000; i++ {
		v := rnd.Int63n(1 << 52)
		ts, err := FromSeconds(New(v).Seconds())
		require.NoError(t, err)
		require.Equal(t, v, ts.Ticks())
	}
	for _, v := range []int64{0, 1, 1_500_000, 123456_789012} {
		ts, err := FromSeconds(New(v).Seconds())
		require.NoError(t, err)
		assert.Equal(t, v, ts.Ticks())
	}
}
