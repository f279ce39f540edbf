package timestamp

import (
	"fmt"
	"math/bits"

	"github.com/gogo/protobuf/proto"
	"github.com/gogo/protobuf/types"
	"github.com/gwos/tstamp/errors"
)

const nanosPerSecond = 1_000_000_000

// ToProto returns t as google.protobuf.Duration message
func (t Base[R, P]) ToProto() *types.Duration {
	per := uint64(perSecond[P]())
	mag := uint64(int64(t.ticks))
	if t.ticks < 0 {
		mag = uint64(-(int64(t.ticks) + 1)) + 1
	}
	sec, rem := mag/per, mag%per
	hi, lo := bits.Mul64(rem, nanosPerSecond)
	nanos, _ := bits.Div64(hi, lo, per)
	if t.ticks < 0 {
		return &types.Duration{Seconds: -int64(sec), Nanos: -int32(nanos)}
	}
	return &types.Duration{Seconds: int64(sec), Nanos: int32(nanos)}
}

// FromProto sets t from google.protobuf.Duration message truncating to the tick size
func (t *Base[R, P]) FromProto(d *types.Duration) error {
	if d == nil {
		return fmt.Errorf("%w: nil duration", errors.ErrParse)
	}
	if d.Nanos <= -nanosPerSecond || d.Nanos >= nanosPerSecond {
		return fmt.Errorf("%w: %v", errors.ErrFormat, d)
	}
	if d.Seconds < 0 || d.Nanos < 0 {
		return fmt.Errorf("%w: %v", errors.ErrNegativeTime, d)
	}
	per := uint64(perSecond[P]())
	limit := uint64(MaxTicks[R]())
	overflow := fmt.Errorf("%w: %v", errors.ErrOverflow, d)

	hi, ticks := bits.Mul64(uint64(d.Seconds), per)
	if hi != 0 {
		return overflow
	}
	frac, _ := rescale(uint64(d.Nanos), nanosPerSecond, per)
	ticks, carry := bits.Add64(ticks, frac, 0)
	if carry != 0 || ticks > limit {
		return overflow
	}
	t.ticks = R(ticks)
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler interface
// with google.protobuf.Duration wire format
func (t Base[R, P]) MarshalBinary() ([]byte, error) {
	return proto.Marshal(t.ToProto())
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface
func (t *Base[R, P]) UnmarshalBinary(data []byte) error {
	var d types.Duration
	if err := proto.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrParse, err)
	}
	return t.FromProto(&d)
}
