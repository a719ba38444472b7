package units

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Weight represents a transaction weight in weight units (wu), the
// measure defined by BIP141 under which one virtual byte equals
// [WitnessScaleFactor] weight units.
// The zero value corresponds to a weight of 0 wu.
// Weight is designed to be safe for concurrent use by multiple goroutines.
type Weight struct {
	wu uint64 // weight units
}

const (
	// WitnessScaleFactor is the number of weight units in one virtual byte.
	WitnessScaleFactor = 4

	// wuPerKWU is the number of weight units in one kilo weight unit.
	wuPerKWU = 1000

	// MaxBlockWeight is the maximum weight allowed in a block by the
	// consensus rules.
	MaxBlockWeight = 4_000_000
)

var (
	// WeightZero is a weight of 0 wu.
	WeightZero = Weight{}

	// MaxWeight is the maximum representable weight.
	// It is a sentinel; weights anywhere near it cannot occur in a valid
	// transaction.
	MaxWeight = Weight{math.MaxUint64}
)

// NewWeight returns a weight of wu weight units.
func NewWeight(wu uint64) Weight {
	return Weight{wu: wu}
}

// NewWeightFromVB converts a size in virtual bytes to a weight.
// It returns false if the equivalent weight-unit value does not fit in
// 64 bits.
func NewWeightFromVB(vb uint64) (Weight, bool) {
	if vb > math.MaxUint64/WitnessScaleFactor {
		return Weight{}, false
	}
	return Weight{vb * WitnessScaleFactor}, true
}

// MustNewWeightFromVB is like [NewWeightFromVB] but panics if the
// equivalent weight-unit value does not fit in 64 bits.
// It simplifies safe initialization of global variables holding weights.
func MustNewWeightFromVB(vb uint64) Weight {
	w, ok := NewWeightFromVB(vb)
	if !ok {
		panic(fmt.Sprintf("NewWeightFromVB(%v) failed: overflow", vb))
	}
	return w
}

// NewWeightFromKWU converts a size in kilo weight units to a weight.
// It returns false if the equivalent weight-unit value does not fit in
// 64 bits.
func NewWeightFromKWU(kwu uint64) (Weight, bool) {
	if kwu > math.MaxUint64/wuPerKWU {
		return Weight{}, false
	}
	return Weight{kwu * wuPerKWU}, true
}

// ParseWeight converts an integer string to a weight in weight units.
// The only possible failure is a malformed integer.
func ParseWeight(s string) (Weight, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Weight{}, fmt.Errorf("parsing weight: %w", err)
	}
	return Weight{v}, nil
}

// MustParseWeight is like [ParseWeight] but panics if the string cannot
// be parsed.
// It simplifies safe initialization of global variables holding weights.
func MustParseWeight(s string) Weight {
	w, err := ParseWeight(s)
	if err != nil {
		panic(fmt.Sprintf("ParseWeight(%q) failed: %v", s, err))
	}
	return w
}

// WU returns the raw weight in weight units.
func (w Weight) WU() uint64 {
	return w.wu
}

// VBFloor returns the size in virtual bytes, rounding toward zero.
// See also method [Weight.VBCeil].
func (w Weight) VBFloor() uint64 {
	return w.wu / WitnessScaleFactor
}

// VBCeil returns the size in virtual bytes, rounding away from zero.
// This is the virtual transaction size defined by BIP141: weight divided
// by four, rounded up to the next integer.
// See also method [Weight.VBFloor].
func (w Weight) VBCeil() uint64 {
	return (w.wu + WitnessScaleFactor - 1) / WitnessScaleFactor
}

// KWUFloor returns the size in kilo weight units, rounding toward zero.
func (w Weight) KWUFloor() uint64 {
	return w.wu / wuPerKWU
}

// CheckedAdd computes w + v, returning false if the sum overflows 64 bits.
func (w Weight) CheckedAdd(v Weight) (Weight, bool) {
	if w.wu > math.MaxUint64-v.wu {
		return Weight{}, false
	}
	return Weight{w.wu + v.wu}, true
}

// CheckedSub computes w - v, returning false if the difference underflows.
func (w Weight) CheckedSub(v Weight) (Weight, bool) {
	if w.wu < v.wu {
		return Weight{}, false
	}
	return Weight{w.wu - v.wu}, true
}

// CheckedMul computes w * factor, returning false if the product
// overflows 64 bits.
func (w Weight) CheckedMul(factor uint64) (Weight, bool) {
	if factor != 0 && w.wu > math.MaxUint64/factor {
		return Weight{}, false
	}
	return Weight{w.wu * factor}, true
}

// Add returns the sum of weights w and v.
// The sum wraps around on overflow; use [Weight.CheckedAdd] to detect it.
func (w Weight) Add(v Weight) Weight {
	return Weight{w.wu + v.wu}
}

// Sub returns the difference between weights w and v.
// The difference wraps around on underflow; use [Weight.CheckedSub]
// to detect it.
func (w Weight) Sub(v Weight) Weight {
	return Weight{w.wu - v.wu}
}

// MulByFeeRate returns the fee amount for weight w at fee rate r,
// rounding a fractional satoshi up so the fee computation stays
// conservative.
// It is symmetric with [FeeRate.MulByWeight].
// The product wraps around on overflow; use [FeeRate.CheckedMulByWeight]
// to detect it.
func (w Weight) MulByFeeRate(r FeeRate) Amount {
	return Amount{(r.satPerKWU*w.wu + 999) / 1000}
}

// Cmp compares weights numerically and returns:
//
//	-1 if w < v
//	 0 if w = v
//	+1 if w > v
func (w Weight) Cmp(v Weight) int {
	switch {
	case w.wu < v.wu:
		return -1
	case w.wu > v.wu:
		return 1
	}
	return 0
}

// IsZero returns:
//
//	true  if w = 0
//	false otherwise
func (w Weight) IsZero() bool {
	return w.wu == 0
}

// String implements the [fmt.Stringer] interface and returns the raw
// weight in weight units.
//
// [fmt.Stringer]: https://pkg.go.dev/fmt#Stringer
func (w Weight) String() string {
	return strconv.FormatUint(w.wu, 10)
}

// Format implements the [fmt.Formatter] interface.
// The following [format verbs] are available:
//
//	| Verb       | Example | Description      |
//	| ---------- | ------- | ---------------- |
//	| %d, %s, %v | 1000    | Weight in wu     |
//	| %q         | "1000"  | Quoted weight    |
//
// The '-' format flag can be used with all verbs.
//
// [format verbs]: https://pkg.go.dev/fmt#hdr-Printing
// [fmt.Formatter]: https://pkg.go.dev/fmt#Formatter
func (w Weight) Format(state fmt.State, verb rune) {
	formatValue(state, verb, "units.Weight", w.String())
}

// UnmarshalJSON implements the [json.Unmarshaler] interface.
// The accepted representation is a bare unsigned integer;
// a null leaves the value unchanged.
//
// [json.Unmarshaler]: https://pkg.go.dev/encoding/json#Unmarshaler
func (w *Weight) UnmarshalJSON(text []byte) error {
	if string(text) == "null" {
		return nil
	}
	v, err := parseJSONUint(text)
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Weight{}, err)
	}
	*w = Weight{v}
	return nil
}

// MarshalJSON implements the [json.Marshaler] interface.
// MarshalJSON always returns a bare unsigned integer, which round-trips
// exactly for the whole 64-bit range.
//
// [json.Marshaler]: https://pkg.go.dev/encoding/json#Marshaler
func (w Weight) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, w.wu, 10), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// See also constructor [ParseWeight].
//
// [encoding.TextUnmarshaler]: https://pkg.go.dev/encoding#TextUnmarshaler
func (w *Weight) UnmarshalText(text []byte) error {
	var err error
	*w, err = ParseWeight(string(text))
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Weight{}, err)
	}
	return nil
}

// AppendText implements the [encoding.TextAppender] interface.
//
// [encoding.TextAppender]: https://pkg.go.dev/encoding#TextAppender
func (w Weight) AppendText(text []byte) ([]byte, error) {
	return strconv.AppendUint(text, w.wu, 10), nil
}

// MarshalText implements the [encoding.TextMarshaler] interface.
// MarshalText always returns a decimal integer string.
//
// [encoding.TextMarshaler]: https://pkg.go.dev/encoding#TextMarshaler
func (w Weight) MarshalText() ([]byte, error) {
	return w.AppendText(nil)
}

// UnmarshalBinary implements the [encoding.BinaryUnmarshaler] interface.
// The accepted representation is 8 big-endian bytes.
//
// [encoding.BinaryUnmarshaler]: https://pkg.go.dev/encoding#BinaryUnmarshaler
func (w *Weight) UnmarshalBinary(data []byte) error {
	v, err := parseBinaryUint(data)
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Weight{}, err)
	}
	*w = Weight{v}
	return nil
}

// AppendBinary implements the [encoding.BinaryAppender] interface.
//
// [encoding.BinaryAppender]: https://pkg.go.dev/encoding#BinaryAppender
func (w Weight) AppendBinary(data []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint64(data, w.wu), nil
}

// MarshalBinary implements the [encoding.BinaryMarshaler] interface.
// MarshalBinary always returns 8 big-endian bytes.
//
// [encoding.BinaryMarshaler]: https://pkg.go.dev/encoding#BinaryMarshaler
func (w Weight) MarshalBinary() ([]byte, error) {
	return w.AppendBinary(nil)
}

// Scan implements the [sql.Scanner] interface.
//
// [sql.Scanner]: https://pkg.go.dev/database/sql#Scanner
func (w *Weight) Scan(value any) error {
	v, err := scanUint(value)
	if err != nil {
		return fmt.Errorf("converting from %T to %T: %w", value, Weight{}, err)
	}
	*w = Weight{v}
	return nil
}

// Value implements the [driver.Valuer] interface.
// Weights above [math.MaxInt64] cannot be represented as a driver
// integer; persist the string form for those instead.
//
// [driver.Valuer]: https://pkg.go.dev/database/sql/driver#Valuer
func (w Weight) Value() (driver.Value, error) {
	return valueUint(w.wu)
}
