package units

import (
	"database/sql/driver"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/govalues/decimal"
)

// FeeRate represents a transaction fee rate in satoshis per 1000 weight
// units (sat/kwu).
// The zero value corresponds to a rate of 0 sat/kwu.
// FeeRate is designed to be safe for concurrent use by multiple goroutines.
//
// The canonical unit is always sat/kwu; the sat/vB and sat/kvB
// denominations are converted at the API boundary and never stored.
type FeeRate struct {
	satPerKWU uint64 // satoshis per 1000 weight units
}

// satPerKWUPerSatPerVB is the number of sat/kwu in one sat/vB.
// One virtual byte is WitnessScaleFactor weight units, so
// 1 sat/vB = 1000 / 4 sat/kwu.
const satPerKWUPerSatPerVB = 1000 / WitnessScaleFactor

var (
	// FeeRateZero is a fee rate of 0 sat/kwu.
	// It is the same value as [FeeRateMin] and may better express intent
	// in some contexts.
	FeeRateZero = FeeRate{}

	// FeeRateMin is the minimum possible fee rate (0 sat/kwu).
	// It is the same value as [FeeRateZero] and may better express intent
	// in some contexts.
	FeeRateMin = FeeRateZero

	// FeeRateMax is the maximum possible fee rate.
	FeeRateMax = FeeRate{math.MaxUint64}

	// FeeRateBroadcastMin is the minimum fee rate required to broadcast
	// a transaction.
	// The value matches the default Bitcoin Core relay policy at the time
	// of library release.
	FeeRateBroadcastMin = FeeRate{1 * satPerKWUPerSatPerVB}

	// FeeRateDust is the fee rate used to compute the dust amount,
	// below which an output is considered uneconomical to spend.
	FeeRateDust = FeeRate{3 * satPerKWUPerSatPerVB}
)

var errValueRange = errors.New("value out of decimal range")

// NewFeeRate returns a fee rate of satKWU satoshis per 1000 weight units.
func NewFeeRate(satKWU uint64) FeeRate {
	return FeeRate{satPerKWU: satKWU}
}

// NewFeeRateFromVB converts a rate in satoshis per virtual byte to a fee
// rate.
// It returns false if the equivalent sat/kwu value does not fit in
// 64 bits.
func NewFeeRateFromVB(satVB uint64) (FeeRate, bool) {
	if satVB > math.MaxUint64/satPerKWUPerSatPerVB {
		return FeeRate{}, false
	}
	return FeeRate{satVB * satPerKWUPerSatPerVB}, true
}

// MustNewFeeRateFromVB is like [NewFeeRateFromVB] but panics if the
// equivalent sat/kwu value does not fit in 64 bits.
// It simplifies safe initialization of global variables holding fee rates.
func MustNewFeeRateFromVB(satVB uint64) FeeRate {
	r, ok := NewFeeRateFromVB(satVB)
	if !ok {
		panic(fmt.Sprintf("NewFeeRateFromVB(%v) failed: overflow", satVB))
	}
	return r
}

// NewFeeRateFromKVB converts a rate in satoshis per 1000 virtual bytes
// to a fee rate.
// The conversion truncates: sub-kvb precision is silently lost.
func NewFeeRateFromKVB(satKVB uint64) FeeRate {
	return FeeRate{satKVB / WitnessScaleFactor}
}

// ParseFeeRate converts an integer string to a fee rate in sat/kwu.
// The only possible failure is a malformed integer.
func ParseFeeRate(s string) (FeeRate, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return FeeRate{}, fmt.Errorf("parsing fee rate: %w", err)
	}
	return FeeRate{v}, nil
}

// MustParseFeeRate is like [ParseFeeRate] but panics if the string cannot
// be parsed.
// It simplifies safe initialization of global variables holding fee rates.
func MustParseFeeRate(s string) FeeRate {
	r, err := ParseFeeRate(s)
	if err != nil {
		panic(fmt.Sprintf("ParseFeeRate(%q) failed: %v", s, err))
	}
	return r
}

// SatPerKWU returns the raw fee rate in satoshis per 1000 weight units.
func (r FeeRate) SatPerKWU() uint64 {
	return r.satPerKWU
}

// SatPerVBFloor returns the fee rate in satoshis per virtual byte,
// rounding toward zero.
// The result may read lower than the true sat/kwu rate.
// See also method [FeeRate.SatPerVBCeil].
func (r FeeRate) SatPerVBFloor() uint64 {
	return r.satPerKWU / satPerKWUPerSatPerVB
}

// SatPerVBCeil returns the fee rate in satoshis per virtual byte,
// rounding away from zero, so the result never understates the true
// sat/kwu rate.
// See also method [FeeRate.SatPerVBFloor].
func (r FeeRate) SatPerVBCeil() uint64 {
	return (r.satPerKWU + satPerKWUPerSatPerVB - 1) / satPerKWUPerSatPerVB
}

// SatPerVB returns the exact fee rate in satoshis per virtual byte as
// a decimal.
// See also methods [FeeRate.SatPerVBFloor] and [FeeRate.SatPerVBCeil].
//
// SatPerVB returns an error if the rate exceeds the decimal coefficient
// range.
func (r FeeRate) SatPerVB() (decimal.Decimal, error) {
	if r.satPerKWU > math.MaxInt64 {
		return decimal.Decimal{}, fmt.Errorf("converting %v to sat/vB: %w", r, errValueRange)
	}
	d, err := decimal.New(int64(r.satPerKWU), 0)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("converting %v to sat/vB: %w", r, err)
	}
	e, err := d.Quo(decimal.MustParse("250"))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("converting %v to sat/vB: %w", r, err)
	}
	return e, nil
}

// CheckedAdd computes r + satKWU, returning false if the sum overflows
// 64 bits.
func (r FeeRate) CheckedAdd(satKWU uint64) (FeeRate, bool) {
	if r.satPerKWU > math.MaxUint64-satKWU {
		return FeeRate{}, false
	}
	return FeeRate{r.satPerKWU + satKWU}, true
}

// CheckedSub computes r - satKWU, returning false if the difference
// underflows.
func (r FeeRate) CheckedSub(satKWU uint64) (FeeRate, bool) {
	if r.satPerKWU < satKWU {
		return FeeRate{}, false
	}
	return FeeRate{r.satPerKWU - satKWU}, true
}

// CheckedMul computes r * factor, returning false if the product
// overflows 64 bits.
func (r FeeRate) CheckedMul(factor uint64) (FeeRate, bool) {
	if factor != 0 && r.satPerKWU > math.MaxUint64/factor {
		return FeeRate{}, false
	}
	return FeeRate{r.satPerKWU * factor}, true
}

// CheckedDiv computes r / divisor, returning false if the divisor is zero.
func (r FeeRate) CheckedDiv(divisor uint64) (FeeRate, bool) {
	if divisor == 0 {
		return FeeRate{}, false
	}
	return FeeRate{r.satPerKWU / divisor}, true
}

// CheckedMulByWeight computes the absolute fee amount for the given
// weight at this fee rate.
// When the resulting fee is a fractional number of satoshis, the amount
// is rounded up, ensuring that the fee is sufficient rather than falling
// short if rounded down.
//
// CheckedMulByWeight returns false if an overflow occurred.
func (r FeeRate) CheckedMulByWeight(w Weight) (Amount, bool) {
	if w.wu != 0 && r.satPerKWU > math.MaxUint64/w.wu {
		return Amount{}, false
	}
	sat := r.satPerKWU * w.wu
	if sat > math.MaxUint64-999 {
		return Amount{}, false
	}
	return Amount{(sat + 999) / 1000}, true
}

// FeeWU calculates the fee for the given weight, in weight units, at this
// fee rate, returning false if an overflow occurred.
//
// FeeWU is equivalent to [FeeRate.CheckedMulByWeight].
func (r FeeRate) FeeWU(w Weight) (Amount, bool) {
	return r.CheckedMulByWeight(w)
}

// FeeVB calculates the fee for the given size, in virtual bytes, at this
// fee rate, returning false if an overflow occurred.
//
// FeeVB is equivalent to converting vb to a [Weight] using
// [NewWeightFromVB] and then calling [FeeRate.FeeWU].
func (r FeeRate) FeeVB(vb uint64) (Amount, bool) {
	w, ok := NewWeightFromVB(vb)
	if !ok {
		return Amount{}, false
	}
	return r.FeeWU(w)
}

// Add returns the sum of fee rates r and q.
// The sum wraps around on overflow; use [FeeRate.CheckedAdd] to detect it.
func (r FeeRate) Add(q FeeRate) FeeRate {
	return FeeRate{r.satPerKWU + q.satPerKWU}
}

// Sub returns the difference between fee rates r and q.
// The difference wraps around on underflow; use [FeeRate.CheckedSub]
// to detect it.
func (r FeeRate) Sub(q FeeRate) FeeRate {
	return FeeRate{r.satPerKWU - q.satPerKWU}
}

// MulByWeight returns the fee amount for the given weight at this fee
// rate, rounding a fractional satoshi up so the fee computation stays
// conservative.
// The product wraps around on overflow; use [FeeRate.CheckedMulByWeight]
// to detect it.
func (r FeeRate) MulByWeight(w Weight) Amount {
	return w.MulByFeeRate(r)
}

// SumFeeRates returns the sum of the given fee rates, defined as a fee
// rate holding the sum of the raw sat/kwu values.
// The accumulation wraps around on overflow; callers that cannot rule
// out pathological inputs should fold with [FeeRate.CheckedAdd] instead.
func SumFeeRates(rates ...FeeRate) FeeRate {
	var sum uint64
	for _, r := range rates {
		sum += r.satPerKWU
	}
	return FeeRate{sum}
}

// Cmp compares fee rates numerically and returns:
//
//	-1 if r < q
//	 0 if r = q
//	+1 if r > q
func (r FeeRate) Cmp(q FeeRate) int {
	switch {
	case r.satPerKWU < q.satPerKWU:
		return -1
	case r.satPerKWU > q.satPerKWU:
		return 1
	}
	return 0
}

// IsZero returns:
//
//	true  if r = 0
//	false otherwise
func (r FeeRate) IsZero() bool {
	return r.satPerKWU == 0
}

// String implements the [fmt.Stringer] interface and returns the raw
// rate in sat/kwu.
// See also method [FeeRate.Format].
//
// [fmt.Stringer]: https://pkg.go.dev/fmt#Stringer
func (r FeeRate) String() string {
	return strconv.FormatUint(r.satPerKWU, 10)
}

// Format implements the [fmt.Formatter] interface.
// The following [format verbs] are available:
//
//	| Verb       | Example          | Description          |
//	| ---------- | ---------------- | -------------------- |
//	| %d, %s, %v | 750              | Rate in sat/kwu      |
//	| %q         | "750"            | Quoted rate          |
//	| %#s, %#v   | 3.00 sat/vbyte   | Rate in sat/vB       |
//
// The alternate form prints the ceiling-rounded sat/vB rate with a unit
// label; the fractional digits are always zero because the source value
// is integral.
// The '-' format flag can be used with all verbs.
//
// [format verbs]: https://pkg.go.dev/fmt#hdr-Printing
// [fmt.Formatter]: https://pkg.go.dev/fmt#Formatter
func (r FeeRate) Format(state fmt.State, verb rune) {
	s := r.String()
	if state.Flag('#') && (verb == 's' || verb == 'v') {
		s = strconv.FormatUint(r.SatPerVBCeil(), 10) + ".00 sat/vbyte"
	}
	formatValue(state, verb, "units.FeeRate", s)
}

// UnmarshalJSON implements the [json.Unmarshaler] interface.
// The accepted representation is a bare unsigned integer;
// a null leaves the value unchanged.
//
// [json.Unmarshaler]: https://pkg.go.dev/encoding/json#Unmarshaler
func (r *FeeRate) UnmarshalJSON(text []byte) error {
	if string(text) == "null" {
		return nil
	}
	v, err := parseJSONUint(text)
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", FeeRate{}, err)
	}
	*r = FeeRate{v}
	return nil
}

// MarshalJSON implements the [json.Marshaler] interface.
// MarshalJSON always returns a bare unsigned integer, which round-trips
// exactly for the whole 64-bit range.
//
// [json.Marshaler]: https://pkg.go.dev/encoding/json#Marshaler
func (r FeeRate) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, r.satPerKWU, 10), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// See also constructor [ParseFeeRate].
//
// [encoding.TextUnmarshaler]: https://pkg.go.dev/encoding#TextUnmarshaler
func (r *FeeRate) UnmarshalText(text []byte) error {
	var err error
	*r, err = ParseFeeRate(string(text))
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", FeeRate{}, err)
	}
	return nil
}

// AppendText implements the [encoding.TextAppender] interface.
//
// [encoding.TextAppender]: https://pkg.go.dev/encoding#TextAppender
func (r FeeRate) AppendText(text []byte) ([]byte, error) {
	return strconv.AppendUint(text, r.satPerKWU, 10), nil
}

// MarshalText implements the [encoding.TextMarshaler] interface.
// MarshalText always returns a decimal integer string.
//
// [encoding.TextMarshaler]: https://pkg.go.dev/encoding#TextMarshaler
func (r FeeRate) MarshalText() ([]byte, error) {
	return r.AppendText(nil)
}

// UnmarshalBinary implements the [encoding.BinaryUnmarshaler] interface.
// The accepted representation is 8 big-endian bytes.
//
// [encoding.BinaryUnmarshaler]: https://pkg.go.dev/encoding#BinaryUnmarshaler
func (r *FeeRate) UnmarshalBinary(data []byte) error {
	v, err := parseBinaryUint(data)
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", FeeRate{}, err)
	}
	*r = FeeRate{v}
	return nil
}

// AppendBinary implements the [encoding.BinaryAppender] interface.
//
// [encoding.BinaryAppender]: https://pkg.go.dev/encoding#BinaryAppender
func (r FeeRate) AppendBinary(data []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint64(data, r.satPerKWU), nil
}

// MarshalBinary implements the [encoding.BinaryMarshaler] interface.
// MarshalBinary always returns 8 big-endian bytes.
//
// [encoding.BinaryMarshaler]: https://pkg.go.dev/encoding#BinaryMarshaler
func (r FeeRate) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(nil)
}

// Scan implements the [sql.Scanner] interface.
//
// [sql.Scanner]: https://pkg.go.dev/database/sql#Scanner
func (r *FeeRate) Scan(value any) error {
	v, err := scanUint(value)
	if err != nil {
		return fmt.Errorf("converting from %T to %T: %w", value, FeeRate{}, err)
	}
	*r = FeeRate{v}
	return nil
}

// Value implements the [driver.Valuer] interface.
// Rates above [math.MaxInt64] cannot be represented as a driver integer;
// persist the string form for those instead.
//
// [driver.Valuer]: https://pkg.go.dev/database/sql/driver#Valuer
func (r FeeRate) Value() (driver.Value, error) {
	return valueUint(r.satPerKWU)
}

// formatValue writes a preformatted value honoring the width and the
// '-' flag. It backs the Format methods of all unit types.
func formatValue(state fmt.State, verb rune, typeName, s string) {
	switch verb {
	case 'd', 's', 'v', 'q':
		// supported
	default:
		//nolint:errcheck
		fmt.Fprintf(state, "%%!%c(%s=%s)", verb, typeName, s)
		return
	}
	if verb == 'q' {
		s = `"` + s + `"`
	}
	if w, ok := state.Width(); ok && w > len(s) {
		pad := strings.Repeat(" ", w-len(s))
		if state.Flag('-') {
			s += pad
		} else {
			s = pad + s
		}
	}
	//nolint:errcheck
	state.Write([]byte(s))
}

// parseJSONUint parses a JSON token as an unsigned integer, tolerating
// a quoted number.
func parseJSONUint(text []byte) (uint64, error) {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	return strconv.ParseUint(string(text), 10, 64)
}

// parseBinaryUint decodes 8 big-endian bytes.
func parseBinaryUint(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid data length %v", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// scanUint converts a driver value to an unsigned integer.
func scanUint(value any) (uint64, error) {
	switch value := value.(type) {
	case int64:
		if value < 0 {
			return 0, fmt.Errorf("negative value %v", value)
		}
		return uint64(value), nil
	case uint64:
		return value, nil
	case string:
		return strconv.ParseUint(value, 10, 64)
	case []byte:
		return strconv.ParseUint(string(value), 10, 64)
	default:
		return 0, fmt.Errorf("type %T is not supported", value)
	}
}

// valueUint converts an unsigned integer to a driver value.
func valueUint(v uint64) (driver.Value, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("value %v overflows int64", v)
	}
	return int64(v), nil
}
