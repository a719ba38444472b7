package units

import (
	"database/sql/driver"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/govalues/decimal"
)

var (
	errAmountOverflow = errors.New("amount overflow")
	errNegativeAmount = errors.New("negative amount")
)

// Amount represents a monetary value in satoshis, the smallest
// indivisible unit of bitcoin.
// The zero value corresponds to an amount of 0 satoshis.
// Amount is designed to be safe for concurrent use by multiple goroutines.
type Amount struct {
	sat uint64 // satoshis
}

const (
	// SatoshiPerBitcent is the number of satoshis in one bitcoin cent.
	SatoshiPerBitcent = 1_000_000

	// SatoshiPerBitcoin is the number of satoshis in one bitcoin (1 BTC).
	SatoshiPerBitcoin = 100_000_000

	// MaxMoney is the maximum transaction amount allowed in satoshis
	// by the consensus rules.
	MaxMoney = 21_000_000 * SatoshiPerBitcoin

	// btcScale is the number of decimal digits of a satoshi in the BTC
	// denomination.
	btcScale = 8
)

var (
	// AmountZero is an amount of 0 satoshis.
	AmountZero = Amount{}

	// AmountMax is the maximum representable amount.
	// It is a sentinel well above [MaxMoney]; amounts near it cannot
	// occur in a valid transaction.
	AmountMax = Amount{math.MaxUint64}
)

// NewAmount returns an amount of sat satoshis.
func NewAmount(sat uint64) Amount {
	return Amount{sat: sat}
}

// NewAmountFromBTC converts a decimal number of bitcoins to an amount.
// See also method [Amount.BTC].
//
// NewAmountFromBTC returns an error if:
//   - the decimal is negative;
//   - the decimal has a fractional satoshi (more than 8 digits after
//     the decimal point);
//   - the equivalent satoshi value does not fit in 64 bits.
func NewAmountFromBTC(btc decimal.Decimal) (Amount, error) {
	if btc.IsNeg() {
		return Amount{}, fmt.Errorf("converting %v BTC: %w", btc, errNegativeAmount)
	}
	if btc.MinScale() > btcScale {
		return Amount{}, fmt.Errorf("converting %v BTC: fractional satoshi", btc)
	}
	whole, frac, ok := btc.Int64(btcScale)
	if !ok {
		return Amount{}, fmt.Errorf("converting %v BTC: %w", btc, errAmountOverflow)
	}
	if uint64(whole) > (math.MaxUint64-uint64(frac))/SatoshiPerBitcoin {
		return Amount{}, fmt.Errorf("converting %v BTC: %w", btc, errAmountOverflow)
	}
	return Amount{uint64(whole)*SatoshiPerBitcoin + uint64(frac)}, nil
}

// ParseAmount converts an integer string to an amount in satoshis.
// The only possible failure is a malformed integer.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount: %w", err)
	}
	return Amount{v}, nil
}

// MustParseAmount is like [ParseAmount] but panics if the string cannot
// be parsed.
// It simplifies safe initialization of global variables holding amounts.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(fmt.Sprintf("ParseAmount(%q) failed: %v", s, err))
	}
	return a
}

// Sat returns the raw amount in satoshis.
func (a Amount) Sat() uint64 {
	return a.sat
}

// BTC returns the exact amount in the BTC denomination as a decimal.
// See also constructor [NewAmountFromBTC].
//
// BTC returns an error if the amount exceeds the decimal coefficient
// range, which can only happen for amounts above [MaxMoney].
func (a Amount) BTC() (decimal.Decimal, error) {
	if a.sat > math.MaxInt64 {
		return decimal.Decimal{}, fmt.Errorf("converting %v to BTC: %w", a, errValueRange)
	}
	d, err := decimal.New(int64(a.sat), btcScale)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("converting %v to BTC: %w", a, err)
	}
	return d, nil
}

// CheckedAdd computes a + b, returning false if the sum overflows 64 bits.
func (a Amount) CheckedAdd(b Amount) (Amount, bool) {
	if a.sat > math.MaxUint64-b.sat {
		return Amount{}, false
	}
	return Amount{a.sat + b.sat}, true
}

// CheckedSub computes a - b, returning false if the difference underflows.
func (a Amount) CheckedSub(b Amount) (Amount, bool) {
	if a.sat < b.sat {
		return Amount{}, false
	}
	return Amount{a.sat - b.sat}, true
}

// CheckedMul computes a * factor, returning false if the product
// overflows 64 bits.
func (a Amount) CheckedMul(factor uint64) (Amount, bool) {
	if factor != 0 && a.sat > math.MaxUint64/factor {
		return Amount{}, false
	}
	return Amount{a.sat * factor}, true
}

// CheckedDivByWeight computes the fee rate implied by paying amount a
// for weight w, truncating toward zero.
// It returns false if the weight is zero or the intermediate product
// overflows 64 bits.
// See also method [Amount.DivByWeight].
func (a Amount) CheckedDivByWeight(w Weight) (FeeRate, bool) {
	if w.wu == 0 {
		return FeeRate{}, false
	}
	if a.sat > math.MaxUint64/wuPerKWU {
		return FeeRate{}, false
	}
	return FeeRate{a.sat * wuPerKWU / w.wu}, true
}

// Add returns the sum of amounts a and b.
// The sum wraps around on overflow; use [Amount.CheckedAdd] to detect it.
func (a Amount) Add(b Amount) Amount {
	return Amount{a.sat + b.sat}
}

// Sub returns the difference between amounts a and b.
// The difference wraps around on underflow; use [Amount.CheckedSub]
// to detect it.
func (a Amount) Sub(b Amount) Amount {
	return Amount{a.sat - b.sat}
}

// DivByWeight returns the fee rate implied by paying amount a for
// weight w, truncating toward zero.
//
// This is likely the wrong operation for a caller who wants the fee for
// a transaction: truncation discards precision, and the usual direction
// is [FeeRate.CheckedMulByWeight]. It is kept for completeness; prefer
// [Amount.CheckedDivByWeight] where failure must be observable.
//
// DivByWeight panics if the weight is zero, and the intermediate product
// wraps around on overflow.
func (a Amount) DivByWeight(w Weight) FeeRate {
	return FeeRate{a.sat * wuPerKWU / w.wu}
}

// Cmp compares amounts numerically and returns:
//
//	-1 if a < b
//	 0 if a = b
//	+1 if a > b
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.sat < b.sat:
		return -1
	case a.sat > b.sat:
		return 1
	}
	return 0
}

// IsZero returns:
//
//	true  if a = 0
//	false otherwise
func (a Amount) IsZero() bool {
	return a.sat == 0
}

// String implements the [fmt.Stringer] interface and returns the raw
// amount in satoshis.
// See also method [Amount.Format].
//
// [fmt.Stringer]: https://pkg.go.dev/fmt#Stringer
func (a Amount) String() string {
	return strconv.FormatUint(a.sat, 10)
}

// Format implements the [fmt.Formatter] interface.
// The following [format verbs] are available:
//
//	| Verb       | Example        | Description        |
//	| ---------- | -------------- | ------------------ |
//	| %d, %s, %v | 150000000      | Amount in satoshis |
//	| %q         | "150000000"    | Quoted amount      |
//	| %#s, %#v   | 1.50000000 BTC | Amount in BTC      |
//
// The alternate form falls back to satoshis for amounts above the
// decimal coefficient range.
// The '-' format flag can be used with all verbs.
//
// [format verbs]: https://pkg.go.dev/fmt#hdr-Printing
// [fmt.Formatter]: https://pkg.go.dev/fmt#Formatter
func (a Amount) Format(state fmt.State, verb rune) {
	s := a.String()
	if state.Flag('#') && (verb == 's' || verb == 'v') {
		if d, err := a.BTC(); err == nil {
			s = d.String() + " BTC"
		}
	}
	formatValue(state, verb, "units.Amount", s)
}

// UnmarshalJSON implements the [json.Unmarshaler] interface.
// The accepted representation is a bare unsigned integer;
// a null leaves the value unchanged.
//
// [json.Unmarshaler]: https://pkg.go.dev/encoding/json#Unmarshaler
func (a *Amount) UnmarshalJSON(text []byte) error {
	if string(text) == "null" {
		return nil
	}
	v, err := parseJSONUint(text)
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Amount{}, err)
	}
	*a = Amount{v}
	return nil
}

// MarshalJSON implements the [json.Marshaler] interface.
// MarshalJSON always returns a bare unsigned integer, which round-trips
// exactly for the whole 64-bit range.
//
// [json.Marshaler]: https://pkg.go.dev/encoding/json#Marshaler
func (a Amount) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, a.sat, 10), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// See also constructor [ParseAmount].
//
// [encoding.TextUnmarshaler]: https://pkg.go.dev/encoding#TextUnmarshaler
func (a *Amount) UnmarshalText(text []byte) error {
	var err error
	*a, err = ParseAmount(string(text))
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Amount{}, err)
	}
	return nil
}

// AppendText implements the [encoding.TextAppender] interface.
//
// [encoding.TextAppender]: https://pkg.go.dev/encoding#TextAppender
func (a Amount) AppendText(text []byte) ([]byte, error) {
	return strconv.AppendUint(text, a.sat, 10), nil
}

// MarshalText implements the [encoding.TextMarshaler] interface.
// MarshalText always returns a decimal integer string.
//
// [encoding.TextMarshaler]: https://pkg.go.dev/encoding#TextMarshaler
func (a Amount) MarshalText() ([]byte, error) {
	return a.AppendText(nil)
}

// UnmarshalBinary implements the [encoding.BinaryUnmarshaler] interface.
// The accepted representation is 8 big-endian bytes.
//
// [encoding.BinaryUnmarshaler]: https://pkg.go.dev/encoding#BinaryUnmarshaler
func (a *Amount) UnmarshalBinary(data []byte) error {
	v, err := parseBinaryUint(data)
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Amount{}, err)
	}
	*a = Amount{v}
	return nil
}

// AppendBinary implements the [encoding.BinaryAppender] interface.
//
// [encoding.BinaryAppender]: https://pkg.go.dev/encoding#BinaryAppender
func (a Amount) AppendBinary(data []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint64(data, a.sat), nil
}

// MarshalBinary implements the [encoding.BinaryMarshaler] interface.
// MarshalBinary always returns 8 big-endian bytes.
//
// [encoding.BinaryMarshaler]: https://pkg.go.dev/encoding#BinaryMarshaler
func (a Amount) MarshalBinary() ([]byte, error) {
	return a.AppendBinary(nil)
}

// Scan implements the [sql.Scanner] interface.
//
// [sql.Scanner]: https://pkg.go.dev/database/sql#Scanner
func (a *Amount) Scan(value any) error {
	v, err := scanUint(value)
	if err != nil {
		return fmt.Errorf("converting from %T to %T: %w", value, Amount{}, err)
	}
	*a = Amount{v}
	return nil
}

// Value implements the [driver.Valuer] interface.
// Amounts above [math.MaxInt64] cannot be represented as a driver
// integer; persist the string form for those instead.
//
// [driver.Valuer]: https://pkg.go.dev/database/sql/driver#Valuer
func (a Amount) Value() (driver.Value, error) {
	return valueUint(a.sat)
}
