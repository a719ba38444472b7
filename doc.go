/*
Package units implements strongly-typed bitcoin transaction units.
It provides the [FeeRate], [Amount], and [Weight] value types, which keep
satoshi amounts, transaction weights, and fee rates from being mixed up
with one another or with plain integers.

# Features

  - Immutable value types, ensuring safe usage across multiple goroutines
  - Checked arithmetic that reports overflow instead of wrapping
  - Conservative fee computation that always rounds the fee up
  - Conversion between sat/kwu, sat/vB, and sat/kvB denominations
  - Transparent integer serialization for JSON, text, binary, and SQL

# Representation

Each type wraps a single unsigned 64-bit integer:
an [Amount] counts satoshis, a [Weight] counts weight units, and
a [FeeRate] stores satoshis per 1000 weight units (sat/kwu).
Other fee-rate denominations are derived at the API boundary and never
stored: one virtual byte equals [WitnessScaleFactor] weight units, so
one sat/vB equals 250 sat/kwu.

# Operations

Arithmetic comes in two regimes that are never mixed within one
operation. The checked methods (CheckedAdd, CheckedSub, CheckedMul,
CheckedDiv, [FeeRate.CheckedMulByWeight]) return an additional boolean
and report overflow, underflow, and division by zero by returning false.
The plain operator methods (Add, Sub, [FeeRate.MulByWeight],
[Amount.DivByWeight], [SumFeeRates]) use ordinary unsigned integer
arithmetic and silently wrap around on overflow.

# Rounding

Fee computation rounds up: when a fee rate multiplied by a weight yields
a fractional satoshi, the resulting [Amount] is the next whole satoshi,
so a computed fee never falls short. Conversions to coarser
denominations are explicit about direction ([FeeRate.SatPerVBFloor],
[FeeRate.SatPerVBCeil], [Weight.VBFloor], [Weight.VBCeil]), and the
truncating constructors and divisions say so in their documentation.

# Errors

Parsing and decimal conversions return errors. Checked arithmetic
reports failure through its boolean result instead, since the only
possible failure is out-of-range arithmetic. The Must* constructors
panic and are intended for initializing global variables.
*/
package units
