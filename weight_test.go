package units

import (
	"fmt"
	"math"
	"testing"
	"unsafe"
)

func TestWeight_ZeroValue(t *testing.T) {
	got := Weight{}
	want := NewWeight(0)
	if got != want {
		t.Errorf("Weight{} = %q, want %q", got, want)
	}
}

func TestWeight_Size(t *testing.T) {
	w := Weight{}
	got := unsafe.Sizeof(w)
	want := uintptr(8)
	if got != want {
		t.Errorf("unsafe.Sizeof(%q) = %v, want %v", w, got, want)
	}
}

func TestWeight_Constants(t *testing.T) {
	if WitnessScaleFactor != 4 {
		t.Errorf("WitnessScaleFactor = %v, want 4", WitnessScaleFactor)
	}
	if MaxBlockWeight != 4_000_000 {
		t.Errorf("MaxBlockWeight = %v, want 4000000", MaxBlockWeight)
	}
	if got := MaxWeight.WU(); got != uint64(math.MaxUint64) {
		t.Errorf("MaxWeight.WU() = %v, want %v", got, uint64(math.MaxUint64))
	}
	if !WeightZero.IsZero() {
		t.Errorf("WeightZero.IsZero() = false")
	}
}

func TestNewWeightFromVB(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tests := []struct {
			vb, want uint64
		}{
			{0, 0},
			{1, 4},
			{10, 40},
			{math.MaxUint64 / 4, math.MaxUint64 / 4 * 4},
		}
		for _, tt := range tests {
			got, ok := NewWeightFromVB(tt.vb)
			if !ok {
				t.Errorf("NewWeightFromVB(%v) failed", tt.vb)
				continue
			}
			if got != NewWeight(tt.want) {
				t.Errorf("NewWeightFromVB(%v) = %q, want %q", tt.vb, got, NewWeight(tt.want))
			}
		}
	})

	t.Run("overflow", func(t *testing.T) {
		tests := []uint64{
			math.MaxUint64/4 + 1,
			math.MaxUint64,
		}
		for _, vb := range tests {
			if _, ok := NewWeightFromVB(vb); ok {
				t.Errorf("NewWeightFromVB(%v) did not fail", vb)
			}
		}
	})
}

func TestMustNewWeightFromVB(t *testing.T) {
	t.Run("panic", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("MustNewWeightFromVB(math.MaxUint64) did not panic")
			}
		}()
		MustNewWeightFromVB(math.MaxUint64)
	})
}

func TestNewWeightFromKWU(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		got, ok := NewWeightFromKWU(4)
		if !ok || got != NewWeight(4000) {
			t.Errorf("NewWeightFromKWU(4) = %q, %v, want %q, true", got, ok, NewWeight(4000))
		}
	})

	t.Run("overflow", func(t *testing.T) {
		if _, ok := NewWeightFromKWU(math.MaxUint64); ok {
			t.Errorf("NewWeightFromKWU(math.MaxUint64) did not fail")
		}
	})
}

func TestParseWeight(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		got, err := ParseWeight("381")
		if err != nil {
			t.Errorf("ParseWeight(\"381\") failed: %v", err)
		}
		if got != NewWeight(381) {
			t.Errorf("ParseWeight(\"381\") = %q, want %q", got, NewWeight(381))
		}
	})

	t.Run("error", func(t *testing.T) {
		for _, s := range []string{"", "-1", "abc", "2.5"} {
			if _, err := ParseWeight(s); err == nil {
				t.Errorf("ParseWeight(%q) did not fail", s)
			}
		}
	})
}

func TestWeight_VBFloorCeil(t *testing.T) {
	tests := []struct {
		wu, floor, ceil uint64
	}{
		{0, 0, 0},
		{1, 0, 1},
		{4, 1, 1},
		{41, 10, 11},
		{560, 140, 140},
	}
	for _, tt := range tests {
		w := NewWeight(tt.wu)
		if got := w.VBFloor(); got != tt.floor {
			t.Errorf("%q.VBFloor() = %v, want %v", w, got, tt.floor)
		}
		if got := w.VBCeil(); got != tt.ceil {
			t.Errorf("%q.VBCeil() = %v, want %v", w, got, tt.ceil)
		}
	}
}

func TestWeight_KWUFloor(t *testing.T) {
	tests := []struct {
		wu, want uint64
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{1999, 1},
	}
	for _, tt := range tests {
		w := NewWeight(tt.wu)
		if got := w.KWUFloor(); got != tt.want {
			t.Errorf("%q.KWUFloor() = %v, want %v", w, got, tt.want)
		}
	}
}

func TestWeight_CheckedArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		got, ok := NewWeight(1).CheckedAdd(NewWeight(2))
		if !ok || got != NewWeight(3) {
			t.Errorf("NewWeight(1).CheckedAdd(NewWeight(2)) = %q, %v", got, ok)
		}
		if _, ok := MaxWeight.CheckedAdd(NewWeight(1)); ok {
			t.Errorf("MaxWeight.CheckedAdd(NewWeight(1)) did not fail")
		}
	})

	t.Run("sub", func(t *testing.T) {
		got, ok := NewWeight(3).CheckedSub(NewWeight(2))
		if !ok || got != NewWeight(1) {
			t.Errorf("NewWeight(3).CheckedSub(NewWeight(2)) = %q, %v", got, ok)
		}
		if _, ok := WeightZero.CheckedSub(NewWeight(1)); ok {
			t.Errorf("WeightZero.CheckedSub(NewWeight(1)) did not fail")
		}
	})

	t.Run("mul", func(t *testing.T) {
		got, ok := NewWeight(10).CheckedMul(10)
		if !ok || got != NewWeight(100) {
			t.Errorf("NewWeight(10).CheckedMul(10) = %q, %v", got, ok)
		}
		if _, ok := NewWeight(10).CheckedMul(math.MaxUint64); ok {
			t.Errorf("NewWeight(10).CheckedMul(math.MaxUint64) did not fail")
		}
	})
}

func TestWeight_AddSub(t *testing.T) {
	one, two, three := NewWeight(1), NewWeight(2), NewWeight(3)

	if got := one.Add(two); got != three {
		t.Errorf("%q.Add(%q) = %q, want %q", one, two, got, three)
	}
	if got := three.Sub(two); got != one {
		t.Errorf("%q.Sub(%q) = %q, want %q", three, two, got, one)
	}
	if got := MaxWeight.Add(one); got != WeightZero {
		t.Errorf("MaxWeight.Add(%q) = %q, want %q", one, got, WeightZero)
	}
}

func TestWeight_MulByFeeRate(t *testing.T) {
	weight := MustNewWeightFromVB(10)
	rate := MustNewFeeRateFromVB(10)
	got := weight.MulByFeeRate(rate)
	if got != NewAmount(100) {
		t.Errorf("%q.MulByFeeRate(%q) = %q, want %q", weight, rate, got, NewAmount(100))
	}
}

func TestWeight_Cmp(t *testing.T) {
	tests := []struct {
		w, v Weight
		want int
	}{
		{NewWeight(1), NewWeight(2), -1},
		{NewWeight(2), NewWeight(2), 0},
		{NewWeight(3), NewWeight(2), 1},
	}
	for _, tt := range tests {
		if got := tt.w.Cmp(tt.v); got != tt.want {
			t.Errorf("%q.Cmp(%q) = %v, want %v", tt.w, tt.v, got, tt.want)
		}
	}
}

func TestWeight_Format(t *testing.T) {
	tests := []struct {
		format string
		weight Weight
		want   string
	}{
		{"%v", NewWeight(1000), "1000"},
		{"%d", NewWeight(1000), "1000"},
		{"%q", NewWeight(1000), `"1000"`},
		{"%6d", NewWeight(1000), "  1000"},
		{"%x", NewWeight(1000), "%!x(units.Weight=1000)"},
	}
	for _, tt := range tests {
		if got := fmt.Sprintf(tt.format, tt.weight); got != tt.want {
			t.Errorf("fmt.Sprintf(%q, %v) = %q, want %q", tt.format, tt.weight.WU(), got, tt.want)
		}
	}
}

func TestWeight_JSON(t *testing.T) {
	for _, v := range []uint64{0, 381, 1 << 63, math.MaxUint64} {
		w := NewWeight(v)
		data, err := w.MarshalJSON()
		if err != nil {
			t.Errorf("%q.MarshalJSON() failed: %v", w, err)
			continue
		}
		var got Weight
		if err := got.UnmarshalJSON(data); err != nil {
			t.Errorf("UnmarshalJSON(%q) failed: %v", data, err)
			continue
		}
		if got != w {
			t.Errorf("UnmarshalJSON(%q) = %q, want %q", data, got, w)
		}
	}
}

func TestWeight_Binary(t *testing.T) {
	w := NewWeight(4_000_000)
	data, err := w.MarshalBinary()
	if err != nil {
		t.Fatalf("%q.MarshalBinary() failed: %v", w, err)
	}
	var got Weight
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary(% x) failed: %v", data, err)
	}
	if got != w {
		t.Errorf("UnmarshalBinary(% x) = %q, want %q", data, got, w)
	}
}

func TestWeight_ScanValue(t *testing.T) {
	var got Weight
	if err := got.Scan(int64(381)); err != nil {
		t.Fatalf("Scan(381) failed: %v", err)
	}
	if got != NewWeight(381) {
		t.Errorf("Scan(381) = %q, want %q", got, NewWeight(381))
	}
	v, err := got.Value()
	if err != nil {
		t.Fatalf("%q.Value() failed: %v", got, err)
	}
	if v != int64(381) {
		t.Errorf("%q.Value() = %v, want %v", got, v, int64(381))
	}
}

func FuzzWeight_VBRoundTrip(f *testing.F) {
	for _, v := range []uint64{0, 1, 10, math.MaxUint64 / 4, math.MaxUint64} {
		f.Add(v)
	}
	f.Fuzz(func(t *testing.T, vb uint64) {
		w, ok := NewWeightFromVB(vb)
		if !ok {
			if vb <= math.MaxUint64/WitnessScaleFactor {
				t.Errorf("NewWeightFromVB(%v) failed inside the representable range", vb)
			}
			return
		}
		if got := w.VBFloor(); got != vb {
			t.Errorf("NewWeightFromVB(%v).VBFloor() = %v", vb, got)
		}
		if got := w.VBCeil(); got != vb {
			t.Errorf("NewWeightFromVB(%v).VBCeil() = %v", vb, got)
		}
	})
}
