package bitcodec

import (
	"math/big"
	"math/rand"
	"testing"
)

func TestDecodeKnownValue(t *testing.T) {
	bs, err := Decode("0A", 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []bool{false, false, false, false, true, false, true, false}
	for r, w := range want {
		if got := bs.Get(r); got != w {
			t.Errorf("bit %d = %v, want %v", r, got, w)
		}
	}
}

func TestEncodeRoundTripsKnownValue(t *testing.T) {
	bs, err := Decode("0A", 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := Encode(bs); got != "0a" {
		t.Fatalf("Encode = %q, want %q", got, "0a")
	}
}

func TestDecodeEmptyIsError(t *testing.T) {
	if _, err := Decode("", 8); err != ErrEmptyHex {
		t.Fatalf("Decode(\"\") err = %v, want ErrEmptyHex", err)
	}
}

func TestRoundTripAllValuesSmallWidth(t *testing.T) {
	const width = 10
	for b := 0; b < 1<<width; b++ {
		bs := NewBitset(width)
		for r := 0; r < width; r++ {
			// Bit r corresponds to the (width-1-r)-th binary digit of b,
			// i.e. bit 0 is the MSB.
			if b&(1<<uint(width-1-r)) != 0 {
				bs.Set(r)
			}
		}
		hex := Encode(bs)
		decoded, err := Decode(hex, width)
		if err != nil {
			t.Fatalf("Decode(%q): %v", hex, err)
		}
		for r := 0; r < width; r++ {
			if decoded.Get(r) != bs.Get(r) {
				t.Fatalf("round trip mismatch for b=%d at bit %d", b, r)
			}
		}
	}
}

func TestOrUnionsBits(t *testing.T) {
	a, err := Decode("0A", 8) // 00001010
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, err := Decode("50", 8) // 01010000
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	a.Or(b)
	if got := Encode(a); got != "5a" { // 01011010
		t.Fatalf("Or result = %q, want %q", got, "5a")
	}
}

func TestOrPanicsOnWidthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on width mismatch")
		}
	}()
	a := NewBitset(8)
	b := NewBitset(16)
	a.Or(b)
}

func TestRoundTripRandomLargeWidth(t *testing.T) {
	const width = 400
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		v := new(big.Int).Rand(rng, new(big.Int).Lsh(big.NewInt(1), width))
		hex := v.Text(16)
		if hex == "" {
			hex = "0"
		}
		bs, err := Decode(hex, width)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		decoded, err := Decode(Encode(bs), width)
		if err != nil {
			t.Fatalf("Decode(Encode(bs)): %v", err)
		}
		for r := 0; r < width; r++ {
			if decoded.Get(r) != bs.Get(r) {
				t.Fatalf("round trip mismatch at bit %d for %s", r, hex)
			}
		}
	}
}
