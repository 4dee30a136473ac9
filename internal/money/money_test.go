package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Cents
		wantErr bool
	}{
		{"150", 15000, false},
		{"150.5", 15050, false},
		{"150.50", 15050, false},
		{"0.01", 1, false},
		{"-3.25", -325, false},
		{"+7", 700, false},
		{" 12.00 ", 1200, false},
		{"", 0, true},
		{"12.", 0, true},
		{".5", 0, true},
		{"1.234", 0, true},
		{"1e3", 0, true},
		{"abc", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	cases := map[Cents]string{
		0:     "0.00",
		5:     "0.05",
		15000: "150.00",
		-50:   "-0.50",
		12345: "123.45",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("Cents(%d).String() = %q, want %q", int64(c), got, want)
		}
	}
}

func TestDecimal(t *testing.T) {
	if got := Cents(12345).Decimal(); !got.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("Decimal() = %s", got)
	}
	c, err := Parse(Cents(-7).Decimal().StringFixed(2))
	if err != nil || c != -7 {
		t.Errorf("round trip = %d, %v", c, err)
	}
}

func TestTimes(t *testing.T) {
	got, err := Cents(5000).Times(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 15000 {
		t.Errorf("Times = %d, want 15000", got)
	}

	if _, err := Cents(1 << 62).Times(4); err == nil {
		t.Errorf("expected overflow error")
	}
	if _, err := Cents(10).Times(-1); err == nil {
		t.Errorf("expected error for negative multiplier")
	}
}

func TestJSON(t *testing.T) {
	var body struct {
		Quoted Cents  `json:"quoted"`
		Bare   Cents  `json:"bare"`
		Absent *Cents `json:"absent"`
	}
	if err := json.Unmarshal([]byte(`{"quoted":"19.99","bare":20.5,"absent":null}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Quoted != 1999 || body.Bare != 2050 || body.Absent != nil {
		t.Fatalf("unexpected decode: %+v", body)
	}

	out, err := json.Marshal(Cents(35000))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"350.00"` {
		t.Errorf("marshal = %s", out)
	}

	var c Cents
	if err := json.Unmarshal([]byte(`"1.999"`), &c); err == nil {
		t.Errorf("expected error for three fraction digits")
	}
}
