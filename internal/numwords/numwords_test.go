package numwords

import (
	"errors"
	"strings"
	"testing"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "zero"},
		{"000", "zero"},
		{"7", "seven"},
		{"007", "seven"},
		{"13", "thirteen"},
		{"20", "twenty"},
		{"21", "twenty-one"},
		{"99", "ninety-nine"},
		{"100", "one hundred"},
		{"105", "one hundred and five"},
		{"342", "three hundred and forty-two"},
		{"1000", "one thousand"},
		{"1005", "one thousand and five"},
		{"1024", "one thousand and twenty-four"},
		{"1234", "one thousand two hundred and thirty-four"},
		{"2000000", "two million"},
		{"1000001", "one million and one"},
		{"12345678", "twelve million three hundred and forty-five thousand six hundred and seventy-eight"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Convert(tt.in)
			if err != nil {
				t.Fatalf("Convert(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertLargestScale(t *testing.T) {
	got, err := Convert("1" + strings.Repeat("0", 33))
	if err != nil {
		t.Fatalf("Convert(10^33) error: %v", err)
	}
	if got != "one decillion" {
		t.Errorf("Convert(10^33) = %q, want %q", got, "one decillion")
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrNotDigits},
		{"letters", "12a", ErrNotDigits},
		{"sign", "-5", ErrNotDigits},
		{"too large", strings.Repeat("9", 37), ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("Convert(%q) error = %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}

func TestInt(t *testing.T) {
	if got := Int(42); got != "forty-two" {
		t.Errorf("Int(42) = %q, want %q", got, "forty-two")
	}
	if got := Int(-3); got != "minus three" {
		t.Errorf("Int(-3) = %q, want %q", got, "minus three")
	}
}
