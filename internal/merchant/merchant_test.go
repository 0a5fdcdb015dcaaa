package merchant

import (
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"AMZN Mktp US", "AMZN"},
		{"STARBUCKS Store 2291", "STARBUCKS"},
		{"STARBUCKS STORE 2291", "STARBUCKS"},
		{"PAYPAL *EBAY", "PAYPAL"},
		{"paypal", "PAYPAL"},
		{"Uber*Trip", "UBER"},
		{"  Netflix.com  ", "NETFLIX"},
		{"#1 DELI & GRILL", "1"},
		{"***", ""},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeKey(tt.input); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey_SameMerchantVariants(t *testing.T) {
	// Different reference suffixes must collapse onto the same key.
	a := NormalizeKey("AMZN Mktp US*123")
	b := NormalizeKey("AMZN Mktp US*999")
	if a != b || a != "AMZN" {
		t.Errorf("NormalizeKey variants = %q, %q; want both AMZN", a, b)
	}
}
