package utils

import (
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, code, want string
	}{
		{"+14155550100", "+91", "+14155550100"},
		{"9876543210", "+91", "+919876543210"},
		{"98765 43210", "", "+919876543210"},
		{"2075550100", "44", "+442075550100"},
		{"", "+91", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in, tc.code); got != tc.want {
			t.Errorf("NormalizePhone(%q, %q) = %q, want %q", tc.in, tc.code, got, tc.want)
		}
	}
}

func TestNormalizePhoneDoesNotPrefixTwice(t *testing.T) {
	once := NormalizePhone("9876543210", "+91")
	if again := NormalizePhone(once, "+91"); again != once {
		t.Fatalf("expected idempotent normalization, got %q then %q", once, again)
	}
}

func TestGeneratedIdentifiersMatchFormats(t *testing.T) {
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	appID := NewApplicationID(now)
	if !IsApplicationID(appID) || appID[:11] != "VND20240309" {
		t.Fatalf("unexpected application id %q", appID)
	}

	vendorID := NewVendorID(now)
	if !IsVendorID(vendorID) || vendorID[:5] != "V2024" {
		t.Fatalf("unexpected vendor id %q", vendorID)
	}

	if NewVendorID(now) == vendorID {
		t.Fatalf("expected random suffixes to differ")
	}
}

func TestValidators(t *testing.T) {
	if !ValidateEmail("owner@shop.example.com") || ValidateEmail("not-an-email") {
		t.Fatal("email validation mismatch")
	}
	if ok, _ := ValidatePassword("short"); ok {
		t.Fatal("expected short password to fail")
	}
	if !ValidatePhone("+91 98765-43210") || ValidatePhone("12ab") {
		t.Fatal("phone validation mismatch")
	}
	blank := "   "
	if SanitizeOptional(&blank) != nil {
		t.Fatal("expected blank optional to collapse to nil")
	}
}
