package domain

import "testing"

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"a@x.com", "first.last+tag@library.co.uk"} {
		if err := ValidateEmail(ok); err != nil {
			t.Errorf("ValidateEmail(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a@x", "no-at.com", "a b@x.com"} {
		if err := ValidateEmail(bad); err != ErrInvalidEmail {
			t.Errorf("ValidateEmail(%q) = %v, want ErrInvalidEmail", bad, err)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	for _, ok := range []string{"0912345678", "+84912345678"} {
		if err := ValidatePhone(ok); err != nil {
			t.Errorf("ValidatePhone(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "12345", "+", "09123x5678", "1234567890123456"} {
		if err := ValidatePhone(bad); err != ErrInvalidPhone {
			t.Errorf("ValidatePhone(%q) = %v, want ErrInvalidPhone", bad, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		password string
		ok       bool
	}{
		{"Secr3t!pw", true},
		{"abc123!", false},
		{"abcdefgh1", false},
		{"abcdefgh!", false},
		{"12345678!", false},
	}
	for _, tc := range testCases {
		err := ValidatePassword(tc.password)
		if tc.ok && err != nil {
			t.Errorf("ValidatePassword(%q) = %v", tc.password, err)
		}
		if !tc.ok && err != ErrWeakPassword {
			t.Errorf("ValidatePassword(%q) = %v, want ErrWeakPassword", tc.password, err)
		}
	}
}
