package utils

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_AccountPasswords(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"registration minimum", "s3cret!8"},
		{"passphrase", "correct horse battery staple"},
		{"unicode", "pässwörd-日本語"},
		{"bcrypt limit", strings.Repeat("a", 72)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if err != nil {
				t.Fatalf("HashPassword() error = %v", err)
			}
			if !strings.HasPrefix(hash, "$2a$") {
				t.Errorf("hash %q is not a bcrypt hash", hash)
			}
			if cost, _ := bcrypt.Cost([]byte(hash)); cost != bcrypt.DefaultCost {
				t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
			}
			if !CheckPassword(tt.password, hash) {
				t.Error("CheckPassword() rejected the password it was hashed from")
			}
		})
	}
}

func TestHashPassword_RejectsOverBcryptLimit(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	if !errors.Is(err, bcrypt.ErrPasswordTooLong) {
		t.Fatalf("HashPassword() error = %v, want ErrPasswordTooLong", err)
	}
}

func TestHashPassword_SaltsEachAccount(t *testing.T) {
	first, _ := HashPassword("shared-password")
	second, _ := HashPassword("shared-password")
	if first == second {
		t.Error("two accounts with the same password got the same hash")
	}
	if !CheckPassword("shared-password", first) || !CheckPassword("shared-password", second) {
		t.Error("both hashes should verify")
	}
}

func TestCheckPassword_LoginAttempts(t *testing.T) {
	hash, _ := HashPassword("founder-pass")

	tests := []struct {
		name     string
		password string
		hash     string
		expected bool
	}{
		{"matching", "founder-pass", hash, true},
		{"trailing space", "founder-pass ", hash, false},
		{"different case", "Founder-Pass", hash, false},
		{"empty attempt", "", hash, false},
		{"ldap-only account", "founder-pass", "", false},
		{"corrupt hash", "founder-pass", "not-bcrypt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.expected {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, got, tt.expected)
			}
		})
	}
}
