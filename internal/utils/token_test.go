package utils

import (
	"regexp"
	"testing"
)

func TestGenerateAccessToken_Pattern(t *testing.T) {
	pattern := regexp.MustCompile(`^JPG-FF-[A-Z0-9]{5}$`)

	for i := 0; i < 100; i++ {
		token, err := GenerateAccessToken()
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		if !pattern.MatchString(token) {
			t.Fatalf("token %q does not match %s", token, pattern)
		}
	}
}

func TestGenerateAccessToken_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := GenerateAccessToken()
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		seen[token] = true
	}
	// Collisions are possible but 50 identical draws would mean broken entropy.
	if len(seen) < 2 {
		t.Errorf("expected varied tokens, got %d distinct of 50", len(seen))
	}
}

func TestGenerateAccessToken_CoversAlphabet(t *testing.T) {
	counts := make(map[byte]int)
	for i := 0; i < 2000; i++ {
		token, err := GenerateAccessToken()
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		for j := len(AccessTokenPrefix); j < len(token); j++ {
			counts[token[j]]++
		}
	}

	// 10000 uniform draws over 36 characters; a character that never shows
	// up means part of the alphabet is unreachable.
	for i := 0; i < len(tokenAlphabet); i++ {
		if counts[tokenAlphabet[i]] == 0 {
			t.Errorf("character %q never drawn", tokenAlphabet[i])
		}
	}
}

func TestNormalizeDocument(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{"bare digits", "12345678901", "12345678901", true},
		{"formatted cpf", "123.456.789-01", "12345678901", true},
		{"spaces", " 123 456 789 01 ", "12345678901", true},
		{"too short", "1234567890", "1234567890", false},
		{"too long", "123456789012", "123456789012", false},
		{"empty", "", "", false},
		{"letters only", "abc", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, valid := NormalizeDocument(tc.in)
			if got != tc.want || valid != tc.valid {
				t.Errorf("NormalizeDocument(%q) = (%q, %v), want (%q, %v)",
					tc.in, got, valid, tc.want, tc.valid)
			}
		})
	}
}
