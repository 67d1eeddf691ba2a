package auth

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if !strings.HasPrefix(key, KeyPrefix) {
		t.Fatalf("key %q missing prefix %q", key, KeyPrefix)
	}

	other, _ := GenerateAPIKey()
	if key == other {
		t.Fatal("consecutive keys must differ")
	}
}

func TestHashAndVerify(t *testing.T) {
	key := "fgk_test-key"
	hash, err := HashAPIKey(key)
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}
	if !VerifyAPIKey(key, hash) {
		t.Fatal("valid key rejected")
	}
	if VerifyAPIKey("fgk_wrong", hash) {
		t.Fatal("wrong key accepted")
	}
}

func TestVerifyAPIKeyConstantTime(t *testing.T) {
	if !VerifyAPIKeyConstantTime("secret", "secret") {
		t.Fatal("equal keys rejected")
	}
	if VerifyAPIKeyConstantTime("secret", "other") {
		t.Fatal("different keys accepted")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc123", want: "abc123"},
		{header: "bearer abc123", want: "abc123"},
		{header: "  Bearer   abc123  ", want: "abc123"},
		{header: "abc123", want: "abc123"},
		{header: "", want: ""},
	}
	for _, tt := range tests {
		if got := ExtractBearerToken(tt.header); got != tt.want {
			t.Fatalf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
