package auth

import (
	"testing"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/config"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "frotalink",
		Audience:  "frotalink",
	}

	token, exp, err := GenerateAccessToken(cfg, "emp-1", "comp-1", TierDriver, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expected exp in future")
	}

	id, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if id.Subject != "emp-1" || id.CompanyID != "comp-1" || id.Tier != TierDriver {
		t.Fatalf("identity mismatch: %#v", id)
	}
	if id.IsCompanyTier() {
		t.Fatalf("driver must not have company tier")
	}
}

func TestParseRejectsWrongSecretAndIssuer(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret-a", Issuer: "frotalink"}
	token, _, err := GenerateAccessToken(cfg, "emp-1", "comp-1", TierAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := ParseAccessToken(config.AuthConfig{JWTSecret: "secret-b", Issuer: "frotalink"}, token); err == nil {
		t.Fatalf("expected wrong secret to be rejected")
	}
	if _, err := ParseAccessToken(config.AuthConfig{JWTSecret: "secret-a", Issuer: "other"}, token); err == nil {
		t.Fatalf("expected wrong issuer to be rejected")
	}

	id, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if !id.IsCompanyTier() {
		t.Fatalf("admin should have company tier")
	}
}
