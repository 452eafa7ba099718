package employee

import "testing"

func TestValidateCreate(t *testing.T) {
	ok := CreateInput{
		Name:       "Joao Silva",
		NationalID: "12345678901",
		Email:      "joao@frota.com.br",
		Password:   "secret1",
		Phone:      "11999990000",
		CompanyID:  "c-1",
	}
	if fields := validateCreate(ok); len(fields) != 0 {
		t.Fatalf("expected valid input, got %v", fields)
	}

	bad := CreateInput{
		Name:       "Jo",
		NationalID: "123",
		Email:      "not-an-email",
		Password:   "123",
	}
	fields := validateCreate(bad)
	if len(fields) != 6 {
		t.Fatalf("expected 6 field errors, got %d: %v", len(fields), fields)
	}
}
