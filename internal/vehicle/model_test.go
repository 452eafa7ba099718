package vehicle

import "testing"

func TestNormalizePlate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc-1234", "ABC-1234"},
		{"  abc1d23  ", "ABC1D23"},
		{"a b c 1 2 3 4", "ABC1234"},
		{"ABC-1234", "ABC-1234"},
	}
	for _, c := range cases {
		if got := NormalizePlate(c.in); got != c.want {
			t.Fatalf("NormalizePlate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidPlate(t *testing.T) {
	valid := []string{"ABC-1234", "ABC1234", "ABC1D23", "XYZ9A87"}
	for _, p := range valid {
		if !ValidPlate(p) {
			t.Fatalf("ValidPlate(%q) = false, want true", p)
		}
	}
	invalid := []string{"", "AB-1234", "ABCD1234", "abc-1234", "ABC-12345", "1234-ABC", "ABC-1A34"}
	for _, p := range invalid {
		if ValidPlate(p) {
			t.Fatalf("ValidPlate(%q) = true, want false", p)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusAvailable, StatusMaintenance},
		{StatusAvailable, StatusInactive},
		{StatusMaintenance, StatusAvailable},
		{StatusMaintenance, StatusInactive},
		{StatusInactive, StatusAvailable},
		{StatusAvailable, StatusAvailable},
	}
	for _, c := range allowed {
		if !CanTransition(c[0], c[1]) {
			t.Fatalf("CanTransition(%s, %s) = false, want true", c[0], c[1])
		}
	}
	denied := [][2]Status{
		{StatusAvailable, StatusInUse},
		{StatusMaintenance, StatusInUse},
		{StatusInactive, StatusInUse},
		{StatusInactive, StatusMaintenance},
		{StatusInUse, StatusAvailable},
		{StatusInUse, StatusMaintenance},
	}
	for _, c := range denied {
		if CanTransition(c[0], c[1]) {
			t.Fatalf("CanTransition(%s, %s) = true, want false", c[0], c[1])
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusAvailable, StatusInUse, StatusMaintenance, StatusInactive} {
		if !ValidStatus(s) {
			t.Fatalf("ValidStatus(%s) = false, want true", s)
		}
	}
	if ValidStatus("parked") {
		t.Fatal("ValidStatus(parked) = true, want false")
	}
}

func TestValidateCreate(t *testing.T) {
	in := CreateInput{
		Plate:     "abc-1234",
		Make:      "Fiat",
		Model:     "Uno",
		Year:      2020,
		CompanyID: "c-1",
	}
	if fields := validateCreate(in); len(fields) != 0 {
		t.Fatalf("expected valid input, got: %v", fields)
	}

	bad := CreateInput{Plate: "nope", Make: "F", Model: "U", Year: 1800, OdometerKM: -1}
	fields := validateCreate(bad)
	if len(fields) != 6 {
		t.Fatalf("expected 6 field errors, got %d: %v", len(fields), fields)
	}
}
