package validator

import "testing"

type dateInput struct {
	From string `json:"from" validate:"omitempty,isodate"`
	KM   string `json:"km" validate:"omitempty,numeric"`
}

func TestIsoDate(t *testing.T) {
	val := New()

	if err := val.Struct(dateInput{From: "2023-01-15", KM: "12000"}); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	if err := val.Struct(dateInput{}); err != nil {
		t.Fatalf("expected empty input to pass, got %v", err)
	}

	err := val.Struct(dateInput{From: "15/01/2023", KM: "lots"})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	fields := FieldErrors(err)
	if fields["from"] != "isodate" {
		t.Fatalf("expected from=isodate, got %v", fields)
	}
	if fields["km"] != "numeric" {
		t.Fatalf("expected km=numeric, got %v", fields)
	}
}
