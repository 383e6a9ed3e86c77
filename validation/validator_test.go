package validation

import (
	"testing"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
)

func TestValidateTransmission(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"automatic", "a", false},
		{"manual", "m", false},
		{"upper case", "A", false},
		{"word", "automatic", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVar(tt.value, "transmission")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVar(%q, 'transmission') error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"SUV", false},
		{"Sport", false},
		{"Sedan", false},
		{"suv", true},
		{"Truck", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateVar(tt.value, "category")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVar(%q, 'category') error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePaymentAndStatus(t *testing.T) {
	if err := ValidateVar("card", "payment_method"); err != nil {
		t.Errorf("card should be valid: %v", err)
	}
	if err := ValidateVar("bitcoin", "payment_method"); err == nil {
		t.Error("bitcoin should be invalid")
	}
	if err := ValidateVar("in progress", "booking_status"); err != nil {
		t.Errorf("in progress should be valid: %v", err)
	}
	if err := ValidateVar("in_progress", "booking_status"); err == nil {
		t.Error("in_progress should be invalid")
	}
	if err := ValidateVar("cosmos", "storage_backend"); err != nil {
		t.Errorf("cosmos should be valid: %v", err)
	}
	if err := ValidateVar("mongo", "storage_backend"); err == nil {
		t.Error("mongo should be invalid")
	}
}

type review struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"review" validate:"max=10"`
	Method  string `json:"payment_method" validate:"required,payment_method"`
}

func TestParseValidationErrors(t *testing.T) {
	err := Validate(review{Rating: 0, Comment: "far too long a comment", Method: ""})
	if err == nil {
		t.Fatal("expected validation error")
	}

	parsed := ParseValidationErrors(err)
	if len(parsed) != 3 {
		t.Fatalf("len(parsed) = %d, want 3", len(parsed))
	}

	byField := map[string]string{}
	for _, e := range parsed {
		byField[e.Field] = e.Message
	}
	if byField["rating"] != "must be at least 1" {
		t.Errorf("rating message = %q", byField["rating"])
	}
	if byField["review"] != "must be at most 10" {
		t.Errorf("review message = %q", byField["review"])
	}
	if byField["payment_method"] != "is required" {
		t.Errorf("payment_method message = %q", byField["payment_method"])
	}

	if ParseValidationErrors(nil) != nil {
		t.Error("ParseValidationErrors(nil) should be nil")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	ve := ValidationErrors{
		{Field: "make", Message: "is required"},
		{Field: "model", Message: "is required"},
	}
	want := "make: is required; model: is required"
	if got := ve.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if (ValidationErrors{}).Error() != "" {
		t.Error("empty ValidationErrors should render empty")
	}
}

func TestToAppError(t *testing.T) {
	if err := ToAppError(review{Rating: 4, Method: "cash"}, "invalid review"); err != nil {
		t.Fatalf("valid review returned %v", err)
	}

	err := ToAppError(review{Rating: 9, Method: "cash"}, "invalid review")
	if !apperrors.IsValidation(err) {
		t.Fatalf("expected validation AppError, got %v", err)
	}

	var appErr *apperrors.AppError
	if !asAppError(err, &appErr) {
		t.Fatal("expected *AppError")
	}
	if appErr.Details["rating"] != "must be at most 5" {
		t.Errorf("Details[rating] = %q", appErr.Details["rating"])
	}
}

func asAppError(err error, target **apperrors.AppError) bool {
	e, ok := err.(*apperrors.AppError)
	if ok {
		*target = e
	}
	return ok
}
