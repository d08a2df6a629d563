package validation

import (
	"context"
	"errors"
	"testing"
)

type sample struct {
	PropertyID  string `json:"property_id" validate:"required"`
	PeriodIndex int    `json:"period_index" validate:"gte=0"`
}

func TestValidateReportsFields(t *testing.T) {
	err := New().Validate(context.Background(), sample{PeriodIndex: -1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var verr *Error
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %+v", verr)
	}
	if verr.Fields[0].Field != "property_id" || verr.Fields[0].Rule != "required" {
		t.Fatalf("unexpected field error %+v", verr.Fields[0])
	}
}

func TestValidateAcceptsValidAndNonStruct(t *testing.T) {
	v := New()
	if err := v.Validate(context.Background(), &sample{PropertyID: "p-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.Validate(context.Background(), "plain"); err != nil {
		t.Fatalf("non-struct should pass: %v", err)
	}
}
