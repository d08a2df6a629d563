package mongo

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"rentalpricing/internal/domain/availability"
	"rentalpricing/internal/domain/booking"
)

func TestLockErrorWriteConflict(t *testing.T) {
	conflict := fmt.Errorf("update lock: %w", mongo.CommandError{Code: 112, Name: "WriteConflict"})

	err := lockError("p-1", conflict)
	if !errors.Is(err, booking.ErrPropertyLocked) {
		t.Fatalf("expected ErrPropertyLocked, got %v", err)
	}
	if errors.Is(err, availability.ErrPropertyUnavailable) {
		t.Fatalf("lock conflict must not claim the dates are taken: %v", err)
	}
}

func TestLockErrorTransientLabel(t *testing.T) {
	transient := mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}
	if err := lockError("p-1", transient); !errors.Is(err, booking.ErrPropertyLocked) {
		t.Fatalf("expected ErrPropertyLocked, got %v", err)
	}
}

func TestLockErrorPassesOtherErrors(t *testing.T) {
	if err := lockError("p-1", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	boom := errors.New("boom")
	if err := lockError("p-1", boom); !errors.Is(err, boom) || errors.Is(err, booking.ErrPropertyLocked) {
		t.Fatalf("expected passthrough, got %v", err)
	}
}
