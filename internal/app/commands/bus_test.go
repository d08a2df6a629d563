package commands

import (
	"context"
	"errors"
	"testing"
)

type echoCommand struct{ Value string }

func (echoCommand) Key() string { return "test.echo" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestDispatchTypedHandler(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[echoCommand, string](bus, "test.echo", HandlerFunc[echoCommand, string](func(_ context.Context, cmd echoCommand) (string, error) {
		return "echo:" + cmd.Value, nil
	}))

	got, err := Dispatch[echoCommand, string](context.Background(), bus, echoCommand{Value: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "echo:hi" {
		t.Fatalf("unexpected result %q", got)
	}
	if _, err := Dispatch[echoCommand, int](context.Background(), bus, echoCommand{}); !errors.Is(err, ErrResultType) {
		t.Fatalf("expected ErrResultType, got %v", err)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	bus := NewInMemoryBus()
	if _, err := bus.Dispatch(context.Background(), otherCommand{}); !errors.Is(err, ErrHandlerNotFound) {
		t.Fatalf("expected ErrHandlerNotFound, got %v", err)
	}
	if _, err := Dispatch[otherCommand, any](context.Background(), nil, otherCommand{}); !errors.Is(err, ErrNilBus) {
		t.Fatalf("expected ErrNilBus, got %v", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[echoCommand, string](func(context.Context, echoCommand) (string, error) { return "", nil })
	RegisterHandler[echoCommand, string](bus, "test.echo", h)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	RegisterHandler[echoCommand, string](bus, "test.echo", h)
}
