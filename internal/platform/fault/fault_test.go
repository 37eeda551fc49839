package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestAs(t *testing.T) {
	f := New(Validation, "Nenhuma guia selecionada")
	wrapped := fmt.Errorf("criar lote: %w", f)

	got, ok := As(wrapped)
	if !ok {
		t.Fatal("expected fault in chain")
	}
	if got.Kind != Validation {
		t.Errorf("expected validation kind, got %s", got.Kind)
	}
	if got.Message != "Nenhuma guia selecionada" {
		t.Errorf("unexpected message: %s", got.Message)
	}
}

func TestAs_NotFault(t *testing.T) {
	if _, ok := As(errors.New("plain")); ok {
		t.Error("plain error should not match")
	}
}

func TestIsKind(t *testing.T) {
	f := Newf(Transport, "Falha de comunicação: %s", "timeout")
	if !IsKind(f, Transport) {
		t.Error("expected transport kind")
	}
	if IsKind(f, Protocol) {
		t.Error("did not expect protocol kind")
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	f := Wrap(Transport, cause, "Falha de comunicação com a operadora")
	if !errors.Is(f, cause) {
		t.Error("expected wrapped cause in chain")
	}
	if f.Error() != "Falha de comunicação com a operadora" {
		t.Errorf("message should hide the cause, got %s", f.Error())
	}
}
