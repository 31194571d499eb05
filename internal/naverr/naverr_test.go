package naverr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/codenav/codenav/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	hint := types.LocationHint{SymbolName: "Save"}
	sym := types.Symbol{ID: "cs:01", Name: "Save", Kind: types.SymbolKindMethod}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"not found", NewNotFound(hint, types.KindFilterAny), KindNotFound},
		{"wrong kind", NewWrongKind(sym, types.KindFilterType), KindWrongKind},
		{"provider unavailable", NewProviderUnavailable("model not loaded", nil), KindProviderUnavailable},
		{"invalid hint", NewInvalidHint(hint, "no coordinates"), KindInvalidHint},
		{"cancelled", NewCancelled("resolve", context.Canceled), KindCancelled},
		{"wrapped not found", fmt.Errorf("resolving: %w", NewNotFound(hint, types.KindFilterAny)), KindNotFound},
		{"plain error", errors.New("boom"), ErrorKind("internal")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNotFoundMessageCarriesContext(t *testing.T) {
	err := NewNotFound(types.LocationHint{SymbolName: "Save", FilePath: "Repo.cs", Line: 10}, types.KindFilterMethod)

	assert.Contains(t, err.Error(), "name=Save")
	assert.Contains(t, err.Error(), "file=Repo.cs")
	assert.Contains(t, err.Error(), "method")

	unfiltered := NewNotFound(types.LocationHint{SymbolName: "Save"}, types.KindFilterAny)
	assert.NotContains(t, unfiltered.Error(), "any symbol")
}

func TestWrongKindMessage(t *testing.T) {
	sym := types.Symbol{Name: "Save", FullName: "Acme.Repo.Save", Kind: types.SymbolKindMethod}
	err := NewWrongKind(sym, types.KindFilterType)

	assert.Contains(t, err.Error(), "Acme.Repo.Save")
	assert.Contains(t, err.Error(), "is a method")
	assert.Contains(t, err.Error(), "requires a type")
}

func TestCancelledUnwrapsContextError(t *testing.T) {
	err := NewCancelled("batch slot", context.Canceled)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsCancelled(err))
	assert.True(t, IsCancelled(fmt.Errorf("outer: %w", err)))
	assert.False(t, IsCancelled(context.Canceled))
}

func TestProviderUnavailableUnwrap(t *testing.T) {
	underlying := errors.New("socket closed")
	err := NewProviderUnavailable("connection lost", underlying)

	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "connection lost")
	assert.Contains(t, err.Error(), "socket closed")

	bare := NewProviderUnavailable("not loaded", nil)
	assert.Contains(t, bare.Error(), "not loaded")
}

func TestIsNotFound(t *testing.T) {
	err := NewNotFound(types.LocationHint{SymbolName: "Missing"}, types.KindFilterAny)

	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(nil))
}
