package sales

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsboard/opsboard/internal/products"
)

func testHandler() *Handler {
	return &Handler{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// A rejected deduction must reach the client as a 409 naming the product and
// both quantities, even when the race is only decided inside the transaction
// and the error surfaces wrapped by the repository layer.
func TestRespondErrorMapsInsufficientStockToConflict(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()

	err := fmt.Errorf("create sale: %w", &products.InsufficientStockError{
		ProductID: 42,
		Name:      "Widget",
		Available: 1,
		Requested: 3,
	})
	h.respondError(rec, err)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Widget")
	require.Contains(t, body, "available 1")
	require.Contains(t, body, "requested 3")
}

func TestRespondErrorMapsDomainErrors(t *testing.T) {
	h := testHandler()

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"missing sale", ErrNotFound, http.StatusNotFound},
		{"unknown product", fmt.Errorf("line 1: %w", products.ErrNotFound), http.StatusBadRequest},
		{"bad status", ErrInvalidStatus, http.StatusBadRequest},
		{"line edit forbidden", ErrLineEditForbidden, http.StatusForbidden},
		{"bad line", &ValidationError{Line: 2, Reason: "quantity must be positive"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.respondError(rec, tc.err)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}
