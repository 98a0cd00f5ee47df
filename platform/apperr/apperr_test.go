package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Upstream("down", errors.New("dial tcp")), http.StatusBadGateway},
		{New(KindCanceled, "superseded"), http.StatusConflict},
		{Internal("boom"), http.StatusInternalServerError},
		{New(KindUnknown, "?"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Fatalf("expected %d for %q, got %d", tc.want, tc.err.Message, got)
		}
	}
}

func TestGetKind_UnwrapsChain(t *testing.T) {
	inner := Upstream("search backend unavailable", errors.New("connection refused")).WithOp("search.Execute")
	wrapped := fmt.Errorf("form search: %w", inner)

	if !Is(wrapped, KindUpstream) {
		t.Fatalf("expected wrapped error to carry KindUpstream")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected KindUnknown for untyped error")
	}
	if inner.Error() != "search.Execute: search backend unavailable" {
		t.Fatalf("unexpected message %q", inner.Error())
	}
}
