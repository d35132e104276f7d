package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{
		ErrBadRequest, ErrNoFunds, ErrNoLand, ErrNoResource,
		ErrInvalidTarget, ErrStorageFull, ErrRateLimit,
		ErrConflict, ErrBlocked, ErrStale, ErrInternal,
	} {
		if !IsKnownCode(code) {
			t.Fatalf("expected %q to be known", code)
		}
	}
	if !IsKnownCode("") {
		t.Fatalf("empty code should be accepted (success results carry no code)")
	}
	if IsKnownCode("E_MADE_UP") {
		t.Fatalf("unknown code accepted")
	}
}
