package errors

import (
	stderrs "errors"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMappings(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeDuplicateKey, http.StatusConflict},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeSlugExhausted, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodePanic, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d want %d", c.code, got, c.want)
		}
	}
}

func TestWrapAndCodeOf(t *testing.T) {
	cause := stderrs.New("disk full")
	err := Wrap(cause, ErrorCodeDB, "insert call")

	if CodeOf(err) != ErrorCodeDB {
		t.Fatalf("CodeOf = %v", CodeOf(err))
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("wrapped cause must survive errors.Is")
	}
	if Root(err) != cause {
		t.Fatalf("Root = %v want cause", Root(err))
	}
	if CodeOf(cause) != ErrorCodeUnknown {
		t.Fatalf("plain errors default to unknown, got %v", CodeOf(cause))
	}
}

func TestCodeSurvivesFurtherWrapping(t *testing.T) {
	inner := SlugExhaustedf("still colliding")
	outer := Wrapf(inner, ErrorCodeDB, "create call")

	// As finds the outermost *Error; the outer classification wins
	if CodeOf(outer) != ErrorCodeDB {
		t.Fatalf("outer code = %v", CodeOf(outer))
	}
	// but the inner cause is still reachable
	if !IsCode(stderrs.Unwrap(outer), ErrorCodeSlugExhausted) {
		t.Fatalf("inner code lost")
	}
}

func TestWireFrom(t *testing.T) {
	if w := WireFrom(nil); w != (Wire{}) {
		t.Fatalf("WireFrom(nil) = %+v", w)
	}

	w := WireFrom(WithField(Newf(ErrorCodeValidation, "title too short"), "title"))
	if w.Code != ErrorCodeValidation || w.Field != "title" || w.Message != "title too short" {
		t.Fatalf("WireFrom = %+v", w)
	}

	plain := WireFrom(stderrs.New("boom"))
	if plain.Code != ErrorCodeUnknown || plain.Message != "boom" {
		t.Fatalf("WireFrom(plain) = %+v", plain)
	}
}

func TestMutatorsAreCopyOnWrite(t *testing.T) {
	base := Newf(ErrorCodeValidation, "bad input")

	withField := WithField(base, "title")
	e, _ := As(withField)
	if e.Field() != "title" {
		t.Fatalf("field not attached")
	}
	orig, _ := As(base)
	if orig.Field() != "" {
		t.Fatalf("WithField mutated the original")
	}

	withOp := WithOp(base, "calls.create")
	e2, _ := As(withOp)
	if e2.Op() != "calls.create" {
		t.Fatalf("op not attached")
	}

	// non-*Error inputs pass through untouched
	plain := stderrs.New("x")
	if WithField(plain, "f") != plain || WithOp(plain, "o") != plain {
		t.Fatalf("mutators must not wrap foreign errors")
	}
}

func TestWrapIf(t *testing.T) {
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) must be nil")
	}
	if CodeOf(WrapIf(stderrs.New("y"), ErrorCodeDB, "x")) != ErrorCodeDB {
		t.Fatalf("WrapIf must classify")
	}
}

func TestHTTPHelper(t *testing.T) {
	if st, w := HTTP(nil); st != http.StatusOK || w != (Wire{}) {
		t.Fatalf("HTTP(nil) mismatch: %d %+v", st, w)
	}
	st, w := HTTP(NotFoundf("call %q", "ghost"))
	if st != http.StatusNotFound || w.Code != ErrorCodeNotFound {
		t.Fatalf("HTTP(err) mismatch: %d %+v", st, w)
	}
}
