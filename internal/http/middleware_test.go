package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/workshop-scheduler/internal/application"
	"github.com/example/workshop-scheduler/internal/persistence"
)

type authenticatorStub struct {
	principal application.Principal
	err       error

	gotEmail    string
	gotPassword string
}

func (a *authenticatorStub) Authenticate(ctx context.Context, email, password string) (application.Principal, error) {
	a.gotEmail = email
	a.gotPassword = password
	if a.err != nil {
		return application.Principal{}, a.err
	}
	return a.principal, nil
}

func TestRequireMember(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("rejects requests without credentials", func(t *testing.T) {
		t.Parallel()

		handler := RequireMember(&authenticatorStub{}, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run without credentials")
		}))

		req := httptest.NewRequest(http.MethodGet, "/resources", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		if challenge := recorder.Header().Get("WWW-Authenticate"); challenge == "" {
			t.Fatal("expected a WWW-Authenticate challenge")
		}
	})

	t.Run("maps invalid credentials to 401", func(t *testing.T) {
		t.Parallel()

		auth := &authenticatorStub{err: application.ErrInvalidCredentials}
		handler := RequireMember(auth, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run on failed authentication")
		}))

		req := httptest.NewRequest(http.MethodGet, "/resources", nil)
		req.SetBasicAuth("member@example.com", "wrong")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		if auth.gotEmail != "member@example.com" || auth.gotPassword != "wrong" {
			t.Fatalf("expected credentials forwarded, got %q / %q", auth.gotEmail, auth.gotPassword)
		}
	})

	t.Run("attaches the principal to the request context", func(t *testing.T) {
		t.Parallel()

		want := application.Principal{MemberID: 7, Role: persistence.RoleAdmin}
		auth := &authenticatorStub{principal: want}

		var got application.Principal
		handler := RequireMember(auth, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in context")
			}
			got = principal
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/resources", nil)
		req.SetBasicAuth("admin@example.com", "secret")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if got != want {
			t.Fatalf("expected principal %+v, got %+v", want, got)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("assigns a request id and scoped logger", func(t *testing.T) {
		t.Parallel()

		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if LoggerFromContext(r.Context()) == nil {
				t.Fatal("expected a logger in the request context")
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/resources", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Header().Get("X-Request-ID") == "" {
			t.Fatal("expected a generated X-Request-ID header")
		}
	})

	t.Run("reuses an incoming request id", func(t *testing.T) {
		t.Parallel()

		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/resources", nil)
		req.Header.Set("X-Request-ID", "upstream-42")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if got := recorder.Header().Get("X-Request-ID"); got != "upstream-42" {
			t.Fatalf("expected the upstream id echoed, got %q", got)
		}
	})
}
