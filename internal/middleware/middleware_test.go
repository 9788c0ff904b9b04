package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// mockTokenValidator is a mock implementation of TokenValidator
type mockTokenValidator struct {
	userID int
	role   int
	err    error
	token  string
}

func (m *mockTokenValidator) ValidateAccessToken(token string) (int, int, error) {
	m.token = token
	if m.err != nil {
		return 0, 0, m.err
	}
	return m.userID, m.role, nil
}

func TestRoleMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		requiredRole   int
		setupRequest   func(r *http.Request)
		validator      *mockTokenValidator
		expectedStatus int
		expectedUserID int
		expectedToken  string
	}{
		{
			name:         "bearer header",
			requiredRole: 0,
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer abc")
			},
			validator:      &mockTokenValidator{userID: 5, role: 1},
			expectedStatus: http.StatusOK,
			expectedUserID: 5,
			expectedToken:  "abc",
		},
		{
			name:         "cookie fallback",
			requiredRole: 0,
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: "from-cookie"})
			},
			validator:      &mockTokenValidator{userID: 9, role: 1},
			expectedStatus: http.StatusOK,
			expectedUserID: 9,
			expectedToken:  "from-cookie",
		},
		{
			name:           "missing token",
			requiredRole:   0,
			setupRequest:   func(r *http.Request) {},
			validator:      &mockTokenValidator{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:         "invalid token",
			requiredRole: 0,
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer bad")
			},
			validator:      &mockTokenValidator{err: errors.New("expired")},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:         "insufficient role",
			requiredRole: 3,
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer abc")
			},
			validator:      &mockTokenValidator{userID: 5, role: 1},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:         "admin role",
			requiredRole: 3,
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer abc")
			},
			validator:      &mockTokenValidator{userID: 1, role: 3},
			expectedStatus: http.StatusOK,
			expectedUserID: 1,
			expectedToken:  "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID int
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setupRequest(req)
			w := httptest.NewRecorder()

			RoleMiddleware(tt.validator, tt.requiredRole)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedUserID, gotUserID)
			if tt.expectedToken != "" {
				assert.Equal(t, tt.expectedToken, tt.validator.token)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var got string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetRequestID(r.Context())
		})
		w := httptest.NewRecorder()

		RequestIDMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, got)
		assert.Equal(t, got, w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		var got string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetRequestID(r.Context())
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-1")

		RequestIDMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "req-1", got)
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		var got string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetRequestID(r.Context())
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "bad id\nwith newline")

		RequestIDMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, "bad id\nwith newline", got)
		assert.Len(t, got, 36)
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []string
		origin          string
		method          string
		preflightMethod string
		expectedOrigin  string
		expectedStatus  int
	}{
		{"wildcard echoes origin", []string{"*"}, "https://app.example.com", http.MethodGet, "", "https://app.example.com", http.StatusOK},
		{"listed origin", []string{"https://app.example.com"}, "https://APP.example.com", http.MethodGet, "", "https://APP.example.com", http.StatusOK},
		{"unlisted origin", []string{"https://app.example.com"}, "https://evil.example.com", http.MethodGet, "", "", http.StatusOK},
		{"no origin", []string{"*"}, "", http.MethodGet, "", "", http.StatusOK},
		{"preflight", []string{"*"}, "https://app.example.com", http.MethodOptions, http.MethodPost, "https://app.example.com", http.StatusNoContent},
		{"plain options passes through", []string{"*"}, "https://app.example.com", http.MethodOptions, "", "https://app.example.com", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflightMethod != "" {
				req.Header.Set("Access-Control-Request-Method", tt.preflightMethod)
			}
			w := httptest.NewRecorder()

			CORSMiddleware(tt.allowed)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectedStatus == http.StatusNoContent {
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Last-Event-ID")
			}
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RequestSizeLimitMiddleware(8)(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryMiddleware_RepanicsOnAbort(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic(http.ErrAbortHandler) })

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		RecoveryMiddleware(zap.NewNop())(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	w := httptest.NewRecorder()

	RecoveryMiddleware(zap.NewNop())(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestLoggerMiddleware_KeepsFlusher(t *testing.T) {
	var flushable bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()

	LoggerMiddleware(zap.NewNop())(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, flushable)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestLoggerMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusConflict, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("body"))
			})

			LoggerMiddleware(zap.New(core))(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			entries := logs.All()
			assert.Len(t, entries, 1)
			assert.Equal(t, tt.expected, entries[0].Level)
			assert.Equal(t, int64(4), entries[0].ContextMap()["bytes"])
		})
	}
}
