package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/patric-chuzhbe/jobvocab/internal/logger"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func TestIssueAndValidateRoundTrip(t *testing.T) {
	theAuth := New(testKey, 0)

	token, err := theAuth.Issue("A@X.com", "user-1", "chef")
	require.NoError(t, err)

	claims, err := theAuth.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "A@X.com", claims.Subject)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "chef", claims.JobTitle)
	assert.Nil(t, claims.ExpiresAt)
}

func TestValidateRejectsEveryAlteredByte(t *testing.T) {
	theAuth := New(testKey, time.Hour)

	token, err := theAuth.Issue("a@x.com", "user-1", "chef")
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		altered := []byte(token)
		for _, replacement := range []byte(base64URLAlphabet + ".") {
			if replacement != token[i] {
				altered[i] = replacement
				break
			}
		}

		_, err := theAuth.Validate(string(altered))
		assert.ErrorIs(t, err, ErrInvalidToken, "byte %d altered", i)
	}
}

func TestValidateRejectsFlippedTrailingBits(t *testing.T) {
	theAuth := New(testKey, 0)

	token, err := theAuth.Issue("a@x.com", "user-1", "chef")
	require.NoError(t, err)

	last := token[len(token)-1]
	for _, replacement := range []byte(base64URLAlphabet) {
		if replacement == last {
			continue
		}
		_, err := theAuth.Validate(token[:len(token)-1] + string(replacement))
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestValidateFailures(t *testing.T) {
	theAuth := New(testKey, time.Hour)

	otherKeyToken, err := New([]byte("another key"), 0).Issue("a@x.com", "user-1", "chef")
	require.NoError(t, err)

	noUserID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "a@x.com"},
		JobTitle:         "chef",
	}).SignedString(testKey)
	require.NoError(t, err)

	wrongAlgorithm, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "user-1"}).SignedString(testKey)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	expired, err := New(testKey, time.Hour, WithClock(func() time.Time { return past })).
		Issue("a@x.com", "user-1", "chef")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "other_key", token: otherKeyToken},
		{name: "no_user_id", token: noUserID},
		{name: "wrong_algorithm", token: wrongAlgorithm},
		{name: "expired", token: expired},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			claims, err := theAuth.Validate(testCase.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestIssueSetsExpiry(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	theAuth := New(testKey, 24*time.Hour, WithClock(func() time.Time { return now }))

	token, err := theAuth.Issue("a@x.com", "user-1", "chef")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, now.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
}

func TestAuthenticateUser(t *testing.T) {
	theAuth := New(testKey, 0)
	validToken, err := theAuth.Issue("a@x.com", "user-1", "chef")
	require.NoError(t, err)

	var seenClaims *Claims
	protected := theAuth.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	testCases := []struct {
		name           string
		header         string
		expectedCode   int
		expectedDetail string
	}{
		{name: "valid", header: "Bearer " + validToken, expectedCode: http.StatusOK},
		{name: "lowercase_scheme", header: "bearer " + validToken, expectedCode: http.StatusOK},
		{name: "missing", header: "", expectedCode: http.StatusUnauthorized, expectedDetail: "Not authenticated"},
		{name: "no_scheme", header: validToken, expectedCode: http.StatusUnauthorized, expectedDetail: "Not authenticated"},
		{
			name:           "tampered",
			header:         "Bearer " + validToken + "x",
			expectedCode:   http.StatusUnauthorized,
			expectedDetail: "Token verification failed",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			seenClaims = nil
			request := httptest.NewRequest(http.MethodGet, "/get-data", nil)
			if testCase.header != "" {
				request.Header.Set("Authorization", testCase.header)
			}
			recorder := httptest.NewRecorder()

			protected.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.expectedCode, recorder.Code)
			if testCase.expectedCode == http.StatusOK {
				require.NotNil(t, seenClaims)
				assert.Equal(t, "user-1", seenClaims.UserID)
				return
			}

			assert.Nil(t, seenClaims)
			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, testCase.expectedDetail, body.Detail)
		})
	}
}

func TestAuthenticateUserAnnotatesRequestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	previous := logger.Log
	logger.Log = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Log = previous })

	theAuth := New(testKey, 0)
	token, err := theAuth.Issue("a@x.com", "user-7", "chef")
	require.NoError(t, err)

	handler := logger.WithLoggingHTTPMiddleware(theAuth.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	request := httptest.NewRequest(http.MethodGet, "/get-data", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), request)

	entries := logs.FilterMessage("request served").TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, "user-7", entries[0].ContextMap()["user_id"])
}
