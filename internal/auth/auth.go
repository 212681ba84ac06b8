// Package auth issues and validates the signed session tokens handed out on login
// and provides the HTTP middleware that guards the protected routes with them.
// Tokens travel in the `Authorization: Bearer <token>` header.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/jobvocab/internal/logger"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
)

// Auth handles JWT issuing and verification.
type Auth struct {
	// signingSecretKey is the HMAC key used to sign JWTs.
	signingSecretKey []byte

	// tokenTTL bounds the token lifetime. Zero means tokens never expire.
	tokenTTL time.Duration

	now func() time.Time
}

// Claims represents the JWT claims used by the system.
// The registered `sub` claim carries the login email.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	JobTitle string `json:"job_title"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// ClaimsKey is the context key used to store and retrieve the authenticated user's claims.
const ClaimsKey ContextKey = "claims"

const bearerPrefix = "Bearer "

// ErrInvalidToken is returned when a token fails signature, algorithm, expiry or shape checks.
var ErrInvalidToken = errors.New("invalid_token")

// ErrMissingToken is returned when the request carries no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

type InitOption func(*Auth)

// WithClock overrides the time source used for `iat` and `exp`.
func WithClock(now func() time.Time) InitOption {
	return func(a *Auth) {
		a.now = now
	}
}

// New creates a new Auth with the given JWT signing secret and token lifetime.
func New(signingSecretKey []byte, tokenTTL time.Duration, optionsProto ...InitOption) *Auth {
	a := &Auth{
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
		now:              time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(a)
	}

	return a
}

// Issue signs a token for the given identity.
func (a *Auth) Issue(email, userID, jobTitle string) (string, error) {
	issuedAt := a.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  email,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		UserID:   userID,
		JobTitle: jobTitle,
	}
	if a.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(a.tokenTTL))
	}

	return a.buildJWTString(claims)
}

// Validate verifies the token signature and decodes its claims.
// Every failure is reported as ErrInvalidToken.
func (a *Auth) Validate(tokenString string) (*Claims, error) {
	if err := checkSegmentsEncoding(tokenString); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no user_id claim", ErrInvalidToken)
	}

	return claims, nil
}

// AuthenticateUser is an HTTP middleware that authenticates incoming requests
// using the bearer token from the Authorization header.
// It stores the decoded claims in the request context or answers 401.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, err := getBearerToken(request)
		if err != nil {
			writeUnauthorized(response, "Not authenticated")
			return
		}

		claims, err := a.Validate(tokenString)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.Validate()`: ", zap.Error(err))
			writeUnauthorized(response, "Token verification failed")
			return
		}

		logger.AnnotateUserID(request.Context(), claims.UserID)
		ctx := context.WithValue(request.Context(), ClaimsKey, claims)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// ClaimsFromContext returns the claims stored by AuthenticateUser.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

func getBearerToken(request *http.Request) (string, error) {
	header := request.Header.Get("Authorization")
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMissingToken
	}

	return strings.TrimSpace(header[len(bearerPrefix):]), nil
}

// checkSegmentsEncoding rejects segments with non-canonical base64 so that
// flipping unused trailing bits is detected as tampering.
func checkSegmentsEncoding(tokenString string) error {
	segments := strings.Split(tokenString, ".")
	if len(segments) != 3 {
		return fmt.Errorf("token has %d segments", len(segments))
	}
	for _, segment := range segments {
		if _, err := base64.RawURLEncoding.Strict().DecodeString(segment); err != nil {
			return err
		}
	}

	return nil
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func writeUnauthorized(response http.ResponseWriter, detail string) {
	response.Header().Set("Content-Type", "application/json")
	response.Header().Set("WWW-Authenticate", "Bearer")
	response.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(response).Encode(models.ErrorResponse{Detail: detail}); err != nil {
		logger.Log.Debugln("Error encoding the unauthorized response: ", zap.Error(err))
	}
}
