// Package router exposes the HTTP API: signup, login and the authenticated
// vocabulary, history and quiz endpoints.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/jobvocab/internal/auth"
	"github.com/patric-chuzhbe/jobvocab/internal/generator"
	"github.com/patric-chuzhbe/jobvocab/internal/gzippedhttp"
	"github.com/patric-chuzhbe/jobvocab/internal/logger"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/service"
)

type accountService interface {
	SignUp(ctx context.Context, request models.SignUpRequest) error

	LogIn(ctx context.Context, request models.LogInRequest) (models.TokenResponse, error)
}

type vocabularyService interface {
	GenerateDailyWords(ctx context.Context, claims *auth.Claims) (models.WordObject, error)

	GetDailyWords(ctx context.Context, claims *auth.Claims) (models.WordObject, bool, error)

	GetHistory(ctx context.Context, claims *auth.Claims) ([]models.GenerationRecord, error)

	GenerateQuiz(ctx context.Context, claims *auth.Claims) ([]models.QuizItem, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type appService interface {
	accountService
	vocabularyService
	pinger
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
}

// normalizer is implemented by request bodies that canonicalize fields before validation.
type normalizer interface {
	Normalize()
}

// maxRequestBodySize bounds signup and login bodies.
const maxRequestBodySize = 1 << 20

type Router struct {
	*chi.Mux
	service  appService
	validate *validator.Validate
}

func New(svc appService, authMiddleware authenticator) *Router {
	r := &Router{
		Mux:      chi.NewRouter(),
		service:  svc,
		validate: newValidator(),
	}

	r.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)

	r.Get(`/`, r.GetRoot)
	r.Get(`/ping`, r.GetPing)
	r.Post(`/signup`, r.PostSignup)
	r.Post(`/login`, r.PostLogin)

	r.Group(func(protected chi.Router) {
		protected.Use(authMiddleware.AuthenticateUser)

		protected.Get(`/generate-data`, r.GetGenerateData)
		protected.Get(`/get-data`, r.GetData)
		protected.Get(`/get-history`, r.GetHistory)
		protected.Get(`/quiz`, r.GetQuiz)
	})

	return r
}

// GetRoot is the liveness endpoint.
func (r *Router) GetRoot(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusOK, "welcome")
}

// GetPing reports whether the storage answers.
func (r *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := r.service.Ping(req.Context()); err != nil {
		logger.Log.Errorw("storage ping failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, "Storage is unavailable")
		return
	}

	res.WriteHeader(http.StatusOK)
}

// PostSignup registers a user: {"email", "password", "job_title"}.
func (r *Router) PostSignup(res http.ResponseWriter, req *http.Request) {
	var request models.SignUpRequest
	if !r.decodeAndValidate(res, req, &request) {
		return
	}

	err := r.service.SignUp(req.Context(), request)
	switch {
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		writeError(res, http.StatusBadRequest, "Email already registered")
		return
	case errors.Is(err, service.ErrPasswordTooLong):
		writeError(res, http.StatusBadRequest, "password must be at most 72 bytes")
		return
	case err != nil:
		logger.Log.Errorw("signup failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, "Error creating user")
		return
	}

	writeJSON(res, http.StatusOK, models.MessageResponse{Message: "User created successfully"})
}

// PostLogin exchanges credentials for a bearer token.
func (r *Router) PostLogin(res http.ResponseWriter, req *http.Request) {
	var request models.LogInRequest
	if !r.decodeAndValidate(res, req, &request) {
		return
	}

	token, err := r.service.LogIn(req.Context(), request)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(res, http.StatusBadRequest, "invalid credentials")
		return
	case errors.Is(err, service.ErrInvalidPassword):
		writeError(res, http.StatusBadRequest, "Invalid password")
		return
	case err != nil:
		logger.Log.Errorw("login failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, "Error logging in")
		return
	}

	writeJSON(res, http.StatusOK, token)
}

// GetGenerateData returns today's word object, generating it on the first call of the day.
func (r *Router) GetGenerateData(res http.ResponseWriter, req *http.Request) {
	claims, ok := r.claims(res, req)
	if !ok {
		return
	}

	words, err := r.service.GenerateDailyWords(req.Context(), claims)
	if err != nil {
		logger.Log.Errorw("daily words generation failed", "user_id", claims.UserID, zap.Error(err))
		writeError(res, http.StatusInternalServerError, "Error generating or saving data")
		return
	}

	writeJSON(res, http.StatusOK, words)
}

// GetData returns today's word object or null.
func (r *Router) GetData(res http.ResponseWriter, req *http.Request) {
	claims, ok := r.claims(res, req)
	if !ok {
		return
	}

	words, found, err := r.service.GetDailyWords(req.Context(), claims)
	if err != nil {
		logger.Log.Errorw("daily words lookup failed", "user_id", claims.UserID, zap.Error(err))
		writeError(res, http.StatusInternalServerError, "Error reading data")
		return
	}
	if !found {
		writeJSON(res, http.StatusOK, nil)
		return
	}

	writeJSON(res, http.StatusOK, words)
}

// GetHistory returns every record of the user, most recent day first.
func (r *Router) GetHistory(res http.ResponseWriter, req *http.Request) {
	claims, ok := r.claims(res, req)
	if !ok {
		return
	}

	records, err := r.service.GetHistory(req.Context(), claims)
	if err != nil {
		logger.Log.Errorw("history lookup failed", "user_id", claims.UserID, zap.Error(err))
		writeError(res, http.StatusInternalServerError, "Error reading history")
		return
	}

	writeJSON(res, http.StatusOK, records)
}

// GetQuiz returns a quiz built from today's word object, or [] when there is none.
func (r *Router) GetQuiz(res http.ResponseWriter, req *http.Request) {
	claims, ok := r.claims(res, req)
	if !ok {
		return
	}

	quiz, err := r.service.GenerateQuiz(req.Context(), claims)
	if errors.Is(err, generator.ErrMalformedOutput) {
		logger.Log.Debugw("generated quiz is malformed", "user_id", claims.UserID, zap.Error(err))
		writeError(res, http.StatusInternalServerError, "Invalid quiz JSON")
		return
	}
	if err != nil {
		logger.Log.Errorw("quiz generation failed", "user_id", claims.UserID, zap.Error(err))
		writeError(res, http.StatusInternalServerError, "Error generating quiz")
		return
	}

	writeJSON(res, http.StatusOK, quiz)
}

func (r *Router) claims(res http.ResponseWriter, req *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(req.Context())
	if !ok {
		writeError(res, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}

	return claims, true
}

func (r *Router) decodeAndValidate(res http.ResponseWriter, req *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(res, req.Body, maxRequestBodySize))
	if err := decoder.Decode(target); err != nil {
		logger.Log.Debugw("cannot decode request body", zap.Error(err))
		writeError(res, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if n, ok := target.(normalizer); ok {
		n.Normalize()
	}

	if err := r.validate.Struct(target); err != nil {
		writeError(res, http.StatusBadRequest, validationDetail(err))
		return false
	}

	return true
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	return validate
}

func validationDetail(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Invalid request body"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fieldErr.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", fieldErr.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", fieldErr.Field(), fieldErr.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fieldErr.Field()))
		}
	}

	return strings.Join(messages, "; ")
}

func writeJSON(res http.ResponseWriter, status int, body interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)

	if err := json.NewEncoder(res).Encode(body); err != nil {
		logger.Log.Debugw("cannot write response body", zap.Error(err))
	}
}

func writeError(res http.ResponseWriter, status int, detail string) {
	writeJSON(res, status, models.ErrorResponse{Detail: detail})
}
