package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/jobvocab/internal/auth"
	"github.com/patric-chuzhbe/jobvocab/internal/credentials"
	"github.com/patric-chuzhbe/jobvocab/internal/db/storage"
	"github.com/patric-chuzhbe/jobvocab/internal/generator"
	"github.com/patric-chuzhbe/jobvocab/internal/logger"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/user"
)

type usersKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) error

	GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error)
}

type recordsKeeper interface {
	FindRecord(ctx context.Context, userID, day string) (*models.GenerationRecord, bool, error)

	SaveRecord(ctx context.Context, record *models.GenerationRecord) error

	GetUserRecords(ctx context.Context, userID string) ([]models.GenerationRecord, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type store interface {
	usersKeeper
	recordsKeeper
	pinger
}

type contentGenerator interface {
	GenerateVocabulary(ctx context.Context, jobTitle string) (string, error)

	GenerateQuiz(ctx context.Context, words models.WordObject) (string, error)
}

type tokenIssuer interface {
	Issue(email, userID, jobTitle string) (string, error)
}

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidPassword        = errors.New("invalid password")
	ErrPasswordTooLong        = errors.New("password is longer than 72 bytes")
)

const tokenType = "bearer"

type Service struct {
	db        store
	generator contentGenerator
	issuer    tokenIssuer
	now       func() time.Time
	location  *time.Location
}

type InitOption func(*Service)

// WithClock replaces time.Now, so tests can move between calendar days.
func WithClock(now func() time.Time) InitOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the time zone the calendar day is computed in.
func WithLocation(location *time.Location) InitOption {
	return func(s *Service) {
		s.location = location
	}
}

func New(
	db store,
	generator contentGenerator,
	issuer tokenIssuer,
	initOptions ...InitOption,
) *Service {
	result := &Service{
		db:        db,
		generator: generator,
		issuer:    issuer,
		now:       time.Now,
		location:  time.Local,
	}
	for _, initOption := range initOptions {
		initOption(result)
	}

	return result
}

// Today returns the current calendar day as stored in generation records.
func (s *Service) Today() string {
	return s.now().In(s.location).Format(models.DayLayout)
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// SignUp registers a new user with a hashed password.
func (s *Service) SignUp(ctx context.Context, request models.SignUpRequest) error {
	email := models.NormalizeEmail(request.Email)
	if len(request.Password) > models.MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	_, found, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("in internal/service/service.go/SignUp(): error while `s.db.GetUserByEmail()` calling: %w", err)
	}
	if found {
		return ErrEmailAlreadyRegistered
	}

	passwordHash, err := credentials.Hash(request.Password)
	if err != nil {
		return fmt.Errorf("in internal/service/service.go/SignUp(): error while `credentials.Hash()` calling: %w", err)
	}

	err = s.db.CreateUser(ctx, &user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		JobTitle:     request.JobTitle,
		CreatedAt:    s.now(),
	})
	if errors.Is(err, storage.ErrConflict) {
		return ErrEmailAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("in internal/service/service.go/SignUp(): error while `s.db.CreateUser()` calling: %w", err)
	}

	return nil
}

// LogIn checks the credentials and issues a bearer token.
func (s *Service) LogIn(ctx context.Context, request models.LogInRequest) (models.TokenResponse, error) {
	usr, found, err := s.db.GetUserByEmail(ctx, models.NormalizeEmail(request.Email))
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("in internal/service/service.go/LogIn(): error while `s.db.GetUserByEmail()` calling: %w", err)
	}
	if !found {
		return models.TokenResponse{}, ErrInvalidCredentials
	}

	if !credentials.Verify(request.Password, usr.PasswordHash) {
		return models.TokenResponse{}, ErrInvalidPassword
	}

	token, err := s.issuer.Issue(usr.Email, usr.ID, usr.JobTitle)
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("in internal/service/service.go/LogIn(): error while `s.issuer.Issue()` calling: %w", err)
	}

	return models.TokenResponse{AccessToken: token, TokenType: tokenType}, nil
}

// GenerateDailyWords returns today's word object for the user, generating and
// storing it on the first call of the day.
func (s *Service) GenerateDailyWords(ctx context.Context, claims *auth.Claims) (models.WordObject, error) {
	today := s.Today()

	record, found, err := s.db.FindRecord(ctx, claims.UserID, today)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/GenerateDailyWords(): error while `s.db.FindRecord()` calling: %w", err)
	}
	if found {
		return record.WordObject, nil
	}

	text, err := s.generator.GenerateVocabulary(ctx, claims.JobTitle)
	if err != nil {
		return nil, err
	}

	words, err := generator.ParseWordObject(text)
	if err != nil {
		return nil, err
	}

	err = s.db.SaveRecord(ctx, &models.GenerationRecord{
		UserID:           claims.UserID,
		WordObject:       words,
		WordsGeneratedOn: today,
	})
	if errors.Is(err, storage.ErrConflict) {
		logger.Log.Debugw("daily record was stored by a concurrent request", "user_id", claims.UserID, "day", today)
		return s.winningWords(ctx, claims.UserID, today)
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/GenerateDailyWords(): error while `s.db.SaveRecord()` calling: %w", err)
	}

	return words, nil
}

func (s *Service) winningWords(ctx context.Context, userID, day string) (models.WordObject, error) {
	record, found, err := s.db.FindRecord(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/winningWords(): error while `s.db.FindRecord()` calling: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("in internal/service/service.go/winningWords(): record for %s vanished after a conflict: %w", day, storage.ErrConflict)
	}

	return record.WordObject, nil
}

// GetDailyWords returns today's word object without generating anything.
func (s *Service) GetDailyWords(ctx context.Context, claims *auth.Claims) (models.WordObject, bool, error) {
	record, found, err := s.db.FindRecord(ctx, claims.UserID, s.Today())
	if err != nil {
		return nil, false, fmt.Errorf("in internal/service/service.go/GetDailyWords(): error while `s.db.FindRecord()` calling: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	return record.WordObject, true, nil
}

// GetHistory returns every record of the user, most recent day first.
func (s *Service) GetHistory(ctx context.Context, claims *auth.Claims) ([]models.GenerationRecord, error) {
	records, err := s.db.GetUserRecords(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/GetHistory(): error while `s.db.GetUserRecords()` calling: %w", err)
	}

	if records == nil {
		records = []models.GenerationRecord{}
	}
	sortByDayDesc(records)

	return records, nil
}

// GenerateQuiz builds a quiz from today's word object. Without one the quiz is
// empty and the generator is not called.
func (s *Service) GenerateQuiz(ctx context.Context, claims *auth.Claims) ([]models.QuizItem, error) {
	words, found, err := s.GetDailyWords(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.QuizItem{}, nil
	}

	text, err := s.generator.GenerateQuiz(ctx, words)
	if err != nil {
		return nil, err
	}

	return generator.ParseQuiz(text)
}

// sortByDayDesc orders records by parsed day. Unparsable days go last in their original order.
func sortByDayDesc(records []models.GenerationRecord) {
	days := make([]time.Time, len(records))
	for i, record := range records {
		day, err := time.Parse(models.DayLayout, record.WordsGeneratedOn)
		if err == nil {
			days[i] = day
		}
	}

	indexes := make([]int, len(records))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		return days[indexes[a]].After(days[indexes[b]])
	})

	sorted := make([]models.GenerationRecord, len(records))
	for i, index := range indexes {
		sorted[i] = records[index]
	}
	copy(records, sorted)
}
