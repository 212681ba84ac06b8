// Package mockstorage provides testify-based mocks of the storage and
// content generation collaborators used by the service and router packages.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/user"
)

// StorageMock is a testify mock of storage.Storage.
//
// Use it in service and router tests to simulate database behavior.
type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindRecord(ctx context.Context, userID, day string) (*models.GenerationRecord, bool, error) {
	args := m.Called(ctx, userID, day)
	record, _ := args.Get(0).(*models.GenerationRecord)
	return record, args.Bool(1), args.Error(2)
}

func (m *StorageMock) SaveRecord(ctx context.Context, record *models.GenerationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *StorageMock) GetUserRecords(ctx context.Context, userID string) ([]models.GenerationRecord, error) {
	args := m.Called(ctx, userID)
	records, _ := args.Get(0).([]models.GenerationRecord)
	return records, args.Error(1)
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GeneratorMock is a testify mock of the content generation gateway.
// It returns the literal agent text the test configures.
type GeneratorMock struct {
	mock.Mock
}

func (m *GeneratorMock) GenerateVocabulary(ctx context.Context, jobTitle string) (string, error) {
	args := m.Called(ctx, jobTitle)
	return args.String(0), args.Error(1)
}

func (m *GeneratorMock) GenerateQuiz(ctx context.Context, words models.WordObject) (string, error) {
	args := m.Called(ctx, words)
	return args.String(0), args.Error(1)
}
