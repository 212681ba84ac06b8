// Package storage declares the persistence contract shared by every backend.
package storage

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/user"
)

// ErrConflict is returned when a write would break a uniqueness rule:
// a second user with the same email or a second record for the same user and day.
var ErrConflict = errors.New("conflict")

type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) error

	GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error)

	FindRecord(ctx context.Context, userID, day string) (*models.GenerationRecord, bool, error)

	SaveRecord(ctx context.Context, record *models.GenerationRecord) error

	// GetUserRecords returns every record of the user in no particular order.
	GetUserRecords(ctx context.Context, userID string) ([]models.GenerationRecord, error)

	Ping(ctx context.Context) error

	Close() error
}
