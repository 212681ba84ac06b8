// Package postgresdb provides a PostgreSQL-based implementation of the storage interface
// for persisting users and their daily generation records.
// Word objects are kept as JSONB; uniqueness is enforced by the schema.
package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/jobvocab/internal/db/storage"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/user"
)

// PostgresDB is a PostgreSQL-backed implementation of storage.Storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables dropping every table before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/New(): error while `sql.Open()` calling: %w",
			err,
		)
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w",
			err,
		)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
				err,
			)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		database.Close()
		return nil, fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
			err,
		)
	}

	if err := goose.UpContext(ctx, result.database, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.UpContext()` calling: %w",
			err,
		)
	}

	return result, nil
}

// CreateUser inserts a new user. A taken email yields storage.ErrConflict.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) error {
	createdAt := usr.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO users (id, email, password, job_title, created_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (email) DO NOTHING
		`,
		usr.ID,
		usr.Email,
		usr.PasswordHash,
		usr.JobTitle,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/CreateUser(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}

	return conflictOnNoRows(res)
}

// GetUserByEmail fetches a user by the normalized email.
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, password, job_title, created_at FROM users WHERE email = $1`,
		email,
	)

	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Email, &usr.PasswordHash, &usr.JobTitle, &usr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return usr, true, nil
}

// FindRecord retrieves the record generated for the user on day.
func (db *PostgresDB) FindRecord(ctx context.Context, userID, day string) (*models.GenerationRecord, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			SELECT word_object
				FROM words_generation_info
				WHERE user_id = $1 AND words_generated_on = $2
		`,
		userID,
		day,
	)

	var wordObject []byte
	if err := row.Scan(&wordObject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	record := &models.GenerationRecord{UserID: userID, WordsGeneratedOn: day}
	if err := json.Unmarshal(wordObject, &record.WordObject); err != nil {
		return nil, false, fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/FindRecord(): error while `json.Unmarshal()` calling: %w",
			err,
		)
	}

	return record, true, nil
}

// SaveRecord inserts the record. A second record for the same user and day yields storage.ErrConflict.
func (db *PostgresDB) SaveRecord(ctx context.Context, record *models.GenerationRecord) error {
	wordObject, err := json.Marshal(record.WordObject)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/SaveRecord(): error while `json.Marshal()` calling: %w",
			err,
		)
	}

	res, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO words_generation_info (user_id, words_generated_on, word_object)
				VALUES ($1, $2, $3)
				ON CONFLICT (user_id, words_generated_on) DO NOTHING
		`,
		record.UserID,
		record.WordsGeneratedOn,
		wordObject,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/SaveRecord(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}

	return conflictOnNoRows(res)
}

// GetUserRecords returns every record of the user.
func (db *PostgresDB) GetUserRecords(ctx context.Context, userID string) ([]models.GenerationRecord, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT words_generated_on, word_object FROM words_generation_info WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.GenerationRecord{}
	for rows.Next() {
		var (
			day        string
			wordObject []byte
		)
		if err := rows.Scan(&day, &wordObject); err != nil {
			return nil, err
		}

		record := models.GenerationRecord{UserID: userID, WordsGeneratedOn: day}
		if err := json.Unmarshal(wordObject, &record.WordObject); err != nil {
			return nil, fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/GetUserRecords(): error while `json.Unmarshal()` calling: %w",
				err,
			)
		}
		result = append(result, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}

func conflictOnNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrConflict
	}

	return nil
}
