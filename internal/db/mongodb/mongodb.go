// Package mongodb stores users and generation records as MongoDB documents
// in the "users" and "words_generation_info" collections.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/patric-chuzhbe/jobvocab/internal/db/storage"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/user"
)

const (
	usersCollection   = "users"
	recordsCollection = "words_generation_info"
)

type MongoDB struct {
	client            *mongo.Client
	users             *mongo.Collection
	records           *mongo.Collection
	connectionTimeout time.Duration
}

// New connects to uri, pings the primary and makes sure the unique indexes exist.
func New(ctx context.Context, uri, databaseName string, connectionTimeout time.Duration) (*MongoDB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/New(): error while `mongo.Connect()` calling: %w", err)
	}

	database := client.Database(databaseName)
	result := &MongoDB{
		client:            client,
		users:             database.Collection(usersCollection),
		records:           database.Collection(recordsCollection),
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/New(): error while `result.Ping()` calling: %w", err)
	}

	if err := result.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/New(): error while `result.ensureIndexes()` calling: %w", err)
	}

	return result, nil
}

func (db *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := db.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.records.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "words_generated_on", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return err
}

func (db *MongoDB) CreateUser(ctx context.Context, usr *user.User) error {
	document := *usr
	if document.CreatedAt.IsZero() {
		document.CreatedAt = time.Now()
	}

	_, err := db.users.InsertOne(ctx, document)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("in internal/db/mongodb/mongodb.go/CreateUser(): error while `db.users.InsertOne()` calling: %w", err)
	}

	return nil
}

func (db *MongoDB) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	result := &user.User{}
	err := db.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/mongodb/mongodb.go/GetUserByEmail(): error while `FindOne()` calling: %w", err)
	}

	return result, true, nil
}

func (db *MongoDB) FindRecord(ctx context.Context, userID, day string) (*models.GenerationRecord, bool, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "words_generated_on", Value: day},
	}

	result := &models.GenerationRecord{}
	err := db.records.FindOne(ctx, filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/mongodb/mongodb.go/FindRecord(): error while `FindOne()` calling: %w", err)
	}

	return result, true, nil
}

func (db *MongoDB) SaveRecord(ctx context.Context, record *models.GenerationRecord) error {
	_, err := db.records.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("in internal/db/mongodb/mongodb.go/SaveRecord(): error while `db.records.InsertOne()` calling: %w", err)
	}

	return nil
}

func (db *MongoDB) GetUserRecords(ctx context.Context, userID string) ([]models.GenerationRecord, error) {
	cursor, err := db.records.Find(ctx, bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/GetUserRecords(): error while `db.records.Find()` calling: %w", err)
	}

	result := []models.GenerationRecord{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/GetUserRecords(): error while `cursor.All()` calling: %w", err)
	}

	return result, nil
}

func (db *MongoDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.client.Ping(ctxWithTimeout, readpref.Primary())
}

func (db *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), db.connectionTimeout)
	defer cancel()

	return db.client.Disconnect(ctx)
}
