// Package jsondb keeps users and generation records in memory and mirrors
// them into a single JSON document on disk.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/jobvocab/internal/db/storage"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/user"
)

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the document written to disk.
// Users are keyed by normalized email, records by user id and then by day.
type CacheStruct struct {
	Users   map[string]*user.User                          `json:"users"`
	Records map[string]map[string]*models.GenerationRecord `json:"words_generation_info"`
}

func NewCache() CacheStruct {
	return CacheStruct{
		Users:   map[string]*user.User{},
		Records: map[string]map[string]*models.GenerationRecord{},
	}
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"users": {},
	"words_generation_info": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	if _, err = file.Write(jsonData); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

// New loads fileName, creating an empty document when it does not exist yet.
func New(fileName string) (*JSONDB, error) {
	result := &JSONDB{
		fileName: fileName,
		Cache:    NewCache(),
	}

	err := parseJSONFile(result.fileName, &result.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `parseJSONFile()` calling: %w", err)
		}
		if err := initDBFile(fileName); err != nil {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `initDBFile()` calling: %w", err)
		}
		if err := parseJSONFile(result.fileName, &result.Cache); err != nil {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `parseJSONFile()` calling: %w", err)
		}
	}

	if result.Cache.Users == nil {
		result.Cache.Users = map[string]*user.User{}
	}
	if result.Cache.Records == nil {
		result.Cache.Records = map[string]map[string]*models.GenerationRecord{}
	}

	return result, nil
}

// NewInMemory returns a store that never touches the disk.
func NewInMemory() *JSONDB {
	return &JSONDB{Cache: NewCache()}
}

// flush must be called with mu held.
func (db *JSONDB) flush() error {
	if db.fileName == "" {
		return nil
	}

	return writeToJSONFile(db.fileName, db.Cache)
}

func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.Users[usr.Email]; exists {
		return storage.ErrConflict
	}

	stored := *usr
	db.Cache.Users[usr.Email] = &stored

	if err := db.flush(); err != nil {
		delete(db.Cache.Users, usr.Email)
		return fmt.Errorf("in internal/db/jsondb/jsondb.go/CreateUser(): error while `db.flush()` calling: %w", err)
	}

	return nil
}

func (db *JSONDB) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[email]
	if !found {
		return nil, false, nil
	}

	result := *usr
	return &result, true, nil
}

func (db *JSONDB) FindRecord(ctx context.Context, userID, day string) (*models.GenerationRecord, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	record, found := db.Cache.Records[userID][day]
	if !found {
		return nil, false, nil
	}

	result := copyRecord(record)
	return &result, true, nil
}

func (db *JSONDB) SaveRecord(ctx context.Context, record *models.GenerationRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	days, found := db.Cache.Records[record.UserID]
	if !found {
		days = map[string]*models.GenerationRecord{}
		db.Cache.Records[record.UserID] = days
	}
	if _, exists := days[record.WordsGeneratedOn]; exists {
		return storage.ErrConflict
	}

	stored := copyRecord(record)
	days[record.WordsGeneratedOn] = &stored

	if err := db.flush(); err != nil {
		delete(days, record.WordsGeneratedOn)
		return fmt.Errorf("in internal/db/jsondb/jsondb.go/SaveRecord(): error while `db.flush()` calling: %w", err)
	}

	return nil
}

func (db *JSONDB) GetUserRecords(ctx context.Context, userID string) ([]models.GenerationRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	days, found := db.Cache.Records[userID]
	if !found {
		return []models.GenerationRecord{}, nil
	}

	records := funk.Values(days).([]*models.GenerationRecord)
	result := make([]models.GenerationRecord, 0, len(records))
	for _, record := range records {
		result = append(result, copyRecord(record))
	}

	return result, nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.flush()
}

func copyRecord(record *models.GenerationRecord) models.GenerationRecord {
	result := *record
	result.WordObject = append(models.WordObject(nil), record.WordObject...)

	return result
}
