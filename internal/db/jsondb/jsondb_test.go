package jsondb

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/jobvocab/internal/db/storage"
	"github.com/patric-chuzhbe/jobvocab/internal/models"
	"github.com/patric-chuzhbe/jobvocab/internal/user"
)

func testRecord(userID, day string) *models.GenerationRecord {
	return &models.GenerationRecord{
		UserID: userID,
		WordObject: models.WordObject{
			{Term: "API", SimpleMeaning: "m", ExampleUsage1: "a", ExampleUsage2: "b", ExampleUsage3: "c"},
		},
		WordsGeneratedOn: day,
	}
}

func Test(t *testing.T) {
	t.Run("The base jsondb package test", func(t *testing.T) {
		ctx := context.Background()
		dbFileName := filepath.Join(t.TempDir(), "db_test.json")

		theStorage, err := New(dbFileName)
		require.NoError(t, err)
		require.NotNil(t, theStorage)

		err = theStorage.CreateUser(ctx, &user.User{ID: "user-1", Email: "a@x.com", PasswordHash: "hash", JobTitle: "chef"})
		assert.NoError(t, err)

		err = theStorage.CreateUser(ctx, &user.User{ID: "user-2", Email: "a@x.com"})
		assert.ErrorIs(t, err, storage.ErrConflict, "a second user with the same email should be rejected")

		usr, found, err := theStorage.GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "user-1", usr.ID)
		assert.Equal(t, "chef", usr.JobTitle)

		_, found, err = theStorage.GetUserByEmail(ctx, "nobody@x.com")
		assert.NoError(t, err)
		assert.False(t, found)

		_, found, err = theStorage.FindRecord(ctx, "user-1", "15-01-2025")
		assert.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, theStorage.SaveRecord(ctx, testRecord("user-1", "15-01-2025")))
		require.NoError(t, theStorage.SaveRecord(ctx, testRecord("user-1", "16-01-2025")))
		require.NoError(t, theStorage.SaveRecord(ctx, testRecord("user-2", "15-01-2025")))

		err = theStorage.SaveRecord(ctx, testRecord("user-1", "15-01-2025"))
		assert.ErrorIs(t, err, storage.ErrConflict, "a second record for the same day should be rejected")

		record, found, err := theStorage.FindRecord(ctx, "user-1", "15-01-2025")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, testRecord("user-1", "15-01-2025"), record)

		records, err := theStorage.GetUserRecords(ctx, "user-1")
		require.NoError(t, err)
		days := []string{records[0].WordsGeneratedOn, records[1].WordsGeneratedOn}
		sort.Strings(days)
		assert.Equal(t, []string{"15-01-2025", "16-01-2025"}, days)

		records, err = theStorage.GetUserRecords(ctx, "unknown")
		assert.NoError(t, err)
		assert.Empty(t, records)

		assert.NoError(t, theStorage.Ping(ctx))
		assert.NoError(t, theStorage.Close())

		reopened, err := New(dbFileName)
		require.NoError(t, err)

		_, found, err = reopened.GetUserByEmail(ctx, "a@x.com")
		assert.NoError(t, err)
		assert.True(t, found, "users should survive a reopen")

		records, err = reopened.GetUserRecords(ctx, "user-1")
		assert.NoError(t, err)
		assert.Len(t, records, 2, "records should survive a reopen")
	})
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	theStorage := NewInMemory()
	require.NoError(t, theStorage.SaveRecord(ctx, testRecord("user-1", "15-01-2025")))

	record, _, err := theStorage.FindRecord(ctx, "user-1", "15-01-2025")
	require.NoError(t, err)
	record.WordObject[0].Term = "changed"

	again, _, err := theStorage.FindRecord(ctx, "user-1", "15-01-2025")
	require.NoError(t, err)
	assert.Equal(t, "API", again.WordObject[0].Term)
}

func TestConcurrentSaveRecordKeepsOneWinner(t *testing.T) {
	ctx := context.Background()
	theStorage := NewInMemory()

	const writers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := theStorage.SaveRecord(ctx, testRecord("user-1", "15-01-2025"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if assert.ErrorIs(t, err, storage.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, writers-1, conflicts)
}
