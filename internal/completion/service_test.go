package completion

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionUpsert = `ON CONFLICT \(user_id, conversation_id\) DO UPDATE`

func expectStatsUpdate(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT current_streak, longest_streak, last_practice_date`).
		WillReturnRows(sqlmock.NewRows([]string{"current_streak", "longest_streak", "last_practice_date"}).
			AddRow(0, 0, nil))
	mock.ExpectExec(`INSERT INTO user_stats`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO daily_practice_log`).WillReturnResult(sqlmock.NewResult(0, 1))
}

// Recording the same (user, conversation) twice must hit the single-row
// upsert both times, with the second call's values and completed_at winning.
func TestRecordRepeatUpsertsSameRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(db)
	ctx := context.Background()
	cols := []string{"user_id", "conversation_id", "sentences_practiced", "completion_percentage", "completed_at"}

	first := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	mock.ExpectQuery(completionUpsert).
		WithArgs("u1", "c1", 5, 80.0).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "c1", 5, 80.0, first))
	expectStatsUpdate(mock)

	mock.ExpectQuery(completionUpsert).
		WithArgs("u1", "c1", 9, 100.0).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "c1", 9, 100.0, second))
	expectStatsUpdate(mock)

	rec, err := svc.Record(ctx, "u1", "c1", 5, 80.0)
	require.NoError(t, err)
	assert.Equal(t, first, rec.CompletedAt)

	rec, err = svc.Record(ctx, "u1", "c1", 9, 100.0)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "c1", rec.ConversationID)
	assert.Equal(t, 9, rec.SentencesPracticed)
	assert.Equal(t, 100.0, rec.CompletionPercentage)
	assert.Equal(t, second, rec.CompletedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failed stats update after the completion row persists must not fail the
// recording itself.
func TestRecordSucceedsWhenStatsUpdateFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(db)
	cols := []string{"user_id", "conversation_id", "sentences_practiced", "completion_percentage", "completed_at"}

	mock.ExpectQuery(completionUpsert).
		WithArgs("u1", "c1", 5, 100.0).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "c1", 5, 100.0, time.Now()))
	mock.ExpectQuery(`SELECT current_streak, longest_streak, last_practice_date`).
		WillReturnError(assert.AnError)

	rec, err := svc.Record(context.Background(), "u1", "c1", 5, 100.0)
	require.NoError(t, err)
	assert.Equal(t, "c1", rec.ConversationID)
}
