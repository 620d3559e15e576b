package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"transitinsight/internal/types"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestRunRepository_RecordRun(t *testing.T) {
	db := new(mockDBTX)
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	repo := NewRunRepository(db, fixedClock{now}, nil)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"),
		[]any{"stop_density", "ok", 4, now}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	repo.RecordRun(context.Background(), "stop_density", types.StateOK, 4)
	db.AssertExpectations(t)
}

func TestRunRepository_Insert_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRunRepository(db, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("relation does not exist"))

	err := repo.Insert(context.Background(), RunRecord{Section: "stop_density", State: types.StateNoDataForFilter})
	require.Error(t, err)
	requireCode(t, err, types.ErrCodeInternalDB)

	// RecordRun swallows the same failure.
	assert.NotPanics(t, func() {
		repo.RecordRun(context.Background(), "stop_density", types.StateNoDataForFilter, 0)
	})
}
