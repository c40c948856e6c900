package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderag/index_go_server/internal/model"
	"github.com/coderag/index_go_server/internal/repository"
	"github.com/coderag/index_go_server/internal/testutil"
)

func TestService_RunNow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := repository.NewJobRepository(db)
	old := testutil.TestJob(t, db, model.StatusCompleted,
		testutil.WithCompletedAt(time.Now().UTC().AddDate(0, 0, -60)))
	recent := testutil.TestJob(t, db, model.StatusCompleted)

	svc := NewService(repo, "", 30)
	removed, err := svc.RunNow()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.GetByID(old.ID)
	assert.Error(t, err)
	_, err = repo.GetByID(recent.ID)
	assert.NoError(t, err)
}

func TestService_RunNow_DefaultRetention(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := repository.NewJobRepository(db)
	testutil.TestJob(t, db, model.StatusCompleted,
		testutil.WithCompletedAt(time.Now().UTC().AddDate(0, 0, -20)))

	// Retention <= 0 falls back to 30 days, so a 20-day-old job survives.
	svc := NewService(repo, "", 0)
	removed, err := svc.RunNow()
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestService_StartStop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := repository.NewJobRepository(db)
	svc := NewService(repo, "", 30)

	svc.Start()
	svc.Stop()
}
