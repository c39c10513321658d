package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xj-bear/pdf2all/internal/domain"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(action string, success bool, at time.Time) domain.ConversionRecord {
	return domain.ConversionRecord{
		ID:          uuid.NewString(),
		Action:      action,
		PDFPath:     "/data/in.pdf",
		Success:     success,
		TablesCount: 2,
		DurationMS:  120,
		CreatedAt:   at,
	}
}

func TestStore_RecordAndGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := record(domain.ActionExcel, true, at)
	rec.Message = "Successfully extracted 2 table(s)"
	require.NoError(t, s.Record(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, domain.ActionExcel, got.Action)
	assert.True(t, got.Success)
	assert.Equal(t, rec.Message, got.Message)
	assert.Equal(t, 2, got.TablesCount)
	assert.Equal(t, int64(120), got.DurationMS)
	assert.True(t, at.Equal(got.CreatedAt))
}

func TestStore_GetUnknown(t *testing.T) {
	s := openMemory(t)

	_, err := s.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_FillsDefaults(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, domain.ConversionRecord{Action: domain.ActionPPT, PDFPath: "a.pdf", Error: "PDF has no pages"}))

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].ID, 36)
	assert.False(t, list[0].CreatedAt.IsZero())
	assert.Equal(t, "PDF has no pages", list[0].Error)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, action := range []string{domain.ActionDocx, domain.ActionExcel, domain.ActionPPT, domain.ActionJPG} {
		require.NoError(t, s.Record(ctx, record(action, i%2 == 0, base.Add(time.Duration(i)*time.Minute))))
	}

	list, err := s.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{domain.ActionJPG, domain.ActionPPT, domain.ActionExcel},
		[]string{list[0].Action, list[1].Action, list[2].Action})

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStore_EmptyList(t *testing.T) {
	s := openMemory(t)
	list, err := s.List(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_FileDatabaseSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, Options{Driver: DriverSQLite, DSN: path}, nil)
	require.NoError(t, err)
	rec := record(domain.ActionJPGFast, true, time.Now().UTC())
	require.NoError(t, s.Record(ctx, rec))
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Driver: DriverSQLite, DSN: path}, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionJPGFast, got.Action)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql"}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}
