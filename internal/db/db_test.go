package db

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bookstore/internal/model"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mongo", "")
	assert.Error(t, err)
}

func TestMigrateAndReset(t *testing.T) {
	gormDB, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)

	require.NoError(t, Migrate(gormDB))
	for _, m := range Models() {
		assert.True(t, gormDB.Migrator().HasTable(m))
	}

	require.NoError(t, Reset(gormDB))
	for _, m := range Models() {
		assert.False(t, gormDB.Migrator().HasTable(m))
	}
}

func TestQueryLoggingSkipsMissesAndHidesValues(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	gormDB, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, Migrate(gormDB))
	ctx := context.Background()

	var user model.User
	err = gormDB.WithContext(ctx).Where("email = ?", "secret@example.com").First(&user).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	err = gormDB.WithContext(ctx).Table("missing_table").Where("email = ?", "secret@example.com").Find(&user).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "SQL executed")
	assert.NotContains(t, buf.String(), "secret@example.com")
}
