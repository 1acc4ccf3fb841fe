package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/repository"
	"bookstore/internal/testutil"
)

func TestLocationService(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	svc := NewLocationService(repository.NewLocationRepository(db))
	ctx := context.Background()

	_, err := svc.ListStates(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.Seed(ctx,
		[]model.State{{StateID: "CA", StateName: "California"}},
		[]model.City{{CityID: "SF", CityName: "San Francisco", StateID: "CA"}},
	))

	states, err := svc.ListStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StateView{{ID: "CA", Name: "California"}}, states)

	cities, err := svc.ListCities(ctx, "CA")
	require.NoError(t, err)
	assert.Equal(t, []CityView{{CityID: "SF", CityName: "San Francisco", StateID: "CA"}}, cities)

	_, err = svc.ListCities(ctx, "NY")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.ListCities(ctx, " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
