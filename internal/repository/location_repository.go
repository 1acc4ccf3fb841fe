package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookstore/internal/model"
)

// LocationRepository reads and seeds the state/city reference data.
type LocationRepository interface {
	ListStates(ctx context.Context) ([]model.State, error)
	ListCitiesByState(ctx context.Context, stateID string) ([]model.City, error)
	UpsertStates(ctx context.Context, states []model.State) error
	UpsertCities(ctx context.Context, cities []model.City) error
}

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new location repository.
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) ListStates(ctx context.Context) ([]model.State, error) {
	var states []model.State
	if err := r.db.WithContext(ctx).Order("state_name").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (r *locationRepository) ListCitiesByState(ctx context.Context, stateID string) ([]model.City, error) {
	var cities []model.City
	if err := r.db.WithContext(ctx).Where("state_id = ?", stateID).Order("city_name").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

// UpsertStates inserts states, renaming existing ones that share a state_id.
func (r *locationRepository) UpsertStates(ctx context.Context, states []model.State) error {
	if len(states) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state_name"}),
	}).CreateInBatches(states, 100).Error
}

// UpsertCities inserts cities, updating name and state of existing ones that share a city_id.
func (r *locationRepository) UpsertCities(ctx context.Context, cities []model.City) error {
	if len(cities) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"city_name", "state_id"}),
	}).CreateInBatches(cities, 100).Error
}
