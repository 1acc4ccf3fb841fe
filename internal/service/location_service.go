package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/repository"
)

// StateView is a state as listed to clients.
type StateView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CityView is a city as listed to clients.
type CityView struct {
	CityID   string `json:"cityId"`
	CityName string `json:"cityName"`
	StateID  string `json:"stateId"`
}

// LocationService serves the state/city reference data.
type LocationService interface {
	ListStates(ctx context.Context) ([]StateView, error)
	ListCities(ctx context.Context, stateID string) ([]CityView, error)
	Seed(ctx context.Context, states []model.State, cities []model.City) error
}

type locationService struct {
	repo repository.LocationRepository
}

// NewLocationService creates a new location service.
func NewLocationService(repo repository.LocationRepository) LocationService {
	return &locationService{repo: repo}
}

func (s *locationService) ListStates(ctx context.Context) ([]StateView, error) {
	states, err := s.repo.ListStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	if len(states) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "No states found.")
	}
	views := make([]StateView, 0, len(states))
	for _, st := range states {
		views = append(views, StateView{ID: st.StateID, Name: st.StateName})
	}
	return views, nil
}

func (s *locationService) ListCities(ctx context.Context, stateID string) ([]CityView, error) {
	stateID = strings.TrimSpace(stateID)
	if stateID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "State ID is required.")
	}
	cities, err := s.repo.ListCitiesByState(ctx, stateID)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	if len(cities) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "No cities found for the given state ID.")
	}
	views := make([]CityView, 0, len(cities))
	for _, c := range cities {
		views = append(views, CityView{CityID: c.CityID, CityName: c.CityName, StateID: c.StateID})
	}
	return views, nil
}

// Seed upserts states and cities.
func (s *locationService) Seed(ctx context.Context, states []model.State, cities []model.City) error {
	if err := s.repo.UpsertStates(ctx, states); err != nil {
		return fmt.Errorf("seed states: %w", err)
	}
	if err := s.repo.UpsertCities(ctx, cities); err != nil {
		return fmt.Errorf("seed cities: %w", err)
	}
	return nil
}
