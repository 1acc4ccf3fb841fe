package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookstore/internal/service"
)

// LocationHandler serves the state and city lists used by pickup forms.
type LocationHandler struct {
	locationService service.LocationService
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(locationService service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// CitiesResponse wraps the cities of one state.
type CitiesResponse struct {
	Cities []service.CityView `json:"cities"`
}

// States godoc
// @Summary List states
// @Tags locations
// @Produce json
// @Success 200 {array} service.StateView
// @Failure 404 {object} errors.ErrorResponse
// @Router /states [get]
func (h *LocationHandler) States(c echo.Context) error {
	states, err := h.locationService.ListStates(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, states)
}

// CitiesByState godoc
// @Summary List the cities of a state
// @Tags locations
// @Produce json
// @Param stateId path string true "State ID"
// @Success 200 {object} CitiesResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /getCitiesByStateId/{stateId} [get]
func (h *LocationHandler) CitiesByState(c echo.Context) error {
	cities, err := h.locationService.ListCities(c.Request().Context(), c.Param("stateId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, CitiesResponse{Cities: cities})
}
