package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/carmodel"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/httpserver/helpers"
)

func (s *Server) createCarModel(c echo.Context) error {
	var req carmodel.CreateCarModelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(carmodel.ResourceType, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(carmodel.ResourceType, err.Error())
	}
	res := s.carModels.Create(c.Request().Context(), helpers.GetIdempotencyKey(c), &req)
	return respond(c, http.StatusCreated, res)
}

func (s *Server) getCarModel(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s.carModels.Get(c.Request().Context(), id))
}

func (s *Server) listCarModels(c echo.Context) error {
	limit, offset := helpers.GetPagination(c)
	return respond(c, http.StatusOK, s.carModels.List(c.Request().Context(), limit, offset))
}

func (s *Server) updateCarModel(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req carmodel.UpdateCarModelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(carmodel.ResourceType, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(carmodel.ResourceType, err.Error())
	}
	res := s.carModels.Update(c.Request().Context(), helpers.GetIdempotencyKey(c), id, &req)
	return respond(c, http.StatusOK, res)
}

func (s *Server) deleteCarModel(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s.carModels.Delete(c.Request().Context(), helpers.GetIdempotencyKey(c), id))
}
