package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/httpserver/helpers"
)

func (s *Server) provisionInventory(c echo.Context) error {
	var req inventory.ProvisionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(inventory.ResourceType, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(inventory.ResourceType, err.Error())
	}
	res := s.inventory.Provision(c.Request().Context(), helpers.GetIdempotencyKey(c), &req)
	return respond(c, http.StatusCreated, res)
}

func (s *Server) getInventory(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s.inventory.Get(c.Request().Context(), id))
}

func (s *Server) getInventoryByCarModel(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "carModelId")
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s.inventory.GetByCarModel(c.Request().Context(), id))
}

func (s *Server) listInventory(c echo.Context) error {
	limit, offset := helpers.GetPagination(c)
	return respond(c, http.StatusOK, s.inventory.List(c.Request().Context(), limit, offset))
}

func (s *Server) checkAvailability(c echo.Context) error {
	carModelID, err := uuid.Parse(c.QueryParam("car_model_id"))
	if err != nil {
		return badRequest(inventory.ResourceType, "invalid car_model_id")
	}
	qty, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil {
		return badRequest(inventory.ResourceType, "invalid quantity")
	}
	return respond(c, http.StatusOK, s.inventory.CheckAvailability(c.Request().Context(), carModelID, qty))
}

func (s *Server) increaseInventory(c echo.Context) error {
	carModelID, req, err := s.bindAdjustment(c)
	if err != nil {
		return err
	}
	res := s.inventory.Increase(c.Request().Context(), helpers.GetIdempotencyKey(c), carModelID, req.Quantity)
	return respond(c, http.StatusOK, res)
}

func (s *Server) decreaseInventory(c echo.Context) error {
	carModelID, req, err := s.bindAdjustment(c)
	if err != nil {
		return err
	}
	res := s.inventory.Decrease(c.Request().Context(), helpers.GetIdempotencyKey(c), carModelID, req.Quantity)
	return respond(c, http.StatusOK, res)
}

func (s *Server) bindAdjustment(c echo.Context) (uuid.UUID, *inventory.AdjustRequest, error) {
	carModelID, err := helpers.ParseUUIDParam(c, "carModelId")
	if err != nil {
		return uuid.Nil, nil, err
	}
	var req inventory.AdjustRequest
	if err := c.Bind(&req); err != nil {
		return uuid.Nil, nil, badRequest(inventory.ResourceType, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return uuid.Nil, nil, badRequest(inventory.ResourceType, err.Error())
	}
	return carModelID, &req, nil
}
