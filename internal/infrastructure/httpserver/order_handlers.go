package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/order"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/httpserver/helpers"
)

func (s *Server) placeOrder(c echo.Context) error {
	var req order.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(order.ResourceType, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(order.ResourceType, err.Error())
	}
	res := s.orders.PlaceOrder(c.Request().Context(), helpers.GetIdempotencyKey(c), &req)
	return respond(c, http.StatusCreated, res)
}

func (s *Server) getOrder(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s.orders.Get(c.Request().Context(), id))
}

func (s *Server) listOrders(c echo.Context) error {
	limit, offset := helpers.GetPagination(c)
	return respond(c, http.StatusOK, s.orders.List(c.Request().Context(), limit, offset))
}

func (s *Server) cancelOrder(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s.orders.CancelOrder(c.Request().Context(), helpers.GetIdempotencyKey(c), id))
}
