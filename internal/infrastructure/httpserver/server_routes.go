package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	carModels := api.Group("/car-models")
	carModels.GET("", s.listCarModels)
	carModels.POST("", s.createCarModel)
	carModels.GET("/:id", s.getCarModel)
	carModels.PUT("/:id", s.updateCarModel)
	carModels.DELETE("/:id", s.deleteCarModel)

	inventory := api.Group("/inventory")
	inventory.GET("", s.listInventory)
	inventory.POST("", s.provisionInventory)
	inventory.GET("/availability", s.checkAvailability)
	inventory.GET("/:id", s.getInventory)
	inventory.GET("/models/:carModelId", s.getInventoryByCarModel)
	inventory.POST("/models/:carModelId/increase", s.increaseInventory)
	inventory.POST("/models/:carModelId/decrease", s.decreaseInventory)

	orders := api.Group("/orders")
	orders.GET("", s.listOrders)
	orders.POST("", s.placeOrder)
	orders.GET("/:id", s.getOrder)
	orders.POST("/:id/cancel", s.cancelOrder)
}
