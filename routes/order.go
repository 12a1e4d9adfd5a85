package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/Mouss911/webnet-back/controllers/order"
)

func SetupOrderRoutes(protected, admin *gin.RouterGroup, d Deps) {
	orders := protected.Group("/orders")
	{
		// Orders of the signed-in user, newest first
		orders.GET("", orderControllers.ListOrdersHandler(d.DB))

		// Checkout the active cart
		orders.POST("", orderControllers.PlaceOrderHandler(d.DB, d.Hub, d.Metrics))

		orders.GET("/:order", orderControllers.GetOrderHandler(d.DB))

		// Owner cancels a pending order
		orders.POST("/cancel/:order", orderControllers.CancelOrderHandler(d.DB, d.Hub))
	}

	admin.PUT("/orders/:order/status", orderControllers.UpdateOrderStatusHandler(d.DB, d.Policy, d.Hub))

	adminOrders := admin.Group("/admin/orders")
	{
		// Fetch all orders, optionally ?status=
		adminOrders.GET("", orderControllers.GetAllOrdersHandler(d.DB))

		// websocket endpoint for real-time order updates
		adminOrders.GET("/ws", d.Hub.OrderWebSocketHandler)
	}
}
