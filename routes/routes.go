package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supermarket/controllers"
	"supermarket/middleware"
	"supermarket/session"
)

func RegisterRoutes(r *gin.Engine, sessions *session.Store, cartCtl *controllers.CartController, payCtl *controllers.PaymentController) {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/register", controllers.Register)
		api.POST("/login", controllers.Login)
		api.POST("/logout", controllers.Logout)

		api.GET("/products", controllers.GetProducts)
		api.GET("/products/:id", controllers.GetProductByID)

		// Cart is session-scoped and browsable before login.
		cartGroup := api.Group("/cart")
		cartGroup.Use(session.Middleware(sessions))
		{
			cartGroup.GET("", cartCtl.View)
			cartGroup.POST("", cartCtl.Add)
			cartGroup.PUT("/:productId", cartCtl.Update)
			cartGroup.DELETE("/:productId", cartCtl.Remove)
			cartGroup.POST("/clear", cartCtl.Clear)
			cartGroup.POST("/checkout", middleware.AuthMiddleware(), cartCtl.CheckoutCart)
		}

		payments := api.Group("/payments")
		payments.Use(session.Middleware(sessions))
		{
			payments.POST("/checkout", middleware.AuthMiddleware(), payCtl.CreateWalletCheckout)
			payments.POST("/capture", middleware.AuthMiddleware(), payCtl.CaptureWalletCheckout)
			payments.POST("/qr", middleware.AuthMiddleware(), payCtl.RequestQRPayment)
			// EventSource cannot send an Authorization header; identity was
			// pinned to the session when the QR transaction was requested.
			payments.GET("/qr/:ref/events", payCtl.StreamQRStatus)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			user := protected.Group("/user")
			{
				user.GET("/orders", controllers.GetOrders)
				user.GET("/orders/:id", controllers.GetOrderDetails)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.POST("/products", controllers.CreateProduct)
				admin.PUT("/products/:id", controllers.UpdateProduct)
				admin.POST("/products/:id/restock", controllers.RestockProduct)
				admin.DELETE("/products/:id", controllers.DeleteProduct)

				admin.GET("/orders", controllers.GetOrdersAdmin)
				admin.GET("/orders/:id", controllers.GetOrderByIDAdmin)
				admin.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
				admin.PUT("/orders/:id/cancel", controllers.CancelOrderAdmin)
				admin.DELETE("/orders/:id", controllers.DeleteOrderAdmin)

				admin.GET("/users", controllers.GetUsersAdmin)
				admin.POST("/users", controllers.CreateUserAdmin)
				admin.PUT("/users/:id", controllers.UpdateUserAdmin)
				admin.DELETE("/users/:id", controllers.DeleteUserAdmin)
				admin.GET("/users/:id/orders", controllers.GetUserOrdersAdmin)
			}
		}
	}
}
