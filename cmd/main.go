package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"supermarket/checkout"
	"supermarket/config"
	"supermarket/controllers"
	"supermarket/database"
	"supermarket/logging"
	"supermarket/middleware"
	"supermarket/payment"
	"supermarket/routes"
	"supermarket/session"
)

func main() {

	config.LoadEnv()
	logging.Init("supermarket", "./logs/app.log")

	database.ConnectMongo()
	database.InitCollections()

	rdb := database.ConnectRedis(
		config.GetEnv("REDIS_ADDR", "localhost:6379"),
		config.GetEnv("REDIS_PASSWORD", ""),
	)
	locker := database.NewRedisLocker(rdb, 30*time.Second)

	checkoutSvc := checkout.NewService(database.Inventory, database.Ledger, database.Transactor)
	sessions := session.NewStore(session.DefaultTTL)
	defer sessions.Close()

	wallet := payment.NewWalletClient(
		config.MustGetEnv("WALLET_API_URL"),
		config.MustGetEnv("WALLET_CLIENT_ID"),
		config.MustGetEnv("WALLET_SECRET"),
	)
	qr := payment.NewQRClient(
		config.MustGetEnv("NETS_API_URL"),
		config.MustGetEnv("NETS_API_KEY"),
		config.MustGetEnv("NETS_PROJECT_ID"),
	)

	cartCtl := controllers.NewCartController(database.Inventory, checkoutSvc, locker)
	payCtl := controllers.NewPaymentController(wallet, qr, checkoutSvc, locker)

	r := gin.New()
	r.SetTrustedProxies(nil)
	r.Use(gin.Recovery(), middleware.MetricsMiddleware(), middleware.Logging(logging.New("http")))
	r.Static("/images", "public/images")
	routes.RegisterRoutes(r, sessions, cartCtl, payCtl)

	port := config.GetEnv("PORT", "8080")
	r.Run(":" + port)
}
