package main

import (
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/handlers"
	"github.com/Keoroanthony/go-storefront/internal/services"
)

func main() {

	database := db.Init()
	auth.Init(database)

	policy := auth.DefaultPolicy()

	cartHandler := handlers.NewCartHandler(services.NewCartService(database))
	orderHandler := handlers.NewOrderHandler(services.NewOrderService(database), true)
	productHandler := handlers.NewProductHandler(database)

	r := gin.Default()

	// ── session store ──
	store := cookie.NewStore([]byte(getEnv("SESSION_SECRET", "change-me")))
	r.Use(sessions.Sessions("gosess", store))

	// ── public endpoints ──
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/auth/login", auth.Login)
	r.GET("/auth/callback", auth.Callback)

	// ── protected API ──
	api := r.Group("/api")
	api.Use(auth.RequireAuth())
	{
		api.GET("/auth/me", auth.Me)
		api.POST("/auth/logout", auth.Logout)

		api.GET("/cart", cartHandler.GetCart)
		api.POST("/cart/add", cartHandler.AddToCart)
		api.PUT("/cart/item/:id", cartHandler.UpdateCartItem)
		api.DELETE("/cart/item/:id", cartHandler.RemoveFromCart)
		api.DELETE("/cart/clear", cartHandler.ClearCart)

		api.POST("/orders", orderHandler.CreateOrder)
		api.GET("/orders", orderHandler.GetUserOrders)
		api.GET("/orders/all", auth.Require(policy, auth.OpListAllOrders), orderHandler.GetAllOrders)
		api.PUT("/orders/:id/status", auth.Require(policy, auth.OpUpdateOrderStatus), orderHandler.UpdateOrderStatus)

		api.GET("/products", productHandler.ListProducts)
		api.GET("/categories", productHandler.GetCategories)
		api.GET("/products/:id", productHandler.GetProduct)
		api.POST("/products", auth.Require(policy, auth.OpManageCatalog), productHandler.CreateProduct)
		api.PUT("/products/:id", auth.Require(policy, auth.OpManageCatalog), productHandler.UpdateProduct)
		api.DELETE("/products/:id", auth.Require(policy, auth.OpManageCatalog), productHandler.DeleteProduct)
	}

	r.Run(":8080")
}

func getEnv(key, fallback string) string {

	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return fallback
}
