package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/handlers"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/services"
)

const testSessionSecret = "test-secret-key"

// setupTestRouter wires the full protected API against a per-test in-memory
// SQLite database, mirroring the route table in main.go.
func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}

	if err := db.Migrate(testDB); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	auth.SetDB(testDB)

	policy := auth.DefaultPolicy()
	cartHandler := handlers.NewCartHandler(services.NewCartService(testDB))
	orderHandler := handlers.NewOrderHandler(services.NewOrderService(testDB), false)
	productHandler := handlers.NewProductHandler(testDB)

	r := gin.New()
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(testSessionSecret))
	r.Use(sessions.Sessions("gosess", store))

	api := r.Group("/api")
	api.Use(auth.RequireAuth())
	{
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

	return r, testDB
}

func newJSONRequest(method, path string, body interface{}) *http.Request {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// performAuthenticatedRequest forges a session cookie for userID (nil means
// anonymous) and drives the router.
func performAuthenticatedRequest(router *gin.Engine, method, path string, body interface{}, userID *uint) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := newJSONRequest(method, path, body)

	// Bake the session cookie with a throwaway context and the same store.
	tempW := httptest.NewRecorder()
	tempC, _ := gin.CreateTestContext(tempW)
	tempC.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	store := cookie.NewStore([]byte(testSessionSecret))
	sessions.Sessions("gosess", store)(tempC)

	session := sessions.Default(tempC)
	if userID != nil {
		session.Set("user_id", *userID)
	} else {
		session.Delete("user_id")
	}
	session.Save()

	req.Header.Set("Cookie", tempW.Header().Get("Set-Cookie"))

	router.ServeHTTP(recorder, req)
	return recorder
}

func seedTestUser(t *testing.T, testDB *gorm.DB, email, role string) models.User {
	user := models.User{
		OIDCID: "oidc-" + email,
		Name:   "Test User",
		Email:  email,
		Phone:  "1234567890",
		Role:   role,
	}
	if err := testDB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if err := testDB.Create(&models.Cart{UserID: user.ID}).Error; err != nil {
		t.Fatalf("failed to seed cart: %v", err)
	}
	return user
}

func seedTestProduct(t *testing.T, testDB *gorm.DB, name, category, price string) models.Product {
	product := models.Product{
		Name:        name,
		Description: name + " description",
		Category:    category,
		Price:       decimal.RequireFromString(price),
	}
	if err := testDB.Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}
