package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Keoroanthony/go-storefront/internal/handlers"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

func TestCartHandlers(t *testing.T) {
	router, testDB := setupTestRouter(t)

	user := seedTestUser(t, testDB, "cart@example.com", models.RoleCustomer)
	other := seedTestUser(t, testDB, "other@example.com", models.RoleCustomer)
	product := seedTestProduct(t, testDB, "Laptop", "Computers", "1200.00")

	userID := user.ID
	otherID := other.ID

	t.Run("Returns 401 without a session", func(t *testing.T) {
		recorder := performAuthenticatedRequest(router, http.MethodGet, "/api/cart", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Empty cart returns 200 with no items", func(t *testing.T) {
		recorder := performAuthenticatedRequest(router, http.MethodGet, "/api/cart", nil, &userID)
		assert.Equal(t, http.StatusOK, recorder.Code)

		var cart models.Cart
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &cart))
		assert.Empty(t, cart.Items)
	})

	t.Run("Add defaults quantity to 1", func(t *testing.T) {
		reqBody := handlers.AddToCartRequest{ProductID: product.ID}
		recorder := performAuthenticatedRequest(router, http.MethodPost, "/api/cart/add", reqBody, &userID)
		assert.Equal(t, http.StatusCreated, recorder.Code)

		var item models.CartItem
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &item))
		assert.Equal(t, uint(1), item.Quantity)
		assert.Equal(t, product.Name, item.Product.Name)
	})

	t.Run("Second add merges into the same item", func(t *testing.T) {
		quantity := uint(4)
		reqBody := handlers.AddToCartRequest{ProductID: product.ID, Quantity: &quantity}
		recorder := performAuthenticatedRequest(router, http.MethodPost, "/api/cart/add", reqBody, &userID)
		assert.Equal(t, http.StatusCreated, recorder.Code)

		var item models.CartItem
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &item))
		assert.Equal(t, uint(5), item.Quantity)

		var count int64
		testDB.Model(&models.CartItem{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Zero quantity add is rejected", func(t *testing.T) {
		quantity := uint(0)
		reqBody := handlers.AddToCartRequest{ProductID: product.ID, Quantity: &quantity}
		recorder := performAuthenticatedRequest(router, http.MethodPost, "/api/cart/add", reqBody, &userID)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Missing product_id is rejected", func(t *testing.T) {
		recorder := performAuthenticatedRequest(router, http.MethodPost, "/api/cart/add", map[string]interface{}{}, &userID)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	var itemID uint
	{
		var cart models.Cart
		assert.NoError(t, testDB.Preload("Items").Where("user_id = ?", user.ID).First(&cart).Error)
		assert.Len(t, cart.Items, 1)
		itemID = cart.Items[0].ID
	}

	t.Run("Update replaces the quantity", func(t *testing.T) {
		quantity := 2
		reqBody := handlers.UpdateCartItemRequest{Quantity: &quantity}
		recorder := performAuthenticatedRequest(router, http.MethodPut, fmt.Sprintf("/api/cart/item/%d", itemID), reqBody, &userID)
		assert.Equal(t, http.StatusOK, recorder.Code)

		var item models.CartItem
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &item))
		assert.Equal(t, uint(2), item.Quantity)
	})

	t.Run("Another user's item id is 404 and mutates nothing", func(t *testing.T) {
		quantity := 9
		reqBody := handlers.UpdateCartItemRequest{Quantity: &quantity}
		recorder := performAuthenticatedRequest(router, http.MethodPut, fmt.Sprintf("/api/cart/item/%d", itemID), reqBody, &otherID)
		assert.Equal(t, http.StatusNotFound, recorder.Code)

		var item models.CartItem
		assert.NoError(t, testDB.First(&item, itemID).Error)
		assert.Equal(t, uint(2), item.Quantity)
	})

	t.Run("Zero quantity update removes the item", func(t *testing.T) {
		quantity := 0
		reqBody := handlers.UpdateCartItemRequest{Quantity: &quantity}
		recorder := performAuthenticatedRequest(router, http.MethodPut, fmt.Sprintf("/api/cart/item/%d", itemID), reqBody, &userID)
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder = performAuthenticatedRequest(router, http.MethodGet, "/api/cart", nil, &userID)
		var cart models.Cart
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &cart))
		assert.Empty(t, cart.Items)
	})

	t.Run("Removing a missing item is 404", func(t *testing.T) {
		recorder := performAuthenticatedRequest(router, http.MethodDelete, fmt.Sprintf("/api/cart/item/%d", itemID), nil, &userID)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Remove deletes the item", func(t *testing.T) {
		reqBody := handlers.AddToCartRequest{ProductID: product.ID}
		recorder := performAuthenticatedRequest(router, http.MethodPost, "/api/cart/add", reqBody, &userID)
		assert.Equal(t, http.StatusCreated, recorder.Code)

		var item models.CartItem
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &item))

		recorder = performAuthenticatedRequest(router, http.MethodDelete, fmt.Sprintf("/api/cart/item/%d", item.ID), nil, &userID)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("Clear empties the cart", func(t *testing.T) {
		reqBody := handlers.AddToCartRequest{ProductID: product.ID}
		recorder := performAuthenticatedRequest(router, http.MethodPost, "/api/cart/add", reqBody, &userID)
		assert.Equal(t, http.StatusCreated, recorder.Code)

		recorder = performAuthenticatedRequest(router, http.MethodDelete, "/api/cart/clear", nil, &userID)
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder = performAuthenticatedRequest(router, http.MethodGet, "/api/cart", nil, &userID)
		var cart models.Cart
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &cart))
		assert.Empty(t, cart.Items)
	})
}
