package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/notifier"
	"github.com/Keoroanthony/go-storefront/internal/services"
)

type OrderHandler struct {
	orders *services.OrderService
	notify bool // post-commit SMS/email confirmations; off in tests
}

func NewOrderHandler(orders *services.OrderService, notify bool) *OrderHandler {
	return &OrderHandler{orders: orders, notify: notify}
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /api/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {

	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	order, err := h.orders.CreateOrder(ident.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.notify {
		if v, exists := c.Get("user"); exists {
			if user, ok := v.(*models.User); ok {

				go func(user models.User, order models.Order) {

					if err := notifier.SendSMS(user.Phone, order.Number, order.Total); err != nil {
						log.Printf("Failed to send SMS for order %s to %s: %v\n", order.Number, user.Phone, err)
					}
				}(*user, *order)

				go func(user models.User, order models.Order) {

					if err := notifier.SendEmail(user.Email, user.Name, order.Number, order.Total); err != nil {
						log.Printf("Failed to send email for order %s to %s: %v\n", order.Number, user.Email, err)
					}
				}(*user, *order)
			}
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "order created successfully", "order": order})
}

// GET /api/orders
func (h *OrderHandler) GetUserOrders(c *gin.Context) {

	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	orders, err := h.orders.GetUserOrders(ident.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GET /api/orders/all (admin)
func (h *OrderHandler) GetAllOrders(c *gin.Context) {

	orders, err := h.orders.GetAllOrders()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// PUT /api/orders/:id/status (admin)
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {

	orderID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req UpdateOrderStatusRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}

	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateOrderStatus(orderID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
