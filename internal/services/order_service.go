package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/models"
)

// OrderService is the single place where money is computed and committed.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(database *gorm.DB) *OrderService {
	return &OrderService{db: database}
}

// CreateOrder converts the user's cart into an immutable order inside one
// transaction: price every line at the catalog values read here, clear the
// cart, write the order header and item snapshots. A failure anywhere rolls
// the whole thing back and leaves the cart untouched.
func (s *OrderService) CreateOrder(userID uint) (*models.Order, error) {

	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {

		var cart models.Cart

		err := tx.Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartEmpty
		}
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(cart.Items) == 0 {
			return ErrCartEmpty
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(cart.Items))

		for _, it := range cart.Items {

			// A line whose product vanished from the catalog fails the whole
			// order; skipping it would break total reconciliation.
			if it.Product.ID == 0 {
				return fmt.Errorf("%w: product %d", ErrProductUnavailable, it.ProductID)
			}

			total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))

			items = append(items, models.OrderItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.Product.Price,
			})
		}

		// Clear the cart first and insist on removing exactly the lines just
		// priced. A concurrent checkout or cart edit shows up as a row-count
		// mismatch and aborts the transaction, on any SQL backend.
		res := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("clear cart: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCartEmpty
		}
		if res.RowsAffected != int64(len(cart.Items)) {
			return ErrCartChanged
		}

		order = models.Order{
			Number: uuid.NewString(),
			UserID: userID,
			Total:  total,
			Status: models.OrderStatusPending,
			Items:  items,
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		return tx.Preload("Items.Product").First(&order, order.ID).Error
	})

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// GetUserOrders lists the caller's orders, newest first.
func (s *OrderService) GetUserOrders(userID uint) ([]models.Order, error) {

	var orders []models.Order

	err := s.db.Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error

	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return orders, nil
}

// GetAllOrders is the admin view across every user.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {

	var orders []models.Order

	err := s.db.Preload("User").Preload("Items.Product").
		Order("created_at DESC, id DESC").
		Find(&orders).Error

	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus applies one transition of the status state machine.
// Moves not in the transition table are rejected; delivered and cancelled
// orders accept nothing.
func (s *OrderService) UpdateOrderStatus(orderID uint, status models.OrderStatus) (*models.Order, error) {

	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {

		err := tx.First(&order, orderID).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}

		if !order.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}

		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		return tx.Preload("User").Preload("Items.Product").First(&order, order.ID).Error
	})

	if err != nil {
		return nil, err
	}

	return &order, nil
}
