package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Keoroanthony/go-storefront/internal/models"
)

// CartService owns every read and mutation of a single user's cart. All item
// lookups are scoped to the caller's cart, so another user's item id behaves
// like a missing one.
type CartService struct {
	db *gorm.DB
}

func NewCartService(database *gorm.DB) *CartService {
	return &CartService{db: database}
}

// GetCart returns the cart with items and their products. A user whose cart
// row has not been provisioned yet gets an empty cart, not an error.
func (s *CartService) GetCart(userID uint) (*models.Cart, error) {

	var cart models.Cart

	err := s.db.Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return &cart, nil
}

// AddToCart merges quantity into the (cart, product) row with a single
// conditional upsert, so two racing adds both land. The product id is not
// checked against the catalog here; checkout is where consistency is settled.
func (s *CartService) AddToCart(userID, productID uint, quantity uint) (*models.CartItem, error) {

	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}

	var item models.CartItem

	err := s.db.Transaction(func(tx *gorm.DB) error {

		var cart models.Cart
		if err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
			return fmt.Errorf("find or create cart: %w", err)
		}

		row := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("quantity + ?", quantity),
			}),
		}).Create(&row).Error

		if err != nil {
			return fmt.Errorf("upsert cart item: %w", err)
		}

		// Re-read: on the conflict path the returned row id is not reliable.
		return tx.Preload("Product").
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			First(&item).Error
	})

	if err != nil {
		return nil, err
	}

	return &item, nil
}

// UpdateCartItem replaces the item's quantity. Zero or negative quantity is a
// removal signal, not an error.
func (s *CartService) UpdateCartItem(userID, itemID uint, quantity int) (*models.CartItem, error) {

	if quantity <= 0 {
		if err := s.RemoveFromCart(userID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var item models.CartItem

	err := s.db.Transaction(func(tx *gorm.DB) error {

		cart, err := ownCart(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND cart_id = ?", itemID, cart.ID).
			Update("quantity", quantity)
		if res.Error != nil {
			return fmt.Errorf("update cart item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrItemNotFound
		}

		return tx.Preload("Product").First(&item, itemID).Error
	})

	if err != nil {
		return nil, err
	}

	return &item, nil
}

// RemoveFromCart deletes the item unconditionally once ownership is settled.
func (s *CartService) RemoveFromCart(userID, itemID uint) error {

	return s.db.Transaction(func(tx *gorm.DB) error {

		cart, err := ownCart(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("delete cart item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrItemNotFound
		}

		return nil
	})
}

// ClearCart deletes all items; the cart row itself survives, empty.
func (s *CartService) ClearCart(userID uint) error {

	return s.db.Transaction(func(tx *gorm.DB) error {

		cart, err := ownCart(tx, userID)
		if err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		return nil
	})
}

func ownCart(tx *gorm.DB, userID uint) (*models.Cart, error) {

	var cart models.Cart

	err := tx.Where("user_id = ?", userID).First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return &cart, nil
}
