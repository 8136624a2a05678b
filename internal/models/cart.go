package models

// Cart is created alongside its User and never deleted, only emptied.
type Cart struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	UserID uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

// CartItem keeps at most one row per (cart, product); the unique index is
// what the merge-add upsert conflicts on.
type CartItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	CartID    uint    `gorm:"uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	ProductID uint    `gorm:"uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Quantity  uint    `gorm:"not null" json:"quantity"`
	Product   Product `json:"product"`
}
