package models

import "time"

// Product is a priced catalog entry. Catalog management happens elsewhere;
// this service only reads products to price quotes.
type Product struct {
	// ID is the external product reference.
	ID string `json:"id" gorm:"column:id;primaryKey"`
	// Name is the display name of the product.
	Name string `json:"name" gorm:"column:name"`
	// PriceBaseUnits is the product price in token base units, as a decimal string.
	PriceBaseUnits string `json:"price_base_units" gorm:"column:price_base_units;not null"`
	// DiscountBps is the coupon discount rate in basis points (10000 = 100%).
	DiscountBps int `json:"discount_bps" gorm:"column:discount_bps;not null;default:0"`
	// RewardBps is the cashback rate in basis points, applied to the discounted price.
	RewardBps int `json:"reward_bps" gorm:"column:reward_bps;not null;default:0"`
	// Active indicates whether the product can currently be quoted. No column
	// default: gorm drops zero-valued fields that carry one, which would make
	// it impossible to store an inactive product.
	Active bool `json:"active" gorm:"column:active"`
	// CreatedAt is when the product was registered.
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	// UpdatedAt is when the product was last modified.
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM.
func (Product) TableName() string {
	return "products"
}
