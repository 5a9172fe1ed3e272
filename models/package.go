package models

// Package is a shop-scoped ordered bundle of services booked as one
// transactional unit. A package booking materializes N back-to-back
// appointments sharing a package id.
type Package struct {
	ID               string  `bson:"id" json:"id"`
	ShopID           string  `bson:"shop_id" json:"shop_id"`
	Name             string  `bson:"name" json:"name"`
	Price            float64 `bson:"price" json:"price"`
	CurrentPurchases int     `bson:"current_purchases" json:"current_purchases"` // derived; recomputable from appointments
	IsActive         bool    `bson:"is_active" json:"is_active"`
}

// PackageService is one ordered member of a package.
type PackageService struct {
	PackageID string `bson:"package_id" json:"package_id"`
	ServiceID string `bson:"service_id" json:"service_id"`
	Position  int    `bson:"position" json:"position"`
}

// PackageAvailability is an optional per-weekday overlay restricting when a
// package may start.
type PackageAvailability struct {
	PackageID string `bson:"package_id" json:"package_id"`
	Weekday   int    `bson:"weekday" json:"weekday"`
	IsClosed  bool   `bson:"is_closed" json:"is_closed"`
	From      int    `bson:"from" json:"from"`
	To        int    `bson:"to" json:"to"`
}
