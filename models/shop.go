package models

// Shop represents a bookable business location owned by a company.
type Shop struct {
	ID         string `bson:"id" json:"id"`
	CompanyID  string `bson:"company_id" json:"company_id"`
	Name       string `bson:"name" json:"name"`
	Timezone   string `bson:"timezone" json:"timezone"` // IANA name, e.g. "Europe/Berlin"
	IsVerified bool   `bson:"is_verified" json:"is_verified"`
}

// ShopHours is the weekly opening window for one weekday (0=Sunday ... 6=Saturday).
// From/To are minutes from midnight; the window is half-open [From, To).
type ShopHours struct {
	ShopID   string `bson:"shop_id" json:"shop_id"`
	Weekday  int    `bson:"weekday" json:"weekday"`
	IsClosed bool   `bson:"is_closed" json:"is_closed"`
	From     int    `bson:"from" json:"from"`
	To       int    `bson:"to" json:"to"`
}
