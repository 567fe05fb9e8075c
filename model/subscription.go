package model

import "gorm.io/gorm"

// Subscription is a web-push registration. Keys holds the opaque
// credential blob ({"auth":...,"p256dh":...}) exactly as the browser
// handed it over.
type Subscription struct {
	gorm.Model
	OwnerID  string `gorm:"index; not null" json:"owner_id"`
	Endpoint string `gorm:"uniqueIndex; not null" json:"endpoint"`
	Keys     string `gorm:"not null" json:"keys"`
}
