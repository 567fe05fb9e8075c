package model

import "gorm.io/gorm"

type Message struct {
	gorm.Model
	OwnerID  string   `gorm:"index; not null" json:"owner_id"`
	Owner    Identity `gorm:"foreignKey:OwnerID; constraint:OnDelete:CASCADE" json:"-"`
	Kind     string   `gorm:"not null" json:"kind"` // text | image
	Content  string   `gorm:"not null" json:"content"`
	FromUser bool     `gorm:"not null" json:"from_user"`
	Read     bool     `gorm:"not null" json:"read"`
}

// Image payloads are stored out of line; Message.Content carries the
// image id for kind=image.
type Image struct {
	gorm.Model
	Data string `gorm:"not null" json:"data"`
}
