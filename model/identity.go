package model

import "time"

// Identity is an anonymous chat participant. The id is externally
// visible: either client-supplied at join or issued by the relay
// (6-digit numeric by convention).
type Identity struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	OwnerTag  string    `gorm:"not null; default:''" json:"owner_tag"`
	Muted     bool      `gorm:"not null; default:false" json:"muted"`
	Blocked   bool      `gorm:"not null; default:false" json:"blocked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
