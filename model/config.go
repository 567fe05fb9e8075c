package model

import "gorm.io/gorm"

// ConfigEntry is a key/value row; last writer wins.
type ConfigEntry struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex; not null" json:"key"`
	Value string `gorm:"not null" json:"value"`
}
