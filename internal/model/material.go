package model

import "time"

// Material is a downloadable item published by an author. PubDate is written
// once on insert and ignored by every later update.
type Material struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	PubDate     time.Time `json:"pub_date" gorm:"<-:create;autoCreateTime;index"`
	AuthorID    uint      `json:"author_id" gorm:"not null;index"`
	Author      *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Preview     *string   `json:"preview,omitempty" gorm:"size:255"`
	File        *string   `json:"file,omitempty" gorm:"size:255"`
	Tags        []Tag     `json:"tags,omitempty" gorm:"many2many:material_tags;constraint:OnDelete:CASCADE"`
	Prices      []Price   `json:"prices,omitempty" gorm:"many2many:material_prices;constraint:OnDelete:CASCADE"`
	UpdatedAt   time.Time `json:"updated_at"`
}
