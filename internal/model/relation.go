package model

import "time"

type Favorite struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_favorite_user_material"`
	User       *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	MaterialID uint      `json:"material_id" gorm:"not null;uniqueIndex:idx_favorite_user_material;index"`
	Material   *Material `json:"-" gorm:"foreignKey:MaterialID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at"`
}

type ShoppingListEntry struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_shopping_list_user_material"`
	User       *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	MaterialID uint      `json:"material_id" gorm:"not null;uniqueIndex:idx_shopping_list_user_material;index"`
	Material   *Material `json:"-" gorm:"foreignKey:MaterialID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ShoppingListEntry) TableName() string { return "shopping_list_entries" }

// Follow records that User subscribed to Author.
type Follow struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AuthorID  uint      `json:"author_id" gorm:"not null;uniqueIndex:idx_follow_author_user,priority:1;index"`
	Author    *User     `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_follow_author_user,priority:2;index"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}
