package model

type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Title string `json:"title" gorm:"size:30;not null;uniqueIndex"`
	Slug  string `json:"slug" gorm:"size:200;not null;uniqueIndex"`
}
