package dto

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Materia/internal/model"
)

type TagView struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type CreateTagRequest struct {
	Title string `json:"title" binding:"required,max=30"`
	Slug  string `json:"slug" binding:"required,max=200,slug"`
}

// PriceView renders the amount with exactly two fractional digits.
type PriceView struct {
	ID              uint   `json:"id"`
	Amount          string `json:"amount"`
	MeasurementUnit string `json:"measurement_unit"`
}

type CreatePriceRequest struct {
	Amount          string `json:"amount" binding:"required,price_amount"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=10"`
}

type CreateMaterialRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description string  `json:"description" binding:"required"`
	Preview     *string `json:"preview" binding:"omitempty,max=255"`
	File        *string `json:"file" binding:"omitempty,max=255"`
	Tags        []uint  `json:"tags" binding:"omitempty,dive,gt=0"`
	Prices      []uint  `json:"prices" binding:"omitempty,dive,gt=0"`
}

// UpdateMaterialRequest is a partial update; absent fields are left as is.
// pub_date and author are not accepted.
type UpdateMaterialRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,min=1"`
	Preview     *string `json:"preview" binding:"omitempty,max=255"`
	File        *string `json:"file" binding:"omitempty,max=255"`
	Tags        *[]uint `json:"tags" binding:"omitempty,dive,gt=0"`
	Prices      *[]uint `json:"prices" binding:"omitempty,dive,gt=0"`
}

type MaterialView struct {
	ID               uint        `json:"id"`
	Tags             []TagView   `json:"tags"`
	Author           UserView    `json:"author"`
	IsFavorited      bool        `json:"is_favorited"`
	IsInShoppingCart bool        `json:"is_in_shopping_cart"`
	Title            string      `json:"title"`
	File             *string     `json:"file"`
	Description      string      `json:"description"`
	PubDate          time.Time   `json:"pub_date"`
	Preview          *string     `json:"preview"`
	Price            []PriceView `json:"price"`
}

// MaterialSummary is the compact form used in favorites, the shopping cart
// and subscription listings. Author is the author's id.
type MaterialSummary struct {
	ID      uint        `json:"id"`
	Title   string      `json:"title"`
	Preview *string     `json:"preview"`
	Author  uint        `json:"author"`
	Price   []PriceView `json:"price"`
	PubDate time.Time   `json:"pub_date"`
}

// MaterialFlags are the viewer-relative predicates of one material.
type MaterialFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

func NewTagView(t *model.Tag) TagView {
	var out TagView
	_ = copier.Copy(&out, t)
	return out
}

func NewTagViews(tags []model.Tag) []TagView {
	out := make([]TagView, 0, len(tags))
	for i := range tags {
		out = append(out, NewTagView(&tags[i]))
	}
	return out
}

func NewPriceView(p *model.Price) PriceView {
	return PriceView{ID: p.ID, Amount: p.Amount.StringFixed(2), MeasurementUnit: p.MeasurementUnit}
}

func NewPriceViews(prices []model.Price) []PriceView {
	out := make([]PriceView, 0, len(prices))
	for i := range prices {
		out = append(out, NewPriceView(&prices[i]))
	}
	return out
}

// NewMaterialView expects Author, Tags and Prices to be loaded.
func NewMaterialView(m *model.Material, flags MaterialFlags) MaterialView {
	view := MaterialView{
		ID:               m.ID,
		Tags:             NewTagViews(m.Tags),
		IsFavorited:      flags.IsFavorited,
		IsInShoppingCart: flags.IsInShoppingCart,
		Title:            m.Title,
		File:             m.File,
		Description:      m.Description,
		PubDate:          m.PubDate,
		Preview:          m.Preview,
		Price:            NewPriceViews(m.Prices),
	}
	if m.Author != nil {
		view.Author = NewUserView(m.Author, flags.AuthorSubscribed)
	} else {
		view.Author = UserView{ID: m.AuthorID}
	}
	return view
}

func NewMaterialSummary(m *model.Material) MaterialSummary {
	return MaterialSummary{
		ID:      m.ID,
		Title:   m.Title,
		Preview: m.Preview,
		Author:  m.AuthorID,
		Price:   NewPriceViews(m.Prices),
		PubDate: m.PubDate,
	}
}

func NewMaterialSummaries(materials []model.Material) []MaterialSummary {
	out := make([]MaterialSummary, 0, len(materials))
	for i := range materials {
		out = append(out, NewMaterialSummary(&materials[i]))
	}
	return out
}
