package dto

import (
	"github.com/jinzhu/copier"
	"github.com/lshigami/Materia/internal/model"
)

type RegisterUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

type RegisteredUser struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserView struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// SubscriptionView is a followed author with a preview of their materials.
type SubscriptionView struct {
	UserView
	Materials      []MaterialSummary `json:"materials"`
	MaterialsCount int64             `json:"materials_count"`
}

func NewRegisteredUser(u *model.User) RegisteredUser {
	var out RegisteredUser
	_ = copier.Copy(&out, u)
	return out
}

func NewUserView(u *model.User, subscribed bool) UserView {
	var out UserView
	_ = copier.Copy(&out, u)
	out.IsSubscribed = subscribed
	return out
}

func NewSubscriptionView(author *model.User, subscribed bool, materials []model.Material, count int64) SubscriptionView {
	summaries := make([]MaterialSummary, 0, len(materials))
	for i := range materials {
		summaries = append(summaries, NewMaterialSummary(&materials[i]))
	}
	return SubscriptionView{
		UserView:       NewUserView(author, subscribed),
		Materials:      summaries,
		MaterialsCount: count,
	}
}
