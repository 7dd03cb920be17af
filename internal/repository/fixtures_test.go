package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/lshigami/Materia/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ctx = context.Background()

func seedUser(t *testing.T, db *gorm.DB, username string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.MinCost)
	require.NoError(t, err)
	u := model.User{
		Email:     fmt.Sprintf("%s@example.com", username),
		Username:  username,
		FirstName: username,
		LastName:  "Test",
		Password:  string(hash),
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedTag(t *testing.T, db *gorm.DB, title, slug string) model.Tag {
	t.Helper()
	tag := model.Tag{Title: title, Slug: slug}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

func seedPrice(t *testing.T, db *gorm.DB, amount string) model.Price {
	t.Helper()
	p := model.Price{Amount: decimal.RequireFromString(amount), MeasurementUnit: "pcs"}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedMaterial(t *testing.T, db *gorm.DB, author model.User, title string, tags []model.Tag, prices []model.Price) model.Material {
	t.Helper()
	m := model.Material{Title: title, Description: title + " description", AuthorID: author.ID, Tags: tags, Prices: prices}
	require.NoError(t, db.Omit("Author", "Tags.*", "Prices.*").Create(&m).Error)
	return m
}

func count(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func ids(materials []model.Material) []uint {
	out := make([]uint, 0, len(materials))
	for _, m := range materials {
		out = append(out, m.ID)
	}
	return out
}
