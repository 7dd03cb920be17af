package model

// All lists every persisted model in dependency order for migrations.
func All() []any {
	return []any{
		&User{},
		&Tag{},
		&Price{},
		&Material{},
		&Favorite{},
		&ShoppingListEntry{},
		&Follow{},
		&Assessment{},
		&Question{},
		&Choice{},
		&Submission{},
		&Answer{},
	}
}
