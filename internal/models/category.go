package models

// Category is a household-wide expense category. Expenses reference it by
// lowercased name rather than by id.
type Category struct {
	Base
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Icon string `gorm:"not null;default:'tag'" json:"icon"`
}

// DefaultCategories is the seed set created on a fresh database.
var DefaultCategories = []Category{
	{Name: "Groceries", Icon: "shopping-cart"},
	{Name: "Utilities", Icon: "zap"},
	{Name: "Transportation", Icon: "car"},
	{Name: "Entertainment", Icon: "film"},
	{Name: "Dining", Icon: "utensils"},
	{Name: "Healthcare", Icon: "heart"},
	{Name: "Education", Icon: "graduation-cap"},
	{Name: "Travel", Icon: "plane"},
	{Name: "Bills", Icon: "home"},
	{Name: "Other", Icon: "more-horizontal"},
}
