// Package rating defines the rating records that every analytics view is
// derived from, together with the menu items and restaurants they reference.
package rating

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Rating scale bounds.
const (
	MinValue = 1
	MaxValue = 10
)

// OtherCuisine is the bucket for ratings whose restaurant has no cuisine.
const OtherCuisine = "Other"

// Restaurant is read-only from the analytics perspective.
type Restaurant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	CuisineType string `json:"cuisine_type"`
}

// MenuItem is read-only from the analytics perspective.
type MenuItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	RestaurantID string  `json:"restaurant_id"`
}

// Rating is a single 1–10 score given to a menu item, optionally on behalf
// of a family member.
type Rating struct {
	ID             string    `json:"id"`
	Value          int       `json:"rating"`
	CreatedAt      time.Time `json:"created_at"`
	MenuItemID     string    `json:"menu_item_id"`
	FamilyMemberID string    `json:"family_member_id,omitempty"`
	UserID         string    `json:"user_id"`
}

// Record is a Rating joined with its menu item and restaurant.  It is the
// unit the aggregators operate on.
type Record struct {
	Rating
	MenuItemName   string  `json:"menu_item_name"`
	Price          float64 `json:"price"`
	RestaurantID   string  `json:"restaurant_id"`
	RestaurantName string  `json:"restaurant_name"`
	CuisineType    string  `json:"cuisine_type"`
}

// HasMember reports whether the rating was given on behalf of a member.
func (r Record) HasMember() bool {
	return r.FamilyMemberID != ""
}

// Cuisine returns the normalised cuisine label, OtherCuisine when unknown.
func (r Record) Cuisine() string {
	return NormalizeCuisine(r.CuisineType)
}

// NormalizeCuisine trims and NFC-normalises a cuisine label so that visually
// identical names group together.  Blank labels map to OtherCuisine.
func NormalizeCuisine(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return OtherCuisine
	}
	return s
}

// ValidValue reports whether v lies on the rating scale.
func ValidValue(v int) bool {
	return v >= MinValue && v <= MaxValue
}

//Personal.AI order the ending
