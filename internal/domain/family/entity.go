// Package family models the members of a user's household whose ratings are
// tracked individually.  Member lifecycle (create, rename, remove) is owned by
// the family-management feature; analytics only reads members.
package family

import (
	"strings"
	"time"
)

// Relationship describes how a member relates to the account owner.
type Relationship string

const (
	RelationshipParent  Relationship = "parent"
	RelationshipChild   Relationship = "child"
	RelationshipSpouse  Relationship = "spouse"
	RelationshipSibling Relationship = "sibling"
	RelationshipOther   Relationship = "other"
)

// ParseRelationship maps free-form input to a Relationship.  Unknown values
// become RelationshipOther.
func ParseRelationship(s string) Relationship {
	switch Relationship(strings.ToLower(strings.TrimSpace(s))) {
	case RelationshipParent:
		return RelationshipParent
	case RelationshipChild:
		return RelationshipChild
	case RelationshipSpouse:
		return RelationshipSpouse
	case RelationshipSibling:
		return RelationshipSibling
	default:
		return RelationshipOther
	}
}

// Member is a single family member owned by UserID.
type Member struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Name         string       `json:"name"`
	Relationship Relationship `json:"relationship"`
	CreatedAt    time.Time    `json:"created_at"`
}

// DisplayName returns the member name, or a placeholder when it is blank.
func (m Member) DisplayName() string {
	if n := strings.TrimSpace(m.Name); n != "" {
		return n
	}
	return "Unnamed member"
}

//Personal.AI order the ending
