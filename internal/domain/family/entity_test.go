package family

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRelationship(t *testing.T) {
	cases := map[string]Relationship{
		"parent":   RelationshipParent,
		" Child ":  RelationshipChild,
		"SPOUSE":   RelationshipSpouse,
		"sibling":  RelationshipSibling,
		"grandpa":  RelationshipOther,
		"":         RelationshipOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseRelationship(in), in)
	}
}

func TestMember_DisplayName(t *testing.T) {
	assert.Equal(t, "Ava", Member{Name: " Ava "}.DisplayName())
	assert.Equal(t, "Unnamed member", Member{Name: "  "}.DisplayName())
}

//Personal.AI order the ending
