// AngelaMos | 2026
// entity_test.go

package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cit-submit/go-backend/internal/audit"
)

func TestFieldChangesFormat(t *testing.T) {
	t.Parallel()

	var changes audit.FieldChanges
	changes.Add("role", "MEMBER", "ADMIN")

	assert.Equal(t, "role: MEMBER -> ADMIN; ", changes.String())
	assert.False(t, changes.Empty())
}

func TestFieldChangesAccumulatesInOrder(t *testing.T) {
	t.Parallel()

	var changes audit.FieldChanges
	changes.Add("name", "Ana", "Ana Maria")
	changes.Add("picture", "", "https://example.com/p.png")

	assert.Equal(
		t,
		"name: Ana -> Ana Maria; picture:  -> https://example.com/p.png; ",
		changes.String(),
	)
}

func TestFieldChangesSkipsEqualValues(t *testing.T) {
	t.Parallel()

	var changes audit.FieldChanges
	changes.Add("role", "MEMBER", "MEMBER")
	changes.Add("active", true, true)

	assert.True(t, changes.Empty())
	assert.Equal(t, "", changes.String())
}

func TestFieldChangesMixedTypes(t *testing.T) {
	t.Parallel()

	var changes audit.FieldChanges
	changes.Add("active", true, false)

	assert.Equal(t, "active: true -> false; ", changes.String())
}
