// AngelaMos | 2026
// entity.go

package audit

import (
	"fmt"
	"strings"
	"time"
)

const (
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionRoleChange = "ROLE_CHANGE"
	ActionDeactivate = "DEACTIVATE"
	ActionReactivate = "REACTIVATE"
)

// Entry is one immutable record of a privileged mutation. Entries are only
// ever appended; there is no update or delete path anywhere in the codebase.
type Entry struct {
	ID            string    `db:"id"`
	AdminID       string    `db:"admin_id"`
	TargetUserID  string    `db:"target_user_id"`
	Action        string    `db:"action"`
	Description   string    `db:"description"`
	ChangedFields string    `db:"changed_fields"`
	CreatedAt     time.Time `db:"created_at"`
}

// FieldChanges accumulates before/after values into the flat
// "field: old -> new; " summary format stored on audit entries.
type FieldChanges struct {
	b strings.Builder
}

func (f *FieldChanges) Add(field string, oldValue, newValue any) {
	oldStr := fmt.Sprintf("%v", oldValue)
	newStr := fmt.Sprintf("%v", newValue)
	if oldStr == newStr {
		return
	}
	fmt.Fprintf(&f.b, "%s: %s -> %s; ", field, oldStr, newStr)
}

func (f *FieldChanges) Empty() bool {
	return f.b.Len() == 0
}

func (f *FieldChanges) String() string {
	return f.b.String()
}
