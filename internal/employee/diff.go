package employee

import (
	"fmt"
	"strings"
)

// Classification fields gate mutations behind an explicit confirmation step.
const (
	fieldFunctionalRole = "functionalRole"
	fieldAccountStatus  = "accountStatus"
	fieldDepartment     = "department"
)

type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// ChangeSummary is the field-by-field difference between the stored record
// and a pending edit, shown to the operator before classification changes
// are applied.
type ChangeSummary struct {
	Changes []FieldChange `json:"changes"`
}

func (c ChangeSummary) Empty() bool {
	return len(c.Changes) == 0
}

// HasClassificationChange reports whether the edit touches role, status or
// department.
func (c ChangeSummary) HasClassificationChange() bool {
	for _, change := range c.Changes {
		switch change.Field {
		case fieldFunctionalRole, fieldAccountStatus, fieldDepartment:
			return true
		}
	}
	return false
}

// String renders the summary for the confirmation prompt.
func (c ChangeSummary) String() string {
	if c.Empty() {
		return "no changes"
	}
	parts := make([]string, len(c.Changes))
	for i, change := range c.Changes {
		parts[i] = fmt.Sprintf("%s: %q to %q", change.Field, change.From, change.To)
	}
	return strings.Join(parts, "; ")
}

// diffFields is the fixed list of plain fields compared between original and
// pending records; role, status and department are compared separately as
// classification fields.
var diffFields = []struct {
	name string
	get  func(Employee) string
}{
	{"firstName", func(e Employee) string { return e.FirstName }},
	{"lastName", func(e Employee) string { return e.LastName }},
	{"email", func(e Employee) string { return e.Email }},
	{"workEmail", func(e Employee) string { return e.WorkEmail }},
	{"phone", func(e Employee) string { return e.Phone }},
}

// Diff compares the stored record against the pending edit.
func Diff(original, updated Employee) ChangeSummary {
	var summary ChangeSummary

	for _, f := range diffFields {
		from, to := f.get(original), f.get(updated)
		if from != to {
			summary.Changes = append(summary.Changes, FieldChange{Field: f.name, From: from, To: to})
		}
	}

	if original.FunctionalRole != updated.FunctionalRole {
		summary.Changes = append(summary.Changes, FieldChange{
			Field: fieldFunctionalRole,
			From:  original.FunctionalRole,
			To:    updated.FunctionalRole,
		})
	}
	if original.AccountStatus != updated.AccountStatus {
		summary.Changes = append(summary.Changes, FieldChange{
			Field: fieldAccountStatus,
			From:  string(original.AccountStatus),
			To:    string(updated.AccountStatus),
		})
	}
	if departmentRef(original) != departmentRef(updated) {
		summary.Changes = append(summary.Changes, FieldChange{
			Field: fieldDepartment,
			From:  departmentRef(original),
			To:    departmentRef(updated),
		})
	}

	return summary
}

func departmentRef(e Employee) string {
	if e.DepartmentID == nil {
		return ""
	}
	return *e.DepartmentID
}
