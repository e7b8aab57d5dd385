package employee

import (
	"encoding/json"
	"strings"

	"github.com/talentdesk/backoffice/internal/store"
)

const (
	usersPath = "users"
	indexPath = "employees_index"

	indexCacheKey = "employees_index"
)

type AccountStatus string

const (
	StatusActive   AccountStatus = "Active"
	StatusInactive AccountStatus = "Inactive"
	StatusPending  AccountStatus = "Pending"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// FunctionalRoles is the vocabulary of internal roles an employee can hold.
var FunctionalRoles = []string{
	"admin", "manager", "employee", "team lead", "hr", "support", "sales", "development",
}

func ValidFunctionalRole(role string) bool {
	for _, r := range FunctionalRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Employee is a staff record under users/{key}. Functional role, account
// status and department used to be folded into one roles string set; they are
// three typed fields here so a department named "active" can never collide
// with a status token.
type Employee struct {
	Key            string        `json:"key,omitempty"`
	FirstName      string        `json:"firstName"`
	LastName       string        `json:"lastName"`
	Email          string        `json:"email"`
	WorkEmail      string        `json:"workEmail,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	FunctionalRole string        `json:"functionalRole"`
	AccountStatus  AccountStatus `json:"accountStatus"`
	DepartmentID   *string       `json:"departmentId,omitempty"`
	CreatedAt      string        `json:"createdAt,omitempty"`
}

func (e Employee) DisplayName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// NotClient is the listing exclusion predicate: accounts tagged with the
// "client" role, in any of the legacy role shapes, never show up in employee
// listings or search results.
func NotClient(entry store.Entry) bool {
	var record struct {
		Role  string          `json:"role"`
		Roles json.RawMessage `json:"roles"`
	}
	if err := json.Unmarshal(entry.Value, &record); err != nil {
		return true
	}

	if strings.EqualFold(strings.TrimSpace(record.Role), "client") {
		return false
	}

	if len(record.Roles) > 0 {
		var list []string
		if err := json.Unmarshal(record.Roles, &list); err == nil {
			for _, r := range list {
				if strings.EqualFold(strings.TrimSpace(r), "client") {
					return false
				}
			}
		} else {
			var set map[string]any
			if err := json.Unmarshal(record.Roles, &set); err == nil {
				for r := range set {
					if strings.EqualFold(strings.TrimSpace(r), "client") {
						return false
					}
				}
			}
		}
	}

	return true
}
