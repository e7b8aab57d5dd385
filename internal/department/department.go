package department

const (
	departmentsPath = "departments"
	usersPath       = "users"

	listCacheKey = "departments"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// Department is an organizational unit under departments/{key}. Membership is
// derived from the employees that reference the key, never stored on the
// department itself; HeadKey references the lead employee by record key so
// renames cannot break the link.
type Department struct {
	Key         string  `json:"key,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      Status  `json:"status,omitempty"`
	HeadKey     *string `json:"headKey,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// Member is one employee row in the department detail view.
type Member struct {
	Key       string `json:"key"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"functionalRole"`
}

// Detail is a department with its derived membership.
type Detail struct {
	Department
	Members []Member `json:"members"`
}
