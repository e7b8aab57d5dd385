package registration

const (
	indexPath   = "service_registrations_index"
	clientsPath = "clients"
)

// IndexRecord is one denormalized row of the registration index. Every field
// is a string; the index is built flat so the listing never has to join
// client records. The row carries its own clientKey and registrationKey so
// the composite row key never needs parsing (push keys may contain the
// underscore separator themselves).
type IndexRecord struct {
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields"`
}

// Registration is the full nested record under
// clients/{clientKey}/serviceRegistrations/{registrationKey}.
type Registration struct {
	ClientKey       string         `json:"clientKey"`
	RegistrationKey string         `json:"registrationKey"`
	Fields          map[string]any `json:"fields"`
}
