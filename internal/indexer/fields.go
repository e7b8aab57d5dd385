package indexer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fieldSpec is one column of the flat registration index: the child name it
// is copied from (registration first, then the parent client) and the literal
// used when neither has it.
type fieldSpec struct {
	name string
	def  string
}

// registrationFields are the list-view columns of a registration index
// record. The tabular client screens read only these, never the nested
// originals.
var registrationFields = []fieldSpec{
	{name: "firstName"},
	{name: "lastName"},
	{name: "email"},
	{name: "phone"},
	{name: "altPhone"},
	{name: "address"},
	{name: "city"},
	{name: "state"},
	{name: "zipCode"},
	{name: "country", def: "Unknown"},
	{name: "service", def: "Unknown"},
	{name: "jobTitle"},
	{name: "currentEmployer"},
	{name: "yearsOfExperience"},
	{name: "expectedSalary"},
	{name: "preferredLocation"},
	{name: "employmentType"},
	{name: "noticePeriod"},
	{name: "visaStatus", def: "Unknown"},
	{name: "securityClearance"},
	{name: "willingToRelocate"},
	{name: "highestDegree"},
	{name: "university"},
	{name: "graduationYear"},
	{name: "certifications"},
	{name: "reference1Name"},
	{name: "reference1Contact"},
	{name: "reference2Name"},
	{name: "reference2Contact"},
	{name: "resumeURL"},
	{name: "coverLetterURL"},
	{name: "photoURL"},
	{name: "accountManager"},
	{name: "recruiter"},
	{name: "status", def: "registered"},
	{name: "registeredDate"},
	{name: "lastUpdatedDate"},
}

var registrationDateFields = map[string]bool{
	"registeredDate":  true,
	"lastUpdatedDate": true,
}

// internalRoles is the fixed vocabulary that qualifies a user record for the
// employee index.
var internalRoles = []string{
	"admin", "manager", "employee", "team lead", "hr", "support", "sales", "development",
}

// buildRegistrationIndex flattens one nested registration plus its parent
// client into a single index record keyed deterministically, so re-running
// the migration over unchanged source produces identical output.
func buildRegistrationIndex(clientKey, regKey string, reg, client map[string]any, now time.Time) map[string]string {
	record := make(map[string]string, len(registrationFields)+2)
	record["clientKey"] = clientKey
	record["registrationKey"] = regKey

	for _, f := range registrationFields {
		value := stringField(reg, f.name)
		if value == "" {
			value = stringField(client, f.name)
		}
		if value == "" {
			value = f.def
		}
		if registrationDateFields[f.name] {
			value = normalizeDate(value, now)
		}
		record[f.name] = value
	}

	return record
}

// buildEmployeeIndex projects a user record down to its list-view fields.
func buildEmployeeIndex(userKey string, user map[string]any, roles []string) map[string]string {
	primary := ""
	for _, vocab := range internalRoles {
		for _, r := range roles {
			if r == vocab {
				primary = vocab
				break
			}
		}
		if primary != "" {
			break
		}
	}

	return map[string]string{
		"key":        userKey,
		"firstName":  stringField(user, "firstName"),
		"lastName":   stringField(user, "lastName"),
		"email":      stringField(user, "email"),
		"workEmail":  stringField(user, "workEmail"),
		"phone":      stringField(user, "phone"),
		"role":       primary,
		"department": stringField(user, "departmentId"),
		"status":     stringField(user, "accountStatus"),
	}
}

// roleSet lowercases whatever role shape the user record carries: a legacy
// `role` scalar or a `roles` array.
func roleSet(user map[string]any) []string {
	var roles []string

	switch v := user["roles"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				roles = append(roles, strings.ToLower(strings.TrimSpace(s)))
			}
		}
	case map[string]any:
		// some records store roles as a set-shaped object
		for name := range v {
			roles = append(roles, strings.ToLower(strings.TrimSpace(name)))
		}
	}

	if s, ok := user["role"].(string); ok && s != "" {
		roles = append(roles, strings.ToLower(strings.TrimSpace(s)))
	}

	return roles
}

func hasInternalRole(roles []string) bool {
	for _, vocab := range internalRoles {
		for _, r := range roles {
			if r == vocab {
				return true
			}
		}
	}
	return false
}

// normalizeDate truncates an ISO timestamp to its date part, defaulting to
// today when the source has no date at all.
func normalizeDate(value string, now time.Time) string {
	if value == "" {
		return now.Format("2006-01-02")
	}
	if len(value) >= 10 {
		return value[:10]
	}
	return value
}

func stringField(m map[string]any, name string) string {
	if m == nil {
		return ""
	}
	switch v := m[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
