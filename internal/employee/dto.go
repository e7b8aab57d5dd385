package employee

import (
	"errors"
	"strings"
)

// CreateEmployeeDTO is the account-creation payload. The password goes to the
// auth collaborator only and is never written to the employee record.
type CreateEmployeeDTO struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	WorkEmail      string  `json:"workEmail,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	FunctionalRole string  `json:"functionalRole"`
	DepartmentID   *string `json:"departmentId,omitempty"`
}

func (dto CreateEmployeeDTO) Validate() error {
	if strings.TrimSpace(dto.Email) == "" {
		return errors.New("email is required")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if strings.TrimSpace(dto.FirstName) == "" {
		return errors.New("first name is required")
	}
	if strings.TrimSpace(dto.LastName) == "" {
		return errors.New("last name is required")
	}
	if !ValidFunctionalRole(dto.FunctionalRole) {
		return errors.New("functional role must be one of: " + strings.Join(FunctionalRoles, ", "))
	}
	return nil
}

// UpdateEmployeeDTO carries the full editable field set; the service diffs it
// against the stored record and only writes what changed.
type UpdateEmployeeDTO struct {
	FirstName      string        `json:"firstName"`
	LastName       string        `json:"lastName"`
	Email          string        `json:"email"`
	WorkEmail      string        `json:"workEmail"`
	Phone          string        `json:"phone"`
	FunctionalRole string        `json:"functionalRole"`
	AccountStatus  AccountStatus `json:"accountStatus"`
	DepartmentID   *string       `json:"departmentId"`
}

func (dto UpdateEmployeeDTO) Validate() error {
	if strings.TrimSpace(dto.FirstName) == "" {
		return errors.New("first name is required")
	}
	if strings.TrimSpace(dto.LastName) == "" {
		return errors.New("last name is required")
	}
	if strings.TrimSpace(dto.Email) == "" {
		return errors.New("email is required")
	}
	if !ValidFunctionalRole(dto.FunctionalRole) {
		return errors.New("functional role must be one of: " + strings.Join(FunctionalRoles, ", "))
	}
	if !dto.AccountStatus.Valid() {
		return errors.New("account status must be Active, Inactive or Pending")
	}
	return nil
}

func (dto UpdateEmployeeDTO) apply(e Employee) Employee {
	e.FirstName = dto.FirstName
	e.LastName = dto.LastName
	e.Email = dto.Email
	e.WorkEmail = dto.WorkEmail
	e.Phone = dto.Phone
	e.FunctionalRole = dto.FunctionalRole
	e.AccountStatus = dto.AccountStatus
	e.DepartmentID = dto.DepartmentID
	return e
}
