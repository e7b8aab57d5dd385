package department

import (
	"errors"
	"strings"
)

type CreateDepartmentDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      Status  `json:"status,omitempty"`
	HeadKey     *string `json:"headKey,omitempty"`
}

func (dto CreateDepartmentDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return errors.New("name is required")
	}
	if dto.Status != "" && !dto.Status.Valid() {
		return errors.New("status must be active, inactive or pending")
	}
	return nil
}

type UpdateDepartmentDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	HeadKey     *string `json:"headKey"`
}

func (dto UpdateDepartmentDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return errors.New("name is required")
	}
	if dto.Status != "" && !dto.Status.Valid() {
		return errors.New("status must be active, inactive or pending")
	}
	return nil
}
