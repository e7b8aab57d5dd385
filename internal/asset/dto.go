package asset

import (
	"errors"
	"strings"
)

type CreateAssetDTO struct {
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

func (dto CreateAssetDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

type UpdateAssetDTO struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	SerialNumber string `json:"serialNumber"`
	Status       Status `json:"status,omitempty"`
}

// Validate accepts only the statuses an update may set directly; assigned is
// reached through the assignment transition, never through an update.
func (dto UpdateAssetDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return errors.New("name is required")
	}
	switch dto.Status {
	case "", StatusAvailable, StatusInMaintenance:
	default:
		return errors.New("status must be available or in maintenance")
	}
	return nil
}

type AssignAssetDTO struct {
	EmployeeKey string `json:"employeeKey"`
}

func (dto AssignAssetDTO) Validate() error {
	if strings.TrimSpace(dto.EmployeeKey) == "" {
		return errors.New("employee key is required")
	}
	return nil
}
