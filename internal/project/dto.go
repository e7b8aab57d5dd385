package project

import (
	"errors"
	"strings"
)

type CreateProjectDTO struct {
	Title        string   `json:"title"`
	Category     string   `json:"category,omitempty"`
	ClientName   string   `json:"clientName,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	LiveURL      string   `json:"liveUrl,omitempty"`
	RepoURL      string   `json:"repoUrl,omitempty"`
}

func (dto CreateProjectDTO) Validate() error {
	if strings.TrimSpace(dto.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

type UpdateProjectDTO struct {
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	ClientName   string   `json:"clientName"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	LiveURL      string   `json:"liveUrl"`
	RepoURL      string   `json:"repoUrl"`
}

func (dto UpdateProjectDTO) Validate() error {
	if strings.TrimSpace(dto.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// ReorderProjectDTO names the target display position for one project; the
// rest of the collection shifts around it.
type ReorderProjectDTO struct {
	Position int `json:"position"`
}
