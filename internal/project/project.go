package project

const (
	projectsPath = "projects"

	// markerPath is touched after every reorder so other consumers of the
	// portfolio can detect that display order changed.
	markerPath = "metadata/projects_last_updated"

	listCacheKey = "projects"
)

// Project is one portfolio entry under projects/{key}. Order is the dense
// display position, 0 first; every write path keeps the collection's orders
// contiguous.
type Project struct {
	Key          string   `json:"key,omitempty"`
	Title        string   `json:"title"`
	Category     string   `json:"category,omitempty"`
	ClientName   string   `json:"clientName,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	LiveURL      string   `json:"liveUrl,omitempty"`
	RepoURL      string   `json:"repoUrl,omitempty"`
	Order        int      `json:"order"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}
