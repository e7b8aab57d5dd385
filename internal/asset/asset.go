package asset

const (
	assetsPath = "assets"
	usersPath  = "users"

	listCacheKey = "assets"

	// assignedDate and returnDate keep the day/month/year form the asset
	// ledger has always used.
	ledgerDateLayout = "02/01/2006"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusAssigned  Status = "assigned"
	// StatusInMaintenance takes an asset out of the assignable pool without
	// removing it from the ledger.
	StatusInMaintenance Status = "in maintenance"
)

// Asset is one piece of company equipment under assets/{key}. AssignedTo
// references an employee record key; it is only set while Status is assigned.
type Asset struct {
	Key          string  `json:"key,omitempty"`
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	SerialNumber string  `json:"serialNumber,omitempty"`
	Status       Status  `json:"status"`
	AssignedTo   *string `json:"assignedTo,omitempty"`
	AssignedDate string  `json:"assignedDate,omitempty"`
	ReturnDate   *string `json:"returnDate,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}
