package submission

// The public site writes both inboxes under the shared submissions/ subtree;
// these paths are a contract with it.
const (
	careerPath  = "submissions/career_submissions"
	contactPath = "submissions/contactMessages"
)

type CareerStatus string

const (
	StatusPending  CareerStatus = "Pending"
	StatusAccepted CareerStatus = "Accepted"
	StatusRejected CareerStatus = "Rejected"
)

func (s CareerStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// CareerSubmission is one application from the public careers form, reviewed
// and resolved by an operator.
type CareerSubmission struct {
	Key            string       `json:"key,omitempty"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone,omitempty"`
	Position       string       `json:"position,omitempty"`
	Experience     string       `json:"experience,omitempty"`
	ExpectedSalary string       `json:"expectedSalary,omitempty"`
	CoverLetter    string       `json:"coverLetter,omitempty"`
	ResumeURL      string       `json:"resumeUrl,omitempty"`
	Status         CareerStatus `json:"status"`
	SubmittedAt    string       `json:"submittedAt,omitempty"`
}

// ContactSubmission is one message from the public contact form.
type ContactSubmission struct {
	Key         string `json:"key,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Subject     string `json:"subject,omitempty"`
	Message     string `json:"message"`
	SubmittedAt string `json:"submittedAt,omitempty"`
}
