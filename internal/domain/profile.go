package domain

// UserProfile accumulates the data collected from a user over the course of
// an intake flow. It is scoped to the user identity, survives across dialog
// runs, and is cleared when a case completes successfully.
type UserProfile struct {
	Name         string `json:"name,omitempty"`
	ID           string `json:"id,omitempty"`
	CaseType     string `json:"case_type,omitempty"`
	Subcase      string `json:"subcase,omitempty"`
	CaseResponse string `json:"case_response,omitempty"`
}

// Clear resets the profile for the next case.
func (p *UserProfile) Clear() {
	*p = UserProfile{}
}

// IsEmpty reports whether nothing has been collected yet.
func (p *UserProfile) IsEmpty() bool {
	return *p == UserProfile{}
}
