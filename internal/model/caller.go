package model

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// DisplayName falls back to the email when no name was issued.
func (c Caller) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}
