package model

import "strings"

// Lead represents one prospective contact produced by an external scraping tool.
type Lead struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Domain    string `json:"domain"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Source    string `json:"source"`
}

// FullName joins the name parts, tolerating empty components.
func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// Subject returns the identifier used in event logs and notifications:
// the email when known, otherwise the full name.
func (l Lead) Subject() string {
	if l.Email != "" {
		return l.Email
	}
	return l.FullName()
}

// Enrichment holds the ephemeral result of a people-search lookup.
// All fields are optional; a zero value means the service had nothing.
type Enrichment struct {
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Title      string `json:"title,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

// Empty reports whether the lookup produced no usable fields.
func (e Enrichment) Empty() bool {
	return e.Email == "" && e.Phone == "" && e.Title == "" && e.ProfileURL == ""
}

// Merge fills the lead's missing contact fields in place. Existing values
// on the lead always win over enriched ones.
func (l *Lead) Merge(e Enrichment) {
	if l.Email == "" {
		l.Email = e.Email
	}
	if l.Phone == "" {
		l.Phone = e.Phone
	}
}
