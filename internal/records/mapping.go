package records

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Mapping names the records-store columns the pipeline reads and writes.
// Column labels are vendor-configured per base, so they are not hard-coded.
type Mapping struct {
	Leads  LeadColumns  `yaml:"leads"`
	Events EventColumns `yaml:"events"`
}

// LeadColumns maps lead fields to column labels in the leads table.
type LeadColumns struct {
	Timestamp string `yaml:"timestamp"`
	FullName  string `yaml:"full_name"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
	Company   string `yaml:"company"`
	Website   string `yaml:"website"`
	Title     string `yaml:"title"`
	Profile   string `yaml:"profile"`
	Synced    string `yaml:"synced"`
	Duplicate string `yaml:"duplicate"`
	Source    string `yaml:"source"`
}

// EventColumns maps audit event fields to column labels in the events table.
type EventColumns struct {
	Type      string `yaml:"type"`
	Source    string `yaml:"source"`
	Subject   string `yaml:"subject"`
	Status    string `yaml:"status"`
	Detail    string `yaml:"detail"`
	Timestamp string `yaml:"timestamp"`
}

// DefaultMapping returns the column labels of the dashboard's standard base.
func DefaultMapping() Mapping {
	return Mapping{
		Leads: LeadColumns{
			Timestamp: "Date/Time",
			FullName:  "Full Name",
			Email:     "Email",
			Phone:     "Phone",
			Company:   "Company Name",
			Website:   "Website",
			Title:     "Job Title",
			Profile:   "LinkedIn URL",
			Synced:    "Synced to CRM",
			Duplicate: "Duplicate Found",
			Source:    "Source Tool",
		},
		Events: EventColumns{
			Type:      "Event Type",
			Source:    "Source",
			Subject:   "Subject",
			Status:    "Status",
			Detail:    "Details",
			Timestamp: "Timestamp",
		},
	}
}

// LoadMapping reads a column mapping from a YAML file. Columns omitted from
// the file keep their default labels.
func LoadMapping(path string) (Mapping, error) {
	m := DefaultMapping()

	data, err := os.ReadFile(path)
	if err != nil {
		return m, eris.Wrapf(err, "records: read mapping %s", path)
	}

	var wrapper struct {
		Mapping Mapping `yaml:"mapping"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return m, eris.Wrap(err, "records: parse mapping")
	}

	overlayLeads(&m.Leads, wrapper.Mapping.Leads)
	overlayEvents(&m.Events, wrapper.Mapping.Events)
	return m, nil
}

func overlayLeads(dst *LeadColumns, src LeadColumns) {
	setIf(&dst.Timestamp, src.Timestamp)
	setIf(&dst.FullName, src.FullName)
	setIf(&dst.Email, src.Email)
	setIf(&dst.Phone, src.Phone)
	setIf(&dst.Company, src.Company)
	setIf(&dst.Website, src.Website)
	setIf(&dst.Title, src.Title)
	setIf(&dst.Profile, src.Profile)
	setIf(&dst.Synced, src.Synced)
	setIf(&dst.Duplicate, src.Duplicate)
	setIf(&dst.Source, src.Source)
}

func overlayEvents(dst *EventColumns, src EventColumns) {
	setIf(&dst.Type, src.Type)
	setIf(&dst.Source, src.Source)
	setIf(&dst.Subject, src.Subject)
	setIf(&dst.Status, src.Status)
	setIf(&dst.Detail, src.Detail)
	setIf(&dst.Timestamp, src.Timestamp)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
