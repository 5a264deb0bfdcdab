package models

// Profile is the structured candidate data extracted from a resume.
// Field names and JSON tags mirror the declarative profile schema in
// services.ProfileSchema; the schema owns the constraints.
type Profile struct {
	Name            string       `json:"name" yaml:"name"`
	Email           string       `json:"email" yaml:"email"`
	Phone           *string      `json:"phone,omitempty" yaml:"phone,omitempty"`
	CurrentJobTitle *string      `json:"current_job_title,omitempty" yaml:"current_job_title,omitempty"`
	CurrentCompany  *string      `json:"current_company,omitempty" yaml:"current_company,omitempty"`
	Summary         *string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	PortfolioURL    *string      `json:"portfolio_url,omitempty" yaml:"portfolio_url,omitempty"`
	Experience      []Experience `json:"experience,omitempty" yaml:"experience,omitempty"`
	Education       []Education  `json:"education,omitempty" yaml:"education,omitempty"`
	Skills          []string     `json:"skills" yaml:"skills"`
	Projects        []Project    `json:"projects,omitempty" yaml:"projects,omitempty"`
}

type Experience struct {
	Title       *string `json:"title,omitempty" yaml:"title,omitempty"`
	Company     *string `json:"company,omitempty" yaml:"company,omitempty"`
	Location    *string `json:"location,omitempty" yaml:"location,omitempty"`
	StartDate   *string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

type Education struct {
	InstituteName *string `json:"institute_name,omitempty" yaml:"institute_name,omitempty"`
	Degree        *string `json:"degree,omitempty" yaml:"degree,omitempty"`
	FieldOfStudy  *string `json:"field_of_study,omitempty" yaml:"field_of_study,omitempty"`
	StartDate     *string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Location      *string `json:"location,omitempty" yaml:"location,omitempty"`
	// IsOngoing is either a boolean or a free-form string such as "present".
	IsOngoing any `json:"is_ongoing,omitempty" yaml:"is_ongoing,omitempty"`
}

type Project struct {
	Name        *string  `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string  `json:"description,omitempty" yaml:"description,omitempty"`
	TechStack   []string `json:"techStack,omitempty" yaml:"techStack,omitempty"`
	Link        *string  `json:"link,omitempty" yaml:"link,omitempty"`
}
