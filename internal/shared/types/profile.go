package types

// Person is a scraped LinkedIn profile.
type Person struct {
	PublicIdentifier string `json:"public_identifier"`
	ProfilePicURL    string `json:"profile_pic_url,omitempty"`
	FullName         string `json:"full_name,omitempty"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Headline         string `json:"headline,omitempty"`
	Occupation       string `json:"occupation,omitempty"`
	Summary          string `json:"summary,omitempty"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	CountryFullName  string `json:"country_full_name,omitempty"`
	Industry         string `json:"industry,omitempty"`

	Skills    []string `json:"skills,omitempty"`
	Languages []string `json:"languages,omitempty"`

	Experiences                []Experience    `json:"experiences,omitempty"`
	Education                  []Education     `json:"education,omitempty"`
	Certifications             []Certification `json:"certifications,omitempty"`
	AccomplishmentProjects     []Project       `json:"accomplishment_projects,omitempty"`
	AccomplishmentPublications []Publication   `json:"accomplishment_publications,omitempty"`
	AccomplishmentHonorsAwards []HonorAward    `json:"accomplishment_honors_awards,omitempty"`
	AccomplishmentCourses      []Course        `json:"accomplishment_courses,omitempty"`
	VolunteerWork              []Volunteering  `json:"volunteer_work,omitempty"`
}

type Experience struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

type Education struct {
	School       string `json:"school,omitempty"`
	DegreeName   string `json:"degree_name,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	Description  string `json:"description,omitempty"`
}

type Certification struct {
	Name      string `json:"name,omitempty"`
	Authority string `json:"authority,omitempty"`
}

type Project struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type Publication struct {
	Name        string `json:"name,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	Description string `json:"description,omitempty"`
}

type HonorAward struct {
	Title       string `json:"title,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
	Description string `json:"description,omitempty"`
}

type Course struct {
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
}

type Volunteering struct {
	Title       string `json:"title,omitempty"`
	Cause       string `json:"cause,omitempty"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description,omitempty"`
}

// Salary is the compensation range of a job post.
type Salary struct {
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Period   string  `json:"period,omitempty"`
}
