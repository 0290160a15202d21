package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/types"
)

func TestJobPost(t *testing.T) {
	job := dao.JobPost{
		Title:        "Staff Engineer",
		Description:  "Build the platform",
		Location:     "Berlin",
		RemotePolicy: "hybrid",
		Requirements: []string{"Go", "", "Postgres"},
		Salary:       &types.Salary{Min: 90000, Currency: "EUR"},
	}

	want := `<jobPost>
    <title>Staff Engineer</title>
    <description>Build the platform</description>
    <location>Berlin</location>
    <remote_policy>hybrid</remote_policy>
    <requirements>
        <requirement>Go</requirement>
        <requirement>Postgres</requirement>
    </requirements>
    <salary_info>
        <min_salary>90000</min_salary>
        <currency>EUR</currency>
    </salary_info>
</jobPost>`
	assert.Equal(t, want, JobPost(job))
}

func TestJobPostMinimal(t *testing.T) {
	got := JobPost(dao.JobPost{Title: "T", Salary: &types.Salary{}})
	assert.Equal(t, "<jobPost>\n    <title>T</title>\n    <description></description>\n</jobPost>", got)
}

func TestProfile(t *testing.T) {
	p := types.Person{
		PublicIdentifier: "jdoe",
		FullName:         "Jane Doe",
		Headline:         "Engineer",
		City:             "Austin",
		CountryFullName:  "United States",
		Skills:           []string{"Go"},
		Experiences: []types.Experience{
			{Title: "SWE", Description: "APIs"},
			{},
		},
		AccomplishmentCourses: []types.Course{{Name: "Distributed Systems"}},
	}

	want := `<linkedInProfile>
    <name>Jane Doe</name>
    <url>https://www.linkedin.com/in/jdoe</url>
    <headline>Engineer</headline>
    <location>Austin, United States</location>
    <skills>
        <skill>Go</skill>
    </skills>
    <experiences>
        <experience_entry>
            <title>SWE</title>
            <description>APIs</description>
        </experience_entry>
    </experiences>
    <courses>
        <course>Distributed Systems</course>
    </courses>
</linkedInProfile>`
	assert.Equal(t, want, Profile(p))
}

func TestProfiles(t *testing.T) {
	out := Profiles([]types.Person{{PublicIdentifier: "a"}, {PublicIdentifier: "b"}})
	assert.Contains(t, out, "</linkedInProfile>\n\n<linkedInProfile>")
	assert.Equal(t, "", Profiles(nil))
}
