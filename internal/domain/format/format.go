// Package format renders job posts and profiles as the tagged text the
// model and the embedding endpoint consume. Empty fields and lists are
// omitted; values are inserted verbatim.
package format

import (
	"strconv"
	"strings"

	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/types"
)

const indent = "    "

// JobPost renders job as a <jobPost> block.
func JobPost(job dao.JobPost) string {
	var b block
	b.open("jobPost")
	b.always(1, "title", job.Title)
	b.always(1, "description", job.Description)
	b.tag(1, "location", job.Location)
	b.tag(1, "department", job.Department)
	b.tag(1, "job_type", job.Type)
	b.tag(1, "remote_policy", job.RemotePolicy)
	b.list("responsibilities", "responsibility", job.Responsibilities)
	b.list("requirements", "requirement", job.Requirements)
	b.list("tech_stack", "tech", job.TechStack)
	b.list("benefits", "benefit", job.Benefits)
	if job.Salary != nil {
		b.entriesAt(1, "salary_info", [][2]string{
			{"min_salary", number(job.Salary.Min)},
			{"max_salary", number(job.Salary.Max)},
			{"currency", job.Salary.Currency},
			{"period", job.Salary.Period},
		})
	}
	b.close("jobPost")
	return b.String()
}

// Profile renders p as a <linkedInProfile> block.
func Profile(p types.Person) string {
	var b block
	b.open("linkedInProfile")
	b.always(1, "name", p.FullName)
	b.always(1, "url", "https://www.linkedin.com/in/"+p.PublicIdentifier)
	b.tag(1, "headline", p.Headline)
	b.tag(1, "occupation", p.Occupation)
	b.tag(1, "location", joinNonEmpty(", ", p.City, p.State, p.CountryFullName))
	b.tag(1, "industry", p.Industry)
	b.tag(1, "summary", p.Summary)
	b.list("skills", "skill", p.Skills)

	objects := func(parent, item string, rows [][][2]string) {
		var inner block
		for _, fields := range rows {
			inner.entriesAt(2, item, fields)
		}
		if inner.Len() > 0 {
			b.line(1, "<"+parent+">")
			b.WriteString(inner.String())
			b.line(1, "</"+parent+">")
		}
	}

	var rows [][][2]string
	for _, e := range p.Experiences {
		rows = append(rows, [][2]string{{"title", e.Title}, {"location", e.Location}, {"description", e.Description}})
	}
	objects("experiences", "experience_entry", rows)

	rows = nil
	for _, e := range p.Education {
		rows = append(rows, [][2]string{{"school", e.School}, {"degree", e.DegreeName}, {"field_of_study", e.FieldOfStudy}, {"description", e.Description}})
	}
	objects("education", "education_entry", rows)

	rows = nil
	for _, c := range p.Certifications {
		rows = append(rows, [][2]string{{"name", c.Name}, {"authority", c.Authority}})
	}
	objects("certifications", "certification_entry", rows)

	rows = nil
	for _, pr := range p.AccomplishmentProjects {
		rows = append(rows, [][2]string{{"title", pr.Title}, {"description", pr.Description}})
	}
	objects("projects", "project_entry", rows)

	rows = nil
	for _, pub := range p.AccomplishmentPublications {
		rows = append(rows, [][2]string{{"name", pub.Name}, {"publisher", pub.Publisher}, {"description", pub.Description}})
	}
	objects("publications", "publication_entry", rows)

	rows = nil
	for _, h := range p.AccomplishmentHonorsAwards {
		rows = append(rows, [][2]string{{"title", h.Title}, {"issuer", h.Issuer}, {"description", h.Description}})
	}
	objects("honors_awards", "award_entry", rows)

	rows = nil
	for _, v := range p.VolunteerWork {
		rows = append(rows, [][2]string{{"title", v.Title}, {"description", v.Description}})
	}
	objects("volunteer_work", "volunteer_entry", rows)

	var courses []string
	for _, c := range p.AccomplishmentCourses {
		courses = append(courses, c.Name)
	}
	b.list("courses", "course", courses)
	b.list("languages", "language", p.Languages)
	b.close("linkedInProfile")
	return b.String()
}

// Profiles renders several profiles separated by blank lines.
func Profiles(ps []types.Person) string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, Profile(p))
	}
	return strings.Join(out, "\n\n")
}

type block struct {
	strings.Builder
}

func (b *block) line(depth int, s string) {
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteString(s)
	b.WriteByte('\n')
}

func (b *block) open(name string)  { b.line(0, "<"+name+">") }
func (b *block) close(name string) { b.WriteString("</" + name + ">") }

func (b *block) always(depth int, name, value string) {
	b.line(depth, "<"+name+">"+value+"</"+name+">")
}

func (b *block) tag(depth int, name, value string) {
	if strings.TrimSpace(value) != "" {
		b.always(depth, name, value)
	}
}

func (b *block) list(parent, item string, values []string) {
	var inner block
	for _, v := range values {
		inner.tag(2, item, v)
	}
	if inner.Len() == 0 {
		return
	}
	b.line(1, "<"+parent+">")
	b.WriteString(inner.String())
	b.line(1, "</"+parent+">")
}

// entriesAt writes one list item of non-empty fields at depth.
func (b *block) entriesAt(depth int, item string, fields [][2]string) {
	var inner block
	for _, f := range fields {
		inner.tag(depth+1, f[0], f[1])
	}
	if inner.Len() == 0 {
		return
	}
	b.line(depth, "<"+item+">")
	b.WriteString(inner.String())
	b.line(depth, "</"+item+">")
}

func number(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
