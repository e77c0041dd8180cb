package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullResume() *CanonicalResume {
	return &CanonicalResume{
		Basics: Basics{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
			Phone: "+44 20 7946 0000",
		},
		Work: []Work{
			{Company: "Analytical Engines Ltd", Position: "Engineer", StartDate: "1840-01", EndDate: EndDateOpen, Highlights: []string{"Wrote the first program"}},
		},
		Education: []Education{
			{Institution: "Home Tutoring", Area: "Mathematics", StudyType: "Private", StartDate: "1830-01", EndDate: "1835-01"},
		},
		Skills: []Skill{
			{Name: "Mathematics", Keywords: []string{"Analysis", "Number Theory"}},
		},
		Projects: []Project{
			{Name: "Notes on the Analytical Engine", Description: []string{"Translation and commentary"}},
		},
		Certificates: []Certificate{
			{Name: "Royal Society Commendation", Details: []string{"Issuer: Royal Society"}},
		},
	}
}

func TestAssessCompletenessFullResume(t *testing.T) {
	c := AssessCompleteness(fullResume())

	assert.True(t, c.Complete)
	assert.Equal(t, 100.0, c.Score)
	assert.Empty(t, c.MissingFields)
	assert.Equal(t, 10, c.PassedChecks)
}

func TestAssessCompletenessEmptyWorkAndEducation(t *testing.T) {
	r := &CanonicalResume{
		Basics: Basics{Name: "Ada Lovelace", Email: "ada@example.com"},
		Skills: []Skill{{Name: "Mathematics", Keywords: []string{"Analysis"}}},
	}

	c := AssessCompleteness(r)

	assert.False(t, c.Complete, "resume without work and education should be flagged incomplete")
	assert.Contains(t, c.MissingFields, "work")
	assert.Contains(t, c.MissingFields, "education")
	assert.Equal(t, 4, c.PassedChecks)
	assert.InDelta(t, 40.0, c.Score, 0.001)
}

func TestAssessCompletenessMissingIdentity(t *testing.T) {
	c := AssessCompleteness(&CanonicalResume{})

	assert.False(t, c.Complete)
	assert.Contains(t, c.MissingFields, "basics.name")
	assert.Contains(t, c.MissingFields, "basics.email")
	assert.Equal(t, 0, c.PassedChecks)
}

func TestCloneIsDeep(t *testing.T) {
	original := fullResume()
	clone := original.Clone()

	clone.Basics.Name = "Someone Else"
	clone.Work[0].Highlights[0] = "changed"
	clone.Skills[0].Keywords[0] = "changed"

	assert.Equal(t, "Ada Lovelace", original.Basics.Name)
	assert.Equal(t, "Wrote the first program", original.Work[0].Highlights[0])
	assert.Equal(t, "Analysis", original.Skills[0].Keywords[0])
}

func TestKeywordCount(t *testing.T) {
	r := &CanonicalResume{Skills: []Skill{
		{Name: "Languages", Keywords: []string{"Go", "Python"}},
		{Name: "Infra", Keywords: []string{"Kubernetes"}},
	}}
	assert.Equal(t, 3, r.KeywordCount())
}

func TestParseSeniority(t *testing.T) {
	tests := []struct {
		input    string
		expected Seniority
	}{
		{"Senior", SenioritySenior},
		{"lead", SenioritySenior},
		{"Entry", SeniorityJunior},
		{"mid-level", SeniorityMid},
		{"Director", SeniorityExecutive},
		{"", SeniorityUnknown},
		{"wizard", SeniorityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSeniority(tt.input))
		})
	}
}

func TestRequiredItemsOrder(t *testing.T) {
	j := &JobRequirement{
		RequiredSkills: []string{"Go", "PostgreSQL"},
		Qualifications: []string{"BS in CS"},
	}
	assert.Equal(t, []string{"Go", "PostgreSQL", "BS in CS"}, j.RequiredItems())
}
