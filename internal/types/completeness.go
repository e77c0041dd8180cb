package types

// Completeness reports how much of a resume is filled in. Emptiness of
// work/education/skills is not a validation failure; it only lowers the
// score and clears the Complete flag when too much is missing.
type Completeness struct {
	Complete      bool     `json:"complete"`
	Score         float64  `json:"score"` // 0-100
	MissingFields []string `json:"missingFields,omitempty"`
	PassedChecks  int      `json:"passedChecks"`
	TotalChecks   int      `json:"totalChecks"`
}

// completenessTotal is the number of points a fully populated resume earns.
const completenessTotal = 10

// AssessCompleteness scores a resume on a 10-point scale: name and email
// one point each, work/education/skills two points each, phone, projects
// and certificates one point each. A resume is complete when it earns at
// least half the points.
func AssessCompleteness(r *CanonicalResume) Completeness {
	points := 0
	var missing []string

	if r.Basics.Name != "" {
		points++
	} else {
		missing = append(missing, "basics.name")
	}
	if r.Basics.Email != "" {
		points++
	} else {
		missing = append(missing, "basics.email")
	}
	if len(r.Work) > 0 {
		points += 2
	} else {
		missing = append(missing, "work")
	}
	if len(r.Education) > 0 {
		points += 2
	} else {
		missing = append(missing, "education")
	}
	if len(r.Skills) > 0 {
		points += 2
	} else {
		missing = append(missing, "skills")
	}
	if r.Basics.Phone != "" {
		points++
	}
	if len(r.Projects) > 0 {
		points++
	}
	if len(r.Certificates) > 0 {
		points++
	}

	return Completeness{
		Complete:      points >= completenessTotal/2,
		Score:         float64(points) / completenessTotal * 100,
		MissingFields: missing,
		PassedChecks:  points,
		TotalChecks:   completenessTotal,
	}
}
