package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spigell/unimatch/internal/catalog"
)

const (
	baseScore = 15

	degreeCap         = 30
	gpaCap            = 25
	specializationCap = 20
	documentsCap      = 15
	financialCap      = 10

	maxReasons          = 4
	maxStrengths        = 3
	maxImprovementAreas = 2
)

// Breakdown holds the capped contribution of every component.
type Breakdown struct {
	Base           float64 `json:"base"`
	Degree         float64 `json:"degree"`
	GPA            float64 `json:"gpa"`
	Specialization float64 `json:"specialization"`
	Documents      float64 `json:"documents"`
	Financial      float64 `json:"financial"`
}

// Total is the unclamped sum of all contributions.
func (b Breakdown) Total() float64 {
	return b.Base + b.Degree + b.GPA + b.Specialization + b.Documents + b.Financial
}

// Result is the suitability of one program for one student.
type Result struct {
	ProgramID        string           `json:"program_id"`
	Program          *catalog.Program `json:"program,omitempty"`
	Score            int              `json:"score"`
	Tier             Tier             `json:"tier"`
	Reasons          []string         `json:"reasons"`
	Strengths        []string         `json:"strengths"`
	ImprovementAreas []string         `json:"improvement_areas"`
	Breakdown        Breakdown        `json:"breakdown"`
}

// ScorePrograms evaluates every program in input order. It never fails: an
// empty program list yields an empty result list.
func ScorePrograms(profile *catalog.StudentProfile, documents []catalog.DocumentRecord, programs []*catalog.Program) []Result {
	completeness := AnalyzeDocuments(documents)

	results := make([]Result, 0, len(programs))
	for _, program := range programs {
		results = append(results, evaluate(profile, completeness, program))
	}
	return results
}

// Evaluate scores a single (student, program) pair.
func Evaluate(profile *catalog.StudentProfile, documents []catalog.DocumentRecord, program *catalog.Program) Result {
	return evaluate(profile, AnalyzeDocuments(documents), program)
}

type notes struct {
	reasons      []string
	strengths    []string
	improvements []string
}

func (n *notes) reason(format string, args ...any) {
	n.reasons = append(n.reasons, fmt.Sprintf(format, args...))
}

func (n *notes) strength(format string, args ...any) {
	n.strengths = append(n.strengths, fmt.Sprintf(format, args...))
}

func (n *notes) improve(format string, args ...any) {
	n.improvements = append(n.improvements, fmt.Sprintf(format, args...))
}

type subject struct {
	specialization string
	specLower      string
	gpa            string
	desired        string
	desiredLower   string

	title       string
	description string
	degreeLevel string
	tuition     string
	scholarship bool
	percentage  string
}

func newSubject(profile *catalog.StudentProfile, program *catalog.Program) subject {
	var s subject
	if profile != nil {
		s.specialization = strings.TrimSpace(profile.Specialization)
		s.gpa = strings.TrimSpace(profile.GPA)
		s.desired = strings.TrimSpace(profile.DesiredDegreeLevel)
	}
	if program != nil {
		s.title = normalize(program.Title)
		s.description = normalize(program.Description)
		s.degreeLevel = normalize(program.DegreeLevel)
		s.tuition = normalize(program.TuitionFee)
		s.scholarship = program.HasScholarship
		s.percentage = strings.TrimSuffix(strings.TrimSpace(program.ScholarshipPercentage), "%")
	}
	s.specLower = normalize(s.specialization)
	s.desiredLower = normalize(s.desired)
	return s
}

func evaluate(profile *catalog.StudentProfile, completeness Completeness, program *catalog.Program) Result {
	s := newSubject(profile, program)
	n := &notes{}

	breakdown := Breakdown{
		Base:           baseScore,
		Degree:         math.Min(degreeCap, scoreDegree(s, n)),
		GPA:            math.Min(gpaCap, scoreGPA(s, n)),
		Specialization: math.Min(specializationCap, scoreSpecialization(s, n)),
		Documents:      math.Min(documentsCap, scoreDocuments(completeness, n)),
		Financial:      math.Min(financialCap, scoreFinancial(s, n)),
	}

	score := int(math.Round(math.Max(0, math.Min(100, breakdown.Total()))))

	result := Result{
		Program:          program,
		Score:            score,
		Tier:             TierFor(score),
		Reasons:          head(n.reasons, maxReasons),
		Strengths:        head(n.strengths, maxStrengths),
		ImprovementAreas: head(n.improvements, maxImprovementAreas),
		Breakdown:        breakdown,
	}
	if program != nil {
		result.ProgramID = program.ID
	}
	return result
}

func head(items []string, limit int) []string {
	out := make([]string, 0, min(len(items), limit))
	for i := 0; i < len(items) && i < limit; i++ {
		out = append(out, items[i])
	}
	return out
}

func alignmentKeywords(desiredLower string) []string {
	if desiredLower == "" {
		return nil
	}
	if keywords, ok := degreeAlignment[desiredLower]; ok {
		return keywords
	}
	return []string{desiredLower}
}

func scoreDegree(s subject, n *notes) float64 {
	var points float64

	switch {
	case containsAny(s.degreeLevel, alignmentKeywords(s.desiredLower)):
		points += 25
		n.reason("Offered at your desired %s level", s.desired)
	case s.desired == "":
		points += 5
		n.improve("Set a desired degree level to sharpen your matches")
	default:
		points += 5
		level := s.degreeLevel
		if level == "" {
			level = "unspecified"
		}
		n.reason("Degree level (%s) differs from your desired %s", level, s.desired)
	}

	if s.specLower != "" && strings.Contains(s.title, s.specLower) {
		points += 5
	}

	return points
}

func requiredGPA(degreeLevel string) float64 {
	for _, req := range gpaRequirements {
		if containsAny(degreeLevel, req.keywords) {
			return req.required
		}
	}
	return defaultRequiredGPA
}

func parseGPA(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	gpa, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(gpa) || math.IsInf(gpa, 0) {
		return 0, false
	}
	return gpa, true
}

func hundredths(v float64) int {
	return int(math.Round(v * 100))
}

func scoreGPA(s subject, n *notes) float64 {
	gpa, ok := parseGPA(s.gpa)
	if !ok {
		n.improve("Add your GPA to your profile for a more accurate assessment")
		return 10
	}

	required := requiredGPA(s.degreeLevel)

	// Bands are compared in hundredths so 3.2-0.3 is exactly 2.9.
	g, req := hundredths(gpa), hundredths(required)

	switch {
	case g >= req+50:
		n.strength("Your GPA of %s exceeds the typical %.1f requirement", s.gpa, required)
		return 25
	case g >= req:
		n.reason("Your GPA of %s meets the typical %.1f requirement", s.gpa, required)
		return 20
	case g >= req-30:
		n.reason("Your GPA of %s is slightly below the typical %.1f requirement", s.gpa, required)
		return 10
	default:
		n.improve("Your GPA of %s is below the typical %.1f requirement", s.gpa, required)
		return 5
	}
}

func relatedFieldHit(specLower, text string) bool {
	for _, entry := range relatedFields {
		if !strings.Contains(specLower, entry.field) {
			continue
		}
		if containsAny(text, entry.related) {
			return true
		}
	}
	return false
}

func scoreSpecialization(s subject, n *notes) float64 {
	if s.specLower == "" {
		n.improve("Add your specialization to your profile to improve matching")
		return 10
	}

	switch {
	case strings.Contains(s.title, s.specLower):
		n.strength("Direct match with your %s specialization", s.specialization)
		return 20
	case strings.Contains(s.description, s.specLower):
		n.reason("Curriculum covers %s", s.specialization)
		return 15
	case relatedFieldHit(s.specLower, s.title+" "+s.description):
		n.reason("Related to your %s background", s.specialization)
		return 10
	default:
		n.reason("A different field from %s, a chance to broaden your expertise", s.specialization)
		return 5
	}
}

func scoreDocuments(c Completeness, n *notes) float64 {
	if c.HasEssentialDocs {
		n.strength("Essential application documents are uploaded")
	} else {
		var missing []string
		for _, category := range []DocumentCategory{CategoryTranscripts, CategoryPersonalStatement, CategoryLanguageTest} {
			if !c.Has(category) {
				missing = append(missing, strings.ReplaceAll(string(category), "_", " "))
			}
		}
		n.improve("Upload missing essential documents: %s", strings.Join(missing, ", "))
	}

	if c.HasCompetitiveDocs {
		n.strength("Recommendation letters and resume make your application competitive")
	}

	return float64(c.Percentage) * 0.15
}

func scoreFinancial(s subject, n *notes) float64 {
	var points float64

	if s.scholarship {
		points += 5
		if s.percentage != "" {
			n.reason("Scholarship available (up to %s%%)", s.percentage)
		} else {
			n.reason("Scholarship available")
		}
	}

	if containsAny(s.tuition, freeTuitionMarkers) {
		points += 5
		n.reason("Tuition-free program")
	}

	return points
}
