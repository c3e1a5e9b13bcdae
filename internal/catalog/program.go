package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

type Programs struct {
	Items []*Program
}

type Program struct {
	ID                    string       `json:"id,omitempty"`
	InstitutionID         string       `json:"institution_id,omitempty"`
	Title                 string       `json:"title,omitempty"`
	Description           string       `json:"description,omitempty"`
	DegreeLevel           string       `json:"degree_level,omitempty"`
	TuitionFee            string       `json:"tuition_fee,omitempty"`
	Duration              string       `json:"duration,omitempty"`
	DeliveryMode          string       `json:"delivery_mode,omitempty"`
	ApplicationDeadline   *time.Time   `json:"application_deadline,omitempty"`
	HasScholarship        bool         `json:"has_scholarship,omitempty"`
	ScholarshipPercentage string       `json:"scholarship_percentage,omitempty"`
	SpecialRequirements   string       `json:"special_requirements,omitempty"`
	AdditionalCriteria    string       `json:"additional_criteria,omitempty"`
	Published             bool         `json:"is_published,omitempty"`
	Institution           *Institution `json:"institution,omitempty"`

	AI *AIAssessment `json:"ai,omitempty"`
}

// AIAssessment is the LLM verdict attached to a program by the ai_fit step.
type AIAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Raw     string  `json:"raw,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// InstitutionName returns the joined institution name or an empty string.
func (p *Program) InstitutionName() string {
	if p == nil || p.Institution == nil {
		return ""
	}
	return p.Institution.Name
}

// DeadlinePassed reports whether the application deadline is strictly before the day of now.
func (p *Program) DeadlinePassed(now time.Time) bool {
	if p == nil || p.ApplicationDeadline == nil {
		return false
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return p.ApplicationDeadline.UTC().Before(today)
}

func (p *Programs) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Programs) FindByID(id string) *Program {
	for _, program := range p.Items {
		if program.ID == id {
			return program
		}
	}
	return nil
}

func (p *Programs) Titles() []string {
	titles := make([]string, 0, p.Len())
	for _, program := range p.Items {
		titles = append(titles, program.Title)
	}
	return titles
}

func (p *Programs) IDs() []string {
	ids := make([]string, 0, p.Len())
	for _, program := range p.Items {
		ids = append(ids, program.ID)
	}
	return ids
}

// Keep retains programs accepted by the predicate, preserving order, and
// returns the ids of dropped programs.
func (p *Programs) Keep(accept func(*Program) bool) []string {
	var dropped []string
	kept := make([]*Program, 0, len(p.Items))
	for _, program := range p.Items {
		if accept(program) {
			kept = append(kept, program)
			continue
		}
		dropped = append(dropped, program.ID)
	}
	p.Items = kept
	return dropped
}

// Exclude removes programs by id, preserving order.
func (p *Programs) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return p.Keep(func(program *Program) bool {
		return !slices.Contains(ids, program.ID)
	})
}

// ReportByInstitution groups short program descriptions under "<institution> (<id>)" keys.
func (p *Programs) ReportByInstitution() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, program := range p.Items {
		var name, id, location string
		if program.Institution != nil {
			name, id, location = program.Institution.Name, program.Institution.ID, program.Institution.Location
		}
		key := fmt.Sprintf("%s (%s)", name, id)

		entry := map[string]string{
			"title":        program.Title,
			"degree_level": program.DegreeLevel,
			"tuition_fee":  program.TuitionFee,
			"location":     location,
			"scholarship":  strconv.FormatBool(program.HasScholarship),
		}
		if program.ApplicationDeadline != nil {
			entry["deadline"] = program.ApplicationDeadline.Format(time.DateOnly)
		}
		if program.AI != nil {
			if program.AI.Error != "" {
				entry["ai_error"] = program.AI.Error
			} else {
				entry["ai_fit"] = strconv.FormatBool(program.AI.Fit)
				entry["ai_score"] = strconv.FormatFloat(program.AI.Score, 'f', -1, 64)
				entry["ai_reason"] = program.AI.Reason
				entry["ai_message"] = program.AI.Message
			}
		}

		report[key] = append(report[key], entry)
	}
	return report
}

// DumpToTmpFile writes v as indented JSON into a new temporary file and returns its name.
func DumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Clone returns a shallow copy of the collection so filters can run without touching the source.
func (p *Programs) Clone() *Programs {
	if p == nil {
		return &Programs{}
	}
	return &Programs{Items: slices.Clone(p.Items)}
}
