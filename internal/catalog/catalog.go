package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DocumentStatusPending  = "pending"
	DocumentStatusUploaded = "uploaded"

	ApplicationStatusSubmitted = "submitted"
)

// ErrNotFound is returned by sources when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Source provides the read-only snapshots the scorer works on and records applications.
type Source interface {
	Profile(ctx context.Context, studentID string) (*StudentProfile, error)
	Documents(ctx context.Context, studentID string) ([]DocumentRecord, error)
	// Programs returns published programs joined with their institution.
	Programs(ctx context.Context) (*Programs, error)
	Applications(ctx context.Context, studentID string) ([]Application, error)
	Apply(ctx context.Context, application *Application) error
}

type StudentProfile struct {
	StudentID          string `json:"student_id,omitempty"`
	Specialization     string `json:"specialization,omitempty"`
	GPA                string `json:"gpa,omitempty"`
	DesiredDegreeLevel string `json:"desired_degree_level,omitempty"`
}

type DocumentRecord struct {
	DocumentType string `json:"document_type"`
	FileName     string `json:"file_name,omitempty"`
	Status       string `json:"status"`
}

// Uploaded reports whether the document counts toward completeness.
func (d DocumentRecord) Uploaded() bool {
	return strings.EqualFold(strings.TrimSpace(d.Status), DocumentStatusUploaded)
}

type Institution struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	LogoURL  string `json:"logo_url,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Student bundles everything known about a student for a single run.
type Student struct {
	ID        string           `json:"id"`
	Profile   *StudentProfile  `json:"profile,omitempty"`
	Documents []DocumentRecord `json:"documents,omitempty"`
}

type Application struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ProgramID string    `json:"program_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewApplication builds a submitted application record for the program.
func NewApplication(studentID, programID, message string) *Application {
	return &Application{
		ID:        uuid.NewString(),
		StudentID: studentID,
		ProgramID: programID,
		Status:    ApplicationStatusSubmitted,
		Message:   strings.TrimSpace(message),
		CreatedAt: time.Now().UTC(),
	}
}

// ProgramIDs returns program ids of the applications.
func ProgramIDs(applications []Application) []string {
	ids := make([]string, 0, len(applications))
	for _, a := range applications {
		ids = append(ids, a.ProgramID)
	}
	return ids
}
