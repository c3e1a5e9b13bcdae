package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spigell/unimatch/internal/catalog"
)

const (
	tablePrograms     = "programs"
	tableProfiles     = "student_profiles"
	tableDocuments    = "documents"
	tableApplications = "applications"

	programsSelect = "*,institution:institutions(id,name,location,logo_url,website)"
)

var _ catalog.Source = (*Client)(nil)

func eq(value string) string {
	return "eq." + value
}

func (c *Client) Profile(ctx context.Context, studentID string) (*catalog.StudentProfile, error) {
	q := url.Values{}
	q.Set("select", "specialization,gpa,desired_degree_level")
	q.Set("user_id", eq(studentID))

	rows, err := c.getRows(ctx, tableProfiles, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, catalog.ErrNotFound
	}

	var profile catalog.StudentProfile
	if err := catalog.Decode(rows[0], &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	profile.StudentID = studentID

	return &profile, nil
}

func (c *Client) Documents(ctx context.Context, studentID string) ([]catalog.DocumentRecord, error) {
	q := url.Values{}
	q.Set("select", "document_type,file_name,status")
	q.Set("user_id", eq(studentID))

	rows, err := c.getRows(ctx, tableDocuments, q)
	if err != nil {
		return nil, err
	}

	var documents []catalog.DocumentRecord
	if err := catalog.Decode(rows, &documents); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	return documents, nil
}

func (c *Client) Programs(ctx context.Context) (*catalog.Programs, error) {
	q := url.Values{}
	q.Set("select", programsSelect)
	q.Set("is_published", eq("true"))
	q.Set("order", "created_at.desc")

	rows, err := c.getRows(ctx, tablePrograms, q)
	if err != nil {
		return nil, err
	}

	var programs []*catalog.Program
	if err := catalog.Decode(rows, &programs); err != nil {
		return nil, fmt.Errorf("decode programs: %w", err)
	}

	return &catalog.Programs{Items: programs}, nil
}

func (c *Client) Applications(ctx context.Context, studentID string) ([]catalog.Application, error) {
	q := url.Values{}
	q.Set("student_id", eq(studentID))

	rows, err := c.getRows(ctx, tableApplications, q)
	if err != nil {
		return nil, err
	}

	var applications []catalog.Application
	if err := catalog.Decode(rows, &applications); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}

	return applications, nil
}

// Apply inserts the application row. The backend answers 201 Created.
func (c *Client) Apply(ctx context.Context, application *catalog.Application) error {
	if application == nil {
		return fmt.Errorf("application is required")
	}

	if err := c.postJSON(ctx, c.restURL(tableApplications), application, http.StatusCreated, nil); err != nil {
		return fmt.Errorf("apply to program %s: %w", application.ProgramID, err)
	}

	return nil
}
