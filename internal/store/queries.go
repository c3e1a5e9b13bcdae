package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/catalog"
)

const (
	profileQuery = `SELECT specialization, gpa, desired_degree_level
		FROM student_profiles
		WHERE user_id = $1`

	documentsQuery = `SELECT document_type, file_name, status
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at`

	programsQuery = `SELECT p.id, p.institution_id, p.title, p.description, p.degree_level,
			p.tuition_fee, p.duration, p.delivery_mode, p.application_deadline,
			p.has_scholarship, p.scholarship_percentage, p.special_requirements,
			p.additional_criteria, p.is_published,
			i.name, i.location, i.logo_url, i.website
		FROM programs p
		LEFT JOIN institutions i ON i.id = p.institution_id
		WHERE p.is_published
		ORDER BY p.created_at DESC`

	applicationsQuery = `SELECT id, student_id, program_id, status, message, created_at
		FROM applications
		WHERE student_id = $1
		ORDER BY created_at`

	insertApplication = `INSERT INTO applications (id, student_id, program_id, status, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

func (p *Postgres) Profile(ctx context.Context, studentID string) (*catalog.StudentProfile, error) {
	var specialization, gpa, desired sql.NullString

	err := p.db.QueryRowContext(ctx, profileQuery, studentID).Scan(&specialization, &gpa, &desired)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	return &catalog.StudentProfile{
		StudentID:          studentID,
		Specialization:     specialization.String,
		GPA:                gpa.String,
		DesiredDegreeLevel: desired.String,
	}, nil
}

func (p *Postgres) Documents(ctx context.Context, studentID string) ([]catalog.DocumentRecord, error) {
	rows, err := p.db.QueryContext(ctx, documentsQuery, studentID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var documents []catalog.DocumentRecord
	for rows.Next() {
		var docType, fileName, status sql.NullString
		if err := rows.Scan(&docType, &fileName, &status); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, catalog.DocumentRecord{
			DocumentType: docType.String,
			FileName:     fileName.String,
			Status:       status.String,
		})
	}

	return documents, rows.Err()
}

func (p *Postgres) Programs(ctx context.Context) (*catalog.Programs, error) {
	rows, err := p.db.QueryContext(ctx, programsQuery)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	programs := &catalog.Programs{}
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs.Items = append(programs.Items, program)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.logger.Debug("loaded programs", zap.Int("count", programs.Len()))

	return programs, nil
}

func scanProgram(rows *sql.Rows) (*catalog.Program, error) {
	var (
		id                                                      string
		institutionID, title, description, degreeLevel, tuition sql.NullString
		duration, deliveryMode, percentage, special, additional sql.NullString
		deadline                                                sql.NullTime
		scholarship, published                                  sql.NullBool
		name, location, logo, website                           sql.NullString
	)

	err := rows.Scan(
		&id, &institutionID, &title, &description, &degreeLevel,
		&tuition, &duration, &deliveryMode, &deadline,
		&scholarship, &percentage, &special,
		&additional, &published,
		&name, &location, &logo, &website,
	)
	if err != nil {
		return nil, fmt.Errorf("scan program: %w", err)
	}

	program := &catalog.Program{
		ID:                    id,
		InstitutionID:         institutionID.String,
		Title:                 title.String,
		Description:           description.String,
		DegreeLevel:           degreeLevel.String,
		TuitionFee:            tuition.String,
		Duration:              duration.String,
		DeliveryMode:          deliveryMode.String,
		HasScholarship:        scholarship.Bool,
		ScholarshipPercentage: percentage.String,
		SpecialRequirements:   special.String,
		AdditionalCriteria:    additional.String,
		Published:             published.Bool,
	}
	if deadline.Valid {
		t := deadline.Time
		program.ApplicationDeadline = &t
	}
	if institutionID.Valid {
		program.Institution = &catalog.Institution{
			ID:       institutionID.String,
			Name:     name.String,
			Location: location.String,
			LogoURL:  logo.String,
			Website:  website.String,
		}
	}

	return program, nil
}

func (p *Postgres) Applications(ctx context.Context, studentID string) ([]catalog.Application, error) {
	rows, err := p.db.QueryContext(ctx, applicationsQuery, studentID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var applications []catalog.Application
	for rows.Next() {
		var (
			a       catalog.Application
			status  sql.NullString
			message sql.NullString
			created sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.StudentID, &a.ProgramID, &status, &message, &created); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		a.Status = status.String
		a.Message = message.String
		a.CreatedAt = created.Time
		applications = append(applications, a)
	}

	return applications, rows.Err()
}

func (p *Postgres) Apply(ctx context.Context, application *catalog.Application) error {
	if application == nil {
		return errors.New("application is required")
	}

	_, err := p.db.ExecContext(ctx, insertApplication,
		application.ID,
		application.StudentID,
		application.ProgramID,
		application.Status,
		sql.NullString{String: application.Message, Valid: application.Message != ""},
		application.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application for program %s: %w", application.ProgramID, err)
	}

	return nil
}
