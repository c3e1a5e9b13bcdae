package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed snapshot.schema.json
var snapshotSchema string

// Snapshot is a file-backed Source holding one student and the published program list.
type Snapshot struct {
	path string

	mu   sync.Mutex
	data snapshotFile
}

type snapshotFile struct {
	Student  snapshotStudent `json:"student"`
	Programs []*Program      `json:"programs"`
}

type snapshotStudent struct {
	ID           string           `json:"id"`
	Profile      *StudentProfile  `json:"profile,omitempty"`
	Documents    []DocumentRecord `json:"documents,omitempty"`
	Applications []Application    `json:"applications,omitempty"`
}

// OpenSnapshot reads and validates a snapshot file.
func OpenSnapshot(path string) (*Snapshot, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("snapshot file is not configured")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", path, err)
	}

	data, err := parseSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", path, err)
	}

	return &Snapshot{path: path, data: *data}, nil
}

// parseSnapshot validates raw JSON against the snapshot schema and decodes it.
func parseSnapshot(raw []byte) (*snapshotFile, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(snapshotSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("invalid snapshot: %s", strings.Join(problems, "; "))
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	var data snapshotFile
	if err := Decode(generic, &data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return &data, nil
}

func (s *Snapshot) StudentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Student.ID
}

func (s *Snapshot) Profile(_ context.Context, studentID string) (*StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.owns(studentID) || s.data.Student.Profile == nil {
		return nil, ErrNotFound
	}

	profile := *s.data.Student.Profile
	profile.StudentID = s.data.Student.ID
	return &profile, nil
}

func (s *Snapshot) Documents(_ context.Context, studentID string) ([]DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.owns(studentID) {
		return nil, nil
	}
	return append([]DocumentRecord(nil), s.data.Student.Documents...), nil
}

func (s *Snapshot) Programs(_ context.Context) (*Programs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	programs := &Programs{}
	for _, program := range s.data.Programs {
		if !program.Published {
			continue
		}
		copied := *program
		programs.Items = append(programs.Items, &copied)
	}
	return programs, nil
}

func (s *Snapshot) Applications(_ context.Context, studentID string) ([]Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.owns(studentID) {
		return nil, nil
	}
	return append([]Application(nil), s.data.Student.Applications...), nil
}

// Apply records the application and rewrites the snapshot file.
func (s *Snapshot) Apply(_ context.Context, application *Application) error {
	if application == nil {
		return fmt.Errorf("application is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.owns(application.StudentID) {
		return fmt.Errorf("student %q is not part of snapshot %q", application.StudentID, s.path)
	}

	s.data.Student.Applications = append(s.data.Student.Applications, *application)

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(s.data)
}

func (s *Snapshot) owns(studentID string) bool {
	return strings.TrimSpace(studentID) == s.data.Student.ID
}
