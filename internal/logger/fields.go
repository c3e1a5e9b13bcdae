package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/catalog"
)

const (
	FieldProvider    = "ai_provider"
	FieldModel       = "ai_model"
	FieldStudent     = "student_id"
	FieldProgram     = "program_id"
	FieldTitle       = "program_title"
	FieldInstitution = "institution"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields. Entries with an empty
// key or value after trimming are dropped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// AIFields describes the language model provider and model.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithAIFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, AIFields(provider, model)...)
}

// ProgramFields identifies a program in log entries.
func ProgramFields(program *catalog.Program) []zap.Field {
	if program == nil {
		return nil
	}
	return StringFields(
		StringField{Key: FieldProgram, Value: program.ID},
		StringField{Key: FieldTitle, Value: program.Title},
		StringField{Key: FieldInstitution, Value: program.InstitutionName()},
	)
}

// WithStudent scopes the logger to one student.
func WithStudent(logger *zap.Logger, studentID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldStudent, Value: studentID})...)
}
