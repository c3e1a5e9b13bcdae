package scoring

import (
	"strings"

	"github.com/spigell/unimatch/internal/catalog"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// DegreeSynonyms returns the lower-cased terms a program must mention to be
// offered at the desired degree level. Unknown levels match themselves.
func DegreeSynonyms(desired string) []string {
	desired = normalize(desired)
	if desired == "" {
		return nil
	}

	for _, entry := range degreeTable {
		if entry.level == desired {
			return entry.synonyms
		}
	}

	return []string{desired}
}

// MatchesDegree reports whether the program mentions any synonym of the desired degree.
func MatchesDegree(program *catalog.Program, desired string) bool {
	synonyms := DegreeSynonyms(desired)
	if len(synonyms) == 0 {
		return true
	}
	if program == nil {
		return false
	}

	for _, field := range []string{program.DegreeLevel, program.Title, program.Description} {
		if containsAny(normalize(field), synonyms) {
			return true
		}
	}
	return false
}

// FilterByDegree keeps programs offered at the desired degree level in their original order.
// An empty desired degree returns the input unchanged.
func FilterByDegree(programs []*catalog.Program, desired string) []*catalog.Program {
	if normalize(desired) == "" {
		return programs
	}

	matched := make([]*catalog.Program, 0, len(programs))
	for _, program := range programs {
		if MatchesDegree(program, desired) {
			matched = append(matched, program)
		}
	}
	return matched
}
