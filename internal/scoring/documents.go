package scoring

import (
	"github.com/spigell/unimatch/internal/catalog"
)

// Completeness summarizes which document categories a student has uploaded.
type Completeness struct {
	// Percentage is the sum of matched category weights. It is not clamped and
	// exceeds 100 when one file satisfies several categories.
	Percentage         int                       `json:"percentage"`
	Categories         map[DocumentCategory]bool `json:"categories"`
	HasEssentialDocs   bool                      `json:"has_essential_docs"`
	HasCompetitiveDocs bool                      `json:"has_competitive_docs"`
}

func (c Completeness) Has(category DocumentCategory) bool {
	return c.Categories[category]
}

// AnalyzeDocuments classifies uploaded documents by keywords found in their type and file name.
func AnalyzeDocuments(documents []catalog.DocumentRecord) Completeness {
	found := make(map[DocumentCategory]bool, len(documentRules))

	for _, doc := range documents {
		if !doc.Uploaded() {
			continue
		}

		text := normalize(doc.DocumentType + " " + doc.FileName)
		for _, rule := range documentRules {
			if containsAny(text, rule.keywords) {
				found[rule.category] = true
			}
		}
	}

	result := Completeness{Categories: make(map[DocumentCategory]bool, len(documentRules))}
	for _, rule := range documentRules {
		has := found[rule.category]
		result.Categories[rule.category] = has
		if has {
			result.Percentage += rule.weight
		}
	}

	result.HasEssentialDocs = found[CategoryTranscripts] && found[CategoryPersonalStatement] && found[CategoryLanguageTest]
	result.HasCompetitiveDocs = found[CategoryRecommendation] && found[CategoryResume]

	return result
}
