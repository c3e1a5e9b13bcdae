package scoring

// TablesVersion identifies the keyword tables below. Bump it whenever a table
// changes so memoized results computed with older tables are not reused.
const TablesVersion = 1

type degreeSynonyms struct {
	level    string
	synonyms []string
}

// degreeTable drives the degree-level filter.
var degreeTable = []degreeSynonyms{
	{level: "bachelors", synonyms: []string{"bachelor", "undergraduate", "bachelors", "ba", "bs", "bsc"}},
	{level: "masters", synonyms: []string{"master", "masters", "graduate", "ma", "ms", "msc", "mba"}},
	{level: "phd", synonyms: []string{"phd", "doctorate", "doctoral", "ph.d"}},
	{level: "postdoc", synonyms: []string{"postdoc", "post-doctoral", "research"}},
}

// degreeAlignment is the narrower keyword set used when scoring degree alignment.
var degreeAlignment = map[string][]string{
	"bachelors": {"bachelor"},
	"masters":   {"master"},
	"phd":       {"phd", "doctorate"},
	"postdoc":   {"postdoc"},
}

type gpaRequirement struct {
	keywords []string
	required float64
}

var gpaRequirements = []gpaRequirement{
	{keywords: []string{"phd", "doctorate"}, required: 3.5},
	{keywords: []string{"master"}, required: 3.2},
}

const defaultRequiredGPA = 2.8

type relatedField struct {
	field   string
	related []string
}

var relatedFields = []relatedField{
	{field: "computer science", related: []string{"software", "programming", "data", "ai", "machine learning", "technology"}},
	{field: "engineering", related: []string{"mechanical", "electrical", "civil", "technology", "systems"}},
	{field: "business", related: []string{"management", "finance", "marketing", "economics", "mba"}},
	{field: "medicine", related: []string{"health", "biology", "nursing", "pharmacy", "clinical"}},
	{field: "biology", related: []string{"life sciences", "biotechnology", "genetics", "health"}},
	{field: "psychology", related: []string{"cognitive", "behavioral", "neuroscience", "counseling"}},
	{field: "law", related: []string{"legal", "justice", "policy"}},
	{field: "arts", related: []string{"design", "media", "creative", "humanities"}},
}

// DocumentCategory is a keyword bucket of the completeness analyzer.
type DocumentCategory string

const (
	CategoryTranscripts       DocumentCategory = "transcripts"
	CategoryPersonalStatement DocumentCategory = "personal_statement"
	CategoryLanguageTest      DocumentCategory = "language_test"
	CategoryRecommendation    DocumentCategory = "recommendation_letters"
	CategoryResume            DocumentCategory = "resume"
	CategoryPortfolio         DocumentCategory = "portfolio"
)

type documentRule struct {
	category DocumentCategory
	weight   int
	keywords []string
}

var documentRules = []documentRule{
	{category: CategoryTranscripts, weight: 30, keywords: []string{"transcript", "academic", "grades"}},
	{category: CategoryPersonalStatement, weight: 25, keywords: []string{"statement", "essay", "personal", "sop"}},
	{category: CategoryLanguageTest, weight: 20, keywords: []string{"ielts", "toefl", "language", "english"}},
	{category: CategoryRecommendation, weight: 15, keywords: []string{"recommendation", "reference", "lor"}},
	{category: CategoryResume, weight: 10, keywords: []string{"resume", "cv", "curriculum"}},
	{category: CategoryPortfolio, weight: 10, keywords: []string{"portfolio", "work", "project"}},
}

// Categories lists document categories in analysis order.
func Categories() []DocumentCategory {
	out := make([]DocumentCategory, 0, len(documentRules))
	for _, rule := range documentRules {
		out = append(out, rule.category)
	}
	return out
}

var freeTuitionMarkers = []string{"$0", "free"}
