package dispatch

import (
	"encoding/json"
	"regexp"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
)

// Analysis is a structured backend answer.
type Analysis struct {
	Issues          []flowlens.Finding `json:"issues"`
	Patterns        []flowlens.Pattern `json:"patterns"`
	Recommendations []string           `json:"recommendations"`
	Source          string             `json:"source,omitempty"`
}

// MalformedRecommendation is the sole recommendation of an answer whose
// JSON could not be decoded.
const MalformedRecommendation = "Received a malformed response from the AI model"

// excerptLen bounds the raw text kept when an answer has no JSON object.
const excerptLen = 200

// jsonObject spans the first '{' to the last '}'.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse extracts the JSON object embedded in free-form backend
// text. It never fails: text without an object becomes a single
// recommendation holding an excerpt, and an undecodable object becomes
// MalformedRecommendation.
func ParseResponse(content string) Analysis {
	match := jsonObject.FindString(content)
	if match == "" {
		return normalize(Analysis{Recommendations: []string{excerpt(content)}})
	}

	var a Analysis
	if err := json.Unmarshal([]byte(match), &a); err != nil {
		return normalize(Analysis{Recommendations: []string{MalformedRecommendation}})
	}
	return normalize(a)
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) > excerptLen {
		r = r[:excerptLen]
	}
	return string(r) + "..."
}

func normalize(a Analysis) Analysis {
	if a.Issues == nil {
		a.Issues = []flowlens.Finding{}
	}
	if a.Patterns == nil {
		a.Patterns = []flowlens.Pattern{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	return a
}
