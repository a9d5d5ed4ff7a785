package verification

import (
	"fmt"
	"time"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// credentialClaims is the claim set extracted from a ledger metadata
// document, the input to the cross-check stages.
type credentialClaims struct {
	SubjectID      string
	ProgramID      string
	CompletionDate time.Time
	FinalScore     float64
	Skills         []model.SkillLevel
	Formation      map[string]float64
}

// extractClaims pulls the cross-checkable claims out of a metadata
// document.
func extractClaims(doc map[string]interface{}) (*credentialClaims, error) {
	if doc == nil {
		return nil, fmt.Errorf("metadata document is missing")
	}

	claims := &credentialClaims{
		Formation: make(map[string]float64),
	}

	var ok bool
	if claims.SubjectID, ok = doc["subjectId"].(string); !ok || claims.SubjectID == "" {
		return nil, fmt.Errorf("metadata is missing subjectId")
	}
	if claims.ProgramID, ok = doc["programId"].(string); !ok || claims.ProgramID == "" {
		return nil, fmt.Errorf("metadata is missing programId")
	}

	rawDate, ok := doc["completionDate"].(string)
	if !ok {
		return nil, fmt.Errorf("metadata is missing completionDate")
	}
	date, err := time.Parse(time.RFC3339, rawDate)
	if err != nil {
		return nil, fmt.Errorf("metadata completionDate is not RFC3339: %w", err)
	}
	claims.CompletionDate = date

	claims.FinalScore, err = asFloat(doc["finalScore"])
	if err != nil {
		return nil, fmt.Errorf("metadata finalScore: %w", err)
	}

	if rawSkills, ok := doc["skills"].([]interface{}); ok {
		for _, rawSkill := range rawSkills {
			entry, ok := rawSkill.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("metadata skill entry has unexpected type %T", rawSkill)
			}
			name, _ := entry["name"].(string)
			if name == "" {
				return nil, fmt.Errorf("metadata skill entry is missing a name")
			}
			level, err := asFloat(entry["level"])
			if err != nil {
				return nil, fmt.Errorf("metadata skill %q level: %w", name, err)
			}
			claims.Skills = append(claims.Skills, model.SkillLevel{Name: name, Level: int(level)})
		}
	}

	if rawFormation, ok := doc["formation"].(map[string]interface{}); ok {
		for name, rawValue := range rawFormation {
			value, err := asFloat(rawValue)
			if err != nil {
				return nil, fmt.Errorf("metadata formation metric %q: %w", name, err)
			}
			claims.Formation[name] = value
		}
	}

	return claims, nil
}

// asFloat handles both native numeric types and JSON-decoded float64.
func asFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case nil:
		return 0, fmt.Errorf("value is missing")
	default:
		return 0, fmt.Errorf("value has unexpected type %T", v)
	}
}
