package hashing

import (
	"fmt"

	"github.com/piprate/json-gold/ld"
)

// badgeContext maps the canonical subset terms to IRIs so URDNA2015 keeps
// every property during normalization.
var badgeContext = map[string]interface{}{
	"@vocab":              "https://scrolluniversity.org/badge#",
	"subjectId":           "https://scrolluniversity.org/badge#subjectId",
	"programId":           "https://scrolluniversity.org/badge#programId",
	"completionDate":      "https://scrolluniversity.org/badge#completionDate",
	"finalScore":          "https://scrolluniversity.org/badge#finalScore",
	"completionProofHash": "https://scrolluniversity.org/badge#completionProofHash",
}

// canonicalizeJSONLD normalizes the document with URDNA2015 and returns the
// resulting n-quads. Numeric values are stringified first so normalization
// does not depend on float formatting.
func canonicalizeJSONLD(doc map[string]interface{}) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	standardized := make(map[string]interface{}, len(doc)+1)
	standardized["@context"] = badgeContext
	for k, v := range doc {
		standardized[k] = toJSONLDValue(v)
	}

	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.Format = "application/n-quads"
	options.Algorithm = ld.AlgorithmURDNA2015

	normalized, err := processor.Normalize(standardized, options)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	quads, ok := normalized.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected normalization result type %T", normalized)
	}
	return []byte(quads), nil
}

// toJSONLDValue forces scalars to typed string literals so numeric encoding
// differences cannot change the normalized form.
func toJSONLDValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = toJSONLDValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = toJSONLDValue(val)
		}
		return out
	case nil:
		return nil
	default:
		return map[string]interface{}{
			"@value": fmt.Sprintf("%v", v),
			"@type":  "http://www.w3.org/2001/XMLSchema#string",
		}
	}
}
