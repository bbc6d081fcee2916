// Package contract validates a session output-contract JSON document: exact
// field set, field types, enum values, and the confidence ceiling constraint.
package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultConfidenceCeiling caps the confidence an agent may claim.
const DefaultConfidenceCeiling = 85

var (
	validStatuses             = []string{"FAIL", "PASS", "WARN"}
	validOperations           = []string{"created", "deleted", "modified"}
	validArchitecturalImpacts = []string{"high", "low", "medium", "none"}

	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// RequiredFields is the exact field set of a contract; anything else is an
// unknown-field error.
var RequiredFields = []string{
	"status",
	"session",
	"date",
	"model",
	"files_changed",
	"confidence",
	"not_verified",
	"architectural_impact",
	"requires_review",
	"requires_review_reason",
}

func inSet(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func quoteSet(set []string) string {
	quoted := make([]string, len(set))
	for i, s := range set {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Parse decodes raw JSON, preserving number fidelity so integer checks can
// reject floats.
func Parse(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func asInt(v any) (int, bool) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Validate checks contract data against the schema. An empty result is a
// pass. When required fields are missing or unknown fields are present,
// validation stops there; the remaining checks assume a complete field set.
func Validate(data any, confidenceCeiling int) []string {
	var errors []string

	obj, ok := data.(map[string]any)
	if !ok {
		return []string{fmt.Sprintf("Contract must be a JSON object, got: %T", data)}
	}

	var unknown []string
	for key := range obj {
		if !inSet(RequiredFields, key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errors = append(errors, fmt.Sprintf("Unknown field: '%s'", key))
	}

	for _, field := range RequiredFields {
		if _, present := obj[field]; !present {
			errors = append(errors, "Required field missing: "+field)
		}
	}
	if len(errors) > 0 {
		return errors
	}

	if s, ok := obj["status"].(string); !ok || !inSet(validStatuses, s) {
		errors = append(errors, fmt.Sprintf("status must be one of %s, got %v",
			quoteSet(validStatuses), obj["status"]))
	}

	if _, ok := nonEmptyString(obj["session"]); !ok {
		errors = append(errors, "session must be a non-empty string")
	}

	if s, ok := obj["date"].(string); !ok || !datePattern.MatchString(s) {
		errors = append(errors, fmt.Sprintf("date must be a string in YYYY-MM-DD format, got %v", obj["date"]))
	}

	if _, ok := nonEmptyString(obj["model"]); !ok {
		errors = append(errors, "model must be a non-empty string")
	}

	if entries, ok := obj["files_changed"].([]any); !ok {
		errors = append(errors, "files_changed must be an array")
	} else {
		for i, raw := range entries {
			entry, ok := raw.(map[string]any)
			if !ok {
				errors = append(errors, fmt.Sprintf("files_changed[%d] must be an object", i))
				continue
			}
			if _, ok := nonEmptyString(entry["path"]); !ok {
				errors = append(errors, fmt.Sprintf("files_changed[%d].path must be a non-empty string", i))
			}
			if op, present := entry["operation"]; !present {
				errors = append(errors, fmt.Sprintf("files_changed[%d].operation is required", i))
			} else if s, ok := op.(string); !ok || !inSet(validOperations, s) {
				errors = append(errors, fmt.Sprintf("files_changed[%d].operation must be one of %s, got %v",
					i, quoteSet(validOperations), op))
			}
			var extra []string
			for key := range entry {
				if key != "path" && key != "operation" {
					extra = append(extra, key)
				}
			}
			sort.Strings(extra)
			for _, key := range extra {
				errors = append(errors, fmt.Sprintf("files_changed[%d] has unknown key: '%s'", i, key))
			}
		}
	}

	if confidence, ok := asInt(obj["confidence"]); !ok {
		errors = append(errors, "confidence must be an integer")
	} else if confidence < 0 || confidence > 100 {
		errors = append(errors, fmt.Sprintf("confidence must be between 0 and 100, got %d", confidence))
	} else if confidence > confidenceCeiling {
		errors = append(errors, fmt.Sprintf(
			"confidence value %d exceeds configured ceiling %d. Agents must not claim higher confidence than the project ceiling. See patterns/automation-bias-defense.md.",
			confidence, confidenceCeiling))
	}

	if items, ok := obj["not_verified"].([]any); !ok {
		errors = append(errors, "not_verified must be an array")
	} else {
		for i, item := range items {
			if _, ok := nonEmptyString(item); !ok {
				errors = append(errors, fmt.Sprintf("not_verified[%d] must be a non-empty string", i))
			}
		}
	}

	if s, ok := obj["architectural_impact"].(string); !ok || !inSet(validArchitecturalImpacts, s) {
		errors = append(errors, fmt.Sprintf("architectural_impact must be one of %s, got %v",
			quoteSet(validArchitecturalImpacts), obj["architectural_impact"]))
	}

	requiresReview, isBool := obj["requires_review"].(bool)
	if !isBool {
		errors = append(errors, "requires_review must be a boolean")
	} else {
		reason := obj["requires_review_reason"]
		if requiresReview {
			if _, ok := nonEmptyString(reason); !ok {
				errors = append(errors, "requires_review_reason must be a non-empty string when requires_review is true")
			}
		} else if reason != nil {
			errors = append(errors, "requires_review_reason must be null when requires_review is false")
		}
	}

	return errors
}

// JSONReport is the machine-readable validation result.
type JSONReport struct {
	Contract          string   `json:"contract"`
	Passed            bool     `json:"passed"`
	ConfidenceCeiling int      `json:"confidence_ceiling"`
	ErrorCount        int      `json:"error_count"`
	Errors            []string `json:"errors"`
}

// NewJSONReport bundles validation errors for a contract file.
func NewJSONReport(contractPath string, errors []string, confidenceCeiling int) JSONReport {
	if errors == nil {
		errors = []string{}
	}
	return JSONReport{
		Contract:          contractPath,
		Passed:            len(errors) == 0,
		ConfidenceCeiling: confidenceCeiling,
		ErrorCount:        len(errors),
		Errors:            errors,
	}
}

// FormatText renders the human-readable validation report.
func FormatText(contractPath string, data any, errors []string, confidenceCeiling int) string {
	header := "Validating " + contractPath
	width := len(header)
	if width < 32 {
		width = 32
	}
	lines := []string{header, strings.Repeat("=", width)}

	if obj, ok := data.(map[string]any); ok {
		get := func(key string) any {
			if v, present := obj[key]; present {
				return v
			}
			return "(missing)"
		}

		fcCount := "(invalid)"
		if fc, ok := obj["files_changed"].([]any); ok {
			fcCount = fmt.Sprintf("%d", len(fc))
		}
		nvCount := "(invalid)"
		if nv, ok := obj["not_verified"].([]any); ok {
			nvCount = fmt.Sprintf("%d", len(nv))
		}

		confNote := ""
		if confidence, ok := asInt(obj["confidence"]); ok {
			if confidence > confidenceCeiling {
				confNote = fmt.Sprintf("  (ceiling: %d)  EXCEEDS CEILING", confidenceCeiling)
			} else {
				confNote = fmt.Sprintf("  (ceiling: %d)  OK", confidenceCeiling)
			}
		}

		lines = append(lines,
			fmt.Sprintf("  status               %v", get("status")),
			fmt.Sprintf("  session              %v", get("session")),
			fmt.Sprintf("  date                 %v", get("date")),
			fmt.Sprintf("  model                %v", get("model")),
			fmt.Sprintf("  files_changed        %s files", fcCount),
			fmt.Sprintf("  confidence           %v%s", get("confidence"), confNote),
			fmt.Sprintf("  not_verified         %s items declared", nvCount),
			fmt.Sprintf("  architectural_impact %v", get("architectural_impact")),
			fmt.Sprintf("  requires_review      %v", get("requires_review")),
		)
	}

	lines = append(lines, "")

	if len(errors) > 0 {
		for _, err := range errors {
			lines = append(lines, "  FAIL: "+err)
		}
		plural := "s"
		if len(errors) == 1 {
			plural = ""
		}
		lines = append(lines, "", fmt.Sprintf("RESULT: FAIL (%d error%s)", len(errors), plural))
	} else {
		lines = append(lines, "RESULT: PASS")
	}

	return strings.Join(lines, "\n")
}
