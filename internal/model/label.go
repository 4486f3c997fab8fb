package model

import "strings"

// Label represents a label that can be attached to any number of issues.
type Label struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// LabelWithCount extends Label with the number of issues using it.
type LabelWithCount struct {
	Label
	IssueCount int `json:"issue_count"`
}

// NormalizeLabelNames trims every name and drops duplicates, keeping the first
// occurrence. A blank name is reported in the returned ValidationError keyed
// by its position in the input; in that case the names are not returned.
func NormalizeLabelNames(names []string) ([]string, error) {
	verr := NewValidationError()
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			verr.Add(indexKey("labels", i), "Label name cannot be empty.")
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return out, nil
}
