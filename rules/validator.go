package rules

import (
	"fmt"
	"strings"
)

// Problem describes why a single setting was refused.
type Problem struct {
	Key    string
	Reason string
}

// ValidationError lists every problem found in a rule file. A single problem
// is enough to discard the whole file.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Key + ": " + p.Reason
	}
	return "invalid rule: " + strings.Join(parts, "; ")
}

// Validate checks raw against the mandatory keys and the datatype of each
// typed key. Absent optional keys are always fine.
func Validate(raw RawFields) error {
	var problems []Problem

	for _, key := range mandatoryKeys {
		if raw[key] == "" {
			problems = append(problems, Problem{Key: key, Reason: "missing mandatory setting"})
		}
	}

	for _, key := range booleanKeys {
		if v := raw[key]; v != "" && v != "1" && v != "0" {
			problems = append(problems, Problem{Key: key, Reason: fmt.Sprintf("%q is not a boolean, use 1 or 0", v)})
		}
	}

	for _, key := range floatKeys {
		if v := raw[key]; v != "" && !onlyChars(v, "0123456789.") {
			problems = append(problems, Problem{Key: key, Reason: fmt.Sprintf("%q is not a decimal number", v)})
		}
	}

	for _, key := range integerKeys {
		if v := raw[key]; v != "" && !onlyChars(v, "0123456789") {
			problems = append(problems, Problem{Key: key, Reason: fmt.Sprintf("%q is not a non-negative integer", v)})
		}
	}

	// The rule name becomes a directory below the cgroup root.
	if name := raw[KeyRuleName]; name == "." || name == ".." || strings.ContainsRune(name, '/') {
		problems = append(problems, Problem{Key: KeyRuleName, Reason: fmt.Sprintf("%q can't be used as a cgroup name", name)})
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func onlyChars(s, set string) bool {
	for _, r := range s {
		if !strings.ContainsRune(set, r) {
			return false
		}
	}
	return true
}
