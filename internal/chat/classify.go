// Package chat implements the conversational core of thinkchat: query
// classification, prompt composition, splitting of streamed responses into a
// reasoning trace and a final answer, and the per-session interaction cycle.
package chat

import (
	"fmt"
	"strings"
)

// Mode is the per-session classification preference.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeSimple  Mode = "simple"
	ModeComplex Mode = "complex"
)

// Modes lists the selectable modes in display order.
var Modes = []Mode{ModeAuto, ModeSimple, ModeComplex}

// ParseMode parses a mode name case-insensitively. An empty string is auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeSimple:
		return ModeSimple, nil
	case ModeComplex:
		return ModeComplex, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want auto, simple or complex)", s)
	}
}

// Verdict is the outcome of classifying one prompt.
type Verdict string

const (
	VerdictSimple  Verdict = "simple"
	VerdictComplex Verdict = "complex"
)

// IsComplex reports whether the verdict asks for a reasoning trace.
func (v Verdict) IsComplex() bool { return v == VerdictComplex }

// complexKeywords trigger complex handling in auto mode. Matching is a plain
// substring test on the lowercased prompt, so "show" matches "how".
var complexKeywords = []string{"explain", "how", "why", "describe", "what is the process"}

// Classify decides how a prompt is answered. Explicit modes always win over
// keyword inspection.
func Classify(prompt string, mode Mode) Verdict {
	switch mode {
	case ModeComplex:
		return VerdictComplex
	case ModeSimple:
		return VerdictSimple
	}

	lower := strings.ToLower(prompt)
	for _, kw := range complexKeywords {
		if strings.Contains(lower, kw) {
			return VerdictComplex
		}
	}
	return VerdictSimple
}
