// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output and logs; keep raw codes for JSON
// fields, signal keys, and equality comparisons.
package display

import (
	"fmt"
	"time"
)

// --- Contribution categories ---

var categories = map[string]string{
	"format":   "Format",
	"color":    "Color analysis",
	"metadata": "Camera metadata",
	"hash":     "Perceptual hashing",
	"edges":    "Edge structure",
	"text":     "Text heuristics",
	"caption":  "Vision caption",
}

// Category returns the human-readable name for a contribution category.
// Unknown categories are returned as-is.
func Category(code string) string {
	if name, ok := categories[code]; ok {
		return name
	}
	return code
}

// --- Failure reasons ---

// FailureReason rewords the canonical failure codes for CLI output.
func FailureReason(reason string) string {
	if reason == "Timeout" {
		return "Timed out"
	}
	return reason
}

// --- Scalars ---

// Confidence renders an aggregate confidence as a percentage.
func Confidence(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// Duration renders a wall-clock time compactly: sub-second values in
// milliseconds, the rest with one decimal.
func Duration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Outcome summarizes a session in one word.
func Outcome(success, earlyExit bool) string {
	switch {
	case !success:
		return "failed"
	case earlyExit:
		return "early-exit"
	default:
		return "ok"
	}
}
