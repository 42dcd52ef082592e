// file: internals/helpers/identifier.go
package helper

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reIdentInvalid  = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	reFolderInvalid = regexp.MustCompile(`[^A-Za-z0-9/_-]+`)
	reSlashRuns     = regexp.MustCompile(`/+`)
	reLeadingDots   = regexp.MustCompile(`^[./]+`)
	reFileInvalid   = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)
	reSlugInvalid   = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphenRuns    = regexp.MustCompile(`-+`)
)

// DeriveMissionIdentifier normalizes raw input into the canonical mission UID:
// upper-case, [A-Z0-9_-] only, runs of other characters collapsed into a
// single hyphen. Returns "" for fully-invalid input; callers must fall back.
func DeriveMissionIdentifier(raw string) string {
	s := strings.TrimSpace(raw)
	s = reIdentInvalid.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ToUpper(s)
}

// FolderForIdentifier maps a mission UID to its storage folder name.
// Same sanitization as the UID, prefixed with "M" unless already present.
func FolderForIdentifier(id string) string {
	s := DeriveMissionIdentifier(id)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "M") {
		return s
	}
	return "M" + s
}

// MissionFolderForOrder builds the canonical per-order folder, zero-padded
// to two digits (order 7 → "M07").
func MissionFolderForOrder(order int) string {
	return fmt.Sprintf("M%02d", order)
}

// SanitizeCustomFolder cleans a user-entered folder override: leading
// traversal segments stripped, [A-Za-z0-9/_-] kept, repeated slashes
// collapsed. May return "" when nothing survives.
func SanitizeCustomFolder(raw string) string {
	s := strings.TrimSpace(raw)
	s = reLeadingDots.ReplaceAllString(s, "")
	s = reFolderInvalid.ReplaceAllString(s, "-")
	s = reSlashRuns.ReplaceAllString(s, "/")
	s = strings.Trim(s, "-")
	return s
}

// SanitizeFilename keeps [a-zA-Z0-9.-_] in an uploaded asset name. Both the
// upload and delete paths go through this, so a delete always recomputes
// the exact path the upload produced.
func SanitizeFilename(filename string) string {
	return reFileInvalid.ReplaceAllString(filename, "_")
}

// Slugify is the second naming convention in this codebase: lower-case
// [a-z0-9-] with diacritics stripped. It is used for fallback folder names
// only, never for the stored mission UID (that one is DeriveMissionIdentifier).
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reSlugInvalid.ReplaceAllString(s, "-")
	s = reHyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

// FallbackFolder builds a collision-safe folder for assets that belong to a
// mission with no derivable identifier. Degraded but safe: timestamp plus a
// short random suffix.
func FallbackFolder(hint string) string {
	base := Slugify(hint, 40)
	if base == "item" {
		base = "mission"
	}
	return fmt.Sprintf("m-%s-%s-%s", base, time.Now().Format("20060102_150405"), RandHex(3))
}

func RandHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
