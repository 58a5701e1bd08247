package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxPathLength = 500

// NormalizePath trims whitespace, drops empty segments and surrounding slashes.
// "/src//app.js " becomes "src/app.js".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	segs := strings.Split(p, "/")
	out := segs[:0]
	for _, s := range segs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return strings.Join(out, "/")
}

// ValidatePath checks a normalized path.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	if len(p) > MaxPathLength {
		return fmt.Errorf("%w: path exceeds maximum length of %d characters", ErrInvalidPath, MaxPathLength)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("%w: relative segments are not allowed", ErrInvalidPath)
		}
		if strings.ContainsAny(seg, "\x00<>:\"|?*") {
			return fmt.Errorf("%w: %q contains reserved characters", ErrInvalidPath, seg)
		}
	}
	return nil
}

// BaseName returns the last path segment.
func BaseName(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// NewFile builds a file with a fresh id from a raw path.
func NewFile(rawPath, content string, now time.Time) (File, error) {
	p := NormalizePath(rawPath)
	if err := ValidatePath(p); err != nil {
		return File{}, err
	}
	name := BaseName(p)
	return File{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      p,
		Content:   content,
		Language:  LanguageFor(name),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
