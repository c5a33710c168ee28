package fitsname

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// CapturePattern matches a finished capture filename like
// "cam1_20120304-000000001.fits", optionally with a compression suffix.
// The prefix may itself contain underscores.
var CapturePattern = regexp.MustCompile(`^(.*)_(\d{4})(\d{2})(\d{2})-\d{9}\.fits(?:\.gz|\.lz4)?$`)

// Stamp represents the timestamp parsed from a capture filename.
type Stamp struct {
	Prefix string // Camera prefix, e.g. "cam1"
	Year   string // e.g. "2012"
	Month  string // e.g. "03"
	Day    string // e.g. "04"
}

// Parse parses a capture filename and returns its Stamp.
// Returns an error if the filename does not match the capture pattern.
func Parse(filename string) (*Stamp, error) {
	matches := CapturePattern.FindStringSubmatch(filename)
	if matches == nil {
		return nil, fmt.Errorf("filename %q does not match the capture pattern", filename)
	}

	return &Stamp{
		Prefix: matches[1],
		Year:   matches[2],
		Month:  matches[3],
		Day:    matches[4],
	}, nil
}

// Segments returns the archive path segments for this Stamp (prefix, year, month, day).
func (s *Stamp) Segments() []string {
	return []string{s.Prefix, s.Year, s.Month, s.Day}
}

// ArchiveDir returns the archive directory for this Stamp under root.
func (s *Stamp) ArchiveDir(root string) string {
	return filepath.Join(append([]string{root}, s.Segments()...)...)
}

// String returns a formatted string representation of the Stamp for debugging.
func (s *Stamp) String() string {
	return fmt.Sprintf("Prefix: %s, Date: %s-%s-%s", s.Prefix, s.Year, s.Month, s.Day)
}
