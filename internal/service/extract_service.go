package service

import (
	"fmt"
	"regexp"
	"strconv"

	"autocaption/internal/model"
)

// Pre-compiled patterns, ordered most specific to least specific. The first
// match wins, so order is the whole ranking strategy.
var qualityPatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)\b(4K|2160p|UHD)\b`), "4K"},
	{regexp.MustCompile(`(?i)\b(1080p|FHD)\b`), "1080p"},
	{regexp.MustCompile(`(?i)\b(720p|HD)\b`), "720p"},
	{regexp.MustCompile(`(?i)\b(480p|SD)\b`), "480p"},
	{regexp.MustCompile(`(?i)\b(360p|LD)\b`), "360p"},
}

var languagePatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)\b(English|ENG|en)\b`), "English"},
	{regexp.MustCompile(`(?i)\b(Hindi|HIN|hi)\b`), "Hindi"},
	{regexp.MustCompile(`(?i)\b(Tamil|TAM|ta)\b`), "Tamil"},
	{regexp.MustCompile(`(?i)\b(Telugu|TEL|te)\b`), "Telugu"},
	{regexp.MustCompile(`(?i)\b(Malayalam|MAL|ml)\b`), "Malayalam"},
	{regexp.MustCompile(`(?i)\b(Kannada|KAN|kn)\b`), "Kannada"},
	{regexp.MustCompile(`(?i)\b(Bengali|BEN|bn)\b`), "Bengali"},
	{regexp.MustCompile(`(?i)\b(Marathi|MAR|mr)\b`), "Marathi"},
	{regexp.MustCompile(`(?i)\b(Gujarati|GUJ|gu)\b`), "Gujarati"},
	{regexp.MustCompile(`(?i)\b(Punjabi|PUN|pa)\b`), "Punjabi"},
}

// The last two episode patterns are deliberately loose: a bare "Sxx...yy"
// and "first number anywhere". They can misfire on years or hashes in the
// filename, but that last-resort behavior is part of the extraction
// contract and callers rely on it.
var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:EP|E)\s*-\s*(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\b(?:EP|E)\s*(\d{1,3})\b`),
	regexp.MustCompile(`(?i)S(\d+)(?:E|EP)(\d+)`),
	regexp.MustCompile(`(?i)S(\d+)\s*(?:E|EP|-\s*EP)\s*(\d+)`),
	regexp.MustCompile(`(?i)[([<{]?\s*(?:E|EP)\s*(\d+)\s*[)\]>}]?`),
	regexp.MustCompile(`(?i)(?:EP|E)?\s*-?\s*(\d{1,3})`),
	regexp.MustCompile(`(?i)S(\d+)\D*(\d+)`),
	regexp.MustCompile(`(\d+)`),
}

var seasonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)S(\d+)(?:E|EP)`),
	regexp.MustCompile(`(?i)Season\s*(\d+)`),
	regexp.MustCompile(`(?i)S(\d+)\s`),
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// ExtractService derives structured metadata from raw media filenames.
type ExtractService struct{}

// NewExtractService creates a new extract service
func NewExtractService() *ExtractService {
	return &ExtractService{}
}

// Extract derives all metadata fields from a filename and byte size.
func (s *ExtractService) Extract(filename string, sizeBytes int64) model.FileMetadata {
	return model.FileMetadata{
		Filename:  filename,
		Episode:   s.ExtractEpisode(filename),
		Season:    s.ExtractSeason(filename),
		Quality:   s.ExtractQuality(filename),
		Language:  s.ExtractLanguage(filename),
		SizeLabel: FormatSize(sizeBytes),
	}
}

// ExtractEpisode returns the episode number, or nil when no pattern matches.
// Combined season+episode patterns capture two groups; the episode is always
// the last captured group.
func (s *ExtractService) ExtractEpisode(filename string) *int {
	for _, re := range episodePatterns {
		m := re.FindStringSubmatch(filename)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[len(m)-1])
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}

// ExtractSeason returns the season number, or nil when no pattern matches.
func (s *ExtractService) ExtractSeason(filename string) *int {
	for _, re := range seasonPatterns {
		m := re.FindStringSubmatch(filename)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}

// ExtractQuality returns the resolution tier, defaulting to "HD".
func (s *ExtractService) ExtractQuality(filename string) string {
	for _, p := range qualityPatterns {
		if p.re.MatchString(filename) {
			return p.label
		}
	}
	return "HD"
}

// ExtractLanguage returns the detected language, defaulting to "Multi".
func (s *ExtractService) ExtractLanguage(filename string) string {
	for _, p := range languagePatterns {
		if p.re.MatchString(filename) {
			return p.label
		}
	}
	return "Multi"
}

// FormatSize renders a byte count as a human-readable label with two decimal
// places. Zero or negative sizes format as "0 B"; values past TB keep the
// TB label.
func FormatSize(sizeBytes int64) string {
	if sizeBytes <= 0 {
		return "0 B"
	}

	size := float64(sizeBytes)
	for _, unit := range sizeUnits {
		if size < 1024.0 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.2f TB", size)
}
