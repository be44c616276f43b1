package service

import (
	"strconv"
	"strings"

	"autocaption/internal/model"
)

// TemplateService fills caption templates with extracted metadata.
//
// The placeholder vocabulary is a stable contract:
// {filename} {episode} {season} {quality} {language} {filesize}
type TemplateService struct{}

// NewTemplateService creates a new template service
func NewTemplateService() *TemplateService {
	return &TemplateService{}
}

// Render substitutes every known placeholder with its metadata value.
// Substitution is literal, applied once per placeholder type across the
// whole string. Unknown placeholders are left untouched so a typo in a
// template degrades to visible text instead of blocking delivery.
func (s *TemplateService) Render(template string, meta model.FileMetadata) string {
	caption := template
	caption = strings.ReplaceAll(caption, "{filename}", meta.Filename)
	caption = strings.ReplaceAll(caption, "{episode}", numberOrNA(meta.Episode))
	caption = strings.ReplaceAll(caption, "{season}", numberOrNA(meta.Season))
	caption = strings.ReplaceAll(caption, "{quality}", meta.Quality)
	caption = strings.ReplaceAll(caption, "{language}", meta.Language)
	caption = strings.ReplaceAll(caption, "{filesize}", meta.SizeLabel)
	return caption
}

// numberOrNA renders an absent extraction result as the literal "N/A".
func numberOrNA(n *int) string {
	if n == nil {
		return "N/A"
	}
	return strconv.Itoa(*n)
}
