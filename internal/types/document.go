// Package types defines the data model shared across the deck generation
// pipeline: source documents, outlines, layouts, and generation history.
package types

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MediaKind tags a media item so captioning can dispatch without type
// inspection: tables are captioned from their textual form by the language
// model, pictures by the vision model.
type MediaKind string

// Media kind values.
const (
	MediaTable   MediaKind = "table"
	MediaPicture MediaKind = "picture"
)

// Media is an image or table referenced by the source document. Path must be
// unique within a document; caption-based lookup relies on it.
type Media struct {
	Kind    MediaKind `json:"kind"`
	Path    string    `json:"path"`
	Caption string    `json:"caption"`
	// Markdown holds the textual representation of a table, used to
	// caption it without the vision model. Empty for pictures.
	Markdown string `json:"markdown,omitempty"`
}

// SubSection is the leaf content unit of a document, addressed by
// (section title, subsection title).
type SubSection struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Medias  []Media `json:"medias,omitempty"`
}

// Section is a heading-bounded part of the document. Order of subsections
// mirrors document order and is preserved in overviews.
type Section struct {
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Subsections []SubSection `json:"subsections"`
}

// IterMedias returns the section's media items in document order.
func (s *Section) IterMedias() []*Media {
	var medias []*Media
	for i := range s.Subsections {
		for j := range s.Subsections[i].Medias {
			medias = append(medias, &s.Subsections[i].Medias[j])
		}
	}
	return medias
}

// Subsection looks up a subsection by title.
func (s *Section) Subsection(title string) (*SubSection, error) {
	for i := range s.Subsections {
		if s.Subsections[i].Title == title {
			return &s.Subsections[i], nil
		}
	}
	return nil, fmt.Errorf("subsection not found: %q in section %q", title, s.Title)
}

// SectionRef addresses a set of subsections within one section of the
// source document. Outline items carry these instead of raw text.
type SectionRef struct {
	Section     string   `json:"section"`
	Subsections []string `json:"subsections"`
}

// Document is the structured representation of a source document. It is
// constructed once by the document builder, patched only while validating
// media paths, and read-only for the rest of the pipeline.
type Document struct {
	ImageDir string            `json:"image_dir"`
	Language Language          `json:"language"`
	Metadata map[string]string `json:"metadata"`
	Sections []Section         `json:"sections"`
}

// IterMedias returns every media item in the document in document order.
func (d *Document) IterMedias() []*Media {
	var medias []*Media
	for i := range d.Sections {
		medias = append(medias, d.Sections[i].IterMedias()...)
	}
	return medias
}

// Section looks up a section by title. Section titles are unique within a
// document and used as lookup keys.
func (d *Document) Section(title string) (*Section, error) {
	for i := range d.Sections {
		if d.Sections[i].Title == title {
			return &d.Sections[i], nil
		}
	}
	available := make([]string, len(d.Sections))
	for i := range d.Sections {
		available[i] = d.Sections[i].Title
	}
	return nil, fmt.Errorf("section not found: %q, available sections: %v", title, available)
}

// Contains reports whether a section with the given title exists.
func (d *Document) Contains(title string) bool {
	_, err := d.Section(title)
	return err == nil
}

// Retrieve resolves a list of section references into their subsections,
// preserving reference order.
func (d *Document) Retrieve(refs []SectionRef) ([]*SubSection, error) {
	var subsecs []*SubSection
	for _, ref := range refs {
		section, err := d.Section(ref.Section)
		if err != nil {
			return nil, err
		}
		for _, title := range ref.Subsections {
			subsec, err := section.Subsection(title)
			if err != nil {
				return nil, err
			}
			subsecs = append(subsecs, subsec)
		}
	}
	return subsecs, nil
}

// FindCaption returns the path of the media whose caption matches exactly.
func (d *Document) FindCaption(caption string) (string, error) {
	for _, media := range d.IterMedias() {
		if media.Caption == caption {
			return media.Path, nil
		}
	}
	return "", fmt.Errorf("image caption not found: %q", caption)
}

// GetTable returns the table media stored at the given path.
func (d *Document) GetTable(path string) (*Media, error) {
	for _, media := range d.IterMedias() {
		if media.Path == path && media.Kind == MediaTable {
			return media, nil
		}
	}
	return nil, fmt.Errorf("table not found: %q", path)
}

// ValidateMedias checks that every referenced media file exists on disk.
// Paths that do not resolve are rebased by basename into the image
// directory; a path that still does not resolve is a setup defect and
// fails the whole document.
func (d *Document) ValidateMedias(imageDir string) error {
	if imageDir != "" {
		d.ImageDir = imageDir
	}
	if _, err := os.Stat(d.ImageDir); err != nil {
		return fmt.Errorf("image directory not found: %s", d.ImageDir)
	}
	for _, media := range d.IterMedias() {
		if _, err := os.Stat(media.Path); err == nil {
			continue
		}
		rebased := filepath.Join(d.ImageDir, filepath.Base(media.Path))
		if _, err := os.Stat(rebased); err != nil {
			return fmt.Errorf("image file not found: %s", media.Path)
		}
		media.Path = rebased
	}
	return nil
}

// Overview renders the section/subsection structure as indented text for
// planning prompts, optionally including summaries and media captions.
func (d *Document) Overview(includeSummary, includeImage bool) string {
	var sb strings.Builder
	for i := range d.Sections {
		section := &d.Sections[i]
		fmt.Fprintf(&sb, "Section: %s\n", section.Title)
		if includeSummary {
			fmt.Fprintf(&sb, "\tSummary: %s\n", section.Summary)
		}
		for j := range section.Subsections {
			subsec := &section.Subsections[j]
			fmt.Fprintf(&sb, "\tSubsection: %s\n", subsec.Title)
			if includeImage {
				for _, media := range subsec.Medias {
					fmt.Fprintf(&sb, "\t\tMedia: %s\n", media.Caption)
				}
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Metainfo renders the merged metadata as "name: value" lines in a stable
// order for inclusion in prompts.
func (d *Document) Metainfo() string {
	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s: %s", k, d.Metadata[k])
	}
	return strings.Join(lines, "\n")
}

// AllowedRefs returns the legal section/subsection titles and image
// captions an outline may reference, derived from the live document.
func (d *Document) AllowedRefs() AllowedRefs {
	allowed := AllowedRefs{Indexes: make(map[string][]string)}
	for i := range d.Sections {
		section := &d.Sections[i]
		allowed.Sections = append(allowed.Sections, section.Title)
		for j := range section.Subsections {
			allowed.Indexes[section.Title] = append(allowed.Indexes[section.Title], section.Subsections[j].Title)
		}
	}
	for _, media := range d.IterMedias() {
		allowed.Images = append(allowed.Images, media.Caption)
	}
	return allowed
}

// AllowedRefs is the value universe an outline item may reference.
type AllowedRefs struct {
	Sections []string
	Indexes  map[string][]string
	Images   []string
}
