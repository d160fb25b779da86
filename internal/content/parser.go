package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter holds the YAML header of an authored content file.
type Frontmatter struct {
	Title         string   `yaml:"title"`
	Author        string   `yaml:"author"`
	Type          string   `yaml:"type"`
	StyleApproach string   `yaml:"style_approach"`
	Style         any      `yaml:"style"`
	Source        string   `yaml:"source"`
	Status        string   `yaml:"status"`
	Tags          []string `yaml:"tags"`
}

// ParsedFile is one authored markdown file split into frontmatter and
// named sections.
type ParsedFile struct {
	Path        string
	Frontmatter Frontmatter
	Main        string
	WhyILikeIt  string
	WhatISee    string
	VisualNotes string
	Sections    map[string]string
}

var requiredFields = []string{"title", "author", "type", "style_approach"}

// ParseFile parses a markdown file with YAML frontmatter. The body is
// split on "## " headers; the leading part becomes the main quote text.
func ParseFile(path string) (*ParsedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	return parse(path, string(data))
}

func parse(path, raw string) (*ParsedFile, error) {
	if !strings.HasPrefix(raw, "---") {
		return nil, fmt.Errorf("no frontmatter found in %s", path)
	}
	parts := strings.SplitN(raw, "---", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid frontmatter format in %s", path)
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return nil, fmt.Errorf("parse frontmatter in %s: %w", path, err)
	}
	if err := validateFrontmatter(path, fm); err != nil {
		return nil, err
	}

	sections := parseSections(strings.TrimSpace(parts[2]))
	return &ParsedFile{
		Path:        path,
		Frontmatter: fm,
		Main:        sections["main"],
		WhyILikeIt:  sections["why_i_like_it"],
		WhatISee:    sections["what_i_see_in_it"],
		VisualNotes: sections["visual_notes"],
		Sections:    sections,
	}, nil
}

func validateFrontmatter(path string, fm Frontmatter) error {
	missing := map[string]bool{
		"title":          strings.TrimSpace(fm.Title) == "",
		"author":         strings.TrimSpace(fm.Author) == "",
		"type":           strings.TrimSpace(fm.Type) == "",
		"style_approach": strings.TrimSpace(fm.StyleApproach) == "",
	}
	for _, field := range requiredFields {
		if missing[field] {
			return fmt.Errorf("missing required field %q in %s", field, path)
		}
	}
	return nil
}

func parseSections(markdown string) map[string]string {
	sections := make(map[string]string)

	parts := strings.Split("\n"+markdown, "\n## ")
	if lead := strings.TrimSpace(parts[0]); lead != "" {
		sections["main"] = lead
	}
	for _, part := range parts[1:] {
		header, body, _ := strings.Cut(part, "\n")
		header = strings.ToLower(strings.TrimSpace(header))
		body = strings.TrimSpace(body)

		switch {
		case strings.Contains(header, "why i like it"):
			sections["why_i_like_it"] = body
		case strings.Contains(header, "what i see in it"):
			sections["what_i_see_in_it"] = body
		case strings.Contains(header, "visual notes"):
			sections["visual_notes"] = body
		default:
			sections[strings.ReplaceAll(header, " ", "_")] = body
		}
	}
	return sections
}

// ParseDir parses every markdown file in the content directory, skipping
// template files. Files that fail to parse are reported through errs but
// do not abort the remaining files.
func ParseDir(dir string) (parsed []*ParsedFile, errs []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("read content dir: %w", err)}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		if strings.Contains(strings.ToLower(name), "template") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		file, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parsed = append(parsed, file)
	}
	return parsed, errs
}
