package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk content file.
type Document struct {
	Projects []Project    `yaml:"projects"`
	Skills   []SkillGroup `yaml:"skills"`
}

// FileSource serves queries from a YAML document read on every fetch, so
// edits show up without a restart.
type FileSource struct {
	Path string
}

func (f *FileSource) Load() (*Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading content file %s: %w", f.Path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing content file %s: %w", f.Path, err)
	}
	return &doc, nil
}

func (f *FileSource) Fetch(ctx context.Context, query string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := f.Load()
	if err != nil {
		return err
	}
	return doc.answer(query, dst)
}

// answer copies the list matching query into dst through JSON so dst may
// be any compatible shape.
func (d *Document) answer(query string, dst any) error {
	var src any
	switch query {
	case ProjectsQuery:
		src = d.Projects
	case SkillsQuery:
		src = d.Skills
	default:
		return ErrUnknownQuery
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
