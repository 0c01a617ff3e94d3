// Package content fetches the projects and skills shown on the page.
package content

import (
	"context"
	"errors"
)

// Project is one entry in the "what I have built" section.
type Project struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	RepoLink    string   `json:"repo_link" yaml:"repo_link"`
	LiveLink    string   `json:"live_link" yaml:"live_link"`
	Image       string   `json:"image" yaml:"image"`
	Tags        []string `json:"tags" yaml:"tags"`
}

type Skill struct {
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon" yaml:"icon"`
}

// SkillGroup is a tab in the "what can I do" section.
type SkillGroup struct {
	Category string  `json:"category" yaml:"category"`
	Skills   []Skill `json:"skills" yaml:"skills"`
}

// GROQ queries understood by every Fetcher.
const (
	ProjectsQuery = `*[_type == "project"]{
  title,
  description,
  repo_link,
  live_link,
  "image":image.asset->url,
  tags
}`
	SkillsQuery = `*[_type == "skill"]`
)

var ErrUnknownQuery = errors.New("content: unknown query")

// Fetcher runs a content query and decodes the result list into dst.
type Fetcher interface {
	Fetch(ctx context.Context, query string, dst any) error
}
