// Package templates provides the note templates offered by the new-file
// menu: a built-in set plus user templates loaded from JSON and validated
// against a schema before they are accepted.
package templates

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Template is one reusable note skeleton.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
}

// templateSchema validates user-supplied template files.
const templateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "content"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "content": {"type": "string"},
      "tags": {"type": "array", "items": {"type": "string"}}
    },
    "additionalProperties": false
  }
}`

var builtins = []Template{
	{
		ID:          "meeting-notes",
		Name:        "Meeting Notes",
		Description: "Attendees, agenda and action items",
		Content: `# {{title}}

**Date:** {{date}} {{time}}
**Workspace:** {{workspace}}

## Attendees

-

## Agenda

1.

## Notes

## Action Items

- [ ] `,
		Tags: []string{"meeting"},
	},
	{
		ID:          "daily-journal",
		Name:        "Daily Journal",
		Description: "One page per day",
		Content: `# {{date}}

## Focus

## Log

## Linked

- [[{{date}}]]
`,
		Tags: []string{"journal"},
	},
	{
		ID:          "project-plan",
		Name:        "Project Plan",
		Description: "Goals, milestones and risks",
		Content: `# {{title}}

## Goal

## Milestones

| Milestone | Due | Status |
|-----------|-----|--------|
|           |     | todo   |

## Risks

## Related

- [[Project Roadmap]]
`,
		Tags: []string{"project"},
	},
	{
		ID:          "task-list",
		Name:        "Task List",
		Description: "A simple checklist",
		Content: `# {{title}}

- [ ]
- [ ]
- [ ]
`,
		Tags: []string{"tasks"},
	},
}

// Registry holds built-in and user templates.
type Registry struct {
	templates map[string]Template
	schema    *jsonschema.Schema
}

// NewRegistry creates a registry seeded with the built-in templates.
func NewRegistry() (*Registry, error) {
	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(templateSchema))
	if err != nil {
		return nil, fmt.Errorf("parse template schema: %w", err)
	}
	if err := compiler.AddResource("templates.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add template schema: %w", err)
	}
	schema, err := compiler.Compile("templates.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile template schema: %w", err)
	}

	r := &Registry{
		templates: make(map[string]Template, len(builtins)),
		schema:    schema,
	}
	for _, t := range builtins {
		r.templates[t.ID] = t
	}
	return r, nil
}

// LoadCustom validates and registers user templates from a JSON document.
// A custom template may shadow a built-in by reusing its ID.
func (r *Registry) LoadCustom(data []byte) (int, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("parse templates: %w", err)
	}
	if err := r.schema.Validate(inst); err != nil {
		return 0, fmt.Errorf("invalid templates: %w", err)
	}

	items, ok := inst.([]any)
	if !ok {
		return 0, fmt.Errorf("invalid templates: expected array")
	}
	for _, item := range items {
		obj := item.(map[string]any)
		t := Template{
			ID:      obj["id"].(string),
			Name:    obj["name"].(string),
			Content: obj["content"].(string),
		}
		if d, ok := obj["description"].(string); ok {
			t.Description = d
		}
		if tags, ok := obj["tags"].([]any); ok {
			for _, tag := range tags {
				t.Tags = append(t.Tags, tag.(string))
			}
		}
		r.templates[t.ID] = t
	}
	return len(items), nil
}

// Get returns a template by ID.
func (r *Registry) Get(id string) (Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// List returns all templates sorted by name.
func (r *Registry) List() []Template {
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Vars are the substitution values available to template content.
type Vars struct {
	Title     string
	Workspace string
	Now       time.Time
}

// Render substitutes {{title}}, {{date}}, {{time}} and {{workspace}}.
func Render(t Template, vars Vars) string {
	now := vars.Now
	if now.IsZero() {
		now = time.Now()
	}
	replacer := strings.NewReplacer(
		"{{title}}", vars.Title,
		"{{date}}", now.Format("2006-01-02"),
		"{{time}}", now.Format("15:04"),
		"{{workspace}}", vars.Workspace,
	)
	return replacer.Replace(t.Content)
}
