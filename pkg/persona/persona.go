package persona

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/goccy/go-yaml"

	_ "embed"
)

var (
	//go:embed instruction.gotmpl
	instructionTplContent string

	instructionTpl = template.Must(template.New("instruction").Parse(instructionTplContent))
)

// DefaultID is the persona used when none is selected.
const DefaultID = "maya"

// Persona is a selectable assistant character. It fixes the Live voice and
// the behavioral instruction sent at session setup.
type Persona struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name,omitempty" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description"`
	Voice       string   `yaml:"voice,omitempty" json:"voice"`
	Role        string   `yaml:"role,omitempty" json:"role,omitempty"`
	Traits      []string `yaml:"traits,omitempty" json:"traits,omitempty"`
	Interaction []string `yaml:"interaction,omitempty" json:"interaction,omitempty"`
	// Extra is appended verbatim to the rendered instruction.
	Extra string `yaml:"extra,omitempty" json:"extra,omitempty"`
}

var builtin = []Persona{
	{
		ID:          "maya",
		Name:        "Maya",
		Description: "A warm, creative collaborator with boundless imagination.",
		Voice:       "Puck",
		Role:        "an elite AI executive assistant who makes the user's day seamless",
		Traits: []string{
			"Crisp and professional, yet warm.",
			"Keep spoken answers to one to three sentences unless the topic is complex.",
			"Proactive: suggest the next step.",
		},
		Interaction: []string{
			"Mention briefly when you use a tool.",
			"Analyze anything shown on camera right away.",
		},
	},
	{
		ID:          "atlas",
		Name:        "Atlas",
		Description: "A precise, strategic partner for complex operations.",
		Voice:       "Fenrir",
		Role:        "a strategic operations partner, precise and data-driven",
		Traits: []string{
			"Professional and efficient.",
			"Focus on facts and logistics.",
			"Keep spoken answers strictly to the point.",
		},
		Interaction: []string{
			"Confirm tool actions clearly.",
		},
	},
	{
		ID:          "nova",
		Name:        "Nova",
		Description: "An energetic, fast-paced assistant for rapid execution.",
		Voice:       "Kore",
		Role:        "an energetic assistant who thrives on speed",
		Traits: []string{
			"Upbeat and enthusiastic.",
			"Keep spoken answers punchy and quick.",
		},
		Interaction: []string{
			"Keep momentum high.",
		},
	},
	{
		ID:          "zorra",
		Name:        "Zorra",
		Description: "Your best friend and executive assistant. Smart, empathetic, and always there for you.",
		Voice:       "Zephyr",
		Role:        "the user's best friend and executive assistant",
		Traits: []string{
			"Calm, caring and deeply empathetic; a great listener.",
			"Supportive but willing to challenge the user.",
			"Talk like a friend, not like a service.",
		},
		Interaction: []string{
			"Validate feelings before giving advice.",
			"Gently ground claims about personal connections to public figures in reality.",
			"Stay in character.",
		},
	},
}

// ErrNotFound is returned by Catalog.Get for an unknown id.
var ErrNotFound = errors.New("persona: not found")

// Catalog is an ordered set of personas.
type Catalog struct {
	personas []Persona
}

// Builtin returns the built-in catalog.
func Builtin() *Catalog {
	c := &Catalog{personas: make([]Persona, len(builtin))}
	for i, p := range builtin {
		c.personas[i] = p.clone()
	}
	return c
}

// List returns the personas in order.
func (c *Catalog) List() []Persona {
	out := make([]Persona, len(c.personas))
	for i, p := range c.personas {
		out[i] = p.clone()
	}
	return out
}

// Get returns the persona with the given id, ignoring case. An empty id
// selects DefaultID.
func (c *Catalog) Get(id string) (Persona, error) {
	if id == "" {
		id = DefaultID
	}
	i := c.index(id)
	if i < 0 {
		return Persona{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.personas[i].clone(), nil
}

func (c *Catalog) index(id string) int {
	return slices.IndexFunc(c.personas, func(p Persona) bool { return strings.EqualFold(p.ID, id) })
}

// Merge applies overrides by id. Non-empty fields replace the existing
// ones; unknown ids are appended as new personas and need a voice.
func (c *Catalog) Merge(overrides []Persona) error {
	for _, o := range overrides {
		if o.ID == "" {
			return errors.New("persona: override without id")
		}
		i := c.index(o.ID)
		if i < 0 {
			if o.Voice == "" {
				return fmt.Errorf("persona: %s: voice is required", o.ID)
			}
			if o.Name == "" {
				o.Name = o.ID
			}
			c.personas = append(c.personas, o.clone())
			continue
		}
		p := &c.personas[i]
		set(&p.Name, o.Name)
		set(&p.Description, o.Description)
		set(&p.Voice, o.Voice)
		set(&p.Role, o.Role)
		set(&p.Extra, o.Extra)
		if len(o.Traits) > 0 {
			p.Traits = slices.Clone(o.Traits)
		}
		if len(o.Interaction) > 0 {
			p.Interaction = slices.Clone(o.Interaction)
		}
	}
	return nil
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

type overrideFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadOverrides reads a YAML file of the form
//
//	personas:
//	  - id: maya
//	    voice: Aoede
//
// A missing file yields no overrides.
func LoadOverrides(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persona: read overrides: %w", err)
	}
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("persona: parse overrides: %w", err)
	}
	return f.Personas, nil
}

// Instruction renders the system instruction for p.
func Instruction(p Persona) (string, error) {
	var sb strings.Builder
	if err := instructionTpl.Execute(&sb, p); err != nil {
		return "", fmt.Errorf("persona: render %s: %w", p.ID, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p Persona) clone() Persona {
	p.Traits = slices.Clone(p.Traits)
	p.Interaction = slices.Clone(p.Interaction)
	return p
}
