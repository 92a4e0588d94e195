package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"linguapath/internal/lesson"
)

//go:embed lessons.yaml
var builtinFS embed.FS

// Lesson is an ordered list of steps with catalog metadata
type Lesson struct {
	ID       string
	Title    string
	Language string
	Level    string
	Steps    []lesson.Step
}

// Summary is the catalog listing entry of a lesson
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Language  string `json:"language"`
	Level     string `json:"level"`
	StepCount int    `json:"stepCount"`
}

// Catalog is a read-only set of lessons keyed by ID
type Catalog struct {
	lessons map[string]*Lesson
	order   []string
}

type yamlDocument struct {
	Lessons []yamlLesson `yaml:"lessons"`
}

type yamlLesson struct {
	ID       string     `yaml:"id"`
	Title    string     `yaml:"title"`
	Language string     `yaml:"language"`
	Level    string     `yaml:"level"`
	Steps    []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	Kind    string   `yaml:"kind"`
	Content string   `yaml:"content"`
	Media   string   `yaml:"media"`
	Options []string `yaml:"options"`
	Answer  string   `yaml:"answer"`
}

// Builtin returns the catalog compiled into the binary
func Builtin() (*Catalog, error) {
	return Load(builtinFS, "*.yaml")
}

// LoadDir loads every *.yaml and *.yml file of dir
func LoadDir(dir string) (*Catalog, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("lessons directory: %w", err)
	}
	return Load(os.DirFS(dir), "*.y*ml")
}

// Load parses the lesson documents of fsys matching pattern. Lesson IDs must
// be unique across all documents and every lesson must pass validation.
func Load(fsys fs.FS, pattern string) (*Catalog, error) {
	files, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	c := &Catalog{lessons: make(map[string]*Lesson)}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		if err := c.add(path.Base(file), raw); err != nil {
			return nil, err
		}
	}
	if len(c.order) == 0 {
		return nil, errors.New("no lessons found")
	}
	return c, nil
}

func (c *Catalog) add(name string, raw []byte) error {
	var doc yamlDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}

	for _, yl := range doc.Lessons {
		l, err := yl.toLesson()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := c.lessons[l.ID]; dup {
			return fmt.Errorf("%s: duplicate lesson id %q", name, l.ID)
		}
		c.lessons[l.ID] = l
		c.order = append(c.order, l.ID)
	}
	return nil
}

func (yl yamlLesson) toLesson() (*Lesson, error) {
	if yl.ID == "" {
		return nil, errors.New("lesson without id")
	}
	if len(yl.Steps) == 0 {
		return nil, fmt.Errorf("lesson %q has no steps", yl.ID)
	}

	l := &Lesson{ID: yl.ID, Title: yl.Title, Language: yl.Language, Level: yl.Level}
	for i, ys := range yl.Steps {
		kind, err := lesson.ParseStepKind(ys.Kind)
		if err != nil {
			return nil, fmt.Errorf("lesson %q step %d: %w", yl.ID, i, err)
		}
		step := lesson.Step{
			Kind:          kind,
			Content:       ys.Content,
			MediaRef:      ys.Media,
			Options:       ys.Options,
			CorrectAnswer: ys.Answer,
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("lesson %q step %d: %w", yl.ID, i, err)
		}
		l.Steps = append(l.Steps, step)
	}
	return l, nil
}

// Get returns the lesson with the given ID
func (c *Catalog) Get(id string) (*Lesson, bool) {
	l, ok := c.lessons[id]
	return l, ok
}

// List returns a summary of every lesson in load order
func (c *Catalog) List() []Summary {
	summaries := make([]Summary, 0, len(c.order))
	for _, id := range c.order {
		l := c.lessons[id]
		summaries = append(summaries, Summary{
			ID:        l.ID,
			Title:     l.Title,
			Language:  l.Language,
			Level:     l.Level,
			StepCount: len(l.Steps),
		})
	}
	return summaries
}
