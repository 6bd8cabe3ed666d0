package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/codesage/codesage/fs"
)

const catalogRoot = "assets/catalog"

// Catalog holds the static, ordered lesson lists per tier. It is immutable
// once loaded; array order defines prerequisite order.
type Catalog struct {
	tiers map[string][]Lesson
	index map[string]map[string]int // tier -> lesson id -> position
}

// tierFile is the YAML layout of one embedded catalog file.
type tierFile struct {
	Tier    string   `yaml:"tier"`
	Lessons []Lesson `yaml:"lessons"`
}

// New builds a Catalog from per-tier lesson lists, validating the invariants
// the rest of the app relies on (unique ids, well-formed quizzes, a single
// final test per tier placed last).
func New(tiers map[string][]Lesson) (*Catalog, error) {
	c := &Catalog{
		tiers: make(map[string][]Lesson, len(tiers)),
		index: make(map[string]map[string]int, len(tiers)),
	}
	for tier, lessons := range tiers {
		if !ValidTier(tier) {
			return nil, errors.Errorf("unknown tier %q", tier)
		}
		if len(lessons) == 0 {
			return nil, errors.Errorf("tier %q has no lessons", tier)
		}

		idx := make(map[string]int, len(lessons))
		var finalSeen bool
		for i, l := range lessons {
			if err := validateLesson(tier, l); err != nil {
				return nil, err
			}
			if _, dup := idx[l.ID]; dup {
				return nil, errors.Errorf("tier %q: duplicate lesson id %q", tier, l.ID)
			}
			if l.IsFinalTestForCourse {
				if finalSeen {
					return nil, errors.Errorf("tier %q: more than one final test", tier)
				}
				if i != len(lessons)-1 {
					return nil, errors.Errorf("tier %q: final test %q is not the last lesson", tier, l.ID)
				}
				finalSeen = true
			}
			idx[l.ID] = i
		}
		c.tiers[tier] = lessons
		c.index[tier] = idx
	}
	return c, nil
}

func validateLesson(tier string, l Lesson) error {
	if l.ID == "" {
		return errors.Errorf("tier %q: lesson with empty id", tier)
	}
	switch l.Type {
	case TypePlacement, TypeLesson, TypeTest:
	default:
		return errors.Errorf("tier %q: lesson %q has unknown type %q", tier, l.ID, l.Type)
	}
	if l.PassingScore != nil {
		if !l.IsTest() {
			return errors.Errorf("tier %q: lesson %q has a passing score but is not a test", tier, l.ID)
		}
		if *l.PassingScore <= 0 || *l.PassingScore > len(l.Quiz) {
			return errors.Errorf("tier %q: test %q passing score %d out of range", tier, l.ID, *l.PassingScore)
		}
	}
	for i, q := range l.Quiz {
		if len(q.Options) < 2 {
			return errors.Errorf("tier %q: lesson %q question %d needs at least 2 options", tier, l.ID, i)
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return errors.Errorf("tier %q: lesson %q question %d answer out of range", tier, l.ID, i)
		}
	}
	return nil
}

// Load reads and validates the embedded per-tier catalog files.
func Load() (*Catalog, error) {
	entries, err := fs.ReadDir(appfs.FS, catalogRoot)
	if err != nil {
		return nil, errors.Wrap(err, "reading catalog dir")
	}

	tiers := make(map[string][]Lesson)
	for _, entry := range entries {
		name := entry.Name()
		if !(strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
			continue
		}
		data, err := fs.ReadFile(appfs.FS, path.Join(catalogRoot, name))
		if err != nil {
			return nil, errors.Wrapf(err, "reading catalog file %s", name)
		}
		var tf tierFile
		if err = yaml.Unmarshal(data, &tf); err != nil {
			return nil, errors.Wrapf(err, "parsing catalog file %s", name)
		}
		tiers[tf.Tier] = tf.Lessons
	}
	return New(tiers)
}

// Lessons returns the ordered lesson list of a tier (nil for unknown tiers).
func (c *Catalog) Lessons(tier string) []Lesson {
	return c.tiers[tier]
}

// Lookup finds a lesson by tier and id.
func (c *Catalog) Lookup(tier, id string) (Lesson, bool) {
	i, ok := c.Position(tier, id)
	if !ok {
		return Lesson{}, false
	}
	return c.tiers[tier][i], true
}

// Position returns the array position of a lesson within its tier.
func (c *Catalog) Position(tier, id string) (int, bool) {
	idx, ok := c.index[tier]
	if !ok {
		return 0, false
	}
	i, ok := idx[id]
	return i, ok
}

// Next returns the lesson immediately following id in its tier's order.
func (c *Catalog) Next(tier, id string) (Lesson, bool) {
	i, ok := c.Position(tier, id)
	if !ok || i+1 >= len(c.tiers[tier]) {
		return Lesson{}, false
	}
	return c.tiers[tier][i+1], true
}

// IsLast reports whether id is the last lesson of its tier.
func (c *Catalog) IsLast(tier, id string) bool {
	i, ok := c.Position(tier, id)
	return ok && i == len(c.tiers[tier])-1
}

// FinalTest returns the lesson whose pass unlocks the next tier.
func (c *Catalog) FinalTest(tier string) (Lesson, bool) {
	for _, l := range c.tiers[tier] {
		if l.IsFinalTestForCourse {
			return l, true
		}
	}
	return Lesson{}, false
}

// EntryRoute returns the frontend route of a tier's course entry point.
func EntryRoute(tier string) string {
	return fmt.Sprintf("/learning/%s", tier)
}
