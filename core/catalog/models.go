package catalog

// Tiers, in prerequisite order. Passing a tier's final test unlocks the next.
const (
	TierBeginner     = "beginner"
	TierIntermediate = "intermediate"
	TierAdvanced     = "advanced"
)

// Lesson types
const (
	TypePlacement = "placement"
	TypeLesson    = "lesson"
	TypeTest      = "test"
)

// Content block kinds (presentation-only)
const (
	BlockHeading   = "heading"
	BlockParagraph = "paragraph"
	BlockCode      = "code"
	BlockList      = "list"
)

// Tiers lists all tiers in prerequisite order.
var Tiers = []string{TierBeginner, TierIntermediate, TierAdvanced}

type (
	// Block is a single typed content block of a lesson.
	Block struct {
		Kind  string   `json:"kind" yaml:"kind"`
		Text  string   `json:"text,omitempty" yaml:"text,omitempty"`
		Items []string `json:"items,omitempty" yaml:"items,omitempty"`
	}

	// Question is a single quiz item.
	Question struct {
		Prompt      string   `json:"prompt" yaml:"prompt"`
		Options     []string `json:"options" yaml:"options"`
		Answer      int      `json:"answer" yaml:"answer"` // index into Options
		Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	}

	// Lesson is one entry of a tier's ordered lesson list. Lessons with an
	// empty Quiz are satisfied by a manual "mark complete" action.
	Lesson struct {
		ID                   string     `json:"id" yaml:"id"`
		Type                 string     `json:"type" yaml:"type"`
		Title                string     `json:"title" yaml:"title"`
		Content              []Block    `json:"content,omitempty" yaml:"content,omitempty"`
		Quiz                 []Question `json:"quiz,omitempty" yaml:"quiz,omitempty"`
		IsFinalTestForCourse bool       `json:"is_final_test_for_course,omitempty" yaml:"is_final_test_for_course,omitempty"`
		// PassingScore switches pass/fail to an absolute raw-score threshold.
		// Only meaningful on test-type lessons.
		PassingScore *int `json:"passing_score,omitempty" yaml:"passing_score,omitempty"`
	}
)

func (l Lesson) HasQuiz() bool { return len(l.Quiz) > 0 }

func (l Lesson) IsTest() bool { return l.Type == TypeTest }

// ValidTier reports whether t names a known tier.
func ValidTier(t string) bool {
	for _, tier := range Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// NextTier returns the tier unlocked by completing t, or "" for the last tier.
func NextTier(t string) string {
	for i, tier := range Tiers {
		if t == tier && i+1 < len(Tiers) {
			return Tiers[i+1]
		}
	}
	return ""
}

// PrevTier returns the prerequisite tier of t, or "" for the first tier.
func PrevTier(t string) string {
	for i, tier := range Tiers {
		if t == tier && i > 0 {
			return Tiers[i-1]
		}
	}
	return ""
}
