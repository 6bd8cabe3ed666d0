package progress

import (
	"testing"

	"github.com/codesage/codesage/core/catalog"
)

func intPtr(n int) *int { return &n }

func quiz(n int) []catalog.Question {
	qs := make([]catalog.Question, n)
	for i := range qs {
		qs[i] = catalog.Question{Prompt: "q", Options: []string{"a", "b"}, Answer: 0}
	}
	return qs
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(map[string][]catalog.Lesson{
		catalog.TierBeginner: {
			{ID: "b1", Type: catalog.TypeLesson, Title: "B1", Quiz: quiz(3)},
			{ID: "b2", Type: catalog.TypeLesson, Title: "B2"}, // content-only
			{ID: "b3", Type: catalog.TypeLesson, Title: "B3", Quiz: quiz(3)},
			{ID: "b-final", Type: catalog.TypeTest, Title: "B Final", Quiz: quiz(6), IsFinalTestForCourse: true},
		},
		catalog.TierIntermediate: {
			{ID: "i1", Type: catalog.TypeLesson, Title: "I1", Quiz: quiz(3)},
			{ID: "i-check", Type: catalog.TypeTest, Title: "Checkpoint", Quiz: quiz(10), PassingScore: intPtr(8)},
			{ID: "i-final", Type: catalog.TypeTest, Title: "I Final", Quiz: quiz(6), IsFinalTestForCourse: true},
		},
		catalog.TierAdvanced: {
			{ID: "a1", Type: catalog.TypeLesson, Title: "A1", Quiz: quiz(3)},
			{ID: "a-final", Type: catalog.TypeTest, Title: "A Final", Quiz: quiz(6), IsFinalTestForCourse: true},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New() failed: %v", err)
	}
	return cat
}

func passedSet(ids ...string) PassedSet {
	ps := make(PassedSet, len(ids))
	for _, id := range ids {
		ps[id] = struct{}{}
	}
	return ps
}

func TestEvaluateCompletion(t *testing.T) {
	quizLesson := catalog.Lesson{ID: "l", Type: catalog.TypeLesson, Quiz: quiz(3)}
	contentLesson := catalog.Lesson{ID: "c", Type: catalog.TypeLesson}
	absTest := catalog.Lesson{ID: "t", Type: catalog.TypeTest, Quiz: quiz(10), PassingScore: intPtr(8)}

	tests := []struct {
		name           string
		lesson         catalog.Lesson
		rawScore       int
		totalQuestions int
		want           Evaluation
		wantErr        error
	}{
		{name: "perfect score passes", lesson: quizLesson, rawScore: 3, totalQuestions: 3, want: Evaluation{Score: 1, Passed: true}},
		{name: "two of three passes at the boundary", lesson: quizLesson, rawScore: 2, totalQuestions: 3, want: Evaluation{Score: 2.0 / 3.0, Passed: true}},
		{name: "one of three fails", lesson: quizLesson, rawScore: 1, totalQuestions: 3, want: Evaluation{Score: 1.0 / 3.0, Passed: false}},
		{name: "zero of three fails", lesson: quizLesson, rawScore: 0, totalQuestions: 3, want: Evaluation{Score: 0, Passed: false}},
		{name: "six of ten fails the percentage threshold", lesson: quizLesson, rawScore: 6, totalQuestions: 10, want: Evaluation{Score: 0.6, Passed: false}},
		{name: "seven of ten passes the percentage threshold", lesson: quizLesson, rawScore: 7, totalQuestions: 10, want: Evaluation{Score: 0.7, Passed: true}},

		{name: "content-only mark complete auto-passes", lesson: contentLesson, rawScore: 0, totalQuestions: 0, want: Evaluation{Score: 1, Passed: true}},
		{name: "mark complete rejected for a quiz lesson", lesson: quizLesson, rawScore: 0, totalQuestions: 0, wantErr: ErrInvalidScore},

		{name: "absolute test stores the raw score on a pass", lesson: absTest, rawScore: 8, totalQuestions: 10, want: Evaluation{Score: 8, Passed: true}},
		{name: "absolute test fails one below the threshold", lesson: absTest, rawScore: 7, totalQuestions: 10, want: Evaluation{Score: 7, Passed: false}},
		{name: "absolute test perfect score", lesson: absTest, rawScore: 10, totalQuestions: 10, want: Evaluation{Score: 10, Passed: true}},
		{name: "absolute test score above question count", lesson: absTest, rawScore: 11, totalQuestions: 10, wantErr: ErrInvalidScore},

		{name: "negative score", lesson: quizLesson, rawScore: -1, totalQuestions: 3, wantErr: ErrInvalidScore},
		{name: "score above total", lesson: quizLesson, rawScore: 4, totalQuestions: 3, wantErr: ErrInvalidScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateCompletion(tt.lesson, tt.rawScore, tt.totalQuestions)
			if err != tt.wantErr {
				t.Fatalf("EvaluateCompletion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("EvaluateCompletion() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewPassedSet(t *testing.T) {
	lessons := []catalog.Lesson{
		{ID: "l1", Type: catalog.TypeLesson, Quiz: quiz(3)},
		{ID: "l2", Type: catalog.TypeLesson, Quiz: quiz(3)},
		{ID: "t1", Type: catalog.TypeTest, Quiz: quiz(10), PassingScore: intPtr(8)},
	}
	scores := map[string]float64{
		"l1":      2.0 / 3.0, // boundary pass
		"l2":      0.5,       // fail
		"t1":      8,         // raw score, absolute pass
		"unknown": 1,         // not in the tier, ignored
	}
	ps := NewPassedSet(lessons, scores)
	if !ps.Has("l1") {
		t.Error("l1 should be in the passed set")
	}
	if ps.Has("l2") {
		t.Error("l2 should not be in the passed set")
	}
	if !ps.Has("t1") {
		t.Error("t1 should be in the passed set")
	}
	if ps.Has("unknown") {
		t.Error("unknown should not be in the passed set")
	}
	if len(ps.IDs()) != 2 {
		t.Errorf("IDs() len = %d, want 2", len(ps.IDs()))
	}
}

func TestReachable(t *testing.T) {
	cat := newTestCatalog(t)
	lessons := cat.Lessons(catalog.TierBeginner)

	tests := []struct {
		name   string
		passed PassedSet
		id     string
		want   bool
	}{
		{name: "first lesson always unlocked", passed: passedSet(), id: "b1", want: true},
		{name: "second lesson locked initially", passed: passedSet(), id: "b2", want: false},
		{name: "second lesson unlocked by passing the first", passed: passedSet("b1"), id: "b2", want: true},
		{name: "skipping ahead stays locked", passed: passedSet("b1"), id: "b3", want: false},
		{name: "final test unlocked by its predecessor", passed: passedSet("b1", "b2", "b3"), id: "b-final", want: true},
		{name: "passed lesson remains reachable for review", passed: passedSet("b1", "b2"), id: "b2", want: true},
		{name: "unknown lesson", passed: passedSet("b1"), id: "nope", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reachable(lessons, tt.passed, tt.id); got != tt.want {
				t.Errorf("Reachable(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestNextDestination(t *testing.T) {
	cat := newTestCatalog(t)

	lookup := func(tier, id string) catalog.Lesson {
		l, ok := cat.Lookup(tier, id)
		if !ok {
			t.Fatalf("lesson %s/%s not in test catalog", tier, id)
		}
		return l
	}

	tests := []struct {
		name   string
		tier   string
		lesson catalog.Lesson
		passed bool
		want   Destination
	}{
		{
			name: "fail stays on the lesson",
			tier: catalog.TierBeginner, lesson: lookup(catalog.TierBeginner, "b1"), passed: false,
			want: Destination{Kind: DestStay, LessonID: "b1", Message: "You need at least 67% to pass."},
		},
		{
			name: "fail on an absolute test names the threshold",
			tier: catalog.TierIntermediate, lesson: lookup(catalog.TierIntermediate, "i-check"), passed: false,
			want: Destination{Kind: DestStay, LessonID: "i-check", Message: "You need a score of at least 8 to pass."},
		},
		{
			name: "pass advances to the next lesson",
			tier: catalog.TierBeginner, lesson: lookup(catalog.TierBeginner, "b1"), passed: true,
			want: Destination{Kind: DestLesson, LessonID: "b2"},
		},
		{
			name: "passing the final test advances to the next course",
			tier: catalog.TierBeginner, lesson: lookup(catalog.TierBeginner, "b-final"), passed: true,
			want: Destination{Kind: DestCourse, Route: "/learning/intermediate"},
		},
		{
			name: "passing the last tier's final test goes to the dashboard",
			tier: catalog.TierAdvanced, lesson: lookup(catalog.TierAdvanced, "a-final"), passed: true,
			want: Destination{Kind: DestDashboard, Route: DashboardRoute},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDestination(cat, tt.tier, tt.lesson, tt.passed); got != tt.want {
				t.Errorf("NextDestination() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveEntry(t *testing.T) {
	cat := newTestCatalog(t)

	tests := []struct {
		name         string
		tier         string
		passedByTier map[string]PassedSet
		want         Entry
	}{
		{
			name: "beginner open to a new user",
			tier: catalog.TierBeginner,
			passedByTier: map[string]PassedSet{
				catalog.TierBeginner: passedSet(), catalog.TierIntermediate: passedSet(), catalog.TierAdvanced: passedSet(),
			},
			want: Entry{Allow: true},
		},
		{
			name: "intermediate locked without the beginner final",
			tier: catalog.TierIntermediate,
			passedByTier: map[string]PassedSet{
				catalog.TierBeginner: passedSet("b1", "b2", "b3"), catalog.TierIntermediate: passedSet(), catalog.TierAdvanced: passedSet(),
			},
			want: Entry{RedirectTo: "/learning/beginner"},
		},
		{
			name: "intermediate open once the beginner final passes",
			tier: catalog.TierIntermediate,
			passedByTier: map[string]PassedSet{
				catalog.TierBeginner: passedSet("b-final"), catalog.TierIntermediate: passedSet(), catalog.TierAdvanced: passedSet(),
			},
			want: Entry{Allow: true},
		},
		{
			name: "advanced redirects to the earliest incomplete tier",
			tier: catalog.TierAdvanced,
			passedByTier: map[string]PassedSet{
				catalog.TierBeginner: passedSet(), catalog.TierIntermediate: passedSet(), catalog.TierAdvanced: passedSet(),
			},
			want: Entry{RedirectTo: "/learning/beginner"},
		},
		{
			name: "advanced redirects to intermediate when only it remains",
			tier: catalog.TierAdvanced,
			passedByTier: map[string]PassedSet{
				catalog.TierBeginner: passedSet("b-final"), catalog.TierIntermediate: passedSet("i1"), catalog.TierAdvanced: passedSet(),
			},
			want: Entry{RedirectTo: "/learning/intermediate"},
		},
		{
			name: "completed tier redirects forward",
			tier: catalog.TierBeginner,
			passedByTier: map[string]PassedSet{
				catalog.TierBeginner: passedSet("b-final"), catalog.TierIntermediate: passedSet(), catalog.TierAdvanced: passedSet(),
			},
			want: Entry{RedirectTo: "/learning/intermediate"},
		},
		{
			name: "fully completed last tier stays enterable",
			tier: catalog.TierAdvanced,
			passedByTier: map[string]PassedSet{
				catalog.TierBeginner: passedSet("b-final"), catalog.TierIntermediate: passedSet("i-final"), catalog.TierAdvanced: passedSet("a-final"),
			},
			want: Entry{Allow: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveEntry(cat, tt.tier, tt.passedByTier); got != tt.want {
				t.Errorf("ResolveEntry() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPickInitialLesson(t *testing.T) {
	cat := newTestCatalog(t)
	lessons := cat.Lessons(catalog.TierBeginner)

	tests := []struct {
		name   string
		passed PassedSet
		cursor string
		want   string
	}{
		{name: "new user starts at the first lesson", passed: passedSet(), cursor: "", want: "b1"},
		{name: "no cursor resumes at the first unpassed lesson", passed: passedSet("b1", "b2"), cursor: "", want: "b3"},
		{name: "everything passed lands on the last lesson", passed: passedSet("b1", "b2", "b3", "b-final"), cursor: "", want: "b-final"},
		{name: "unpassed cursor wins over the first unpassed lesson", passed: passedSet(), cursor: "b2", want: "b2"},
		{name: "passed cursor auto-advances", passed: passedSet("b1"), cursor: "b1", want: "b2"},
		{name: "passed mid-tier cursor advances past itself", passed: passedSet("b1", "b2"), cursor: "b2", want: "b3"},
		{name: "passed last lesson does not advance", passed: passedSet("b1", "b2", "b3", "b-final"), cursor: "b-final", want: "b-final"},
		{name: "stale cursor is ignored", passed: passedSet("b1"), cursor: "gone", want: "b2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickInitialLesson(lessons, tt.passed, tt.cursor); got != tt.want {
				t.Errorf("PickInitialLesson() = %q, want %q", got, tt.want)
			}
		})
	}
}
