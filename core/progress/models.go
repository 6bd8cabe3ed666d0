package progress

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/catalog"
)

// DefaultPassRatio is the pass threshold for percentage-graded lessons.
// Global policy: tests override it with an absolute Lesson.PassingScore, not
// with a per-lesson ratio.
const DefaultPassRatio = 2.0 / 3.0

// DashboardRoute is the generic completion destination.
const DashboardRoute = "/dashboard"

var (
	// errors
	ErrUnknownLesson = errors.New("lesson not found in catalog")
	ErrLessonLocked  = errors.New("lesson is locked")
	ErrInvalidScore  = errors.New("invalid score")
)

type (
	// Record is one user's stored score for one lesson. Score is a ratio in
	// [0,1] for percentage-graded lessons, or a raw integer count for tests
	// with an absolute passing score. Retakes overwrite.
	Record struct {
		UserID    string    `json:"user_id"`
		Tier      string    `json:"tier"`
		LessonID  string    `json:"lesson_id"`
		Score     float64   `json:"score"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// PassedSet is the set of lesson ids whose stored score meets the
	// applicable threshold. Derived from stored scores, never stored itself.
	PassedSet map[string]struct{}

	// Evaluation is the outcome of scoring a completion attempt.
	Evaluation struct {
		Score  float64 `json:"score"`
		Passed bool    `json:"passed"`
	}
)

func (ps PassedSet) Has(id string) bool {
	_, ok := ps[id]
	return ok
}

func (ps PassedSet) add(id string) {
	ps[id] = struct{}{}
}

// IDs returns the member lesson ids (unordered).
func (ps PassedSet) IDs() []string {
	ids := make([]string, 0, len(ps))
	for id := range ps {
		ids = append(ids, id)
	}
	return ids
}

// MeetsThreshold reports whether a stored score passes the given lesson.
func MeetsThreshold(l catalog.Lesson, score float64) bool {
	if l.PassingScore != nil {
		return score >= float64(*l.PassingScore)
	}
	return score >= DefaultPassRatio
}

// NewPassedSet derives the passed-set of a tier from stored scores.
func NewPassedSet(lessons []catalog.Lesson, scores map[string]float64) PassedSet {
	ps := make(PassedSet, len(scores))
	for _, l := range lessons {
		if score, ok := scores[l.ID]; ok && MeetsThreshold(l, score) {
			ps.add(l.ID)
		}
	}
	return ps
}

// EvaluateCompletion scores a completion attempt.
//
// Percentage-graded lessons normalize rawScore/totalQuestions and pass at
// DefaultPassRatio; a totalQuestions of 0 is the manual mark-complete path
// for content-only lessons and is an automatic pass with score 1. Tests with
// an absolute PassingScore persist the raw integer score un-normalized and
// pass when rawScore >= PassingScore.
func EvaluateCompletion(l catalog.Lesson, rawScore, totalQuestions int) (Evaluation, error) {
	if rawScore < 0 {
		return Evaluation{}, ErrInvalidScore
	}

	if l.PassingScore != nil {
		if rawScore > len(l.Quiz) {
			return Evaluation{}, ErrInvalidScore
		}
		return Evaluation{
			Score:  float64(rawScore),
			Passed: rawScore >= *l.PassingScore,
		}, nil
	}

	if totalQuestions == 0 {
		if l.HasQuiz() {
			return Evaluation{}, ErrInvalidScore
		}
		return Evaluation{Score: 1, Passed: true}, nil
	}
	if rawScore > totalQuestions {
		return Evaluation{}, ErrInvalidScore
	}

	score := float64(rawScore) / float64(totalQuestions)
	return Evaluation{
		Score:  score,
		Passed: score >= DefaultPassRatio,
	}, nil
}

// Destination kinds
const (
	DestStay      = "stay"      // failed, remain on the current lesson
	DestLesson    = "lesson"    // advance to the next lesson of the tier
	DestCourse    = "course"    // advance to the next course tier
	DestDashboard = "dashboard" // tier complete, go to the dashboard
)

// Destination is the navigation decision made after an evaluation.
type Destination struct {
	Kind     string `json:"kind"`
	LessonID string `json:"lesson_id,omitempty"`
	Route    string `json:"route,omitempty"`
	Message  string `json:"message,omitempty"`
}

// NextDestination decides where the learner goes after an evaluation.
// Called with the lesson that was just evaluated; never fails.
func NextDestination(cat *catalog.Catalog, tier string, l catalog.Lesson, passed bool) Destination {
	if !passed {
		var msg string
		if l.PassingScore != nil {
			msg = fmt.Sprintf("You need a score of at least %d to pass.", *l.PassingScore)
		} else {
			msg = "You need at least 67% to pass."
		}
		return Destination{Kind: DestStay, LessonID: l.ID, Message: msg}
	}

	if l.IsFinalTestForCourse {
		if next := catalog.NextTier(tier); next != "" {
			return Destination{Kind: DestCourse, Route: catalog.EntryRoute(next)}
		}
	}
	if next, ok := cat.Next(tier, l.ID); ok {
		return Destination{Kind: DestLesson, LessonID: next.ID}
	}
	return Destination{Kind: DestDashboard, Route: DashboardRoute}
}

// Entry is the course-gate decision for a tier entry point.
type Entry struct {
	Allow      bool   `json:"allow"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// ResolveEntry gates entry into a course tier. The chain is strictly linear:
// a tier is enterable only when the previous tier's final test is passed, and
// an already-completed tier redirects forward to the next one.
func ResolveEntry(cat *catalog.Catalog, tier string, passedByTier map[string]PassedSet) Entry {
	finalPassed := func(t string) bool {
		ft, ok := cat.FinalTest(t)
		if !ok {
			return false
		}
		return passedByTier[t].Has(ft.ID)
	}

	// redirect back to the earliest incomplete prerequisite tier
	for prev := catalog.PrevTier(tier); prev != ""; prev = catalog.PrevTier(prev) {
		if !finalPassed(prev) {
			redirect := prev
			for earlier := catalog.PrevTier(prev); earlier != ""; earlier = catalog.PrevTier(earlier) {
				if !finalPassed(earlier) {
					redirect = earlier
				}
			}
			return Entry{RedirectTo: catalog.EntryRoute(redirect)}
		}
	}

	// redirect forward out of a completed tier
	if finalPassed(tier) {
		if next := catalog.NextTier(tier); next != "" {
			return Entry{RedirectTo: catalog.EntryRoute(next)}
		}
	}
	return Entry{Allow: true}
}

// PickInitialLesson selects the lesson to show when a course loads.
//
// A cached cursor referring to this tier wins: if that lesson has since been
// passed and is not the last one, auto-advance to the one after it, otherwise
// resume on the cursor itself (reviewing a passed lesson is allowed). With no
// usable cursor, resume on the first unpassed lesson, or the last lesson when
// everything is passed.
func PickInitialLesson(lessons []catalog.Lesson, passed PassedSet, cachedCursorID string) string {
	if len(lessons) == 0 {
		return ""
	}

	if cachedCursorID != "" {
		for i, l := range lessons {
			if l.ID != cachedCursorID {
				continue
			}
			if passed.Has(l.ID) && i+1 < len(lessons) {
				return lessons[i+1].ID
			}
			return l.ID
		}
		// cursor references an unknown lesson: ignore it
	}

	for _, l := range lessons {
		if !passed.Has(l.ID) {
			return l.ID
		}
	}
	return lessons[len(lessons)-1].ID
}

// Reachable reports whether a lesson is unlocked: the first lesson always is,
// any other only when its predecessor is passed.
func Reachable(lessons []catalog.Lesson, passed PassedSet, id string) bool {
	for i, l := range lessons {
		if l.ID == id {
			return i == 0 || passed.Has(lessons[i-1].ID)
		}
	}
	return false
}
