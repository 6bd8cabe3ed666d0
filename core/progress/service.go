package progress

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/core/catalog"
	"github.com/codesage/codesage/core/user"
)

type (
	Repository interface {
		// GetProgress returns all stored scores of a user within a tier,
		// keyed by lesson id.
		GetProgress(ctx context.Context, userID, tier string) (map[string]float64, error)
		// SetProgress overwrites the stored score (last write wins).
		SetProgress(ctx context.Context, rec Record) error
		// ResetProgress deletes stored scores; empty lessonIDs means all of
		// the user's records in the tier.
		ResetProgress(ctx context.Context, userID, tier string, lessonIDs []string) error
	}

	// CursorCache remembers the last-viewed lesson per course tier.
	// Best-effort: entries may be absent, stale or cleared at any time.
	CursorCache interface {
		GetCursor(ctx context.Context, userID, tier string) (string, error)
		SetCursor(ctx context.Context, userID, tier, lessonID string) error
	}

	// ActivityRecorder appends lesson completions to a team's activity feed.
	ActivityRecorder interface {
		RecordLessonCompletion(ctx context.Context, teamID, userID, userName, lessonTitle string) error
	}

	// Enqueuer schedules best-effort side effects off the request path.
	Enqueuer interface {
		Enqueue(name string, fn func(context.Context) error)
	}

	Service struct {
		cat      *catalog.Catalog
		repo     Repository
		cursors  CursorCache
		activity ActivityRecorder
		tasks    Enqueuer
		mailSvc  core.EmailService
		logger   core.Logger
	}

	// CompletionResult is what the API returns for a completion attempt.
	CompletionResult struct {
		Evaluation
		Destination Destination `json:"destination"`
	}

	// TierProgress summarizes a user's progress within one tier.
	TierProgress struct {
		Tier      string   `json:"tier"`
		Passed    int      `json:"passed"`
		Total     int      `json:"total"`
		PassedIDs []string `json:"passed_ids"`
	}
)

func NewService(
	cat *catalog.Catalog,
	repo Repository,
	cursors CursorCache,
	activity ActivityRecorder,
	tasks Enqueuer,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		cat:      cat,
		repo:     repo,
		cursors:  cursors,
		activity: activity,
		tasks:    tasks,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// PassedSet derives the user's passed-set for a tier from stored scores.
func (svc *Service) PassedSet(ctx context.Context, userID, tier string) (PassedSet, error) {
	scores, err := svc.repo.GetProgress(ctx, userID, tier)
	if err != nil {
		return nil, errors.Wrap(err, "getting progress")
	}
	return NewPassedSet(svc.cat.Lessons(tier), scores), nil
}

// Complete evaluates a completion attempt, persists the score and decides
// where the learner goes next. The progress write is awaited; the activity
// append and the opt-in notification email are queued best-effort and can
// never affect the returned decision.
func (svc *Service) Complete(ctx context.Context, usr user.User, tier, lessonID string, rawScore, totalQuestions int) (CompletionResult, error) {
	lesson, ok := svc.cat.Lookup(tier, lessonID)
	if !ok {
		return CompletionResult{}, ErrUnknownLesson
	}

	passed, err := svc.PassedSet(ctx, usr.ID, tier)
	if err != nil {
		return CompletionResult{}, err
	}
	if !Reachable(svc.cat.Lessons(tier), passed, lessonID) {
		return CompletionResult{}, ErrLessonLocked
	}

	eval, err := EvaluateCompletion(lesson, rawScore, totalQuestions)
	if err != nil {
		return CompletionResult{}, err
	}

	firstPass := eval.Passed && !passed.Has(lessonID)

	// retakes always overwrite, never average or keep max
	rec := Record{
		UserID:    usr.ID,
		Tier:      tier,
		LessonID:  lessonID,
		Score:     eval.Score,
		UpdatedAt: time.Now().UTC(),
	}
	if err = svc.repo.SetProgress(ctx, rec); err != nil {
		return CompletionResult{}, errors.Wrap(err, "setting progress")
	}

	if firstPass {
		svc.queueSideEffects(usr, lesson)
	}

	return CompletionResult{
		Evaluation:  eval,
		Destination: NextDestination(svc.cat, tier, lesson, eval.Passed),
	}, nil
}

// queueSideEffects schedules the first-pass side effects: the team activity
// entry and, for opted-in users, a lesson-complete email.
func (svc *Service) queueSideEffects(usr user.User, lesson catalog.Lesson) {
	if usr.TeamID != "" {
		teamID := usr.TeamID
		svc.tasks.Enqueue("activity:lesson_completion", func(ctx context.Context) error {
			return svc.activity.RecordLessonCompletion(ctx, teamID, usr.ID, usr.Name, lesson.Title)
		})
	}

	if usr.EmailOptIn {
		svc.tasks.Enqueue("email:lesson_complete", func(ctx context.Context) error {
			svc.mailSvc.SendMessages(&core.EmailMessage{
				To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
				Subject:      fmt.Sprintf("Lesson complete: %s", lesson.Title),
				TemplateName: "lesson_complete",
				TemplateData: struct{ Name, LessonTitle string }{usr.Name, lesson.Title},
			})
			return nil
		})
	}
}

// Entry resolves the course gate for a tier entry point.
func (svc *Service) Entry(ctx context.Context, userID, tier string) (Entry, error) {
	if !catalog.ValidTier(tier) {
		return Entry{}, ErrUnknownLesson
	}

	passedByTier := make(map[string]PassedSet, len(catalog.Tiers))
	for _, t := range catalog.Tiers {
		ps, err := svc.PassedSet(ctx, userID, t)
		if err != nil {
			return Entry{}, err
		}
		passedByTier[t] = ps
	}
	return ResolveEntry(svc.cat, tier, passedByTier), nil
}

// InitialLesson picks the lesson to show when a course loads, consulting the
// best-effort cursor cache. Cache failures count as an absent cursor.
func (svc *Service) InitialLesson(ctx context.Context, userID, tier string) (string, error) {
	passed, err := svc.PassedSet(ctx, userID, tier)
	if err != nil {
		return "", err
	}

	cursor, err := svc.cursors.GetCursor(ctx, userID, tier)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("reading resume cursor: %v", err), err)
		cursor = ""
	}
	return PickInitialLesson(svc.cat.Lessons(tier), passed, cursor), nil
}

// SetCursor records the last-viewed lesson of a tier. Best-effort: a cache
// failure is logged, never surfaced.
func (svc *Service) SetCursor(ctx context.Context, userID, tier, lessonID string) error {
	if _, ok := svc.cat.Lookup(tier, lessonID); !ok {
		return ErrUnknownLesson
	}
	if err := svc.cursors.SetCursor(ctx, userID, tier, lessonID); err != nil {
		svc.logger.Warn(fmt.Sprintf("writing resume cursor: %v", err), err)
	}
	return nil
}

// Summary reports per-tier progress for the dashboard.
func (svc *Service) Summary(ctx context.Context, userID string) ([]TierProgress, error) {
	out := make([]TierProgress, 0, len(catalog.Tiers))
	for _, tier := range catalog.Tiers {
		passed, err := svc.PassedSet(ctx, userID, tier)
		if err != nil {
			return nil, err
		}
		out = append(out, TierProgress{
			Tier:      tier,
			Passed:    len(passed),
			Total:     len(svc.cat.Lessons(tier)),
			PassedIDs: passed.IDs(),
		})
	}
	return out, nil
}

// Reset deletes stored progress; empty lessonIDs clears the whole tier.
func (svc *Service) Reset(ctx context.Context, userID, tier string, lessonIDs []string) error {
	if !catalog.ValidTier(tier) {
		return ErrUnknownLesson
	}
	return svc.repo.ResetProgress(ctx, userID, tier, lessonIDs)
}
