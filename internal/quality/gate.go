// Package quality scores newly authored course submissions and decides
// whether they are routed to human review or rejected outright.
package quality

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Gate evaluates submissions against Rules. It holds no mutable state and
// is safe for concurrent use.
type Gate struct {
	lookup Lookup
	rules  Rules
}

// NewGate creates a quality gate reading corpus and profiles from lookup.
func NewGate(lookup Lookup, rules Rules) *Gate {
	return &Gate{lookup: lookup, rules: rules}
}

// Rules returns the rules the gate scores with.
func (g *Gate) Rules() Rules {
	return g.rules
}

// Evaluate fetches the prior-course corpus and the instructor profile in
// parallel, then scores the submission. A lookup that fails at the data
// layer is returned as a *FetchError unless the rules are lenient.
func (g *Gate) Evaluate(ctx context.Context, sub Submission, instructorID string) (Result, error) {
	var (
		corpus  []PriorCourse
		profile Profile
	)

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		c, err := g.lookup.OtherInstructorCourses(gctx, instructorID)
		if err != nil {
			return g.lookupFailed("corpus", instructorID, err)
		}
		corpus = c
		return nil
	})
	grp.Go(func() error {
		p, err := g.lookup.InstructorProfile(gctx, instructorID)
		if errors.Is(err, ErrProfileNotFound) {
			return nil
		}
		if err != nil {
			return g.lookupFailed("profile", instructorID, err)
		}
		profile = p
		return nil
	})
	if err := grp.Wait(); err != nil {
		return Result{}, err
	}

	res := Assess(g.rules, sub, corpus, profile)
	slog.Debug("quality gate evaluated",
		"instructor_id", instructorID,
		"score", res.Score,
		"valid", res.IsValid,
		"flags", len(res.Flags),
	)
	return res, nil
}

func (g *Gate) lookupFailed(lookup, instructorID string, err error) error {
	if g.rules.LenientLookups {
		slog.Warn("quality lookup failed, scoring as absent",
			"lookup", lookup,
			"instructor_id", instructorID,
			"error", err,
		)
		return nil
	}
	return &FetchError{Lookup: lookup, Err: err}
}

// Assess scores a submission against already fetched data. Rules run in a
// fixed order and each records its flag when it earns nothing.
func Assess(rules Rules, sub Submission, corpus []PriorCourse, profile Profile) Result {
	w := rules.Weights
	score := 0
	flags := []string{}

	if len(sub.Sections) >= rules.MinSections {
		score += w.Curriculum
	} else {
		flags = append(flags, rules.shortCourseFlag())
	}

	if sub.LectureCount() >= rules.MinLectures {
		score += w.Lectures
	} else {
		flags = append(flags, rules.fewLecturesFlag())
	}

	if sub.ThumbnailURL != "" && sub.PromoVideoURL != "" {
		score += w.Assets
	} else {
		flags = append(flags, FlagMissingAssets)
	}

	// An empty corpus earns neither bonus nor penalty.
	if match, sim, ok := BestMatch(sub.Title, corpus); ok {
		if sim > rules.DuplicateThreshold {
			score -= w.DuplicatePenalty
			flags = append(flags, DuplicateFlag(match.Title))
		} else {
			score += w.Originality
		}
	}

	if profile.Complete() {
		score += w.Instructor
	} else {
		flags = append(flags, FlagProfileIncomplete)
	}

	return Result{
		IsValid: rules.Passes(score),
		Score:   score,
		Flags:   flags,
	}
}
