// Package feedback refines a learning path from per-skill learner ratings.
//
// Two pure functions share one input: Fallback applies the deterministic
// transformation, ApplyGenerated repairs a generative refinement. Engine
// chooses between them.
package feedback

import (
	"sort"
	"strings"

	"github.com/okian/auralearn/internal/domain/model"
)

// Categorize splits ratings into buckets. Unknown ratings mean "keep" and
// are ignored. Skills are sorted so the result is deterministic.
//
// Skill identity is case-insensitive: keys that fold to the same name rate
// one skill, and the first of them in sorted order decides its bucket. A
// blank key names no skill and is skipped, so the bucket total equals the
// number of distinct non-blank skills with a known rating.
func Categorize(rec model.FeedbackRecord) model.FeedbackCategorized {
	out := model.FeedbackCategorized{
		AlreadyKnown:    []string{},
		TooAdvanced:     []string{},
		NotRelevant:     []string{},
		WantMore:        []string{},
		GeneralFeedback: strings.TrimSpace(rec.GeneralFeedback),
	}

	skills := make([]string, 0, len(rec.SkillFeedback))
	for s := range rec.SkillFeedback {
		skills = append(skills, s)
	}
	sort.Strings(skills)

	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		name := strings.TrimSpace(skill)
		if name == "" {
			continue
		}
		if _, dup := seen[model.Fold(name)]; dup {
			continue
		}
		seen[model.Fold(name)] = struct{}{}
		switch ParseRating(rec.SkillFeedback[skill]) {
		case model.RatingAlreadyKnown:
			out.AlreadyKnown = append(out.AlreadyKnown, name)
		case model.RatingTooAdvanced:
			out.TooAdvanced = append(out.TooAdvanced, name)
		case model.RatingNotRelevant:
			out.NotRelevant = append(out.NotRelevant, name)
		case model.RatingWantMore:
			out.WantMore = append(out.WantMore, name)
		}
	}
	return out
}

// ParseRating accepts "Already Known", "already-known" and "already_known"
// alike. It returns "" for anything else.
func ParseRating(s string) model.Rating {
	r := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch model.Rating(r) {
	case model.RatingAlreadyKnown, model.RatingTooAdvanced, model.RatingNotRelevant, model.RatingWantMore:
		return model.Rating(r)
	default:
		return ""
	}
}

// Summarize counts the buckets. expanded is false when no expansion ran.
func Summarize(cat model.FeedbackCategorized, expanded bool) model.FeedbackSummary {
	s := model.FeedbackSummary{
		SkillsRemoved:  len(cat.AlreadyKnown) + len(cat.NotRelevant),
		SkillsAdjusted: len(cat.TooAdvanced),
	}
	if expanded {
		s.TopicsExpanded = len(cat.WantMore)
	}
	return s
}
