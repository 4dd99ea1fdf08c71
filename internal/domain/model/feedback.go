package model

// Rating is the per-skill verdict a learner gives.
type Rating string

const (
	RatingAlreadyKnown Rating = "already_known"
	RatingTooAdvanced  Rating = "too_advanced"
	RatingNotRelevant  Rating = "not_relevant"
	RatingWantMore     Rating = "want_more"
)

// FeedbackRecord is the raw feedback as submitted by a caller.
type FeedbackRecord struct {
	SkillFeedback   map[string]string `json:"skill_feedback"`
	GeneralFeedback string            `json:"general_feedback"`
}

// FeedbackCategorized splits ratings into four mutually exclusive buckets.
type FeedbackCategorized struct {
	AlreadyKnown    []string `json:"already_known"`
	TooAdvanced     []string `json:"too_advanced"`
	NotRelevant     []string `json:"not_relevant"`
	WantMore        []string `json:"want_more"`
	GeneralFeedback string   `json:"general_feedback"`
}

// Total counts the categorized skills.
func (f FeedbackCategorized) Total() int {
	return len(f.AlreadyKnown) + len(f.TooAdvanced) + len(f.NotRelevant) + len(f.WantMore)
}

// Removal reports whether skill must leave the path, and under which rating.
func (f FeedbackCategorized) Removal(skill string) (Rating, bool) {
	if SkillSet(f.AlreadyKnown).Contains(skill) {
		return RatingAlreadyKnown, true
	}
	if SkillSet(f.NotRelevant).Contains(skill) {
		return RatingNotRelevant, true
	}
	return "", false
}

// RefinedPath is a revised path with its changelog kept apart from the stages.
type RefinedPath struct {
	Path        LearningPath `json:"path"`
	ChangesMade []string     `json:"changes_made"`
}

// FeedbackSummary is computed from the buckets, never from generated output.
type FeedbackSummary struct {
	SkillsRemoved  int `json:"skills_removed"`
	SkillsAdjusted int `json:"skills_adjusted"`
	TopicsExpanded int `json:"topics_expanded"`
}

// RefinementMode tells whether the generative or the deterministic path ran.
type RefinementMode string

const (
	RefinementGenerative RefinementMode = "generative"
	RefinementFallback   RefinementMode = "fallback"
)

// RefinementResult is returned by a refinement call. The refined path is a
// proposal; it only becomes current when committed.
type RefinementResult struct {
	Status            Status              `json:"status"`
	RefinedPath       RefinedPath         `json:"refined_path"`
	FeedbackProcessed FeedbackSummary     `json:"feedback_processed"`
	Categorized       FeedbackCategorized `json:"categorized"`
	Mode              RefinementMode      `json:"mode"`
	PathID            string              `json:"path_id,omitempty"`
	ProposalID        string              `json:"proposal_id,omitempty"`
}
