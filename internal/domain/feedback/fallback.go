package feedback

import (
	"fmt"

	"github.com/okian/auralearn/internal/domain/model"
)

// Fallback applies the deterministic refinement: removals leave the path,
// too-advanced skills move one stage later (advanced ones stay), and
// want-more topics are not expanded. It never drops an unmarked skill.
func Fallback(path model.LearningPath, cat model.FeedbackCategorized) model.RefinedPath {
	out := model.LearningPath{}.Clone()
	for _, st := range model.Stages {
		for _, s := range path.Stage(st) {
			if _, removed := cat.Removal(s); removed {
				continue
			}
			out.SetStage(st, append(out.Stage(st), s))
		}
	}

	for _, skill := range cat.TooAdvanced {
		from, ok := out.StageOf(skill)
		if !ok {
			continue
		}
		to, ok := from.Next()
		if !ok {
			continue
		}
		name := take(&out, from, skill)
		out.SetStage(to, append(out.Stage(to), name))
	}

	return model.RefinedPath{Path: out, ChangesMade: fallbackNotes(cat)}
}

func fallbackNotes(cat model.FeedbackCategorized) []string {
	notes := []string{}
	if n := len(cat.AlreadyKnown); n > 0 {
		notes = append(notes, fmt.Sprintf("Removed %d skills you already know", n))
	}
	if n := len(cat.NotRelevant); n > 0 {
		notes = append(notes, fmt.Sprintf("Removed %d irrelevant skills", n))
	}
	if n := len(cat.TooAdvanced); n > 0 {
		notes = append(notes, fmt.Sprintf("Adjusted %d skills that were too advanced", n))
	}
	return notes
}

// take removes skill from stage st and returns the path's spelling of it.
func take(p *model.LearningPath, st model.Stage, skill string) string {
	skills := p.Stage(st)
	k := model.Fold(skill)
	for i, s := range skills {
		if model.Fold(s) == k {
			rest := append(append([]string{}, skills[:i]...), skills[i+1:]...)
			p.SetStage(st, rest)
			return s
		}
	}
	return skill
}
