package feedback

import (
	"fmt"
	"strings"

	"github.com/okian/auralearn/internal/domain/grounding"
	"github.com/okian/auralearn/internal/domain/model"
)

// MaxNewPerTopic sizes the addition budget: a refinement may add at most
// MaxNewPerTopic new skills for each want-more topic. The budget is shared by
// all topics, because the supplementary text comes from one retrieval and an
// added skill is not attributed to a single topic. One topic may use it all.
const MaxNewPerTopic = 2

// Generated is the decoded generative refinement.
type Generated struct {
	Foundation   []string `json:"foundation"`
	Intermediate []string `json:"intermediate"`
	Advanced     []string `json:"advanced"`
	ChangesMade  []string `json:"changes_made"`
}

// Path drops the changelog from the stages.
func (g Generated) Path() model.LearningPath {
	return model.LearningPath{Foundation: g.Foundation, Intermediate: g.Intermediate, Advanced: g.Advanced}
}

// ApplyGenerated repairs a generated refinement against the original path.
// Removals are enforced, new skills must occur in the supplementary text and
// fit the shared addition budget, each skill keeps one stage, and original
// skills the generator dropped without being asked are restored. Every
// correction adds a change note after the generator's own notes.
func ApplyGenerated(original model.LearningPath, cat model.FeedbackCategorized, gen Generated, supplementary string) model.RefinedPath {
	idx := grounding.NewIndex(supplementary)
	known := model.NewSkillSet(original.Skills()...)
	budget := MaxNewPerTopic * len(cat.WantMore)

	out := model.LearningPath{}.Clone()
	placed := map[string]struct{}{}
	var notes []string

	generated := gen.Path()
	for _, st := range model.Stages {
		for _, raw := range generated.Stage(st) {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			if r, removed := cat.Removal(name); removed {
				notes = append(notes, fmt.Sprintf("Dropped %q because it was marked %s", name, r))
				continue
			}
			if _, dup := placed[model.Fold(name)]; dup {
				continue
			}
			if canonical, ok := known.Canonical(name); ok {
				name = canonical
			} else {
				if !idx.Contains(name) {
					notes = append(notes, fmt.Sprintf("Dropped %q because the knowledge base does not cover it", name))
					continue
				}
				if budget == 0 {
					notes = append(notes, fmt.Sprintf("Dropped %q to keep additions within %d for %d requested topics",
						name, MaxNewPerTopic*len(cat.WantMore), len(cat.WantMore)))
					continue
				}
				budget--
			}
			placed[model.Fold(name)] = struct{}{}
			out.SetStage(st, append(out.Stage(st), name))
		}
	}

	// Unmarked skills the generator lost go back to where the fallback puts them.
	reference := Fallback(original, cat).Path
	for _, st := range model.Stages {
		for _, name := range reference.Stage(st) {
			if _, ok := placed[model.Fold(name)]; ok {
				continue
			}
			placed[model.Fold(name)] = struct{}{}
			out.SetStage(st, append(out.Stage(st), name))
			notes = append(notes, fmt.Sprintf("Restored %q to %s", name, st))
		}
	}

	changes := make([]string, 0, len(gen.ChangesMade)+len(notes))
	for _, c := range gen.ChangesMade {
		if c = strings.TrimSpace(c); c != "" {
			changes = append(changes, c)
		}
	}
	return model.RefinedPath{Path: out, ChangesMade: append(changes, notes...)}
}
