// Package model contains domain models passed between layers.
package model

import "strings"

// Status is the outcome every pipeline-facing call reports first.
type Status string

const (
	StatusSuccess               Status = "success"
	StatusInsufficientKnowledge Status = "insufficient_knowledge"
)

// GoalContext is created once per run and never modified afterwards.
type GoalContext struct {
	RawInput        string `json:"raw_input"`
	InterpretedGoal string `json:"interpreted_goal"`
}

// RetrievedDocument is one ranked hit from the retrieval gateway.
// Source is an opaque locator and is passed through untouched.
type RetrievedDocument struct {
	Content string         `json:"content"`
	Score   float64        `json:"score"`
	Source  map[string]any `json:"source,omitempty"`
}

// SkillSet is an ordered set of skill names. First occurrence wins.
type SkillSet []string

// NewSkillSet trims, drops empty names and removes duplicates, keeping order.
// Duplicates are detected case-insensitively.
func NewSkillSet(skills ...string) SkillSet {
	out := make(SkillSet, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := Fold(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Contains reports whether skill is in the set, ignoring case.
func (s SkillSet) Contains(skill string) bool {
	_, ok := s.Canonical(skill)
	return ok
}

// Canonical returns the set's spelling of skill.
func (s SkillSet) Canonical(skill string) (string, bool) {
	k := Fold(skill)
	for _, v := range s {
		if Fold(v) == k {
			return v, true
		}
	}
	return "", false
}

// Fold normalizes a skill name for comparisons.
func Fold(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// Stage is one of the three ordered proficiency tiers.
type Stage string

const (
	StageFoundation   Stage = "foundation"
	StageIntermediate Stage = "intermediate"
	StageAdvanced     Stage = "advanced"
)

// Stages lists the tiers in learning order.
var Stages = []Stage{StageFoundation, StageIntermediate, StageAdvanced}

// Next returns the following stage; advanced has none.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageFoundation:
		return StageIntermediate, true
	case StageIntermediate:
		return StageAdvanced, true
	default:
		return s, false
	}
}

// LearningPath is a staged curriculum. A skill belongs to at most one stage.
type LearningPath struct {
	Foundation   []string `json:"foundation"`
	Intermediate []string `json:"intermediate"`
	Advanced     []string `json:"advanced"`
}

// Stage returns the skills of one stage.
func (p LearningPath) Stage(s Stage) []string {
	switch s {
	case StageFoundation:
		return p.Foundation
	case StageIntermediate:
		return p.Intermediate
	case StageAdvanced:
		return p.Advanced
	default:
		return nil
	}
}

// SetStage replaces the skills of one stage.
func (p *LearningPath) SetStage(s Stage, skills []string) {
	switch s {
	case StageFoundation:
		p.Foundation = skills
	case StageIntermediate:
		p.Intermediate = skills
	case StageAdvanced:
		p.Advanced = skills
	}
}

// Skills returns every skill in stage order.
func (p LearningPath) Skills() []string {
	out := make([]string, 0, p.Len())
	out = append(out, p.Foundation...)
	out = append(out, p.Intermediate...)
	return append(out, p.Advanced...)
}

// Len counts skills across all stages.
func (p LearningPath) Len() int {
	return len(p.Foundation) + len(p.Intermediate) + len(p.Advanced)
}

// StageOf finds which stage holds skill, ignoring case.
func (p LearningPath) StageOf(skill string) (Stage, bool) {
	k := Fold(skill)
	for _, st := range Stages {
		for _, v := range p.Stage(st) {
			if Fold(v) == k {
				return st, true
			}
		}
	}
	return "", false
}

// Clone deep-copies the path and replaces nil stages with empty ones so the
// JSON form always carries three lists.
func (p LearningPath) Clone() LearningPath {
	return LearningPath{
		Foundation:   append(make([]string, 0, len(p.Foundation)), p.Foundation...),
		Intermediate: append(make([]string, 0, len(p.Intermediate)), p.Intermediate...),
		Advanced:     append(make([]string, 0, len(p.Advanced)), p.Advanced...),
	}
}

// Domain is one of the fixed cross-domain targets.
type Domain string

const (
	DomainHealth      Domain = "health"
	DomainFinance     Domain = "finance"
	DomainAgriculture Domain = "agriculture"
)

// Domains lists every target domain.
var Domains = []Domain{DomainHealth, DomainFinance, DomainAgriculture}

// CrossDomainImpact holds one short explanation per domain. All keys are
// always present.
type CrossDomainImpact struct {
	Health      string `json:"health"`
	Finance     string `json:"finance"`
	Agriculture string `json:"agriculture"`
}

// Get returns the explanation for d.
func (c CrossDomainImpact) Get(d Domain) string {
	switch d {
	case DomainHealth:
		return c.Health
	case DomainFinance:
		return c.Finance
	case DomainAgriculture:
		return c.Agriculture
	default:
		return ""
	}
}

// Set stores the explanation for d.
func (c *CrossDomainImpact) Set(d Domain, text string) {
	switch d {
	case DomainHealth:
		c.Health = text
	case DomainFinance:
		c.Finance = text
	case DomainAgriculture:
		c.Agriculture = text
	}
}

// Confidence is a qualitative self-report, never a numeric score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseConfidence maps a label case-insensitively onto the three values.
func ParseConfidence(s string) (Confidence, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh, true
	case "medium":
		return ConfidenceMedium, true
	case "low":
		return ConfidenceLow, true
	default:
		return "", false
	}
}

// Explanation is the rationale attached to a completed path.
type Explanation struct {
	Summary     string     `json:"summary"`
	Assumptions []string   `json:"assumptions"`
	Confidence  Confidence `json:"confidence"`
}
