package model

import "time"

// SourceSummary describes a document that grounded a learning path.
type SourceSummary struct {
	Score  float64        `json:"score"`
	Source map[string]any `json:"source,omitempty"`
}

// EducationOutcome is the result of building a learning path from a goal.
// LearningPath is nil whenever Status is not success.
type EducationOutcome struct {
	Status           Status          `json:"status"`
	Message          string          `json:"message,omitempty"`
	Goal             string          `json:"goal,omitempty"`
	SkillsIdentified SkillSet        `json:"skills_identified,omitempty"`
	LearningPath     *LearningPath   `json:"learning_path"`
	SourceDocuments  []SourceSummary `json:"source_documents,omitempty"`
}

// RunResult is what one full pipeline run returns. Callers must check Status
// before trusting the path.
type RunResult struct {
	RunID             string             `json:"run_id"`
	Status            Status             `json:"status"`
	Message           string             `json:"message,omitempty"`
	Goal              GoalContext        `json:"goal"`
	LearningPlan      EducationOutcome   `json:"learning_plan"`
	CrossDomainImpact *CrossDomainImpact `json:"cross_domain_impact"`
	Explanation       *Explanation       `json:"explanation"`
	DecisionTrace     *DecisionTrace     `json:"decision_trace"`
	PathID            string             `json:"path_id,omitempty"`
	CompletedAt       time.Time          `json:"completed_at"`
}

// JobStatus tracks an asynchronous run.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is a queued pipeline run.
type Job struct {
	ID          string    `json:"job_id"`
	Goal        string    `json:"goal"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// JobRecord is the observable state of a job.
type JobRecord struct {
	Job
	Status    JobStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
