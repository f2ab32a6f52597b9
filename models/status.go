package models

// Job statuses. PROCESSING is the initial state; COMPLETED and FAILED are
// terminal and never transition again.
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// JobState is embedded in every job record.
type JobState struct {
	Status     string `bson:"status,omitempty" json:"status,omitempty"`
	FailReason string `bson:"fail_reason,omitempty" json:"failReason,omitempty"`
}

// CurrentStatus reads a missing status as COMPLETED. Records written before
// the async pipeline existed carry no status field; treating them as
// completed is a migration shim, not a contract new writers may rely on.
func (j *JobState) CurrentStatus() string {
	if j.Status == "" {
		return StatusCompleted
	}
	return j.Status
}

// Terminal reports whether the job has reached a final state.
func (j *JobState) Terminal() bool {
	s := j.CurrentStatus()
	return s == StatusCompleted || s == StatusFailed
}
