package snapshot

import "time"

// Outcome is the terminal result of one capture-and-upload attempt.
// Jobs never retry: each tick is an independent job.
type Outcome uint8

const (
	Pending Outcome = iota
	Uploaded
	SkippedNoContext
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Uploaded:
		return "uploaded"
	case SkippedNoContext:
		return "skipped-no-context"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Context is the correlation data the external assessment flow supplies
// at capture time. May be absent (manual captures of peers with no known
// attempt).
type Context struct {
	AttemptId     string `json:"attempt_id"`
	QuestionId    string `json:"question_id,omitempty"`
	QuestionIndex int    `json:"question_index,omitempty"`
	UserAnswer    string `json:"user_answer,omitempty"`
}

// Job is one capture-and-upload attempt.
type Job struct {
	SourcePeer string
	CapturedAt time.Time
	Image      []byte
	Context    *Context
	Outcome    Outcome
	Err        error
}
