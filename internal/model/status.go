package model

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// transitions lists, per target status, the statuses a reminder may be in
// when it moves there.
var transitions = map[Status][]Status{
	StatusSent:    {StatusPending},
	StatusFailed:  {StatusPending},
	StatusPending: {StatusFailed},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// SourcesOf returns the statuses from which next is reachable.
func SourcesOf(next Status) []Status {
	return transitions[next]
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, from := range transitions[next] {
		if from == s {
			return true
		}
	}
	return false
}

// Editable reports whether title, content, due time and target may still change.
func (s Status) Editable() bool {
	return s == StatusPending
}
