package models

// CommentStatus is the moderation state of a comment
type CommentStatus string

const (
	StatusPending  CommentStatus = "pending"
	StatusVisible  CommentStatus = "visible"
	StatusReported CommentStatus = "reported"
	StatusRejected CommentStatus = "rejected"
	StatusDeleted  CommentStatus = "deleted"
)

// AllStatuses lists every comment status
var AllStatuses = []CommentStatus{
	StatusPending,
	StatusVisible,
	StatusReported,
	StatusRejected,
	StatusDeleted,
}

// Valid reports whether s is a known status
func (s CommentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVisible, StatusReported, StatusRejected, StatusDeleted:
		return true
	}
	return false
}

// Editable reports whether the owner may still change the content
func (s CommentStatus) Editable() bool {
	return s == StatusVisible || s == StatusPending
}

// Engageable reports whether likes and reports are accepted
func (s CommentStatus) Engageable() bool {
	return s != StatusDeleted && s != StatusRejected
}

// Transition is a named lifecycle move between statuses
type Transition string

const (
	TransitionApprove   Transition = "approve"
	TransitionReject    Transition = "reject"
	TransitionEscalate  Transition = "escalate"
	TransitionHold      Transition = "hold"
	TransitionTombstone Transition = "tombstone"
)

// NextStatus returns the status reached by applying t to from.
// The second result is false when the move is not allowed.
func NextStatus(from CommentStatus, t Transition) (CommentStatus, bool) {
	switch from {
	case StatusPending:
		switch t {
		case TransitionApprove:
			return StatusVisible, true
		case TransitionReject:
			return StatusRejected, true
		case TransitionEscalate:
			return StatusReported, true
		case TransitionTombstone:
			return StatusDeleted, true
		}
	case StatusVisible:
		switch t {
		case TransitionEscalate:
			return StatusReported, true
		case TransitionHold:
			return StatusPending, true
		case TransitionTombstone:
			return StatusDeleted, true
		}
	case StatusReported:
		switch t {
		case TransitionApprove:
			return StatusVisible, true
		case TransitionReject:
			return StatusRejected, true
		case TransitionTombstone:
			return StatusDeleted, true
		}
	case StatusRejected:
		// deletion is not moderation; owners may still remove a rejected comment
		if t == TransitionTombstone {
			return StatusDeleted, true
		}
	case StatusDeleted:
	}
	return from, false
}

// SourcesFor returns every status from which t is allowed
func SourcesFor(t Transition) []CommentStatus {
	var sources []CommentStatus
	for _, s := range AllStatuses {
		if _, ok := NextStatus(s, t); ok {
			sources = append(sources, s)
		}
	}
	return sources
}
