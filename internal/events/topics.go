package events

const (
	TopicConnStatus = "conn.status"
	TopicFrameIn    = "frame.in"
	TopicFrameOut   = "frame.out"
	TopicError      = "session.error"
)

// AllTopics is the subscription set used by log sinks that mirror every event.
func AllTopics() []string {
	return []string{TopicConnStatus, TopicFrameIn, TopicFrameOut, TopicError}
}
