package kafka

const (
	TopicCheckinCompleted        = "checkin.completed"
	TopicParticipationRegistered = "participation.registered"
)
