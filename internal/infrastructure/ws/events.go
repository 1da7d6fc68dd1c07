package ws

const (
	QueueAddCmd    = "queue.add"
	QueueRemoveCmd = "queue.remove"

	QueueAck     = "queue.ack"
	QueueChanged = "queue.changed"

	ErrorEvent = "error"
	JoinFailed = "error.join"
)
