package orderevents

const (
	TopicName                  = "orders"
	confirmationDispatchedName = TopicName + ".confirmationDispatched"
)

// ConfirmationDispatched is published after every attempt to mail an order confirmation.
type ConfirmationDispatched struct {
	OrderUID  string
	SessionID string
	Mode      string
	Recipient string
	Success   bool
	MessageID string
	Error     string
}

func (e ConfirmationDispatched) GetEventTypeName() string {
	return confirmationDispatchedName
}

func (e ConfirmationDispatched) GetAggregateName() string {
	return e.OrderUID
}
