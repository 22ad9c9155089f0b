package queue

import (
	"DignityDialogue/storage/mq"
)

const (
	IntakeExchange         = "intake.events"
	ConfirmationRoutingKey = "intake.confirmation"
	ConfirmationQueue      = "notification.intake_confirmation"

	confirmationConsumerTag = "intake_confirmation_consumer"
)

// Bindings 服务端和 notifier 启动时都会声明一次
func Bindings() []mq.Binding {
	return []mq.Binding{
		{
			Exchange:   IntakeExchange,
			Queue:      ConfirmationQueue,
			RoutingKey: ConfirmationRoutingKey,
		},
	}
}
