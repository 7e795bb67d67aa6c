package rabbitmq

// NotificationsExchange direct-exchange для всех уведомлений.
const NotificationsExchange = "notifications"

// LandlordPaymentRoutingKey уведомления арендодателю об оплате.
const LandlordPaymentRoutingKey = "landlord.payment"

// LandlordPaymentQueue читает notification-sender.
const LandlordPaymentQueue = "notifications.landlord_payment"

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: LandlordPaymentQueue, RoutingKey: LandlordPaymentRoutingKey},
	}
}
