package rabbitmq

import "github.com/streadway/amqp"

// Publisher привязывает канал к exchange уведомлений.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher создает новый Publisher.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Publish публикует сообщение с указанным ключом маршрутизации.
func (p *Publisher) Publish(routingKey string, message any) error {
	return PublishMessage(p.ch, p.exchange, routingKey, message)
}
