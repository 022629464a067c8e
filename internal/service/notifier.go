package service

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/pkg/kafka"
)

// Notifier informs attendees about a reservation outcome. Delivery is
// fire-and-forget: failures are logged and never block a state transition.
type Notifier interface {
	Notify(event kafka.EventNotify)
}

type kafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string, log *zap.Logger) *kafkaNotifier {
	return &kafkaNotifier{
		producer: producer,
		topic:    topic,
		log:      log.Named("notifier"),
	}
}

func (n *kafkaNotifier) Notify(event kafka.EventNotify) {
	go func() {
		value, err := json.Marshal(event)
		if err != nil {
			n.log.Error("marshal notification", zap.Error(err))
			return
		}
		if _, _, err := n.producer.SendMessage(&sarama.ProducerMessage{
			Topic: n.topic,
			Value: sarama.ByteEncoder(value),
		}); err != nil {
			n.log.Error("send notification", zap.String("room", event.Room), zap.Error(err))
		}
	}()
}

// NopNotifier is used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(kafka.EventNotify) {}
