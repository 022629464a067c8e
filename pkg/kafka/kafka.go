package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
	Topic string   `envconfig:"KAFKA_NOTIFY_TOPIC" default:"booking-notifications"`
}

// EventNotify is published after every reservation outcome so a downstream
// mailer can inform the attendees.
type EventNotify struct {
	Emails  []string  `json:"emails"`
	Room    string    `json:"room"`
	Outcome string    `json:"outcome"`
	Remark  string    `json:"remark,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}
