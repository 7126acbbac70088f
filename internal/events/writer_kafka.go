package events

import (
	"context"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"
)

// KafkaWriter ships events to a kafka cluster through a sync producer.
type KafkaWriter struct {
	producer sarama.SyncProducer
}

func NewKafkaWriter(brokers []string, cfg *sarama.Config) (*KafkaWriter, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	// the sync producer requires both
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &KafkaWriter{producer: producer}, nil
}

func (w *KafkaWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	data, err := e.MarshalJSON()
	if err != nil {
		return err
	}

	_, _, err = w.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(e.Type()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte(event.ApplicationCloudEventsJSON)},
		},
	})
	return err
}

func (w *KafkaWriter) Close(_ context.Context) error {
	return w.producer.Close()
}
