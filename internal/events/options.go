package events

type ProducerOptions func(ep *EventProducer)

// WithOutputTopic overrides the default topic events are published to.
func WithOutputTopic(topic string) ProducerOptions {
	return func(ep *EventProducer) {
		ep.topic = topic
	}
}
