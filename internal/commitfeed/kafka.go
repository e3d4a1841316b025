package commitfeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaProducer publishes feed records to one topic, keyed by entity so a
// partition preserves per-entity commit order.
type KafkaProducer struct {
	client *kgo.Client
	topic  string
}

// NewKafkaProducer connects to the brokers and ensures the feed topic exists.
func NewKafkaProducer(ctx context.Context, brokers []string, topic string) (*KafkaProducer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		// Already-exists is fine; anything else surfaces on first produce.
		if _, lookupErr := adm.ListTopics(ctx, topic); lookupErr != nil {
			client.Close()
			return nil, fmt.Errorf("ensure feed topic %q: %w", topic, err)
		}
	}
	return &KafkaProducer{client: client, topic: topic}, nil
}

func (p *KafkaProducer) Produce(ctx context.Context, records []Record) error {
	kafkaRecords := make([]*kgo.Record, len(records))
	for i, r := range records {
		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode feed record %s: %w", r.ManifestID, err)
		}
		kafkaRecords[i] = &kgo.Record{
			Topic: p.topic,
			Key:   []byte(r.EntityKey),
			Value: value,
		}
	}
	if err := p.client.ProduceSync(ctx, kafkaRecords...).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() {
	p.client.Close()
}
