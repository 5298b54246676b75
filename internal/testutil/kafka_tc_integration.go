//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

var reTopicUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// KafkaEnv — redpanda в контейнере (Kafka API).
type KafkaEnv struct {
	Container *redpanda.Container
	Brokers   []string
}

// StartKafkaTC поднимает redpanda и возвращает адрес seed-брокера.
func StartKafkaTC(ctx context.Context) (*KafkaEnv, func(context.Context) error, error) {
	rp, err := redpanda.Run(
		ctx,
		"docker.redpanda.com/redpandadata/redpanda:v23.3.8",
		tc.WithLifecycleHooks(lifecycleLog(tcLogger)),
		redpanda.WithAutoCreateTopics(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run redpanda: %w", err)
	}

	seed, err := rp.KafkaSeedBroker(ctx)
	if err != nil {
		_ = tc.TerminateContainer(rp)
		return nil, nil, fmt.Errorf("seed broker: %w", err)
	}

	stop := func(_ context.Context) error { return tc.TerminateContainer(rp) }
	return &KafkaEnv{Container: rp, Brokers: []string{seed}}, stop, nil
}

func (k *KafkaEnv) client() *kafka.Client {
	return &kafka.Client{Addr: kafka.TCP(k.Brokers...), Timeout: 10 * time.Second}
}

// NewTopic создаёт топик с уникальным именем (и одноимённую группу) на основе name.
// Возвращается, когда топик виден в метаданных.
func (k *KafkaEnv) NewTopic(ctx context.Context, name string) (topic, group string, err error) {
	topic = fmt.Sprintf("purchases-%s-%s", reTopicUnsafe.ReplaceAllString(name, "-"), UniqSuffix())

	resp, err := k.client().CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}},
	})
	if err != nil {
		return "", "", fmt.Errorf("create topic: %w", err)
	}
	if terr := resp.Errors[topic]; terr != nil && !errors.Is(terr, kafka.TopicAlreadyExists) {
		return "", "", fmt.Errorf("create topic %q: %w", topic, terr)
	}

	return topic, topic, k.waitTopic(ctx, topic)
}

func (k *KafkaEnv) waitTopic(ctx context.Context, topic string) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		meta, err := k.client().Metadata(ctx, &kafka.MetadataRequest{Topics: []string{topic}})
		if err == nil {
			for _, t := range meta.Topics {
				if t.Name == topic && t.Error == nil && len(t.Partitions) > 0 {
					return nil
				}
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("topic %q not ready: %v", topic, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// Publish пишет запросы на покупку по порядку; X-Request-ID = itest-<topic>-<n>.
func (k *KafkaEnv) Publish(ctx context.Context, topic string, payloads ...[]byte) error {
	w := &kafka.Writer{
		Addr:         kafka.TCP(k.Brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.LeastBytes{},
	}
	defer w.Close()

	msgs := make([]kafka.Message, 0, len(payloads))
	for i, p := range payloads {
		msgs = append(msgs, kafka.Message{
			Value:   p,
			Headers: []kafka.Header{{Key: "X-Request-ID", Value: []byte("itest-" + topic + "-" + strconv.Itoa(i))}},
		})
	}
	return w.WriteMessages(ctx, msgs...)
}
