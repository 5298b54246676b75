package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Значения по умолчанию для таймаутов консьюмера.
const (
	DefaultProcessTimeout = 5 * time.Second
	DefaultRetryInitial   = time.Second
	DefaultRetryMax       = 30 * time.Second
)

// ConsumerConfig — параметры чтения топика с покупками.
type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	StartOffset string // first|last (регистр и пробелы не важны), по умолчанию last

	ProcessTimeout time.Duration // таймаут на обработку одного сообщения
	RetryInitial   time.Duration // стартовая пауза backoff при ошибках fetch
	RetryMax       time.Duration // потолок backoff
}

// ReaderConfig — конфиг kafka.Reader с ручным коммитом (CommitInterval = 0).
func (c *ConsumerConfig) ReaderConfig() kafka.ReaderConfig {
	rc := kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.GroupID,
		Topic:          c.Topic,
		CommitInterval: 0,
	}

	switch strings.ToLower(strings.TrimSpace(c.StartOffset)) {
	case "first":
		rc.StartOffset = kafka.FirstOffset
	default:
		rc.StartOffset = kafka.LastOffset
	}

	return rc
}

func (c *ConsumerConfig) timeouts() (process, retryInitial, retryMax time.Duration) {
	process, retryInitial, retryMax = c.ProcessTimeout, c.RetryInitial, c.RetryMax
	if process <= 0 {
		process = DefaultProcessTimeout
	}
	if retryInitial <= 0 {
		retryInitial = DefaultRetryInitial
	}
	if retryMax <= 0 {
		retryMax = DefaultRetryMax
	}
	if retryMax < retryInitial {
		retryMax = retryInitial
	}
	return process, retryInitial, retryMax
}
