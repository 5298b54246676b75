package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы покупки (label result у PurchasesTotal).
const (
	ResultSuccess    = "success"
	ResultRejected   = "rejected"
	ResultThirdParty = "third_party_error"
)

var (
	PurchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_purchases_total",
			Help: "Number of purchase attempts by result",
		},
		[]string{"result"}, // success|rejected|third_party_error
	)
	PurchaseAmountTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_purchase_amount_total",
			Help: "Sum of charged amounts in minor currency units",
		},
	)
	SeatsReservedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_seats_reserved_total",
			Help: "Number of seats reserved",
		},
	)
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of messages fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of messages processed successfully",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of messages failed to process",
		},
		[]string{"topic"},
	)
)

var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_cache_operations_total",
			Help: "Receipt cache operations",
		},
		[]string{"op"}, // hit|miss|evicted|expired
	)
	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "receipt_cache_size",
			Help: "Number of receipts currently in cache",
		},
	)
)

var registerOnce sync.Once

// MustRegister регистрирует коллекторы в default registry. Повторный вызов безопасен.
func MustRegister() {
	registerOnce.Do(func() {
		mustRegisterAll(prometheus.DefaultRegisterer)
	})
}

func mustRegisterAll(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		PurchasesTotal, PurchaseAmountTotal, SeatsReservedTotal,
		KafkaMessagesConsumed, KafkaMessagesProcessed, KafkaMessagesFailed,
		CacheOps, CacheSize,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}
