// Package events publishes order-lifecycle events for downstream
// consumers (fulfillment, reporting).
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/SimonVuong/saute/internal/models"
)

const (
	TopicOrderPlaced          = "order.placed"
	TopicDeliveryConfirmed    = "delivery.confirmed"
	TopicDeliverySkipped      = "delivery.skipped"
	TopicSubscriptionCanceled = "subscription.canceled"
)

// Producer is the event sink the lifecycle service writes to.
type Producer interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// Emitter serializes domain events and forwards them to a Producer.
// Emission is best effort: a sink failure is logged, never propagated.
type Emitter struct {
	producer Producer
	prefix   string
}

func NewEmitter(producer Producer, prefix string) *Emitter {
	return &Emitter{producer: producer, prefix: prefix}
}

type orderEvent struct {
	Timestamp  int64  `json:"timestamp"`
	EventType  string `json:"event_type"`
	OrderID    string `json:"order_id"`
	ConsumerID string `json:"consumer_id"`
	Detail     string `json:"detail,omitempty"`
}

func (e *Emitter) emit(topic string, event orderEvent) {
	if e == nil || e.producer == nil {
		return
	}
	event.Timestamp = time.Now().UnixMilli()
	event.EventType = topic
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error serializing event: %v", err)
		return
	}
	if err := e.producer.WriteMessage(e.prefix+"."+topic, msg); err != nil {
		log.Printf("Failed to write message: %v", err)
	}
}

func (e *Emitter) OrderPlaced(order *models.Order) {
	e.emit(TopicOrderPlaced, orderEvent{OrderID: order.ID, ConsumerID: order.ConsumerID})
}

func (e *Emitter) DeliveriesConfirmed(order *models.Order) {
	e.emit(TopicDeliveryConfirmed, orderEvent{OrderID: order.ID, ConsumerID: order.ConsumerID})
}

func (e *Emitter) DeliverySkipped(order *models.Order, deliveryIndex int) {
	e.emit(TopicDeliverySkipped, orderEvent{
		OrderID:    order.ID,
		ConsumerID: order.ConsumerID,
		Detail:     fmt.Sprintf("delivery %d", deliveryIndex),
	})
}

func (e *Emitter) SubscriptionCanceled(consumerID string) {
	e.emit(TopicSubscriptionCanceled, orderEvent{ConsumerID: consumerID})
}

func (e *Emitter) Close() error {
	if e == nil || e.producer == nil {
		return nil
	}
	return e.producer.Close()
}

type KafkaProducer struct {
	producer sarama.SyncProducer
}

func NewKafkaProducer(brokerList string) (*KafkaProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokers := strings.Split(brokerList, ",")
	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("Kafka producer created successfully with brokers %v", brokers)
	return &KafkaProducer{producer: producer}, nil
}

func (k *KafkaProducer) WriteMessage(topic string, msg []byte) error {
	if k.producer == nil {
		return fmt.Errorf("Kafka producer is not initialized")
	}
	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		log.Printf("Failed to send message to topic %s: %v", topic, err)
		return err
	}
	return nil
}

func (k *KafkaProducer) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}

// ConsoleProducer writes events to stdout when Kafka is disabled.
type ConsoleProducer struct{}

func (c *ConsoleProducer) WriteMessage(topic string, msg []byte) error {
	_, err := fmt.Fprintf(os.Stdout, "[%s] %s\n", topic, string(msg))
	return err
}

func (c *ConsoleProducer) Close() error {
	return nil
}
