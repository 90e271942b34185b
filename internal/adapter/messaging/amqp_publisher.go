package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

const (
	RoutingKeyCompleted = "withdrawal.completed"
	RoutingKeyRejected  = "withdrawal.rejected"
)

// WithdrawalEvent is the message body published for every withdrawal attempt.
type WithdrawalEvent struct {
	ID        string             `json:"id"`
	RequestID string             `json:"request_id,omitempty"`
	Amount    int                `json:"amount"`
	Status    string             `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Notes     []domain.NoteCount `json:"notes,omitempty"`
	Version   int64              `json:"inventory_version"`
	CreatedAt time.Time          `json:"created_at"`
}

func NewWithdrawalEvent(w domain.Withdrawal) WithdrawalEvent {
	return WithdrawalEvent{
		ID:        w.ID,
		RequestID: w.RequestID,
		Amount:    w.Amount,
		Status:    string(w.Status),
		Reason:    w.Reason,
		Notes:     w.Notes.NonZero(),
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
	}
}

// RoutingKey picks the topic routing key for w.
func RoutingKey(w domain.Withdrawal) string {
	if w.Status == domain.WithdrawalStatusDispensed {
		return RoutingKeyCompleted
	}
	return RoutingKeyRejected
}

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
}

// NewAMQPPublisher dials url and declares a durable topic exchange with queue bound to both
// withdrawal routing keys.
func NewAMQPPublisher(url, exchange, queue string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setup(ch, exchange, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if queue == "" {
		return nil
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	for _, key := range []string{RoutingKeyCompleted, RoutingKeyRejected} {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue: %w", err)
		}
	}

	return nil
}

func (p *AMQPPublisher) PublishWithdrawal(ctx context.Context, w domain.Withdrawal) error {
	body, err := json.Marshal(NewWithdrawalEvent(w))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKey(w), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    w.ID,
		Timestamp:    w.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
