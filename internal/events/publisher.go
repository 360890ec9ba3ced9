// Package events publishes order lifecycle notifications over RabbitMQ.
// Publishing is best effort: checkout never fails because a broker is down.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nikhilarsid/order-service/internal/order"
)

const OrderConfirmedQueue = "order.confirmed"

// OrderConfirmed is the event body consumed by notification and downstream
// fulfillment services.
type OrderConfirmed struct {
	EventType   string      `json:"eventType"`
	OrderID     string      `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	UserID      string      `json:"userId"`
	TotalAmount float64     `json:"totalAmount"`
	Items       []OrderItem `json:"items"`
	Timestamp   time.Time   `json:"timestamp"`
}

type OrderItem struct {
	ProductID    int64   `json:"productId"`
	VariantID    string  `json:"variantId"`
	MerchantID   string  `json:"merchantId"`
	MerchantName string  `json:"merchantName"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the queue so publish never fails due to missing infra
	_, err = ch.QueueDeclare(OrderConfirmedQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", OrderConfirmedQueue, err)
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderConfirmed(ctx context.Context, o *order.Order) error {
	ev := OrderConfirmed{
		EventType:   "OrderConfirmed",
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
	for _, l := range o.Lines {
		ev.Items = append(ev.Items, OrderItem{
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			MerchantID:   l.MerchantID,
			MerchantName: l.MerchantName,
			Quantity:     l.Quantity,
			Price:        l.Price,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderConfirmed: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",                  // default exchange
		OrderConfirmedQueue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// MustDial connects to RabbitMQ or exits. Used at service startup where a
// missing broker is a deployment error.
func MustDial(url string) *amqp.Connection {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("connect to RabbitMQ: %v", err)
	}
	return conn
}
