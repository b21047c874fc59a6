package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/streadway/amqp"

	"claim-analyze-pipeline/metrics"
)

// Message represents a received RabbitMQ message.
type Message struct {
	Body        []byte
	RoutingKey  string
	Exchange    string
	ContentType string
	Timestamp   time.Time
	DeliveryTag uint64
}

// UnmarshalTo unmarshals the message body into the provided interface.
func (m *Message) UnmarshalTo(v any) error {
	return json.Unmarshal(m.Body, v)
}

// CallbackFunc processes a message. Return:
// - nil on success (will Ack)
// - Permanent(err) for a permanent failure (will Nack without requeue)
// - any other error for a transient failure (republished with a retry count)
type CallbackFunc func(msg *Message) error

// PermanentError marks a message processing failure as non-retriable.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string {
	if e == nil || e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError (non-retriable).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func isPermanent(err error) bool {
	var perr *PermanentError
	return errors.As(err, &perr)
}

const (
	defaultWorkers    = 8
	defaultMaxRetries = 5

	retryExchangePrefix = "claimcheck-retry."
	retryCountHeaderKey = "x-claimcheck-retry-count"
)

func retryCountFromHeaders(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	v, ok := headers[retryCountHeaderKey]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int:
		if t > 0 {
			return t
		}
	case int32:
		if t > 0 {
			return int(t)
		}
	case int64:
		if t > 0 {
			return int(t)
		}
	case string:
		if n, err := strconv.Atoi(t); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func withRetryCountHeader(headers amqp.Table, next int) amqp.Table {
	out := amqp.Table{}
	for k, v := range headers {
		out[k] = v
	}
	out[retryCountHeaderKey] = int32(next)
	return out
}

// Subscriber consumes submissions from RabbitMQ with a bounded worker pool.
type Subscriber struct {
	amqpURL  string
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	workers  int

	// opMu serializes amqp operations on channel; amqp.Channel is not safe for concurrent use.
	opMu sync.Mutex

	startOnce sync.Once
	done      chan struct{}

	connected atomic.Bool
}

// NewSubscriber connects to RabbitMQ and declares the exchange and queue.
func NewSubscriber(amqpURL, exchangeName, queueName string, prefetchCount int) (*Subscriber, error) {
	workers := defaultWorkers
	if prefetchCount > 0 && prefetchCount < workers {
		workers = prefetchCount
	}

	s := &Subscriber{
		amqpURL:  amqpURL,
		exchange: exchangeName,
		queue:    queueName,
		workers:  workers,
		done:     make(chan struct{}),
	}

	// Fail fast if the broker is unreachable.
	s.opMu.Lock()
	err := s.reconnectLocked()
	s.opMu.Unlock()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// reconnectLocked tears down any existing channel/connection and recreates them.
// Caller must hold s.opMu.
func (s *Subscriber) reconnectLocked() error {
	if s.channel != nil {
		_ = s.channel.Close()
		s.channel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}

	conn, err := amqp.Dial(s.amqpURL)
	if err != nil {
		s.setConnected(false)
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		s.setConnected(false)
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(s.exchange, "direct", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		s.setConnected(false)
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(s.queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		s.setConnected(false)
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	s.queue = q.Name

	s.conn = conn
	s.channel = ch
	s.setConnected(true)
	return nil
}

func (s *Subscriber) setConnected(up bool) {
	s.connected.Store(up)
	if up {
		metrics.RabbitMQConnected.Set(1)
	} else {
		metrics.RabbitMQConnected.Set(0)
	}
}

// Start begins consuming messages and dispatching them to the routing key callbacks.
func (s *Subscriber) Start(routingKeyCallbacks map[string]CallbackFunc) error {
	s.startOnce.Do(func() {
		jobs := make(chan amqp.Delivery, s.workers)

		for i := 0; i < s.workers; i++ {
			workerID := i + 1
			go func() {
				for delivery := range jobs {
					s.handleDelivery(workerID, delivery, routingKeyCallbacks)
				}
			}()
		}

		go s.consumeLoop(jobs, routingKeyCallbacks)
	})
	return nil
}

func (s *Subscriber) handleDelivery(workerID int, delivery amqp.Delivery, callbacks map[string]CallbackFunc) {
	startedAt := time.Now()
	metrics.WorkerInFlight.Inc()
	defer metrics.WorkerInFlight.Dec()

	ctxLog := log.WithFields(log.Fields{
		"worker_id":    workerID,
		"routing_key":  delivery.RoutingKey,
		"delivery_tag": delivery.DeliveryTag,
	})

	finish := func(result string) {
		metrics.ProcessedTotal.WithLabelValues(result).Inc()
		metrics.ProcessingDurationSeconds.WithLabelValues(result).Observe(time.Since(startedAt).Seconds())
	}

	callback, exists := callbacks[delivery.RoutingKey]
	if !exists {
		s.opMu.Lock()
		_ = delivery.Nack(false, false)
		s.opMu.Unlock()
		finish("permanent_error")
		ctxLog.Warn("no callback for routing key, dropping message")
		return
	}

	msg := &Message{
		Body:        delivery.Body,
		RoutingKey:  delivery.RoutingKey,
		Exchange:    delivery.Exchange,
		ContentType: delivery.ContentType,
		Timestamp:   delivery.Timestamp,
		DeliveryTag: delivery.DeliveryTag,
	}

	var callbackErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callbackErr = Permanent(fmt.Errorf("callback panic: %v", r))
			}
		}()
		callbackErr = callback(msg)
	}()

	if callbackErr == nil {
		s.opMu.Lock()
		_ = delivery.Ack(false)
		s.opMu.Unlock()
		finish("success")
		return
	}

	if isPermanent(callbackErr) {
		s.opMu.Lock()
		_ = delivery.Nack(false, false)
		s.opMu.Unlock()
		finish("permanent_error")
		ctxLog.WithError(callbackErr).Error("permanent failure, message dropped")
		return
	}

	attempts := retryCountFromHeaders(delivery.Headers)
	if attempts >= defaultMaxRetries {
		s.opMu.Lock()
		_ = delivery.Nack(false, false)
		s.opMu.Unlock()
		finish("retries_exhausted")
		ctxLog.WithError(callbackErr).WithField("attempts", attempts).Error("retries exhausted, message dropped")
		return
	}

	// Republish to the retry exchange with a bumped count, then ack the
	// original so a broken message cannot spin the consumer.
	pub := amqp.Publishing{
		Headers:      withRetryCountHeader(delivery.Headers, attempts+1),
		ContentType:  delivery.ContentType,
		Body:         delivery.Body,
		DeliveryMode: delivery.DeliveryMode,
		Timestamp:    delivery.Timestamp,
	}

	s.opMu.Lock()
	publishErr := s.channel.Publish(retryExchangePrefix+s.queue, delivery.RoutingKey, false, false, pub)
	if publishErr == nil {
		_ = delivery.Ack(false)
	} else {
		_ = delivery.Nack(false, true)
	}
	s.opMu.Unlock()

	finish("transient_error")
	ctxLog.WithError(callbackErr).WithField("attempt", attempts+1).Warn("transient failure, scheduled retry")
}

// consumeLoop keeps a consumer alive across broker restarts.
func (s *Subscriber) consumeLoop(jobs chan<- amqp.Delivery, callbacks map[string]CallbackFunc) {
	backoff := 1 * time.Second
	for {
		select {
		case <-s.done:
			close(jobs)
			return
		default:
		}

		s.opMu.Lock()
		if s.conn == nil || s.conn.IsClosed() || s.channel == nil {
			if err := s.reconnectLocked(); err != nil {
				s.opMu.Unlock()
				log.WithError(err).WithField("queue", s.queue).Error("rabbitmq reconnect failed")
				time.Sleep(backoff)
				if backoff < 30*time.Second {
					backoff *= 2
				}
				continue
			}
		}

		// Re-apply QoS and bindings on each (re)connect.
		if err := s.channel.Qos(s.workers, 0, false); err != nil {
			s.setConnected(false)
			s.opMu.Unlock()
			log.WithError(err).WithField("queue", s.queue).Error("rabbitmq qos failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		bindErr := false
		for routingKey := range callbacks {
			if err := s.channel.QueueBind(s.queue, routingKey, s.exchange, false, nil); err != nil {
				s.setConnected(false)
				log.WithError(err).WithFields(log.Fields{
					"queue":       s.queue,
					"routing_key": routingKey,
				}).Error("rabbitmq bind failed")
				bindErr = true
				break
			}
		}
		if bindErr {
			s.opMu.Unlock()
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		msgs, err := s.channel.Consume(s.queue, "", false, false, false, false, nil)
		s.opMu.Unlock()
		if err != nil {
			s.setConnected(false)
			log.WithError(err).WithField("queue", s.queue).Error("rabbitmq consume failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		log.WithFields(log.Fields{
			"exchange": s.exchange,
			"queue":    s.queue,
			"workers":  s.workers,
		}).Info("rabbitmq consuming")
		backoff = 1 * time.Second

		alive := true
		for alive {
			select {
			case <-s.done:
				close(jobs)
				return
			case delivery, ok := <-msgs:
				if !ok {
					s.setConnected(false)
					log.WithField("queue", s.queue).Warn("rabbitmq delivery channel closed, reconnecting")
					alive = false
					break
				}
				jobs <- delivery
			}
		}
	}
}

// Close stops consumption and closes the channel and connection.
func (s *Subscriber) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}

	var err error
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.channel != nil {
		if channelErr := s.channel.Close(); channelErr != nil {
			err = channelErr
		}
		s.channel = nil
	}
	if s.conn != nil {
		if connErr := s.conn.Close(); connErr != nil {
			if err == nil {
				err = connErr
			}
		}
		s.conn = nil
	}

	s.setConnected(false)
	return err
}

// IsConnected indicates if the subscriber is currently connected (best-effort).
func (s *Subscriber) IsConnected() bool {
	if s.conn == nil || s.channel == nil || s.conn.IsClosed() {
		return false
	}
	return s.connected.Load()
}
