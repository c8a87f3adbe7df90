package mail

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/soporteya/auth-service/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
	Kind    string
}

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher fans messages out to a fixed set of workers using consistent
// hashing on the recipient address, so emails to one address are delivered
// in the order they were enqueued. Delivery failures are logged and counted;
// they never propagate back to the request that enqueued the mail.
type Dispatcher struct {
	workers []chan Message
	sender  Sender
	log     zerolog.Logger
	baseURL string
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender Sender, baseURL string, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Message, numWorkers),
		sender:  sender,
		log:     log,
		baseURL: baseURL,
	}
	for i := range d.workers {
		d.workers[i] = make(chan Message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a message to the worker responsible for its recipient.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(msg Message) {
	d.workers[d.shardIndex(msg.To)] <- msg
}

// EnqueuePasswordReset implements ports.Mailer.
func (d *Dispatcher) EnqueuePasswordReset(to, token, code string) {
	d.Enqueue(passwordResetMessage(d.baseURL, to, token, code))
}

// EnqueueVerification implements ports.Mailer.
func (d *Dispatcher) EnqueueVerification(to, token string) {
	d.Enqueue(verificationMessage(d.baseURL, to, token))
}

func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sender.Send(ctx, msg); err != nil {
				metrics.EmailErrorsTotal.WithLabelValues(msg.Kind).Inc()
				d.log.Error().Err(err).
					Str("kind", msg.Kind).
					Int("worker_id", id).
					Msg("email delivery failed")
				continue
			}
			metrics.EmailsSentTotal.WithLabelValues(msg.Kind).Inc()
		}
	}
}
