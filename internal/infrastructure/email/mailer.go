// Package email sends outgoing notification mail over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rentnest/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var (
	ErrMailerStopped = errors.New("email: mailer is not running")
	ErrQueueFull     = errors.New("email: send queue is full")
)

var validSMTPPorts = []int{25, 465, 587, 2525}

// Sender delivers composed messages; *gomail.Dialer satisfies it
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends queued messages from a background worker so callers never wait on SMTP
type Mailer struct {
	sender Sender
	from   string
	queue  chan *gomail.Message
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDialer builds the SMTP dialer from configuration
func NewDialer(cfg config.EmailConfig) (*gomail.Dialer, error) {
	if cfg.Host == "" {
		return nil, errors.New("email: SMTP host is required")
	}
	if !slices.Contains(validSMTPPorts, cfg.Port) {
		return nil, fmt.Errorf("email: invalid SMTP port %d", cfg.Port)
	}
	if cfg.From == "" {
		return nil, errors.New("email: from address is required")
	}
	return gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), nil
}

// NewMailer creates a mailer with a bounded queue
func NewMailer(sender Sender, from string, queueSize int, logger *zap.Logger) *Mailer {
	if queueSize <= 0 {
		queueSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		sender: sender,
		from:   from,
		queue:  make(chan *gomail.Message, queueSize),
		logger: logger,
	}
}

// Start launches the send loop
func (m *Mailer) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("email: mailer already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.run(ctx, m.done)
	m.logger.Info("Mailer started", zap.Int("queue_size", cap(m.queue)))
	return nil
}

func (m *Mailer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			m.drain()
			return
		case msg := <-m.queue:
			m.send(msg)
		}
	}
}

// drain sends whatever is already queued at shutdown
func (m *Mailer) drain() {
	for {
		select {
		case msg := <-m.queue:
			m.send(msg)
		default:
			return
		}
	}
}

func (m *Mailer) send(msg *gomail.Message) {
	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send email",
			zap.Strings("to", msg.GetHeader("To")),
			zap.Strings("subject", msg.GetHeader("Subject")),
			zap.Error(err))
		return
	}
	m.logger.Debug("Email sent", zap.Strings("to", msg.GetHeader("To")))
}

// Enqueue composes an HTML message and queues it without blocking
func (m *Mailer) Enqueue(to, subject, htmlBody, textBody string) error {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if !running {
		return ErrMailerStopped
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	if textBody != "" {
		msg.SetBody("text/plain", textBody)
		msg.AddAlternative("text/html", htmlBody)
	} else {
		msg.SetBody("text/html", htmlBody)
	}

	select {
	case m.queue <- msg:
		return nil
	default:
		m.logger.Warn("Email queue full, dropping message", zap.String("to", to))
		return ErrQueueFull
	}
}

// Stop ends the send loop after flushing queued messages
func (m *Mailer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrMailerStopped
	}
	m.running = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
	m.logger.Info("Mailer stopped")
	return nil
}

// Pending returns the number of queued messages
func (m *Mailer) Pending() int {
	return len(m.queue)
}
