// AngelaMos | 2026
// dispatcher.go

package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"sync"
	"text/template"
	"time"

	"github.com/carterperez-dev/webuzz/internal/config"
)

//go:embed templates
var templateFS embed.FS

const deliverTimeout = 30 * time.Second

var ErrClosed = errors.New("mail dispatcher closed")

// Dispatcher renders messages on the caller's goroutine and delivers them
// from a fixed worker pool. Delivery is at most once: a full queue drops
// the message and failures are only logged.
type Dispatcher struct {
	sender Sender
	prefix string
	text   *template.Template
	html   *htmltemplate.Template
	logger *slog.Logger

	queue chan Envelope
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, cfg config.MailConfig, logger *slog.Logger) (*Dispatcher, error) {
	text, err := template.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text mail templates: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html mail templates: %w", err)
	}

	workers := max(cfg.Workers, 1)
	queueSize := max(cfg.QueueSize, 1)

	d := &Dispatcher{
		sender: sender,
		prefix: cfg.SubjectPrefix,
		text:   text,
		html:   html,
		logger: logger,
		queue:  make(chan Envelope, queueSize),
	}

	d.wg.Add(workers)
	for range workers {
		go d.work()
	}

	return d, nil
}

// Send renders name.txt and name.html with data and queues the result for
// to. It never blocks on delivery.
func (d *Dispatcher) Send(to, subject, name string, data map[string]any) {
	env, err := d.render(to, subject, name, data)
	if err != nil {
		d.logger.Error("render mail", "error", err, "to", to, "template", name)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Error("mail dropped", "error", ErrClosed, "to", to, "template", name)
		return
	}

	select {
	case d.queue <- env:
	default:
		d.logger.Error("mail dropped, queue full", "to", to, "template", name)
	}
}

func (d *Dispatcher) render(to, subject, name string, data map[string]any) (Envelope, error) {
	var text, html bytes.Buffer

	if err := d.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Envelope{}, fmt.Errorf("text body: %w", err)
	}
	if err := d.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Envelope{}, fmt.Errorf("html body: %w", err)
	}

	if d.prefix != "" {
		subject = d.prefix + " " + subject
	}

	return Envelope{To: to, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for env := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := d.sender.Deliver(ctx, env); err != nil {
			d.logger.Error("mail delivery failed", "error", err, "to", env.To, "subject", env.Subject)
		}
		cancel()
	}
}

// Close stops accepting messages and waits for queued ones until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain mail queue: %w", ctx.Err())
	}
}
