package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher sends notifications in the background so callers never wait on or fail because of them.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *logrus.Logger
	wg       sync.WaitGroup
}

// NewDispatcher wraps notifier. Each send gets its own timeout.
func NewDispatcher(notifier Notifier, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: notifier, timeout: timeout, logger: logger}
}

// Dispatch queues msg for delivery and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	if d == nil || d.notifier == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.send(msg); err != nil {
			d.logger.WithError(err).WithFields(logrus.Fields{
				"event": msg.Type,
				"to":    msg.To,
			}).Warn("notification failed")
		}
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) send(msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	result, err := d.notifier.Notify(ctx, msg)
	if err != nil {
		return err
	}
	if !result.Delivered {
		return fmt.Errorf("notification not delivered")
	}
	return nil
}
