package mqtt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/report"
)

// ReportSuffix is the topic suffix reports are published under.
const ReportSuffix = "/report"

// ReportTopic is the topic of a tester's latest report.
func ReportTopic(testerID string) string {
	return testerID + ReportSuffix
}

// TesterFromTopic extracts the tester ID from a report topic.
func TesterFromTopic(topic string) (string, bool) {
	if !strings.HasSuffix(topic, ReportSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(topic, ReportSuffix)
	return id, id != "" && !strings.Contains(id, "/")
}

// Publisher publishes reports as retained messages.
type Publisher struct {
	Queue   *Queue
	Timeout time.Duration
}

// DefaultTimeout bounds connect and publish.
const DefaultTimeout = 5 * time.Second

// NewPublisher creates a Publisher for the broker URL. The client ID
// defaults to "sutcheck:<testerID>".
func NewPublisher(brokerURL, testerID string) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID("sutcheck:" + testerID)
	}
	return &Publisher{Queue: NewQueue(opts, topicPrefix), Timeout: DefaultTimeout}, nil
}

// Publish connects, publishes r and disconnects.
func (p *Publisher) Publish(ctx context.Context, r *report.Report) error {
	payload, err := r.Encode()
	if err != nil {
		return err
	}
	timeout := p.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	token := p.Queue.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("connect broker: %w", context.DeadlineExceeded)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	defer p.Queue.Close()
	token = p.Queue.PubWith(ReportTopic(r.TesterId), payload, 1, true)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish report: %w", context.DeadlineExceeded)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	glog.Infof("report published to %s%s", p.Queue.TopicPrefix, ReportTopic(r.TesterId))
	return nil
}
