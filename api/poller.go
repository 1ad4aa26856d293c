package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxErrors    = 3
)

// AgentPoller follows a code fix agent until it stops.
type AgentPoller struct {
	client    *Client
	interval  time.Duration
	maxErrors int
}

type AgentPollerOption func(*AgentPoller)

// WithMaxErrors sets how many consecutive failed polls end the watch.
func WithMaxErrors(n int) AgentPollerOption {
	return func(p *AgentPoller) {
		p.maxErrors = n
	}
}

func NewAgentPoller(client *Client, interval time.Duration, options ...AgentPollerOption) *AgentPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	p := &AgentPoller{client: client, interval: interval, maxErrors: defaultMaxErrors}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Watch polls the agent status every interval and calls onStatus each time
// the status changes. It returns when the agent finishes (with its
// conversation), fails (ErrAgentFailed), the session ends, polls keep
// failing, or ctx is cancelled.
func (p *AgentPoller) Watch(ctx context.Context, agentID string, onStatus func(*AgentResponse)) (*AgentResponse, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	lastStatus := ""
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := p.client.AgentStatus(ctx, agentID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if IsUnauthorized(err) || IsNotFound(err) {
				return nil, err
			}
			failures++
			log.Warn().Err(err).Str("agent", agentID).Int("failures", failures).Msg("agent status poll failed")
			if failures >= p.maxErrors {
				return nil, fmt.Errorf("[AgentPoller Watch] giving up after %d failed polls: %w", failures, err)
			}
			continue
		}
		failures = 0

		if status.Status != lastStatus {
			lastStatus = status.Status
			if onStatus != nil {
				onStatus(status)
			}
		}

		switch {
		case status.Status == AgentFinished:
			return p.finished(ctx, agentID, status)
		case status.Failed():
			return status, fmt.Errorf("[AgentPoller Watch] agent %s: %s: %w", agentID, status.Status, ErrAgentFailed)
		}
	}
}

func (p *AgentPoller) finished(ctx context.Context, agentID string, status *AgentResponse) (*AgentResponse, error) {
	conv, err := p.client.AgentConversation(ctx, agentID)
	if err != nil {
		log.Warn().Err(err).Str("agent", agentID).Msg("unable to load agent conversation")
		return status, nil
	}
	status.Conversation = conv.Conversation
	return status, nil
}
