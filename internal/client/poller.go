package client

import (
	"context"
	"time"

	"mockery-backend/internal/models"
)

const DefaultPollInterval = 500 * time.Millisecond

// Poller converges a session on the stored page by polling its version.
type Poller struct {
	client   *Client
	session  *Session
	interval time.Duration
	onChange func(models.VersionInfo)
}

func NewPoller(c *Client, s *Session, interval time.Duration, onChange func(models.VersionInfo)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: c, session: s, interval: interval, onChange: onChange}
}

// Run ticks until ctx is done. Tick errors are passed to onError when set
// and never stop the loop.
func (p *Poller) Run(ctx context.Context, onError func(error)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.Tick(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}

// Tick checks the version once. It is a no-op without a selected page or
// while a request is in flight, and reports whether a change was seen.
func (p *Poller) Tick(ctx context.Context) (bool, error) {
	page := p.session.Page()
	if page == "" || p.session.State() != StateIdle {
		return false, nil
	}

	info, err := p.client.Version(ctx, page)
	if err != nil {
		return false, err
	}
	if info.Version == p.session.Version() {
		return false, nil
	}

	p.session.SetVersion(info.Version)
	if p.onChange != nil {
		p.onChange(info)
	}
	return true, nil
}
