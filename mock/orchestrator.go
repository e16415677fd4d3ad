// Package mock provides test doubles for council interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/mstolarz/council"
)

// Interface compliance checks.
var (
	_ council.Orchestrator = (*Orchestrator)(nil)
	_ council.EventStream  = (*EventStream)(nil)
	_ council.Store        = (*Store)(nil)
)

// Orchestrator is a test double for council.Orchestrator.
// Set OpenTurnFn before calling OpenTurn. CancelFn is nil-safe (no-op)
// because most tests never exercise the cancellation side channel.
type Orchestrator struct {
	OpenTurnFn func(ctx context.Context, conversationID, content string) (council.EventStream, error)
	CancelFn   func(ctx context.Context, conversationID string) error
}

// OpenTurn delegates to OpenTurnFn.
func (o *Orchestrator) OpenTurn(ctx context.Context, conversationID, content string) (council.EventStream, error) {
	return o.OpenTurnFn(ctx, conversationID, content)
}

// Cancel delegates to CancelFn. Returns nil when CancelFn is not set.
func (o *Orchestrator) Cancel(ctx context.Context, conversationID string) error {
	if o.CancelFn == nil {
		return nil
	}
	return o.CancelFn(ctx, conversationID)
}
