package order

import (
	"fmt"
	"slices"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"
)

// Effect runs after an item has moved to its new status.
type Effect func(o *Order, item *Item, now time.Time)

// TransitionRule allows an actor holding Capability to move an item from one of From
// to one of To. Empty From or To matches every status.
type TransitionRule struct {
	Name       string
	From       []ItemStatus
	To         []ItemStatus
	Capability kernel.Capability
	Effect     Effect
}

func (r TransitionRule) matches(from, to ItemStatus, actor kernel.Actor) bool {
	if len(r.From) > 0 && !slices.Contains(r.From, from) {
		return false
	}
	if len(r.To) > 0 && !slices.Contains(r.To, to) {
		return false
	}
	return actor.Can(r.Capability)
}

// TransitionPolicy is an ordered rule table. The first matching rule wins.
type TransitionPolicy struct {
	rules []TransitionRule
}

func NewTransitionPolicy(rules ...TransitionRule) (*TransitionPolicy, error) {
	for _, r := range rules {
		if r.Capability == "" {
			return nil, errs.NewValueIsRequiredError(fmt.Sprintf("capability of rule %q", r.Name))
		}
		for _, s := range slices.Concat(r.From, r.To) {
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
		}
	}
	return &TransitionPolicy{rules: slices.Clone(rules)}, nil
}

// DefaultTransitionPolicy lets results managers set any status and captures timing
// for lab technicians on the start and completion of work. Skipping states is allowed
// and records no timing.
func DefaultTransitionPolicy() *TransitionPolicy {
	return &TransitionPolicy{rules: []TransitionRule{
		{
			Name:       "technician starts work",
			From:       []ItemStatus{ItemPending},
			To:         []ItemStatus{ItemInProgress},
			Capability: kernel.CapabilityLabTechnician,
			Effect:     StartTiming,
		},
		{
			Name:       "technician completes work",
			From:       []ItemStatus{ItemInProgress},
			To:         []ItemStatus{ItemCompleted},
			Capability: kernel.CapabilityLabTechnician,
			Effect:     CompleteTiming,
		},
		{
			Name:       "results manager sets status",
			Capability: kernel.CapabilityManageLabResults,
		},
	}}
}

// Resolve returns the rule governing from -> to for actor, or a Conflict error.
func (p *TransitionPolicy) Resolve(from, to ItemStatus, actor kernel.Actor) (TransitionRule, error) {
	for _, r := range p.rules {
		if r.matches(from, to, actor) {
			return r, nil
		}
	}
	return TransitionRule{}, errs.NewConflictError(fmt.Sprintf("transition %s -> %s is not allowed", from, to))
}

// StartTiming records started_at and the waiting time since the order was placed.
func StartTiming(o *Order, item *Item, now time.Time) {
	item.start(o.placedAt, now)
}

// CompleteTiming records completed_at and the turnaround time, if the item was started.
func CompleteTiming(_ *Order, item *Item, now time.Time) {
	item.complete(now)
}
