package order

import (
	"errors"
	"strings"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"
)

// ErrItemIsNotConstructed is returned when an Item was not created by NewItem or RestoreItem.
var ErrItemIsNotConstructed = errors.New("Item must be created via NewItem constructor")

// Item is one diagnostic test within an order. Items change only through their Order.
type Item struct {
	id       kernel.UUID
	testType string
	status   ItemStatus

	startedAt      *time.Time
	completedAt    *time.Time
	waitingTime    *int
	turnaroundTime *int

	// resultRef points into the artifact store and is never interpreted here.
	resultRef string
	remarks   string

	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewItem creates a pending item for the given test type.
func NewItem(id kernel.UUID, testType string, now time.Time) (*Item, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	testType = strings.TrimSpace(testType)
	if testType == "" {
		return nil, errs.NewValueIsRequiredError("test type")
	}

	return &Item{
		id:            id,
		testType:      testType,
		status:        ItemPending,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}, nil
}

// ItemSnapshot carries persisted item state into RestoreItem.
type ItemSnapshot struct {
	ID             kernel.UUID
	TestType       string
	Status         ItemStatus
	StartedAt      *time.Time
	CompletedAt    *time.Time
	WaitingTime    *int
	TurnaroundTime *int
	ResultRef      string
	Remarks        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RestoreItem rebuilds an item from storage.
func RestoreItem(s ItemSnapshot) (*Item, error) {
	if err := errors.Join(s.ID.Validate(), s.Status.Validate()); err != nil {
		return nil, err
	}

	return &Item{
		id:             s.ID,
		testType:       s.TestType,
		status:         s.Status,
		startedAt:      s.StartedAt,
		completedAt:    s.CompletedAt,
		waitingTime:    s.WaitingTime,
		turnaroundTime: s.TurnaroundTime,
		resultRef:      s.ResultRef,
		remarks:        s.Remarks,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
		isConstructed:  true,
	}, nil
}

func (i *Item) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrItemIsNotConstructed
	}
	return nil
}

func (i *Item) ID() kernel.UUID { return i.id }
func (i *Item) TestType() string { return i.testType }
func (i *Item) Status() ItemStatus { return i.status }
func (i *Item) StartedAt() *time.Time { return i.startedAt }
func (i *Item) CompletedAt() *time.Time { return i.completedAt }
func (i *Item) WaitingTime() *int { return i.waitingTime }
func (i *Item) TurnaroundTime() *int { return i.turnaroundTime }
func (i *Item) ResultRef() string { return i.resultRef }
func (i *Item) Remarks() string { return i.remarks }
func (i *Item) CreatedAt() time.Time { return i.createdAt }
func (i *Item) UpdatedAt() time.Time { return i.updatedAt }

func (i *Item) moveTo(status ItemStatus, now time.Time) {
	i.status = status
	i.updatedAt = now
}

func (i *Item) setRemarks(remarks string) {
	if remarks = strings.TrimSpace(remarks); remarks != "" {
		i.remarks = remarks
	}
}

func (i *Item) start(placedAt, now time.Time) {
	started := now
	waiting := kernel.MinutesBetween(placedAt, now)
	i.startedAt = &started
	i.waitingTime = &waiting
}

func (i *Item) complete(now time.Time) {
	if i.startedAt == nil {
		return
	}
	completed := now
	turnaround := kernel.MinutesBetween(*i.startedAt, now)
	i.completedAt = &completed
	i.turnaroundTime = &turnaround
}
