// Package calendarsync pushes reservation changes to the external calendar
// service. Every path here runs after the reservation write has committed
// and none of it can fail that write.
package calendarsync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"venuebook/internal/domain"
)

const (
	TypeCalendarSync = "calendar:sync"
	QueueName        = "calendar"
)

// Payload carries a snapshot so a delete can be applied after the row itself
// is gone.
type Payload struct {
	ReservationID int64              `json:"reservation_id"`
	TenantID      int64              `json:"tenant_id"`
	Action        domain.SyncAction  `json:"action"`
	Snapshot      domain.Reservation `json:"snapshot"`
}

func NewPayload(action domain.SyncAction, snapshot domain.Reservation) Payload {
	return Payload{
		ReservationID: snapshot.ID,
		TenantID:      snapshot.TenantID,
		Action:        action,
		Snapshot:      snapshot,
	}
}

func NewTask(p Payload, maxRetry int) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal calendar sync payload: %w", err)
	}
	return asynq.NewTask(TypeCalendarSync, b,
		asynq.Queue(QueueName),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(30*time.Second),
	), nil
}

func ParseTask(t *asynq.Task) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return Payload{}, fmt.Errorf("decode calendar sync payload: %w", err)
	}
	if p.ReservationID == 0 || p.TenantID == 0 {
		return Payload{}, fmt.Errorf("calendar sync payload without reservation or tenant")
	}
	return p, nil
}
