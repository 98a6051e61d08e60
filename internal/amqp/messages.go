package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
)

// SummaryRebuildMessage asks the worker to recompute the monthly summary
// for one (user, month). It carries only the key; the worker reads the
// current records itself, so stale or duplicate deliveries are harmless.
type SummaryRebuildMessage struct {
	UserID    int64     `json:"user_id"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSummaryRebuildMessage(userID int64, month string) *SummaryRebuildMessage {
	return &SummaryRebuildMessage{
		UserID:    userID,
		Month:     month,
		Timestamp: time.Now(),
	}
}

func (m *SummaryRebuildMessage) Validate() error {
	if m.UserID <= 0 {
		return fmt.Errorf("invalid user id %d", m.UserID)
	}
	if !core.ValidMonth(m.Month) {
		return fmt.Errorf("invalid month %q", m.Month)
	}
	return nil
}

func (m *SummaryRebuildMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SummaryRebuildMessageFromJSON(data []byte) (*SummaryRebuildMessage, error) {
	var msg SummaryRebuildMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
