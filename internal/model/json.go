package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for operation dates, matching what the
// bot asks users to type.
const DateLayout = "02.01.2006"

type operationWire struct {
	ID     int64         `json:"id,omitempty"`
	Date   string        `json:"date"`
	Amount float64       `json:"amount"`
	ChatID int64         `json:"chat_id"`
	Type   OperationType `json:"type"`
}

// MarshalJSON encodes the operation date as DD.MM.YYYY.
func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(operationWire{
		ID:     o.ID,
		Date:   o.Date.Format(DateLayout),
		Amount: o.Amount,
		ChatID: o.ChatID,
		Type:   o.Type,
	})
}

// UnmarshalJSON decodes the DD.MM.YYYY operation date.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var w operationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d, err := time.Parse(DateLayout, w.Date)
	if err != nil {
		return fmt.Errorf("parse operation date: %w", err)
	}
	*o = Operation{
		ID:     w.ID,
		Date:   d,
		Amount: w.Amount,
		ChatID: w.ChatID,
		Type:   w.Type,
	}
	return nil
}
