package amqp

import (
	"encoding/json"
	"time"
)

// RecordSyncMessage asks the export worker to push one hour record to the
// spreadsheet. It carries only the row id; the worker re-reads the full
// record from the database so it always exports the latest values.
type RecordSyncMessage struct {
	RecordID  int64     `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordSyncMessage(recordID int64) *RecordSyncMessage {
	return &RecordSyncMessage{
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
