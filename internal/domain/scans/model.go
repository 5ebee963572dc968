package scans

import "time"

// Scan одно обращение к оценке вещи (QR-скан, /score в боте, API).
type Scan struct {
	ID        int64          `json:"id"`
	ItemCode  string         `json:"item_code"`
	SessionID string         `json:"session_id,omitempty"`
	Profile   string         `json:"profile"`
	Score     float64        `json:"score"`
	Grade     string         `json:"grade"`
	Payload   map[string]any `json:"payload,omitempty"`
	ScannedAt time.Time      `json:"scanned_at"`
}
