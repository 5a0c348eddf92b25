package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/industry-news/internal/news"
)

// Audit is the per-run result artifact, <variant>_news_result.json.
type Audit struct {
	RunID      string      `json:"run_id"`
	BotType    string      `json:"bot_type"`
	Timestamp  time.Time   `json:"timestamp"`
	ItemCount  int         `json:"item_count"`
	Items      []news.Item `json:"items"`
	SendResult bool        `json:"send_result"`
	RenderRung int         `json:"render_rung"`
	Length     int         `json:"message_length"`
	Error      string      `json:"error,omitempty"`
}

func NewAudit(variant string, at time.Time) *Audit {
	return &Audit{RunID: uuid.NewString(), BotType: variant, Timestamp: at, Items: []news.Item{}}
}

func AuditPath(dir, variant string) string {
	return filepath.Join(dir, variant+"_news_result.json")
}

// WriteAudit overwrites the variant's artifact in dir and returns its path.
func WriteAudit(dir string, a *Audit) (string, error) {
	a.ItemCount = len(a.Items)
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal audit: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create audit dir: %w", err)
	}
	path := AuditPath(dir, a.BotType)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audit: %w", err)
	}
	return path, nil
}
