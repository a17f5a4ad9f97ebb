package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit сколько последних записей хранится в истории
const DefaultHistoryLimit = 10

// SharedOwner владелец истории HTTP API и CLI; у каждого чата бота своя история
const SharedOwner = ""

// HistoryEntry запись истории сгенерированных кодов
type HistoryEntry struct {
	Id        uuid.UUID `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	Text      string    `json:"text"`
	Size      int       `json:"size"`
	BgColor   Color     `json:"bgColor"`
	FgColor   Color     `json:"fgColor"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHistoryEntry создает запись по запросу
func NewHistoryEntry(req EncodeRequest) *HistoryEntry {
	return &HistoryEntry{
		Id:        uuid.New(),
		Text:      req.Payload,
		Size:      req.Size,
		BgColor:   req.Background,
		FgColor:   req.Foreground,
		Timestamp: GetCurrentTime(),
	}
}

// GetCurrentTime возвращает текущее время с точностью до миллисекунд
func GetCurrentTime() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
