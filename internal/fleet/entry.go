package fleet

import "time"

// Status представляет последнее известное состояние сервера камеры
type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusOnline      Status = "online"
	StatusBusy        Status = "busy"
	StatusUnreachable Status = "unreachable"
)

// ServerEntry представляет один сервер камеры в списке флота
type ServerEntry struct {
	Address string `json:"address"` // сетевой адрес, уникальный идентификатор
	Label   string `json:"label,omitempty"`
	Status  Status `json:"status"`
}

// ImageRecord представляет один снимок, полученный от сервера
type ImageRecord struct {
	ID        string    `json:"id"`
	Server    string    `json:"server"` // слабая ссылка: сервер может быть уже удалён
	Orphaned  bool      `json:"orphaned"`
	Timestamp time.Time `json:"timestamp"`

	// Handle is owned by the image pipeline; the store never touches it.
	Handle any `json:"-"`
}
