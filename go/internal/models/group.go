package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a supporters' group owning tifos.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TifoCount int       `json:"tifo_count"`
	CreatedAt time.Time `json:"created_at"`
}
