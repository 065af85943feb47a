package db

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type GroupWithTifoCount struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	TifoCount int64
}
