package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Tifo struct {
	ID        uuid.UUID
	GroupID   uuid.UUID
	Name      string
	Places    int32
	Mp3Url    sql.NullString
	Settings  pqtype.NullRawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TifoWithGroup struct {
	ID        uuid.UUID
	GroupID   uuid.UUID
	Name      string
	Places    int32
	Mp3Url    sql.NullString
	Settings  pqtype.NullRawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
	GroupName string
}

type TifoPlace struct {
	PlaceNumber int32
	Position    int32
	ColorIndex  int32
}
