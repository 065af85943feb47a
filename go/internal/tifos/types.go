package tifos

import (
	"github.com/google/uuid"

	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/models"
)

// TifoServiceName is the fully-qualified name of the tifo RPC service.
const TifoServiceName = "tiforama.tifo.v1.TifoService"

const (
	ListTifosProcedure           = "/" + TifoServiceName + "/ListTifos"
	GetTifoProcedure             = "/" + TifoServiceName + "/GetTifo"
	CreateTifoProcedure          = "/" + TifoServiceName + "/CreateTifo"
	ValidateSeatProcedure        = "/" + TifoServiceName + "/ValidateSeat"
	GetLastPlaceProcedure        = "/" + TifoServiceName + "/GetLastPlace"
	GetSeatChoreographyProcedure = "/" + TifoServiceName + "/GetSeatChoreography"
)

type ListTifosRequest struct {
	GroupID *uuid.UUID `json:"group_id,omitempty"`
}

type ListTifosResponse struct {
	Tifos []models.Tifo `json:"tifos"`
}

type GetTifoRequest struct {
	ID uuid.UUID `json:"id"`
}

type GetTifoResponse struct {
	Tifo models.TifoDetail `json:"tifo"`
}

// CreateTifoRequest carries a complete choreography. Collections maps a place
// number to that seat's color sequence.
type CreateTifoRequest struct {
	GroupName   string              `json:"group_name"`
	TifoName    string              `json:"tifo_name"`
	Durations   []int               `json:"durations"`
	Icons       []string            `json:"icons"`
	Palette     []string            `json:"palette"`
	MP3URL      *string             `json:"mp3_url,omitempty"`
	Places      int                 `json:"places"`
	Collections map[int][]int       `json:"collections"`
	Settings    models.TifoSettings `json:"settings"`
}

type CreateTifoResponse struct {
	TifoID uuid.UUID `json:"tifo_id"`
}

type ValidateSeatRequest struct {
	GroupName string `json:"group_name"`
	TifoName  string `json:"tifo_name"`
	Place     int    `json:"place"`
}

type ValidateSeatResponse struct {
	TifoID uuid.UUID `json:"tifo_id"`
	Places int       `json:"places"`
}

type GetLastPlaceRequest struct {
	TifoID uuid.UUID `json:"tifo_id"`
}

type GetLastPlaceResponse struct {
	LastPlace int `json:"last_place"`
}

type GetSeatChoreographyRequest struct {
	GroupName string `json:"group_name"`
	TifoName  string `json:"tifo_name"`
	Place     int    `json:"place"`
}

type GetSeatChoreographyResponse struct {
	TifoID      uuid.UUID           `json:"tifo_id"`
	DisplayMode models.DisplayMode  `json:"display_mode"`
	Slideshow   bool                `json:"slideshow"`
	Bundle      choreography.Bundle `json:"bundle"`
}

// SeatChoreography is a seat's playable choreography plus its display settings.
type SeatChoreography struct {
	TifoID   uuid.UUID
	Settings models.TifoSettings
	Bundle   choreography.Bundle
}
