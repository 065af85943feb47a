package tifos

import (
	"github.com/google/uuid"

	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/models"
)

const (
	DemoGroupName = "demo"
	DemoTifoName  = "demo"
)

// DemoTifoID identifies the built-in demo tifo. It never exists in storage.
var DemoTifoID = uuid.MustParse("00000000-0000-0000-0000-00000000de30")

func isDemo(groupName, tifoName string) bool {
	return groupName == DemoGroupName && tifoName == DemoTifoName
}

func demoTifo() models.Tifo {
	b := choreography.DemoBundle()
	return models.Tifo{
		ID:        DemoTifoID,
		GroupName: DemoGroupName,
		Name:      DemoTifoName,
		Places:    b.Places,
		Settings:  models.TifoSettings{DisplayMode: models.DisplayModeColor, Unit: string(b.Unit)},
	}
}

func demoDetail() *models.TifoDetail {
	b := choreography.DemoBundle()
	collections := make(map[int][]int, b.Places)
	for place := 1; place <= b.Places; place++ {
		collections[place] = append([]int(nil), b.Colors...)
	}
	return &models.TifoDetail{
		Tifo:        demoTifo(),
		Durations:   b.Durations,
		Icons:       b.Icons,
		Palette:     b.Palette,
		Collections: collections,
	}
}

func demoSeat() *SeatChoreography {
	t := demoTifo()
	return &SeatChoreography{
		TifoID:   t.ID,
		Settings: t.Settings,
		Bundle:   choreography.DemoBundle(),
	}
}
