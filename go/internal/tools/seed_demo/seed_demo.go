package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/dbconfig"
	"github.com/mcdev12/tiforama/go/internal/models"
	"github.com/mcdev12/tiforama/go/internal/tifos"
)

// demo/demo is served from memory by the API, so the seeded copy lives under
// its own name.
const (
	seedGroup = "tiforama"
	seedTifo  = "wave"
)

func main() {
	file := flag.String("file", "", "JSON choreography to seed (CreateTifo request shape); defaults to a wave over the demo bundle")
	flag.Parse()

	// 1) Load the choreography
	req, err := loadRequest(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load choreography: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Replace the tifo and all of its parts in one transaction
	var tifoID string
	var rows int
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		tifoID, rows, err = seed(ctx, tx, req)
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed %s/%s: %v\n", req.GroupName, req.TifoName, err)
		os.Exit(1)
	}

	// 4) Print summary
	fmt.Printf(
		"Demo seed complete: %s/%s (%s), %d places, %d frames, %d place rows\n",
		req.GroupName, req.TifoName, tifoID, req.Places, len(req.Durations), rows,
	)
}

func loadRequest(path string) (tifos.CreateTifoRequest, error) {
	if path == "" {
		return waveRequest(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tifos.CreateTifoRequest{}, err
	}
	var req tifos.CreateTifoRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return tifos.CreateTifoRequest{}, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if req.GroupName == "" {
		req.GroupName = seedGroup
	}
	if req.TifoName == "" {
		req.TifoName = seedTifo
	}
	return req, nil
}

// waveRequest shifts the demo colors by one block per place, so neighbouring
// seats light up one after another.
func waveRequest() tifos.CreateTifoRequest {
	b := choreography.DemoBundle()
	req := tifos.CreateTifoRequest{
		GroupName:   seedGroup,
		TifoName:    seedTifo,
		Durations:   b.Durations,
		Icons:       b.Icons,
		Palette:     b.Palette,
		Places:      b.Places,
		Collections: make(map[int][]int, b.Places),
	}
	for place := 1; place <= b.Places; place++ {
		colors := make([]int, len(b.Colors))
		for i, c := range b.Colors {
			colors[i] = (c-1+place-1)%len(b.Palette) + 1
		}
		req.Collections[place] = colors
	}
	return req
}

func seed(ctx context.Context, tx pgx.Tx, req tifos.CreateTifoRequest) (string, int, error) {
	var groupID string
	err := tx.QueryRow(ctx, `
        INSERT INTO groups (name) VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id::text
    `, req.GroupName).Scan(&groupID)
	if err != nil {
		return "", 0, fmt.Errorf("upsert group: %w", err)
	}

	var settings []byte
	if req.Settings != (models.TifoSettings{}) {
		if settings, err = json.Marshal(req.Settings); err != nil {
			return "", 0, err
		}
	}

	var tifoID string
	err = tx.QueryRow(ctx, `
        INSERT INTO tifos (group_id, name, places, mp3_url, settings)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (group_id, name) DO UPDATE SET
            places = EXCLUDED.places,
            mp3_url = EXCLUDED.mp3_url,
            settings = EXCLUDED.settings,
            updated_at = NOW()
        RETURNING id::text
    `, groupID, req.TifoName, req.Places, req.MP3URL, settings).Scan(&tifoID)
	if err != nil {
		return "", 0, fmt.Errorf("upsert tifo: %w", err)
	}

	for _, table := range []string{"tifo_durations", "tifo_icons", "tifo_palette", "tifo_places"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE tifo_id = $1", tifoID); err != nil {
			return "", 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for i, d := range req.Durations {
		batch.Queue(`INSERT INTO tifo_durations (tifo_id, position, duration) VALUES ($1, $2, $3)`, tifoID, i, d)
	}
	for i, icon := range req.Icons {
		batch.Queue(`INSERT INTO tifo_icons (tifo_id, position, icon) VALUES ($1, $2, $3)`, tifoID, i, icon)
	}
	for i, color := range req.Palette {
		batch.Queue(`INSERT INTO tifo_palette (tifo_id, position, color) VALUES ($1, $2, $3)`, tifoID, i, color)
	}

	places := make([]int, 0, len(req.Collections))
	for place := range req.Collections {
		places = append(places, place)
	}
	sort.Ints(places)

	rows := 0
	for _, place := range places {
		for i, c := range req.Collections[place] {
			batch.Queue(`INSERT INTO tifo_places (tifo_id, place_number, position, color_index) VALUES ($1, $2, $3, $4)`,
				tifoID, place, i, c)
			rows++
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", 0, fmt.Errorf("insert parts: %w", err)
	}
	return tifoID, rows, nil
}
