//go:build ignore

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Manual smoke check against a running postserve. Fetches the TileJSON,
// follows the advertised tile URL down a zoom range at the map center and
// reports status and payload size per tile.
//
//	go run scripts/smoke_tiles.go -server http://localhost:8090

type tileJSON struct {
	Tiles   []string   `json:"tiles"`
	MinZoom int        `json:"minzoom"`
	MaxZoom int        `json:"maxzoom"`
	Center  [3]float64 `json:"center"`
}

func main() {
	server := flag.String("server", "http://localhost:8090", "postserve base URL")
	maxZoom := flag.Int("max-zoom", -1, "stop at this zoom (default: the tileset's maxzoom)")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Get(*server + "/")
	if err != nil {
		log.Fatalf("Failed to fetch TileJSON: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("TileJSON request returned %s", resp.Status)
	}

	var doc tileJSON
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		log.Fatalf("Failed to decode TileJSON: %v", err)
	}
	if len(doc.Tiles) == 0 {
		log.Fatalf("TileJSON advertises no tile endpoint")
	}

	last := doc.MaxZoom
	if *maxZoom >= 0 && *maxZoom < last {
		last = *maxZoom
	}

	fmt.Printf("✅ TileJSON ok: zooms %d..%d, center %.4f,%.4f\n",
		doc.MinZoom, doc.MaxZoom, doc.Center[0], doc.Center[1])

	center := orb.Point{doc.Center[0], doc.Center[1]}
	var total, empty, failed int

	for z := doc.MinZoom; z <= last; z++ {
		tile := maptile.At(center, maptile.Zoom(z))
		url := strings.NewReplacer(
			"{z}", fmt.Sprint(z),
			"{x}", fmt.Sprint(tile.X),
			"{y}", fmt.Sprint(tile.Y),
		).Replace(doc.Tiles[0])

		start := time.Now()
		resp, err := client.Get(url)
		if err != nil {
			log.Fatalf("Failed to fetch %s: %v", url, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		total++
		switch resp.StatusCode {
		case http.StatusOK:
			fmt.Printf("   %d/%d/%d  %d bytes in %s\n",
				z, tile.X, tile.Y, len(body), time.Since(start).Round(time.Millisecond))
		case http.StatusNoContent:
			empty++
			fmt.Printf("   %d/%d/%d  empty\n", z, tile.X, tile.Y)
		default:
			failed++
			fmt.Printf("   %d/%d/%d  %s\n", z, tile.X, tile.Y, resp.Status)
		}
	}

	if failed > 0 {
		log.Fatalf("❌ %d of %d tiles failed", failed, total)
	}
	fmt.Printf("✅ %d tiles checked, %d empty\n", total, empty)
}
