// Command genmock writes a .zip archive of synthetic raw taxi-claim CSV files
// for local runs of cmd/clean. The files carry the defects the cleaning chain
// handles: inconsistent header spellings, sentinel null tokens, compound
// travel date and time columns, missing distances and reversed time ranges.
// Output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/taxi_trips.zip \
//	  -files 3 -rows 200 -seed 26
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/zip"
)

const year = 2015

var divisions = []string{"D01", "D02", "D03", "D04", "D05", "D06", "D07", "D08", "D09", "D10", "D11", "D12"}

// defect rates, per row.
const (
	nilCardRate       = 0.05
	nullPickupRate    = 0.03
	nullDistanceRate  = 0.04
	reversedTimesRate = 0.02
	amPmTimesRate     = 0.10
)

type options struct {
	files int
	rows  int
	seed  uint64
}

// stats records the defects injected so a run report can be checked against them.
type stats struct {
	Rows              int
	MissingDistance   int
	NegativeDurations int
	Sentinels         int
	ByDivision        map[string]int
}

func (s stats) Kept() int { return s.Rows - s.MissingDistance }

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/taxi_trips.zip", "output archive path")
	files := flag.Int("files", 3, "number of monthly CSV files")
	rows := flag.Int("rows", 200, "rows per file")
	seed := flag.Uint64("seed", 26, "random seed")
	flag.Parse()

	if *out == "" || *files < 1 || *files > 12 || *rows < 1 {
		flag.Usage()
		return errors.New("need -out, 1 <= -files <= 12 and -rows >= 1")
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	s, err := generate(f, options{files: *files, rows: *rows, seed: *seed})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	log.Printf("wrote %s: %d files, %d rows", *out, *files, s.Rows)
	printStats(os.Stdout, s)
	return nil
}

// generate writes the archive to w and returns what was injected.
func generate(w io.Writer, opts options) (stats, error) {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	s := stats{ByDivision: make(map[string]int)}

	zw := zip.NewWriter(w)
	for m := 1; m <= opts.files; m++ {
		name := fmt.Sprintf("taxi_claims_%d%02d.csv", year, m)
		fw, err := zw.Create(name)
		if err != nil {
			return s, fmt.Errorf("create %s: %w", name, err)
		}
		if err := writeMonth(fw, rng, time.Month(m), m%2 == 0, opts.rows, &s); err != nil {
			return s, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return s, fmt.Errorf("finalize archive: %w", err)
	}
	return s, nil
}

func header(altSpelling bool) []string {
	card := "Card No"
	if altSpelling {
		card = "CardNo"
	}
	return []string{
		card, "Division Code",
		"Pickup Latitude", "Pickup Longtitude", "Destination Latitude", "Destination Longtitude",
		"Pickup X", "Pickup Y", "Destination X", "Destination Y",
		"Travel Date", "Travel Time", "Distance Run (km)", "Taxi Fare (SGD)", "Admin",
	}
}

func writeMonth(w io.Writer, rng *rand.Rand, month time.Month, altSpelling bool, rows int, s *stats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(altSpelling)); err != nil {
		return err
	}
	days := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	for i := 0; i < rows; i++ {
		s.Rows++

		card := fmt.Sprintf("C-%05d", rng.IntN(100000))
		if rng.Float64() < nilCardRate {
			card = "nil"
			s.Sentinels++
		}
		division := divisions[rng.IntN(len(divisions))]
		s.ByDivision[division]++

		pickupLat := coord(rng, 1.25, 1.45)
		if rng.Float64() < nullPickupRate {
			pickupLat = "NULL"
			s.Sentinels++
		}

		start := time.Date(year, month, 1+rng.IntN(days), rng.IntN(23), rng.IntN(60), 0, 0, time.UTC)
		end := start.Add(time.Duration(5+rng.IntN(56)) * time.Minute)
		if rng.Float64() < reversedTimesRate {
			start, end = end, start
			s.NegativeDurations++
		}

		distance := strconv.FormatFloat(0.5+rng.Float64()*30, 'f', 1, 64)
		if rng.Float64() < nullDistanceRate {
			distance = "null"
			s.MissingDistance++
			s.Sentinels++
		}

		record := []string{
			card, division,
			pickupLat, coord(rng, 103.6, 104.0), coord(rng, 1.25, 1.45), coord(rng, 103.6, 104.0),
			projected(rng), projected(rng), projected(rng), projected(rng),
			fmt.Sprintf("%d/%d/%d TO %d/%d/%d", start.Day(), start.Month(), start.Year(), end.Day(), end.Month(), end.Year()),
			timeRange(rng, start, end),
			distance,
			strconv.FormatFloat(3+rng.Float64()*40, 'f', 2, 64),
			strconv.FormatFloat(float64(rng.IntN(4))*0.5, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func coord(rng *rand.Rand, lo, hi float64) string {
	return strconv.FormatFloat(lo+rng.Float64()*(hi-lo), 'f', 5, 64)
}

func projected(rng *rand.Rand) string {
	return strconv.FormatFloat(20000+rng.Float64()*30000, 'f', 2, 64)
}

func timeRange(rng *rand.Rand, start, end time.Time) string {
	layout := "15:04"
	if rng.Float64() < amPmTimesRate {
		layout = "3:04 PM"
	}
	return start.Format(layout) + " TO " + end.Format(layout)
}

func printStats(w io.Writer, s stats) {
	fmt.Fprintf(w, "\n=== Mock Data Stats ===\n")
	fmt.Fprintf(w, "Rows:               %d\n", s.Rows)
	fmt.Fprintf(w, "Expected kept:      %d\n", s.Kept())
	fmt.Fprintf(w, "Missing distance:   %d\n", s.MissingDistance)
	fmt.Fprintf(w, "Negative durations: %d\n", s.NegativeDurations)
	fmt.Fprintf(w, "Sentinel cells:     %d\n", s.Sentinels)

	fmt.Fprintf(w, "\nBy division:\n")
	keys := make([]string, 0, len(s.ByDivision))
	for k := range s.ByDivision {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-4s %d\n", k, s.ByDivision[k])
	}
}
