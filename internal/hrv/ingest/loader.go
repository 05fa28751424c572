// Package ingest reads the exported PPG capture format: a loosely
// structured CSV where each recording starts on a line containing an
// "0x" marker followed by a hexadecimal sample dump that may continue
// over any number of lines. One byte per sample at a fixed rate.
package ingest

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/hrv/pipeline"
)

// Record is one raw recording parsed from the capture file.
type Record struct {
	Name     string
	Waveform []float64
}

var (
	nonHex     = regexp.MustCompile(`[^0-9A-Fa-f]`)
	nameNumber = regexp.MustCompile(`(\d+)`)
)

// ReadFile parses a capture file into raw signal records.
func ReadFile(path string, artifactMax float64) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	defer f.Close()
	return Read(f, artifactMax)
}

// Read parses capture data into raw signal records. Records whose hex
// payload cannot be decoded are skipped with a log line rather than
// failing the whole file.
func Read(r io.Reader, artifactMax float64) ([]Record, error) {
	type rawRecord struct {
		name string
		hex  strings.Builder
	}

	var (
		records []*rawRecord
		current *rawRecord
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Contains(line, "0x") {
			// New record: name before the first comma, payload after
			// the hex marker.
			current = &rawRecord{name: strings.TrimSpace(strings.Split(line, ",")[0])}
			records = append(records, current)
			if _, payload, ok := strings.Cut(line, "0x"); ok {
				current.hex.WriteString(strings.TrimSpace(payload))
			}
			continue
		}
		if current != nil {
			// Continuation of the current record's dump.
			current.hex.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read capture data: %w", err)
	}

	out := make([]Record, 0, len(records))
	for _, raw := range records {
		wave, err := decodeWaveform(raw.hex.String())
		if err != nil {
			log.Printf("ingest: skipping record %q: %v", raw.name, err)
			continue
		}
		SmoothArtifacts(wave, artifactMax)
		out = append(out, Record{Name: raw.name, Waveform: wave})
	}
	return out, nil
}

// decodeWaveform strips stray characters from a hex dump and decodes it
// to one float sample per byte.
func decodeWaveform(rawHex string) ([]float64, error) {
	clean := nonHex.ReplaceAllString(rawHex, "")
	if len(clean)%2 != 0 {
		clean = clean[:len(clean)-1]
	}
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode hex payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	wave := make([]float64, len(data))
	for i, b := range data {
		wave[i] = float64(b)
	}
	return wave, nil
}

// SmoothArtifacts replaces samples above the threshold with the average
// of their neighbours, in place. Spikes at the signal edges are zeroed.
func SmoothArtifacts(signal []float64, threshold float64) {
	for i, v := range signal {
		if v <= threshold {
			continue
		}
		if i > 0 && i < len(signal)-1 {
			signal[i] = (signal[i-1] + signal[i+1]) / 2
		} else {
			signal[i] = 0
		}
	}
}

// OrganizeSubjects groups records into subjects of three consecutive
// recordings in protocol order (baseline, favorite_song,
// least_favorite_song) after sorting by the numeric ID embedded in each
// record name. Records below startID and trailing incomplete groups are
// dropped.
func OrganizeSubjects(records []Record, startID int) map[int]pipeline.Input {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return fileNumber(sorted[i].Name) < fileNumber(sorted[j].Name)
	})

	filtered := sorted[:0]
	for _, rec := range sorted {
		if fileNumber(rec.Name) >= startID {
			filtered = append(filtered, rec)
		}
	}

	subjects := make(map[int]pipeline.Input)
	subjectID := 1
	for i := 0; i+len(hrv.Conditions) <= len(filtered); i += len(hrv.Conditions) {
		in := make(pipeline.Input, len(hrv.Conditions))
		for j, cond := range hrv.Conditions {
			in[cond] = filtered[i+j].Waveform
		}
		subjects[subjectID] = in
		subjectID++
	}
	if dropped := len(filtered) % len(hrv.Conditions); dropped != 0 {
		log.Printf("ingest: dropping %d trailing records that do not form a complete subject", dropped)
	}
	return subjects
}

// fileNumber extracts the numeric ID embedded in a record name, or 0.
func fileNumber(name string) int {
	m := nameNumber.FindString(name)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
