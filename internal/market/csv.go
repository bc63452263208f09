package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"strategy-sim-go/internal/domain"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

var requiredColumns = []string{"date", "open", "high", "low", "close", "volume"}

// LoadCSVFile reads bars from a CSV file with a Date,Open,High,Low,Close,Volume header.
func LoadCSVFile(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses bars from r. Column order is taken from the header, extra columns are ignored.
func ReadCSV(r io.Reader) ([]domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.InvalidInputError{Index: -1, Reason: "bar file is empty"}
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &domain.InvalidInputError{Index: -1, Reason: fmt.Sprintf("missing required column %q", col)}
		}
	}

	var bars []domain.Bar
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", row, err)
		}

		bar, err := parseRecord(record, index)
		if err != nil {
			return nil, &domain.InvalidInputError{Index: row, Reason: err.Error()}
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseRecord(record []string, index map[string]int) (domain.Bar, error) {
	var bar domain.Bar
	date, err := parseDate(record[index["date"]])
	if err != nil {
		return bar, err
	}
	bar.Date = date

	fields := []struct {
		col string
		dst *float64
	}{
		{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low}, {"close", &bar.Close}, {"volume", &bar.Volume},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(record[index[f.col]])
		if raw == "" {
			return bar, fmt.Errorf("missing %s", f.col)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return bar, fmt.Errorf("invalid %s %q", f.col, raw)
		}
		*f.dst = v
	}
	return bar, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// WriteCSV writes bars with the header ReadCSV expects.
func WriteCSV(w io.Writer, bars []domain.Bar) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Date", "Open", "High", "Low", "Close", "Volume"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, b := range bars {
		record := []string{
			b.Date.Format("2006-01-02"),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
