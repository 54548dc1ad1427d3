package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for loading observations from CSV.
type CSVOptions struct {
	DateColumn  string // column name for dates (default: "date")
	ValueColumn string // column name for values (default: "value")
	DateFormat  string // date layout (default: "2006-01-02")
}

// DefaultCSVOptions returns the default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn:  "date",
		ValueColumn: "value",
		DateFormat:  "2006-01-02",
	}
}

// LoadCSV reads observations from a CSV file with a header row. Empty
// values, "NA", and the FRED "." placeholder become NaN observations.
func LoadCSV(filename string, opts *CSVOptions) ([]Observation, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	obs, err := ReadCSV(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return obs, nil
}

// ReadCSV reads observations from an io.Reader of CSV data.
func ReadCSV(r io.Reader, opts *CSVOptions) ([]Observation, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case opts.DateColumn:
			dateIdx = i
		case opts.ValueColumn:
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("columns %q and %q not found in header %v",
			opts.DateColumn, opts.ValueColumn, header)
	}

	var obs []Observation
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateIdx >= len(record) || valueIdx >= len(record) {
			return nil, fmt.Errorf("line %d: short record", line)
		}

		ts, err := time.Parse(opts.DateFormat, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		value := math.NaN()
		valStr := strings.TrimSpace(record[valueIdx])
		if valStr != "" && valStr != "." && valStr != "NA" {
			value, err = strconv.ParseFloat(valStr, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}

		obs = append(obs, Observation{Time: ts, Value: value})
	}

	return obs, nil
}
