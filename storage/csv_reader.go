package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"car-price-estimator/models"
)

// Header names of the reference CSV.
var csvColumns = []string{
	models.ColBrand, models.ColModel, models.ColBodyType, models.ColFuelType,
	models.ColSeats, models.ColColor, models.ColCity, models.ColModelYear,
}

// CSVReader loads reference listings from a CSV file with a header row.
// Columns are located by header name, so their order does not matter and
// extra columns are ignored.
type CSVReader struct {
	path string
}

// NewCSVReader returns a reader for the file at path. The file is only
// opened when Load is called.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// Load reads every row of the file.
func (c *CSVReader) Load(_ context.Context) ([]models.ListingRecord, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", c.path, err)
	}
	defer f.Close()

	return ReadListings(f)
}

// ReadListings parses reference listings from r.
func ReadListings(r io.Reader) ([]models.ListingRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: empty file")
		}
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	idx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var listings []models.ListingRecord
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}

		l, err := parseRecord(record, idx)
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func indexColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		// tolerate a UTF-8 BOM on the first header cell
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	var missing []string
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv: missing columns %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRecord(record []string, idx map[string]int) (models.ListingRecord, error) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	seats, err := parseInt(get(models.ColSeats))
	if err != nil {
		return models.ListingRecord{}, fmt.Errorf("seats: %w", err)
	}
	year, err := parseInt(get(models.ColModelYear))
	if err != nil {
		return models.ListingRecord{}, fmt.Errorf("modelYear: %w", err)
	}

	return models.ListingRecord{
		Brand:     get(models.ColBrand),
		Model:     get(models.ColModel),
		BodyType:  models.BodyType(get(models.ColBodyType)),
		FuelType:  models.FuelType(get(models.ColFuelType)),
		Seats:     seats,
		Color:     get(models.ColColor),
		City:      get(models.ColCity),
		ModelYear: year,
	}, nil
}

// parseInt accepts pandas-style floats such as "5.0".
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}
