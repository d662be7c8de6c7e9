package timeseries

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	TimeColumn  string // Column with decimal-year times (optional)
	DateColumn  string // Column with calendar dates (optional)
	ValueColumn string // Column name for values (default: "y")
	DateFormat  string // Date format (default: "2006-01-02")
	HasHeader   bool   // Whether CSV has header row (default: true)
	Delimiter   rune   // Field delimiter (default: ',')
	SkipRows    int    // Number of rows to skip at start
	Comment     rune   // Lines starting with this rune are ignored (optional)
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		HasHeader:   true,
		Delimiter:   ',',
	}
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"2006",
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", filename)
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filename)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return s, nil
}

// LoadCSVFromReader loads a time series from an io.Reader.
//
// Without a header the first column is read as decimal-year time and the
// second as the value. Rows whose value is empty, NA, NaN or null are
// skipped, as are rows whose time cannot be parsed.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.Comment = opts.Comment
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, errors.Wrap(err, "skip rows")
		}
	}

	valueIdx, timeIdx, dateIdx := -1, -1, -1

	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, errors.Wrap(err, "read header")
		}

		for i, h := range header {
			h = strings.TrimSpace(strings.Trim(h, "\""))
			switch {
			case h == opts.ValueColumn || (opts.ValueColumn == "" && (h == "y" || h == "value" || h == "Value")):
				valueIdx = i
			case opts.TimeColumn != "" && h == opts.TimeColumn:
				timeIdx = i
			case opts.DateColumn != "" && h == opts.DateColumn:
				dateIdx = i
			case opts.TimeColumn == "" && (h == "t" || h == "time" || h == "year_decimal"):
				if timeIdx == -1 {
					timeIdx = i
				}
			case opts.DateColumn == "" && (h == "ds" || h == "date" || h == "Date"):
				if dateIdx == -1 {
					dateIdx = i
				}
			}
		}

		if valueIdx == -1 {
			if opts.ValueColumn != "" && opts.ValueColumn != "y" {
				return nil, errors.Errorf("value column %q not found", opts.ValueColumn)
			}
			valueIdx = len(header) - 1
		}
		if opts.TimeColumn != "" && timeIdx == -1 {
			return nil, errors.Errorf("time column %q not found", opts.TimeColumn)
		}
		if opts.DateColumn != "" && dateIdx == -1 {
			return nil, errors.Errorf("date column %q not found", opts.DateColumn)
		}
	} else {
		timeIdx = 0
		valueIdx = 1
	}

	formats := dateFormats
	if opts.DateFormat != "" {
		formats = append([]string{opts.DateFormat}, dateFormats...)
	}

	var values, times []float64

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read record")
		}
		if valueIdx >= len(record) {
			continue
		}

		valStr := cell(record[valueIdx])
		if valStr == "" || valStr == "NA" || valStr == "NaN" || valStr == "null" {
			continue
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			continue
		}

		t, ok := 0.0, true
		switch {
		case timeIdx >= 0:
			if timeIdx >= len(record) {
				continue
			}
			t, err = strconv.ParseFloat(cell(record[timeIdx]), 64)
			ok = err == nil
		case dateIdx >= 0:
			if dateIdx >= len(record) {
				continue
			}
			var ts time.Time
			ts, ok = parseDate(cell(record[dateIdx]), formats)
			if ok {
				t = DecimalYear(ts)
			}
		default:
			t = float64(len(values))
		}
		if !ok {
			continue
		}

		times = append(times, t)
		values = append(values, val)
	}

	if len(values) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	return &Series{
		Times:  times,
		Values: values,
	}, nil
}

func cell(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\""))
}

func parseDate(s string, formats []string) (time.Time, bool) {
	for _, layout := range formats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// LoadCSVColumn loads a specific column from a CSV file as a series.
func LoadCSVColumn(filename string, column string) (*Series, error) {
	opts := DefaultCSVOptions()
	opts.ValueColumn = column
	return LoadCSV(filename, opts)
}

// WriteCSV writes the series as "t,y" rows.
func WriteCSV(w io.Writer, series *Series) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("t,y\n"); err != nil {
		return err
	}
	for i, v := range series.Values {
		t := float64(i)
		if i < len(series.Times) {
			t = series.Times[i]
		}
		bw.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		bw.WriteString(",")
		bw.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// SaveCSV saves a time series to a CSV file.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}

	if err := WriteCSV(file, series); err != nil {
		file.Close()
		return errors.Wrapf(err, "write %s", filename)
	}
	return file.Close()
}
