package folio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/rs/zerolog/log"
)

// A market folder keeps daily closing prices in a way that is human-readable
// and git-friendly: one "YYYY.jsonl" file per year, one line per day, like
//
//	{"on":"2024-01-02","AAPL":185.64,"MSFT":370.87}
//
// Decode reads every year file line by line. Encode writes the lines in
// chronological order with tickers in alphabetical order, then removes the
// year files it did not write.

const attrOn = "on"
const marketDataFilesGlob = "[0-9][0-9][0-9][0-9].jsonl"

// fileLine structures a line from a collection of files as the persistence layer represent them.
type fileLine struct {
	filename string
	i        int
	txt      string
}

// loadLines read all lines from a set of files and return them in list of structured lines.
func loadLines(filenames ...string) ([]fileLine, error) {
	list := make([]fileLine, 0, 1024)
	for _, filename := range filenames {
		r, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("cannot open %q for reading: %w", filename, err)
		}
		i := 0
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			i++
			list = append(list, fileLine{filename, i, scanner.Text()})
		}
		err = scanner.Err()
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read %q: %w", filename, err)
		}
	}
	return list, nil
}

// decodeDailyPrices decodes a single line of a market folder.
func decodeDailyPrices(m *MarketData, l fileLine) error {
	if strings.TrimSpace(l.txt) == "" {
		return nil
	}

	jobj := make(map[string]any)
	if err := json.Unmarshal([]byte(l.txt), &jobj); err != nil {
		return fmt.Errorf("parse error %s:%v: not a correct json: %w", l.filename, l.i, err)
	}

	jvalue, ok := jobj[attrOn]
	if !ok {
		return fmt.Errorf("parse error %s:%v: missing the property %q with a date", l.filename, l.i, attrOn)
	}
	jstring, ok := jvalue.(string)
	if !ok {
		return fmt.Errorf("parse error %s:%v: property %q must be of type 'string'", l.filename, l.i, attrOn)
	}
	on, err := date.Parse(jstring)
	if err != nil {
		return fmt.Errorf("parse error %s:%v: property %q must be a valid date: %w", l.filename, l.i, attrOn, err)
	}

	// All other attributes are (ticker, price) pairs.
	for ticker, price := range jobj {
		if ticker == attrOn {
			continue
		}
		p, ok := price.(float64)
		if !ok {
			return fmt.Errorf("parse error %s:%v: property %q must be of type 'number'", l.filename, l.i, ticker)
		}
		if p < 0 {
			return fmt.Errorf("parse error %s:%v: price of %q must not be negative", l.filename, l.i, ticker)
		}
		m.Append(NormalizeTicker(ticker), on, p)
	}
	return nil
}

// DecodeMarketData reads a market folder. A missing or empty folder is an
// empty market.
func DecodeMarketData(folder string) (*MarketData, error) {
	m := NewMarketData()

	filenames, err := filepath.Glob(filepath.Join(folder, marketDataFilesGlob))
	if err != nil {
		return nil, fmt.Errorf("load error: cannot scan folder %q for market data files: %w", folder, err)
	}
	lines, err := loadLines(filenames...)
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	for _, line := range lines {
		if err := decodeDailyPrices(m, line); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// encodeDailyPrices renders a single line of a market folder.
func encodeDailyPrices(day date.Date, tickers []string, values []float64) ([]byte, error) {
	var jw jsonObjectWriter
	jw.Append(attrOn, day.String())
	for i, ticker := range tickers {
		// json does not support NaN.
		if math.IsNaN(values[i]) {
			continue
		}
		jw.Append(ticker, values[i])
	}
	return jw.MarshalJSON()
}

// EncodeMarketData writes m into a market folder, creating it if needed.
func EncodeMarketData(folder string, m *MarketData) error {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("persist error: cannot create folder %q: %w", folder, err)
	}

	// Collect every day with at least one price.
	tickers := m.Tickers()
	var days []date.Date
	seen := make(map[date.Date]struct{})
	for _, ticker := range tickers {
		for on := range m.Prices(ticker) {
			if _, ok := seen[on]; !ok {
				seen[on] = struct{}{}
				days = append(days, on)
			}
		}
	}
	slices.SortFunc(days, date.Date.Compare)

	created := make(map[string]struct{})
	var current *os.File
	var w *bufio.Writer
	closeCurrent := func() error {
		if current == nil {
			return nil
		}
		if err := w.Flush(); err != nil {
			current.Close()
			return fmt.Errorf("persist error: write error on file %q: %w", current.Name(), err)
		}
		return current.Close()
	}

	for _, day := range days {
		filename := filepath.Join(folder, fmt.Sprintf("%04d.jsonl", day.Year()))
		if _, ok := created[filename]; !ok {
			if err := closeCurrent(); err != nil {
				return err
			}
			f, err := os.Create(filename)
			if err != nil {
				return fmt.Errorf("persist error: cannot create file %q: %w", filename, err)
			}
			current, w = f, bufio.NewWriter(f)
			created[filename] = struct{}{}
			log.Debug().Str("name", filename).Msg("create-market-data-file")
		}

		var names []string
		var values []float64
		for _, ticker := range tickers {
			if v, ok := m.read(ticker, day); ok {
				names = append(names, ticker)
				values = append(values, v)
			}
		}
		b, err := encodeDailyPrices(day, names, values)
		if err != nil {
			closeCurrent()
			return fmt.Errorf("persist error: cannot encode %s: %w", day, err)
		}
		w.Write(b)
		w.WriteByte('\n')
	}
	if err := closeCurrent(); err != nil {
		return err
	}

	// Delete extraneous files.
	filenames, err := filepath.Glob(filepath.Join(folder, marketDataFilesGlob))
	if err != nil {
		return fmt.Errorf("persist error: cannot scan folder %q for market data files to be deleted: %w", folder, err)
	}
	for _, filename := range filenames {
		if _, ok := created[filename]; ok {
			continue
		}
		if err := os.Remove(filename); err != nil {
			return fmt.Errorf("persist error: cannot delete file %q: %w", filename, err)
		}
		log.Debug().Str("name", filename).Msg("delete-market-data-file")
	}
	return nil
}
