package feed

import (
	"io"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"trade_tracker/internal/models"
)

func LoadBars(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open bars")
	}
	defer f.Close()
	return ReadBars(f)
}

// ReadBars parses a time,open,high,low,close,volume CSV and sorts rows by time.
func ReadBars(r io.Reader) ([]models.Bar, error) {
	var rows []BarDTO
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "parse bars")
	}
	bars := make([]models.Bar, 0, len(rows))
	for i := range rows {
		b, err := rows[i].ToModel()
		if err != nil {
			return nil, errors.Wrapf(err, "bars row %d", i+1)
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func LoadQuotes(path string) ([]models.Quote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open quotes")
	}
	defer f.Close()
	return ReadQuotes(f)
}

// ReadQuotes parses a time,bid,ask,bid_size,ask_size CSV and sorts rows by time.
func ReadQuotes(r io.Reader) ([]models.Quote, error) {
	var rows []QuoteDTO
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "parse quotes")
	}
	quotes := make([]models.Quote, 0, len(rows))
	for i := range rows {
		q, err := rows[i].ToModel()
		if err != nil {
			return nil, errors.Wrapf(err, "quotes row %d", i+1)
		}
		quotes = append(quotes, q)
	}
	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Time.Before(quotes[j].Time) })
	return quotes, nil
}

func LoadSignals(path, instrument string) ([]models.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open signals")
	}
	defer f.Close()
	return ReadSignals(f, instrument)
}

// ReadSignals parses a time,signal CSV, drops rows without a direction and sorts by time.
func ReadSignals(r io.Reader, instrument string) ([]models.Signal, error) {
	var rows []SignalDTO
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "parse signals")
	}
	signals := make([]models.Signal, 0, len(rows))
	for i := range rows {
		s, ok, err := rows[i].ToModel(instrument)
		if err != nil {
			return nil, errors.Wrapf(err, "signals row %d", i+1)
		}
		if ok {
			signals = append(signals, s)
		}
	}
	sort.SliceStable(signals, func(i, j int) bool { return signals[i].Time.Before(signals[j].Time) })
	return signals, nil
}
