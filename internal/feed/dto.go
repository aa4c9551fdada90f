package feed

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"trade_tracker/internal/models"
)

type BarDTO struct {
	Time   string  `csv:"time"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

func (dto *BarDTO) ToModel() (models.Bar, error) {
	t, err := ParseTime(dto.Time)
	if err != nil {
		return models.Bar{}, err
	}
	if dto.High < dto.Low {
		return models.Bar{}, errors.Errorf("bar %s: high %v below low %v", dto.Time, dto.High, dto.Low)
	}
	return models.Bar{
		Time:   t,
		Open:   dto.Open,
		High:   dto.High,
		Low:    dto.Low,
		Close:  dto.Close,
		Volume: dto.Volume,
	}, nil
}

type QuoteDTO struct {
	Time    string  `csv:"time"`
	Bid     float64 `csv:"bid"`
	Ask     float64 `csv:"ask"`
	BidSize float64 `csv:"bid_size"`
	AskSize float64 `csv:"ask_size"`
}

func (dto *QuoteDTO) ToModel() (models.Quote, error) {
	t, err := ParseTime(dto.Time)
	if err != nil {
		return models.Quote{}, err
	}
	return models.Quote{
		Time:    t,
		Bid:     dto.Bid,
		Ask:     dto.Ask,
		BidSize: dto.BidSize,
		AskSize: dto.AskSize,
	}, nil
}

// SignalDTO keeps the signal column raw: blank, 0 and NaN mean no signal.
type SignalDTO struct {
	Time   string `csv:"time"`
	Signal string `csv:"signal"`
}

// ToModel returns ok=false for rows without a direction.
func (dto *SignalDTO) ToModel(instrument string) (models.Signal, bool, error) {
	raw := strings.TrimSpace(dto.Signal)
	if raw == "" {
		return models.Signal{}, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.Signal{}, false, errors.Wrapf(err, "signal %s", dto.Time)
	}
	if math.IsNaN(v) || v == 0 {
		return models.Signal{}, false, nil
	}
	t, err := ParseTime(dto.Time)
	if err != nil {
		return models.Signal{}, false, err
	}
	return models.Signal{Time: t, Instrument: instrument, Direction: models.SideOf(v)}, true, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC3339 and a few common layouts (UTC), or Unix seconds.
func ParseTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("empty time")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(sec) && !math.IsInf(sec, 0) {
		whole, frac := math.Modf(sec)
		return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
	}
	return time.Time{}, errors.Errorf("unsupported time %q", raw)
}
