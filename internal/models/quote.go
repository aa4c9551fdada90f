package models

import "time"

type Quote struct {
	Time    time.Time
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
}

// Mid is the midpoint of bid and ask.
func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// EntryPrice is the price a trade in direction d would pay: ask for buys, bid for sells.
func (q Quote) EntryPrice(d Side) float64 {
	if d < 0 {
		return q.Bid
	}
	return q.Ask
}
