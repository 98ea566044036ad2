package book

import (
	"fenrir/internal/common"
	"fenrir/internal/coreerr"

	"github.com/tidwall/btree"
)

// BookSide is one side (Bid or Ask) of an OrderBook: a price-indexed,
// ordered map of price to PriceLevel, backed by tidwall/btree. Side fixes
// the iteration direction: a Bid side orders highest price first (the best
// bid), an Ask side orders lowest price first (the best ask) — so in both
// cases levels.MinMut() under the side's own comparator yields the most
// aggressive resting price.
type BookSide struct {
	side   common.Side
	levels *btree.BTreeG[*PriceLevel]
}

func newBookSide(side common.Side) *BookSide {
	var less func(a, b *PriceLevel) bool
	if side == common.Bid {
		less = func(a, b *PriceLevel) bool { return a.Price > b.Price }
	} else {
		less = func(a, b *PriceLevel) bool { return a.Price < b.Price }
	}
	return &BookSide{side: side, levels: btree.NewBTreeG(less)}
}

// Len returns the number of distinct price levels resting on this side.
func (bs *BookSide) Len() int {
	return bs.levels.Len()
}

// Levels returns every resting price level, best price first. It is for
// introspection/tests only — the match/place hot paths never call it.
func (bs *BookSide) Levels() []*PriceLevel {
	out := make([]*PriceLevel, 0, bs.levels.Len())
	bs.levels.Scan(func(level *PriceLevel) bool {
		out = append(out, level)
		return true
	})
	return out
}

func (bs *BookSide) isFinishedForLimit(remaining uint64, levelPrice, limitPrice uint64) bool {
	if remaining == 0 {
		return true
	}
	if bs.side == common.Bid {
		return levelPrice < limitPrice
	}
	return levelPrice > limitPrice
}

// matchLimit sweeps this side from its best price while the level price has
// not crossed limitPrice and the aggressor still has quantity remaining.
func (bs *BookSide) matchLimit(aggressor *OrderQuantity, limitPrice uint64, execPolicy executionPolicy, mdPolicy marketDataPolicy) error {
	for {
		level, ok := bs.levels.MinMut()
		if !ok {
			return nil
		}
		if bs.isFinishedForLimit(aggressor.Quantity, level.Price, limitPrice) {
			return nil
		}
		if err := level.match(aggressor, execPolicy, mdPolicy); err != nil {
			return err
		}
		if level.IsEmpty() {
			bs.levels.Delete(level)
		}
	}
}

// matchMarket sweeps this side from its best price with no price bound,
// until the aggressor is filled or the side is exhausted.
func (bs *BookSide) matchMarket(aggressor *OrderQuantity, execPolicy executionPolicy, mdPolicy marketDataPolicy) error {
	for aggressor.Quantity > 0 {
		level, ok := bs.levels.MinMut()
		if !ok {
			return nil
		}
		if err := level.match(aggressor, execPolicy, mdPolicy); err != nil {
			return err
		}
		if level.IsEmpty() {
			bs.levels.Delete(level)
		}
	}
	return nil
}

// placeLimit rests bookOrder at limitPrice: appending to an existing level
// if one is present at that exact price, or gating through the execution
// policy and creating a new level otherwise.
func (bs *BookSide) placeLimit(bookOrder *OrderQuantity, limitPrice uint64, execPolicy executionPolicy, mdPolicy marketDataPolicy) error {
	if level, ok := bs.levels.GetMut(&PriceLevel{Price: limitPrice}); ok {
		return level.place(bookOrder, execPolicy, mdPolicy)
	}
	if err := execPolicy.PlaceOrder(bookOrder); err != nil {
		return err
	}
	bs.levels.Set(newPriceLevel(limitPrice, bookOrder))
	mdPolicy.HandleOrderPlaced(bookOrder)
	return nil
}

// cancel finds the level at price and splices (participantID, orderID) out
// of its FIFO, removing the level if it empties.
func (bs *BookSide) cancel(price, participantID, orderID uint64, execPolicy executionPolicy, mdPolicy marketDataPolicy) (*OrderQuantity, error) {
	level, ok := bs.levels.GetMut(&PriceLevel{Price: price})
	if !ok {
		return nil, coreerr.ErrUnknownOrder
	}
	removed, err := level.cancel(participantID, orderID, execPolicy, mdPolicy)
	if err != nil {
		return nil, err
	}
	if level.IsEmpty() {
		bs.levels.Delete(level)
	}
	return removed, nil
}
