package book

import "fenrir/internal/coreerr"

// PriceLevel is a FIFO queue of resting orders at one price on one side of
// one market. Orders are enqueued strictly in arrival order, giving
// price-time priority within the level. An empty level must be removed
// from its BookSide; PriceLevel itself never does that — the owning
// BookSide does, since only it knows when to drop the level from the
// price-indexed map.
type PriceLevel struct {
	Price  uint64
	Orders []*OrderQuantity
}

func newPriceLevel(price uint64, first *OrderQuantity) *PriceLevel {
	return &PriceLevel{Price: price, Orders: []*OrderQuantity{first}}
}

// IsEmpty reports whether the level's FIFO has been fully drained.
func (lvl *PriceLevel) IsEmpty() bool {
	return len(lvl.Orders) == 0
}

// place runs the execution policy's placement gate and, on success, appends
// bookOrder to the tail of the FIFO and notifies market data.
func (lvl *PriceLevel) place(bookOrder *OrderQuantity, execPolicy executionPolicy, mdPolicy marketDataPolicy) error {
	if err := execPolicy.PlaceOrder(bookOrder); err != nil {
		return err
	}
	lvl.Orders = append(lvl.Orders, bookOrder)
	mdPolicy.HandleOrderPlaced(bookOrder)
	return nil
}

// match consumes resting orders from the head of the FIFO against the
// aggressor while both have quantity remaining. A non-nil error from the
// execution policy aborts the loop immediately; fills already applied
// remain in effect.
func (lvl *PriceLevel) match(aggressor *OrderQuantity, execPolicy executionPolicy, mdPolicy marketDataPolicy) error {
	for len(lvl.Orders) > 0 && aggressor.Quantity > 0 {
		bookOrder := lvl.Orders[0]
		executed := min(aggressor.Quantity, bookOrder.Quantity)
		if err := execPolicy.ExecuteOrders(&executed, aggressor, bookOrder); err != nil {
			return err
		}
		mdPolicy.HandleOrderExecuted(executed, aggressor, bookOrder)
		if bookOrder.Quantity == 0 {
			lvl.Orders = lvl.Orders[1:]
		}
	}
	return nil
}

// cancel locates the order (participantID, orderID) in the FIFO and splices
// it out. The execution policy is consulted before any splice happens, so
// a rejected cancel leaves the level untouched.
func (lvl *PriceLevel) cancel(participantID, orderID uint64, execPolicy executionPolicy, mdPolicy marketDataPolicy) (*OrderQuantity, error) {
	idx := -1
	for i, oq := range lvl.Orders {
		if oq.Order.ParticipantID == participantID && oq.Order.OrderID == orderID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, coreerr.ErrUnknownOrder
	}
	target := lvl.Orders[idx]
	if err := execPolicy.CancelOrder(target); err != nil {
		return nil, err
	}
	lvl.Orders = append(lvl.Orders[:idx], lvl.Orders[idx+1:]...)
	mdPolicy.HandleOrderCancelled(target)
	return target, nil
}
