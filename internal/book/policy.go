package book

// executionPolicy and marketDataPolicy are the book's own view of its
// observer seams. They are declared locally, structurally identical to
// policy.ExecutionPolicy/policy.MarketDataPolicy, so that package book
// never has to import package policy (which itself imports book to talk
// about OrderQuantity) — any policy.ExecutionPolicy implementation already
// satisfies executionPolicy.
type executionPolicy interface {
	PlaceOrder(orderQuantity *OrderQuantity) error
	CancelOrder(orderQuantity *OrderQuantity) error
	ExecuteOrders(executedQuantity *uint64, aggressor, bookOrder *OrderQuantity) error
}

type marketDataPolicy interface {
	HandleOrderPlaced(orderQuantity *OrderQuantity)
	HandleOrderCancelled(orderQuantity *OrderQuantity)
	HandleOrderExecuted(executedQuantity uint64, aggressor, bookOrder *OrderQuantity)
}
