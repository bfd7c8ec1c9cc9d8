package logkey

const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"

	OrderID   = "OrderID"
	SessionID = "SessionID"
	PriceID   = "PriceID"
	ProductID = "ProductID"
)
