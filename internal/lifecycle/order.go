package lifecycle

type OrderStatus string

const (
	StatusPlaced    OrderStatus = "Placed"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCanceled  OrderStatus = "Canceled"
)

type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// Order is the record kept in the order store. Detail carries the raw
// submission payload through unchanged.
type Order struct {
	ID     string
	Status OrderStatus
	Items  []LineItem
	Detail []byte
}
