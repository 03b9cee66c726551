package checkout

type OrderStatus string

const (
	StatusCreated        OrderStatus = "CREATED"
	StatusInProgress     OrderStatus = "IN_PROGRESS"
	StatusReady          OrderStatus = "READY"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCanceled       OrderStatus = "CANCELED"
	StatusDelayed        OrderStatus = "DELAYED"
	StatusMissing        OrderStatus = "MISSING"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusCreated:        {StatusInProgress: true, StatusCanceled: true},
	StatusInProgress:     {StatusReady: true, StatusDelayed: true, StatusMissing: true},
	StatusReady:          {StatusOutForDelivery: true, StatusDelivered: true},
	StatusOutForDelivery: {StatusDelivered: true, StatusDelayed: true, StatusMissing: true},
	StatusDelayed:        {StatusOutForDelivery: true, StatusDelivered: true, StatusMissing: true},
	StatusDelivered:      {},
	StatusCanceled:       {},
	StatusMissing:        {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}
