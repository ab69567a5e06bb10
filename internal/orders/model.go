package orders

import (
	"time"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/gateway"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/money"
)

// Status is the delivery status of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// AllStatuses lists every status in progression order, cancelled last.
var AllStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusOutForDelivery,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether the value names a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the display label for the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusProcessing:
		return "Processing"
	case StatusShipped:
		return "Shipped"
	case StatusOutForDelivery:
		return "Out for Delivery"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// Description returns the human progress line shown next to the status.
func (s Status) Description() string {
	switch s {
	case StatusPending:
		return "Assigning delivery agent"
	case StatusProcessing:
		return "Processing, Being packed, Delivery in 15 min"
	case StatusShipped:
		return "Picked Up"
	case StatusOutForDelivery:
		return "Out for delivery, arriving in 10 min"
	case StatusCompleted:
		return "Delivered"
	case StatusCancelled:
		return "Cancelled"
	}
	return "Status unknown"
}

// Item is one line of an order.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// LineTotal formats price x quantity for display.
func (i Item) LineTotal() string {
	quantity := i.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return money.Format(i.Price * float64(quantity))
}

// Order is an order record joined with its resolved customer fields.
type Order struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Items          []Item    `json:"items"`
	Subtotal       float64   `json:"subtotal"`
	DeliveryFee    float64   `json:"deliveryFee"`
	TotalAmount    float64   `json:"totalAmount"`
	DeliveryStatus Status    `json:"deliveryStatus"`
	PaymentMethod  string    `json:"paymentMethod"`
	PaymentStatus  string    `json:"paymentStatus"`
	Address        string    `json:"address"`
	PhoneNumber    string    `json:"phoneNumber"`
	CreatedAt      time.Time `json:"createdAt"`

	// Projected display fields, resolved through the user cache.
	CustomerName    string `json:"customerName"`
	CustomerPhone   string `json:"customerPhone"`
	CustomerAddress string `json:"customerAddress"`
}

// TotalDisplay formats the order total to two fraction digits.
func (o Order) TotalDisplay() string {
	return money.Format(o.TotalAmount)
}

func orderFromDoc(doc gateway.Document) Order {
	order := Order{
		ID:             doc.ID(),
		UserID:         doc.String("userId"),
		Subtotal:       doc.Float("subtotal"),
		DeliveryFee:    doc.Float("deliveryFee"),
		TotalAmount:    doc.Float("totalAmount"),
		DeliveryStatus: Status(doc.String("deliveryStatus")),
		PaymentMethod:  doc.String("paymentMethod"),
		PaymentStatus:  doc.String("paymentStatus"),
		Address:        doc.String("address"),
		PhoneNumber:    doc.String("phoneNumber"),
		CreatedAt:      doc.Time("createdAt"),
	}

	if raw, ok := doc["items"].([]any); ok {
		order.Items = make([]Item, 0, len(raw))
		for _, entry := range raw {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			item := gateway.Document(fields)
			order.Items = append(order.Items, Item{
				Name:     item.String("name"),
				Price:    item.Float("price"),
				Quantity: item.Int("quantity"),
			})
		}
	}

	return order
}

// mergeOrder applies an acknowledged patch to the local copy. Only fields
// the dashboard actually patches are handled; projected customer fields
// are untouched because they derive from data the patch cannot change.
func mergeOrder(order Order, patch gateway.Document) Order {
	for key, value := range patch {
		switch key {
		case "deliveryStatus":
			if s, ok := value.(string); ok {
				order.DeliveryStatus = Status(s)
			}
		case "paymentStatus":
			if s, ok := value.(string); ok {
				order.PaymentStatus = s
			}
		}
	}
	return order
}
