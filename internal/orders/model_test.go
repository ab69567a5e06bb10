package orders

import "testing"

func TestStatusValid(t *testing.T) {
	for _, status := range AllStatuses {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if Status("teleported").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}

func TestStatusLabels(t *testing.T) {
	cases := map[Status]string{
		StatusPending:        "Pending",
		StatusProcessing:     "Processing",
		StatusShipped:        "Shipped",
		StatusOutForDelivery: "Out for Delivery",
		StatusCompleted:      "Completed",
		StatusCancelled:      "Cancelled",
	}
	for status, want := range cases {
		if got := status.Label(); got != want {
			t.Fatalf("label for %s: got %q, want %q", status, got, want)
		}
	}
	if Status("x").Label() != "Unknown" {
		t.Fatalf("expected Unknown for an unrecognized status")
	}
}

func TestItemLineTotalDefaultsQuantityToOne(t *testing.T) {
	item := Item{Name: "Almonds", Price: 4.5}
	if got := item.LineTotal(); got != "4.50" {
		t.Fatalf("expected 4.50, got %q", got)
	}

	item.Quantity = 3
	if got := item.LineTotal(); got != "13.50" {
		t.Fatalf("expected 13.50, got %q", got)
	}
}

func TestMergeOrderTouchesOnlyKnownFields(t *testing.T) {
	order := Order{
		DeliveryStatus: StatusPending,
		PaymentStatus:  "unpaid",
		CustomerName:   "Alice",
	}

	merged := mergeOrder(order, map[string]any{
		"deliveryStatus": "shipped",
		"paymentStatus":  "paid",
		"customerName":   "Mallory",
	})

	if merged.DeliveryStatus != StatusShipped {
		t.Fatalf("expected shipped, got %s", merged.DeliveryStatus)
	}
	if merged.PaymentStatus != "paid" {
		t.Fatalf("expected paid, got %q", merged.PaymentStatus)
	}
	if merged.CustomerName != "Alice" {
		t.Fatalf("projected field was overwritten")
	}
}
