package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/gateway"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/refcache"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/view"
)

var (
	errMissingStore = errors.New("gateway store is required")

	// ErrBusy reports a conflicting operation while another is in flight
	// for this screen.
	ErrBusy = errors.New("orders: operation already in progress")
	// ErrInvalidStatus reports an unknown delivery status value.
	ErrInvalidStatus = errors.New("orders: invalid delivery status")
)

const (
	opRefresh      = "orders.refresh"
	opUpdateStatus = "orders.update_status"

	unknownCustomer   = "Unknown"
	noPhoneProvided   = "No phone provided"
	noAddressProvided = "No address provided"
)

// userRef carries the denormalized display fields resolved for an order's
// customer.
type userRef struct {
	Name    string
	Phone   string
	Address string
}

// DashboardConfig bundles the collaborators for an order dashboard session.
type DashboardConfig struct {
	Store  gateway.Store
	Logger *zap.Logger
	Clock  func() time.Time
}

// Dashboard holds one session's local copy of the order collection: the
// projected record list, the active filters, and summary counters that
// stay exact across partial mutations.
type Dashboard struct {
	store  gateway.Store
	logger *zap.Logger
	clock  func() time.Time

	cache       *refcache.Cache[string, userRef]
	coordinator *view.Coordinator[Order]
	seq         view.Sequencer

	session view.Session

	records      []Order
	search       string
	statusFilter string
	dateFilter   view.DateBucket
	stats        view.Summary
}

// NewDashboard validates configuration and builds an empty dashboard;
// call Refresh to load it.
func NewDashboard(cfg DashboardConfig) (*Dashboard, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	dashboard := &Dashboard{
		store:        cfg.Store,
		logger:       logger,
		clock:        clock,
		statusFilter: view.All,
		dateFilter:   view.BucketAll,
		stats:        view.Tally(nil, statusCounters()),
	}

	cache, err := refcache.New(refcache.Config[string, userRef]{
		Fetch:  dashboard.fetchUser,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	dashboard.cache = cache

	coordinator, err := view.NewCoordinator(view.CoordinatorConfig[Order]{
		Store:      cfg.Store,
		Collection: gateway.CollectionOrders,
		ID:         func(o Order) string { return o.ID },
		Merge:      mergeOrder,
	})
	if err != nil {
		return nil, err
	}
	dashboard.coordinator = coordinator

	return dashboard, nil
}

func statusCounters() []view.Counter[Order] {
	counters := make([]view.Counter[Order], 0, len(AllStatuses))
	for _, status := range AllStatuses {
		match := status
		counters = append(counters, view.Counter[Order]{
			Name:  string(match),
			Match: func(o Order) bool { return o.DeliveryStatus == match },
		})
	}
	return counters
}

func (d *Dashboard) fetchUser(ctx context.Context, userID string) (userRef, bool, error) {
	doc, err := d.store.FetchOne(ctx, gateway.CollectionUsers, userID)
	if errors.Is(err, gateway.ErrNotFound) {
		return userRef{}, false, nil
	}
	if err != nil {
		return userRef{}, false, err
	}

	name := doc.String("name")
	if name == "" {
		name = doc.String("displayName")
	}
	return userRef{
		Name:    name,
		Phone:   doc.String("phone"),
		Address: doc.String("address"),
	}, true, nil
}

// Refresh reloads the full order collection, newest first, resolving
// customer references concurrently. The user cache is cleared at the
// reload boundary. A response superseded by a newer refresh is discarded.
func (d *Dashboard) Refresh(ctx context.Context) error {
	if err := d.session.Begin(); err != nil {
		return ErrBusy
	}
	defer d.session.End()

	seq := d.seq.Next()
	d.cache.Clear()

	docs, err := d.store.FetchAll(ctx, gateway.CollectionOrders, &gateway.SortSpec{Field: "createdAt", Descending: true})
	if err != nil {
		d.logger.Error("order fetch failed", zap.String("operation", opRefresh), zap.Error(err))
		return fmt.Errorf("%s: %w", opRefresh, err)
	}

	projected := view.Project(ctx, docs, func(ctx context.Context, doc gateway.Document) Order {
		return d.project(ctx, orderFromDoc(doc))
	})

	if !d.seq.Accept(seq) {
		d.logger.Debug("stale order refresh discarded", zap.Uint64("seq", seq))
		return nil
	}

	d.session.Lock()
	d.records = projected
	d.stats = view.Tally(projected, statusCounters())
	d.session.Unlock()

	d.logger.Info("orders loaded", zap.Int("count", len(projected)))
	return nil
}

// project joins an order with its resolved customer. Fallback chain per
// field: value on the order itself, then the resolved user, then the
// literal placeholder.
func (d *Dashboard) project(ctx context.Context, order Order) Order {
	order.CustomerName = unknownCustomer
	order.CustomerPhone = order.PhoneNumber
	order.CustomerAddress = order.Address

	if order.UserID != "" {
		if ref, ok := d.cache.Resolve(ctx, order.UserID); ok {
			if ref.Name != "" {
				order.CustomerName = ref.Name
			}
			if order.CustomerPhone == "" {
				order.CustomerPhone = ref.Phone
			}
			if order.CustomerAddress == "" {
				order.CustomerAddress = ref.Address
			}
		}
	}

	if order.CustomerPhone == "" {
		order.CustomerPhone = noPhoneProvided
	}
	if order.CustomerAddress == "" {
		order.CustomerAddress = noAddressProvided
	}
	return order
}

// SetSearch updates the free-text filter.
func (d *Dashboard) SetSearch(term string) {
	d.session.Lock()
	d.search = term
	d.session.Unlock()
}

// SetStatusFilter updates the categorical status filter; view.All clears it.
func (d *Dashboard) SetStatusFilter(status string) error {
	if status != view.All && !Status(status).Valid() {
		return ErrInvalidStatus
	}
	d.session.Lock()
	d.statusFilter = status
	d.session.Unlock()
	return nil
}

// SetDateFilter updates the date bucket filter.
func (d *Dashboard) SetDateFilter(bucket view.DateBucket) error {
	if !view.ValidBucket(bucket) {
		return fmt.Errorf("orders: invalid date filter %q", bucket)
	}
	d.session.Lock()
	d.dateFilter = bucket
	d.session.Unlock()
	return nil
}

// ClearFilters resets search, status and date filters.
func (d *Dashboard) ClearFilters() {
	d.session.Lock()
	d.search = ""
	d.statusFilter = view.All
	d.dateFilter = view.BucketAll
	d.session.Unlock()
}

// Visible applies the active filters to the current record list. Search
// matches customer name, order id, phone and address; filters compose by
// AND; the gateway's newest-first order is preserved.
func (d *Dashboard) Visible() []Order {
	d.session.Lock()
	records := d.records
	search := d.search
	statusFilter := d.statusFilter
	dateFilter := d.dateFilter
	d.session.Unlock()

	predicate := view.And(
		view.TextSearch(search, func(o Order) []string {
			return []string{o.CustomerName, o.ID, o.CustomerPhone, o.CustomerAddress}
		}),
		view.Equals(statusFilter, func(o Order) string { return string(o.DeliveryStatus) }),
		view.InBucket(dateFilter, func(o Order) time.Time { return o.CreatedAt }, d.clock()),
	)

	return view.Apply(records, predicate, nil)
}

// Stats returns per-status counts plus the total over the full unfiltered
// list.
func (d *Dashboard) Stats() view.Summary {
	d.session.Lock()
	defer d.session.Unlock()
	return d.stats.Clone()
}

// UpdateStatus moves one order to a new delivery status: gateway update
// first, then a local merge and an exact counter shift. On gateway failure
// local state is untouched.
func (d *Dashboard) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := d.session.Begin(); err != nil {
		return ErrBusy
	}
	defer d.session.End()

	d.session.Lock()
	records := d.records
	d.session.Unlock()

	previous, ok := findStatus(records, orderID)
	if !ok {
		return fmt.Errorf("%s: %w", opUpdateStatus, view.ErrRecordNotListed)
	}

	patch := view.Patch{
		"deliveryStatus": string(status),
		"updatedAt":      d.clock(),
	}
	updated, err := d.coordinator.Apply(ctx, records, orderID, patch)
	if err != nil {
		d.logger.Error("order status update failed",
			zap.String("operation", opUpdateStatus),
			zap.String("order_id", orderID),
			zap.Error(err))
		return fmt.Errorf("%s: %w", opUpdateStatus, err)
	}

	d.session.Lock()
	d.records = updated
	if previous != status {
		d.stats.Shift(string(previous), string(status))
	}
	d.session.Unlock()

	d.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))
	return nil
}

func findStatus(records []Order, id string) (Status, bool) {
	for _, order := range records {
		if order.ID == id {
			return order.DeliveryStatus, true
		}
	}
	return "", false
}
