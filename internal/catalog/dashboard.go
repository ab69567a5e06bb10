package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/gateway"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/money"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/view"
)

var (
	errMissingStore = errors.New("gateway store is required")
	errMissingBlobs = errors.New("blob store is required")

	// ErrBusy reports a conflicting operation while another is in flight
	// for this screen.
	ErrBusy = errors.New("catalog: operation already in progress")
	// ErrValidation wraps all local, pre-network input errors.
	ErrValidation = errors.New("catalog: invalid input")
)

// Counter names for the product summary.
const (
	CountInStock    = "in_stock"
	CountOutOfStock = "out_of_stock"
	CountFeatured   = "featured"
)

const (
	opRefresh   = "catalog.refresh"
	opCreate    = "catalog.create"
	opSaveEdit  = "catalog.save_edit"
	opToggle    = "catalog.toggle"
	opBulkStock = "catalog.bulk_stock"
	opDelete    = "catalog.delete"

	defaultDeliveryTime = "10 min"
)

// Sortable fields; anything else loads in the gateway's natural order.
const (
	SortByName      = "name"
	SortByPrice     = "price"
	SortByCreatedAt = "createdAt"
)

// DashboardConfig bundles the collaborators for a product dashboard
// session.
type DashboardConfig struct {
	Store  gateway.Store
	Blobs  gateway.BlobStore
	Logger *zap.Logger
	Clock  func() time.Time
}

// Dashboard holds one session's local copy of the product catalog with
// its filters, sort state and summary counters.
type Dashboard struct {
	store  gateway.Store
	blobs  gateway.BlobStore
	logger *zap.Logger
	clock  func() time.Time

	coordinator *view.Coordinator[Product]
	seq         view.Sequencer
	session     view.Session

	records    []Product
	categories []string
	search     string
	category   string
	sortBy     string
	descending bool
	stats      view.Summary
}

// NewDashboard validates configuration and builds an empty dashboard;
// call Refresh to load it.
func NewDashboard(cfg DashboardConfig) (*Dashboard, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	if cfg.Blobs == nil {
		return nil, errMissingBlobs
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	coordinator, err := view.NewCoordinator(view.CoordinatorConfig[Product]{
		Store:      cfg.Store,
		Collection: gateway.CollectionProducts,
		ID:         func(p Product) string { return p.ID },
		Merge:      mergeProduct,
	})
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		store:       cfg.Store,
		blobs:       cfg.Blobs,
		logger:      logger,
		clock:       clock,
		coordinator: coordinator,
		category:    view.All,
		sortBy:      SortByName,
		stats:       view.Tally(nil, productCounters()),
	}, nil
}

func productCounters() []view.Counter[Product] {
	return []view.Counter[Product]{
		{Name: CountInStock, Match: func(p Product) bool { return p.InStock }},
		{Name: CountOutOfStock, Match: func(p Product) bool { return !p.InStock }},
		{Name: CountFeatured, Match: func(p Product) bool { return p.IsFeatured }},
	}
}

// Refresh reloads the catalog with the current server-side sort and
// recomputes the distinct category list and summary counters. A response
// superseded by a newer refresh is discarded.
func (d *Dashboard) Refresh(ctx context.Context) error {
	if err := d.session.Begin(); err != nil {
		return ErrBusy
	}
	defer d.session.End()

	return d.refreshLocked(ctx)
}

func (d *Dashboard) refreshLocked(ctx context.Context) error {
	seq := d.seq.Next()

	var sortSpec *gateway.SortSpec
	switch d.sortBy {
	case SortByName, SortByPrice, SortByCreatedAt:
		sortSpec = &gateway.SortSpec{Field: d.sortBy, Descending: d.descending}
	}

	docs, err := d.store.FetchAll(ctx, gateway.CollectionProducts, sortSpec)
	if err != nil {
		d.logger.Error("product fetch failed", zap.String("operation", opRefresh), zap.Error(err))
		return fmt.Errorf("%s: %w", opRefresh, err)
	}

	if !d.seq.Accept(seq) {
		d.logger.Debug("stale product refresh discarded", zap.Uint64("seq", seq))
		return nil
	}

	records := make([]Product, 0, len(docs))
	for _, doc := range docs {
		records = append(records, productFromDoc(doc))
	}

	d.session.Lock()
	d.records = records
	d.categories = distinctCategories(records)
	d.stats = view.Tally(records, productCounters())
	d.session.Unlock()

	d.logger.Info("products loaded", zap.Int("count", len(records)))
	return nil
}

func distinctCategories(records []Product) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, product := range records {
		if product.Category == "" {
			continue
		}
		if _, ok := seen[product.Category]; ok {
			continue
		}
		seen[product.Category] = struct{}{}
		categories = append(categories, product.Category)
	}
	sort.Strings(categories)
	return categories
}

// SetSearch updates the free-text filter.
func (d *Dashboard) SetSearch(term string) {
	d.session.Lock()
	d.search = term
	d.session.Unlock()
}

// SetCategory updates the category filter; view.All clears it.
func (d *Dashboard) SetCategory(category string) {
	d.session.Lock()
	d.category = category
	d.session.Unlock()
}

// ToggleSort flips the direction when the field is already active and
// otherwise switches to the field ascending. The caller refreshes to
// apply the new server-side ordering.
func (d *Dashboard) ToggleSort(field string) {
	d.session.Lock()
	if d.sortBy == field {
		d.descending = !d.descending
	} else {
		d.sortBy = field
		d.descending = false
	}
	d.session.Unlock()
}

// SetSort sets the sort field and direction, reporting whether anything
// changed.
func (d *Dashboard) SetSort(field string, descending bool) bool {
	d.session.Lock()
	defer d.session.Unlock()
	if d.sortBy == field && d.descending == descending {
		return false
	}
	d.sortBy = field
	d.descending = descending
	return true
}

// Categories returns the distinct categories present in the loaded
// catalog.
func (d *Dashboard) Categories() []string {
	d.session.Lock()
	defer d.session.Unlock()
	return append([]string(nil), d.categories...)
}

// Visible applies the active filters: search across name, description and
// tags, AND the category filter. The gateway's sort order is preserved.
func (d *Dashboard) Visible() []Product {
	d.session.Lock()
	records := d.records
	search := d.search
	category := d.category
	d.session.Unlock()

	predicate := view.And(
		view.TextSearch(search, func(p Product) []string {
			fields := []string{p.Name, p.Description}
			return append(fields, p.Tags...)
		}),
		view.Equals(category, func(p Product) string { return p.Category }),
	)

	return view.Apply(records, predicate, nil)
}

// Stats returns the summary counters over the full unfiltered catalog.
func (d *Dashboard) Stats() view.Summary {
	d.session.Lock()
	defer d.session.Unlock()
	return d.stats.Clone()
}

// CreateInput carries the product form fields. Prices arrive as strings
// so validation owns the parsing.
type CreateInput struct {
	Name           string
	Price          string
	DiscountPrice  string
	Weight         string
	DeliveryTime   string
	Description    string
	Category       string
	Tags           []string
	InStock        bool
	IsPopular      bool
	IsFeatured     bool
	NutritionFacts []NutritionFact
	ImageData      []byte
	ImageName      string
}

// Create validates the form, uploads the image, inserts the product and
// appends it to local state with a full counter recompute. Validation
// failures surface before any network call.
func (d *Dashboard) Create(ctx context.Context, input CreateInput) (Product, error) {
	product, err := d.validateCreate(input)
	if err != nil {
		return Product{}, err
	}

	if err := d.session.Begin(); err != nil {
		return Product{}, ErrBusy
	}
	defer d.session.End()

	imageURL, err := d.blobs.Store(ctx, input.ImageData, input.ImageName)
	if err != nil {
		d.logger.Error("image upload failed", zap.String("operation", opCreate), zap.Error(err))
		return Product{}, fmt.Errorf("%s: %w", opCreate, err)
	}
	product.Image = imageURL

	now := d.clock()
	product.CreatedAt = now
	product.UpdatedAt = now

	id, err := d.store.Insert(ctx, gateway.CollectionProducts, product.doc())
	if err != nil {
		d.logger.Error("product insert failed", zap.String("operation", opCreate), zap.Error(err))
		return Product{}, fmt.Errorf("%s: %w", opCreate, err)
	}
	product.ID = id

	d.session.Lock()
	d.records = append(d.records, product)
	d.categories = distinctCategories(d.records)
	d.stats = view.Tally(d.records, productCounters())
	d.session.Unlock()

	d.logger.Info("product created", zap.String("product_id", id), zap.String("name", product.Name))
	return product, nil
}

func (d *Dashboard) validateCreate(input CreateInput) (Product, error) {
	if input.Name == "" {
		return Product{}, fmt.Errorf("%w: product name is required", ErrValidation)
	}
	price, err := money.ParsePositive(input.Price)
	if err != nil {
		return Product{}, fmt.Errorf("%w: valid price is required", ErrValidation)
	}
	if input.Weight == "" {
		return Product{}, fmt.Errorf("%w: weight/quantity is required", ErrValidation)
	}
	if !KnownCategory(input.Category) {
		return Product{}, fmt.Errorf("%w: unknown category %q", ErrValidation, input.Category)
	}
	if len(input.ImageData) == 0 {
		return Product{}, fmt.Errorf("%w: product image is required", ErrValidation)
	}

	product := Product{
		Name:         input.Name,
		Price:        price,
		Weight:       input.Weight,
		DeliveryTime: input.DeliveryTime,
		Description:  input.Description,
		Category:     input.Category,
		Tags:         input.Tags,
		InStock:      input.InStock,
		IsPopular:    input.IsPopular,
		IsFeatured:   input.IsFeatured,
	}
	if product.DeliveryTime == "" {
		product.DeliveryTime = defaultDeliveryTime
	}

	if input.DiscountPrice != "" {
		discount, err := money.ParsePositive(input.DiscountPrice)
		if err != nil {
			return Product{}, fmt.Errorf("%w: discount price must be a valid number", ErrValidation)
		}
		if discount > price {
			// Advisory only; stored data already contains violations.
			d.logger.Warn("discount price exceeds price",
				zap.String("name", input.Name),
				zap.Float64("price", price),
				zap.Float64("discount", discount))
		}
		product.DiscountPrice = &discount
	}

	for _, fact := range input.NutritionFacts {
		if fact.Value == "" {
			continue
		}
		product.NutritionFacts = append(product.NutritionFacts, fact)
	}

	return product, nil
}

// Edit carries the quick-edit fields. An empty DiscountPrice clears any
// existing discount.
type Edit struct {
	Name          string
	Price         string
	DiscountPrice string
	InStock       bool
	IsFeatured    bool
}

// SaveEdit validates and applies a quick edit to one product, merging the
// acknowledged patch into local state and recomputing counters.
func (d *Dashboard) SaveEdit(ctx context.Context, id string, edit Edit) error {
	if edit.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	price, err := money.ParsePositive(edit.Price)
	if err != nil {
		return fmt.Errorf("%w: valid price is required", ErrValidation)
	}

	patch := view.Patch{
		"name":       edit.Name,
		"price":      price,
		"inStock":    edit.InStock,
		"isFeatured": edit.IsFeatured,
		"updatedAt":  d.clock(),
	}
	if edit.DiscountPrice != "" {
		discount, err := money.ParsePositive(edit.DiscountPrice)
		if err != nil {
			return fmt.Errorf("%w: discount price must be a valid number", ErrValidation)
		}
		if discount > price {
			d.logger.Warn("discount price exceeds price",
				zap.String("product_id", id),
				zap.Float64("price", price),
				zap.Float64("discount", discount))
		}
		patch["discountPrice"] = discount
	} else {
		patch["discountPrice"] = nil
	}

	if err := d.session.Begin(); err != nil {
		return ErrBusy
	}
	defer d.session.End()

	d.session.Lock()
	records := d.records
	d.session.Unlock()

	updated, err := d.coordinator.Apply(ctx, records, id, patch)
	if err != nil {
		d.logger.Error("product edit failed",
			zap.String("operation", opSaveEdit),
			zap.String("product_id", id),
			zap.Error(err))
		return fmt.Errorf("%s: %w", opSaveEdit, err)
	}

	d.session.Lock()
	d.records = updated
	d.stats = view.Tally(updated, productCounters())
	d.session.Unlock()
	return nil
}

// ToggleStock flips one product's availability: gateway update first, then
// a local merge and an exact one-step counter shift. Every other record is
// left untouched.
func (d *Dashboard) ToggleStock(ctx context.Context, id string) error {
	return d.toggle(ctx, id, "inStock", func(p Product) bool { return p.InStock }, func(nowInStock bool) func(*view.Summary) {
		return func(s *view.Summary) {
			if nowInStock {
				s.Shift(CountOutOfStock, CountInStock)
			} else {
				s.Shift(CountInStock, CountOutOfStock)
			}
		}
	})
}

// ToggleFeatured flips one product's featured flag with an exact counter
// delta.
func (d *Dashboard) ToggleFeatured(ctx context.Context, id string) error {
	return d.toggle(ctx, id, "isFeatured", func(p Product) bool { return p.IsFeatured }, func(nowFeatured bool) func(*view.Summary) {
		return func(s *view.Summary) {
			if nowFeatured {
				s.Add(CountFeatured, 1)
			} else {
				s.Add(CountFeatured, -1)
			}
		}
	})
}

func (d *Dashboard) toggle(ctx context.Context, id, field string, current func(Product) bool, shift func(bool) func(*view.Summary)) error {
	if err := d.session.Begin(); err != nil {
		return ErrBusy
	}
	defer d.session.End()

	d.session.Lock()
	records := d.records
	d.session.Unlock()

	index := -1
	for i := range records {
		if records[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%s: %w", opToggle, view.ErrRecordNotListed)
	}

	next := !current(records[index])
	patch := view.Patch{field: next, "updatedAt": d.clock()}

	updated, err := d.coordinator.Apply(ctx, records, id, patch)
	if err != nil {
		d.logger.Error("product toggle failed",
			zap.String("operation", opToggle),
			zap.String("product_id", id),
			zap.String("field", field),
			zap.Error(err))
		return fmt.Errorf("%s: %w", opToggle, err)
	}

	d.session.Lock()
	d.records = updated
	shift(next)(&d.stats)
	d.session.Unlock()
	return nil
}

// BulkStockResult reports the outcome of a bulk availability change.
type BulkStockResult struct {
	Succeeded int
	Failed    int
}

// BulkSetStock marks the given products in or out of stock with an
// independent best-effort update per id. Local state is patched and the
// counters fully recomputed from the records whose update actually
// succeeded, never from the requested set.
func (d *Dashboard) BulkSetStock(ctx context.Context, ids []string, inStock bool) (BulkStockResult, error) {
	if err := d.session.Begin(); err != nil {
		return BulkStockResult{}, ErrBusy
	}
	defer d.session.End()

	d.session.Lock()
	records := d.records
	d.session.Unlock()

	patch := view.Patch{"inStock": inStock, "updatedAt": d.clock()}
	updated, result := d.coordinator.ApplyBulk(ctx, records, ids, patch)

	d.session.Lock()
	d.records = updated
	d.stats = view.Tally(updated, productCounters())
	d.session.Unlock()

	if len(result.Errs) > 0 {
		d.logger.Warn("bulk stock update partially failed",
			zap.String("operation", opBulkStock),
			zap.Int("succeeded", result.SucceededIDs()),
			zap.Int("failed", result.FailedIDs()))
	}
	return BulkStockResult{Succeeded: result.SucceededIDs(), Failed: result.FailedIDs()}, nil
}

// Delete removes one product from the gateway and then from local state,
// recomputing counters.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	if err := d.session.Begin(); err != nil {
		return ErrBusy
	}
	defer d.session.End()

	if err := d.store.Delete(ctx, gateway.CollectionProducts, id); err != nil {
		d.logger.Error("product delete failed",
			zap.String("operation", opDelete),
			zap.String("product_id", id),
			zap.Error(err))
		return fmt.Errorf("%s: %w", opDelete, err)
	}

	d.session.Lock()
	d.removeLocked(map[string]struct{}{id: {}})
	d.session.Unlock()
	return nil
}

// DeleteBulk removes the given products best-effort; local state drops
// exactly the ids whose gateway delete succeeded.
func (d *Dashboard) DeleteBulk(ctx context.Context, ids []string) (BulkStockResult, error) {
	if err := d.session.Begin(); err != nil {
		return BulkStockResult{}, ErrBusy
	}
	defer d.session.End()

	succeeded := make(map[string]struct{}, len(ids))
	failed := 0
	for _, id := range ids {
		if err := d.store.Delete(ctx, gateway.CollectionProducts, id); err != nil {
			d.logger.Warn("product delete failed",
				zap.String("operation", opDelete),
				zap.String("product_id", id),
				zap.Error(err))
			failed++
			continue
		}
		succeeded[id] = struct{}{}
	}

	d.session.Lock()
	d.removeLocked(succeeded)
	d.session.Unlock()

	return BulkStockResult{Succeeded: len(succeeded), Failed: failed}, nil
}

// removeLocked drops records by id and recomputes derived state; callers
// hold the session lock.
func (d *Dashboard) removeLocked(ids map[string]struct{}) {
	kept := d.records[:0:0]
	for _, product := range d.records {
		if _, ok := ids[product.ID]; !ok {
			kept = append(kept, product)
		}
	}
	d.records = kept
	d.categories = distinctCategories(kept)
	d.stats = view.Tally(kept, productCounters())
}
