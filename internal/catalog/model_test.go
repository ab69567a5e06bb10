package catalog

import "testing"

func TestKnownCategory(t *testing.T) {
	for _, category := range Categories {
		if !KnownCategory(category) {
			t.Fatalf("expected %s to be known", category)
		}
	}
	if KnownCategory("Electronics") {
		t.Fatalf("expected Electronics to be unknown")
	}
}

func TestPriceDisplayPrefersDiscount(t *testing.T) {
	product := Product{Price: 10}
	if got := product.PriceDisplay(); got != "10.00" {
		t.Fatalf("expected 10.00, got %q", got)
	}

	discount := 7.5
	product.DiscountPrice = &discount
	if got := product.PriceDisplay(); got != "7.50" {
		t.Fatalf("expected 7.50, got %q", got)
	}
}

func TestMergeProductNilDiscountClears(t *testing.T) {
	discount := 3.0
	product := Product{Name: "Almonds", Price: 4.5, DiscountPrice: &discount}

	merged := mergeProduct(product, map[string]any{"discountPrice": nil, "price": 5.0})

	if merged.DiscountPrice != nil {
		t.Fatalf("expected discount cleared")
	}
	if merged.Price != 5.0 {
		t.Fatalf("expected price updated, got %v", merged.Price)
	}
	if merged.Name != "Almonds" {
		t.Fatalf("untouched field changed")
	}
}

func TestProductDocRoundTrip(t *testing.T) {
	discount := 3.25
	product := Product{
		Name:          "Almonds",
		Price:         4.5,
		DiscountPrice: &discount,
		Weight:        "500g",
		Category:      "Nuts",
		Tags:          []string{"snack"},
		InStock:       true,
		NutritionFacts: []NutritionFact{
			{Name: "Protein", Value: "21", Unit: "g"},
		},
	}

	decoded := productFromDoc(product.doc())

	if decoded.Name != product.Name || decoded.Price != product.Price {
		t.Fatalf("basic fields lost: %+v", decoded)
	}
	if decoded.DiscountPrice == nil || *decoded.DiscountPrice != discount {
		t.Fatalf("discount lost: %+v", decoded.DiscountPrice)
	}
	if len(decoded.NutritionFacts) != 1 || decoded.NutritionFacts[0].Name != "Protein" {
		t.Fatalf("nutrition facts lost: %+v", decoded.NutritionFacts)
	}
}
