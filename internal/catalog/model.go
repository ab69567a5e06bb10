package catalog

import (
	"time"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/gateway"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/money"
)

// Categories is the fixed catalog category set.
var Categories = []string{"Fruits", "Nuts", "Beverages", "Mixed Options"}

// NutritionUnits lists the accepted nutrition fact units.
var NutritionUnits = []string{"g", "mg", "mcg", "IU", "%", "kcal"}

// KnownCategory reports whether the value is one of the fixed categories.
func KnownCategory(category string) bool {
	for _, known := range Categories {
		if category == known {
			return true
		}
	}
	return false
}

// NutritionFact is one row of a product's nutrition table; order matters.
type NutritionFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Product is a catalog entry.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Price          float64         `json:"price"`
	DiscountPrice  *float64        `json:"discountPrice,omitempty"`
	Weight         string          `json:"weight"`
	DeliveryTime   string          `json:"deliveryTime"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Tags           []string        `json:"tags"`
	InStock        bool            `json:"inStock"`
	IsPopular      bool            `json:"isPopular"`
	IsFeatured     bool            `json:"isFeatured"`
	Image          string          `json:"image"`
	NutritionFacts []NutritionFact `json:"nutritionFacts"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PriceDisplay formats the effective price (discount when present) to two
// fraction digits.
func (p Product) PriceDisplay() string {
	if p.DiscountPrice != nil {
		return money.Format(*p.DiscountPrice)
	}
	return money.Format(p.Price)
}

func productFromDoc(doc gateway.Document) Product {
	product := Product{
		ID:           doc.ID(),
		Name:         doc.String("name"),
		Price:        doc.Float("price"),
		Weight:       doc.String("weight"),
		DeliveryTime: doc.String("deliveryTime"),
		Description:  doc.String("description"),
		Category:     doc.String("category"),
		Tags:         doc.Strings("tags"),
		InStock:      doc.Bool("inStock"),
		IsPopular:    doc.Bool("isPopular"),
		IsFeatured:   doc.Bool("isFeatured"),
		Image:        doc.String("image"),
		CreatedAt:    doc.Time("createdAt"),
		UpdatedAt:    doc.Time("updatedAt"),
	}

	if _, ok := doc["discountPrice"]; ok && doc["discountPrice"] != nil {
		discount := doc.Float("discountPrice")
		product.DiscountPrice = &discount
	}

	if raw, ok := doc["nutritionFacts"].([]any); ok {
		product.NutritionFacts = make([]NutritionFact, 0, len(raw))
		for _, entry := range raw {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			fact := gateway.Document(fields)
			product.NutritionFacts = append(product.NutritionFacts, NutritionFact{
				Name:  fact.String("name"),
				Value: fact.String("value"),
				Unit:  fact.String("unit"),
			})
		}
	}

	return product
}

func (p Product) doc() gateway.Document {
	doc := gateway.Document{
		"name":         p.Name,
		"price":        p.Price,
		"weight":       p.Weight,
		"deliveryTime": p.DeliveryTime,
		"description":  p.Description,
		"category":     p.Category,
		"tags":         p.Tags,
		"inStock":      p.InStock,
		"isPopular":    p.IsPopular,
		"isFeatured":   p.IsFeatured,
		"image":        p.Image,
	}
	if p.DiscountPrice != nil {
		doc["discountPrice"] = *p.DiscountPrice
	}
	if len(p.NutritionFacts) > 0 {
		facts := make([]any, 0, len(p.NutritionFacts))
		for _, fact := range p.NutritionFacts {
			facts = append(facts, map[string]any{
				"name":  fact.Name,
				"value": fact.Value,
				"unit":  fact.Unit,
			})
		}
		doc["nutritionFacts"] = facts
	}
	if !p.CreatedAt.IsZero() {
		doc["createdAt"] = p.CreatedAt
	}
	if !p.UpdatedAt.IsZero() {
		doc["updatedAt"] = p.UpdatedAt
	}
	return doc
}

// mergeProduct applies an acknowledged patch to the local copy. A nil
// discountPrice in the patch clears the discount.
func mergeProduct(product Product, patch gateway.Document) Product {
	for key, value := range patch {
		switch key {
		case "name":
			if s, ok := value.(string); ok {
				product.Name = s
			}
		case "price":
			product.Price = patch.Float("price")
		case "discountPrice":
			if value == nil {
				product.DiscountPrice = nil
			} else {
				discount := patch.Float("discountPrice")
				product.DiscountPrice = &discount
			}
		case "inStock":
			product.InStock = patch.Bool("inStock")
		case "isFeatured":
			product.IsFeatured = patch.Bool("isFeatured")
		case "isPopular":
			product.IsPopular = patch.Bool("isPopular")
		case "image":
			if s, ok := value.(string); ok {
				product.Image = s
			}
		case "updatedAt":
			if t, ok := value.(time.Time); ok {
				product.UpdatedAt = t
			}
		}
	}
	return product
}
