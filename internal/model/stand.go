package model

// Stand represents a physical exhibition space offered to exhibitors.
// Stand rows are catalog facts: they are inserted once when the floor
// plan is provisioned and are never mutated by the reservation flow.
// All mutable coordination state lives on the matching Claim row.
//
// Fields:
//  ID       – human-meaningful identifier printed on the floor plan (e.g. "A-12").
//  Category – commercial category of the space (e.g. "premium", "standard").
//  SizeM2   – floor area in square meters.
//  PriceCents – rental price in cents to avoid floating point money.
type Stand struct {
	ID         string `json:"id"`          // stands.id
	Category   string `json:"category"`    // stands.category
	SizeM2     uint32 `json:"size_m2"`     // stands.size_m2
	PriceCents uint64 `json:"price_cents"` // stands.price_cents
}
