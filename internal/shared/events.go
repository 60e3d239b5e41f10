package shared

// Catalog event types subscribers can listen to.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEventPayload is the `data` body of a catalog event.
// Kept in shared to avoid a product → webhook import cycle.
type ProductEventPayload struct {
	ID          int64   `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}
