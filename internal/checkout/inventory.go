package checkout

type MissingItem struct {
	ProductID         int64 `json:"product_id"`
	RequestedQuantity int   `json:"requested_quantity"`
	AvailableQuantity int   `json:"available_quantity"`
}

// MissingItems compares requested quantities against the inventory map.
// Preview and confirm both go through here so they can never disagree on
// what is out of stock. A product with no row counts as zero available.
func MissingItems(items []CartItem, inv map[int64]InventoryRecord) []MissingItem {
	missing := []MissingItem{}
	for _, it := range items {
		available := 0
		if rec, ok := inv[it.ProductID]; ok {
			available = rec.Available
		}
		if available < it.Quantity {
			missing = append(missing, MissingItem{
				ProductID:         it.ProductID,
				RequestedQuantity: it.Quantity,
				AvailableQuantity: available,
			})
		}
	}
	return missing
}

func productIDs(items []CartItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
