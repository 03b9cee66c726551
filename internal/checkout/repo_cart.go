package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LoadCart materializes the cart and its items in two queries. The item
// query joins products for the name/sku snapshot; prices come from the cart
// line, not the catalog.
func (r *Repo) LoadCart(ctx context.Context, q Querier, cartID int64, forUpdate bool) (*Cart, error) {
	sql := `SELECT id, user_id, status FROM carts WHERE id=$1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var c Cart
	var status string
	err := q.QueryRow(ctx, sql, cartID).Scan(&c.ID, &c.UserID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Status = CartStatus(status)

	rows, err := q.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.sku, ci.unit_price::text, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it CartItem
		var price string
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Name, &it.SKU, &price, &it.Quantity); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}
