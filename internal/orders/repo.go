package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dotcomdgadgets/dotcombackend/internal/catalog"
	"github.com/dotcomdgadgets/dotcombackend/internal/payments"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `
	id, user_id, payment_method, payment_status, order_status,
	sub_total, taxable_value, gst_amount, cgst, sgst, delivery_charge, promise_fee, grand_total,
	addr_full_name, addr_phone, addr_house_no, addr_area, addr_city, addr_state, addr_pincode, addr_landmark,
	COALESCE(gateway_order_id, ''), COALESCE(gateway_payment_id, ''),
	created_at, updated_at`

// Create persists the order in one transaction: conditional stock
// decrements for every line, the order row, its items, and (for online
// payments) the SUCCESS audit row. Any failure rolls the whole thing back,
// so a rejected line never leaks a partial decrement.
func (r *Repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	reservations := make([]catalog.Reservation, 0, len(o.Items))
	for _, it := range o.Items {
		reservations = append(reservations, catalog.Reservation{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if err := catalog.ReserveAll(ctx, tx, reservations); err != nil {
		return err
	}

	var gatewayOrderID, gatewayPaymentID *string
	if o.GatewayOrderID != "" {
		gatewayOrderID = &o.GatewayOrderID
	}
	if o.GatewayPaymentID != "" {
		gatewayPaymentID = &o.GatewayPaymentID
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(
			id, user_id, payment_method, payment_status, order_status,
			sub_total, taxable_value, gst_amount, cgst, sgst, delivery_charge, promise_fee, grand_total,
			addr_full_name, addr_phone, addr_house_no, addr_area, addr_city, addr_state, addr_pincode, addr_landmark,
			gateway_order_id, gateway_payment_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.PaymentMethod, o.PaymentStatus, o.Status,
		o.Breakdown.SubTotal, o.Breakdown.TaxableValue, o.Breakdown.GSTAmount,
		o.Breakdown.CGST, o.Breakdown.SGST, o.Breakdown.DeliveryCharge,
		o.Breakdown.PromiseFee, o.Breakdown.GrandTotal,
		o.Address.FullName, o.Address.Phone, o.Address.HouseNo, o.Address.Area,
		o.Address.City, o.Address.State, o.Address.Pincode, o.Address.Landmark,
		gatewayOrderID, gatewayPaymentID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price, size)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, it.ProductID, it.Quantity, it.Price, it.Size); err != nil {
			return err
		}
	}

	if o.PaymentMethod == PaymentOnline {
		if err := payments.AppendAttempt(ctx, tx, payments.Attempt{
			UserID:           o.UserID,
			GatewayOrderID:   o.GatewayOrderID,
			GatewayPaymentID: o.GatewayPaymentID,
			Status:           payments.StatusSuccess,
		}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID).Scan(
		&o.ID, &o.UserID, &o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.Breakdown.SubTotal, &o.Breakdown.TaxableValue, &o.Breakdown.GSTAmount,
		&o.Breakdown.CGST, &o.Breakdown.SGST, &o.Breakdown.DeliveryCharge,
		&o.Breakdown.PromiseFee, &o.Breakdown.GrandTotal,
		&o.Address.FullName, &o.Address.Phone, &o.Address.HouseNo, &o.Address.Area,
		&o.Address.City, &o.Address.State, &o.Address.Pincode, &o.Address.Landmark,
		&o.GatewayOrderID, &o.GatewayPaymentID,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return &o, nil
}

// ListByUser returns the user's orders newest first, items included.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	var ids []string
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.PaymentMethod, &o.PaymentStatus, &o.Status,
			&o.Breakdown.SubTotal, &o.Breakdown.TaxableValue, &o.Breakdown.GSTAmount,
			&o.Breakdown.CGST, &o.Breakdown.SGST, &o.Breakdown.DeliveryCharge,
			&o.Breakdown.PromiseFee, &o.Breakdown.GrandTotal,
			&o.Address.FullName, &o.Address.Phone, &o.Address.HouseNo, &o.Address.Area,
			&o.Address.City, &o.Address.State, &o.Address.Pincode, &o.Address.Landmark,
			&o.GatewayOrderID, &o.GatewayPaymentID,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

// loadItems fetches line items for a set of orders with the product display
// name resolved; deleted products resolve to an empty name.
func (r *Repo) loadItems(ctx context.Context, orderIDs []string) (map[string][]Line, error) {
	out := map[string][]Line{}
	if len(orderIDs) == 0 {
		return out, nil
	}
	params := ""
	args := make([]any, 0, len(orderIDs))
	for i, id := range orderIDs {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT i.order_id, i.product_id, COALESCE(p.name, ''), i.qty, i.price, i.size
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id IN (`+params+`)
		ORDER BY i.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var l Line
		if err := rows.Scan(&orderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.Price, &l.Size); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], l)
	}
	return out, rows.Err()
}

// SetStatus moves an order from one status to another with a guarded
// update; a concurrent transition makes the guard miss and the call fails.
// Cancelling an order that never shipped restocks its lines in the same
// transaction, and a paid cancelled order flips to Refunded.
func (r *Repo) SetStatus(ctx context.Context, orderID string, from, to Status) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET order_status = $3, updated_at = now()
		WHERE id = $1 AND order_status = $2`, orderID, from, to)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrInvalidTransition
	}

	if to == StatusCancelled {
		rows, err := tx.Query(ctx, `SELECT product_id, qty FROM order_items WHERE order_id = $1`, orderID)
		if err != nil {
			return err
		}
		type rec struct {
			pid string
			qty int
		}
		var recs []rec
		for rows.Next() {
			var x rec
			if err := rows.Scan(&x.pid, &x.qty); err != nil {
				rows.Close()
				return err
			}
			recs = append(recs, x)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, x := range recs {
			// product may have been deleted since; nothing to restock then
			if err := catalog.Restock(ctx, tx, x.pid, x.qty); err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET payment_status = $2, updated_at = now()
			WHERE id = $1 AND payment_status = $3`,
			orderID, PaymentRefunded, PaymentPaid); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
