package invoicing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/NUbem000/NubemERP/internal/platform/db"
	"github.com/NUbem000/NubemERP/internal/shared"
)

// Repository provides PostgreSQL backed persistence for invoicing.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateInvoice persists a finalized invoice and its lines in a single
// transaction.
func (r *Repository) CreateInvoice(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		addr, err := json.Marshal(inv.Customer.Address)
		if err != nil {
			return err
		}

		const query = `
			INSERT INTO invoices (
				series, sequential_number, number, type, user_id,
				customer_id, customer_name, customer_tax_id, customer_email,
				customer_phone, customer_address,
				issue_date, due_date, payment_terms,
				subtotal, total_discount, tax_base, taxes, total_tax, total,
				total_in_words, status, paid_amount, notes,
				created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
				$12, $13, $14, $15, $16, $17, $18, $19, $20,
				$21, $22, $23, $24, $25, $26
			)
			RETURNING id`

		taxes, err := json.Marshal(inv.Financial.Taxes)
		if err != nil {
			return err
		}

		var customerID pgtype.Int8
		if inv.Customer.CustomerID > 0 {
			customerID = pgtype.Int8{Int64: inv.Customer.CustomerID, Valid: true}
		}

		err = tx.QueryRow(ctx, query,
			inv.Series, inv.SequentialNumber, inv.Number, inv.Type, inv.UserID,
			customerID, inv.Customer.Name, inv.Customer.TaxID, inv.Customer.Email,
			inv.Customer.Phone, addr,
			inv.IssueDate, inv.DueDate, inv.PaymentTerms,
			inv.Financial.Subtotal, inv.Financial.TotalDiscount, inv.Financial.TaxBase,
			taxes, inv.Financial.TotalTax, inv.Financial.Total,
			inv.Financial.TotalInWords, inv.Status, inv.PaidAmount, inv.Notes,
			inv.CreatedAt, inv.UpdatedAt,
		).Scan(&inv.ID)
		if err != nil {
			return fmt.Errorf("invoicing: insert invoice: %w", err)
		}

		return insertLines(ctx, tx, inv.ID, inv.Items)
	})
}

// UpdateInvoice replaces the invoice's lines and recomputed financial
// fields. Identity columns (series, number) are never touched.
func (r *Repository) UpdateInvoice(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		taxes, err := json.Marshal(inv.Financial.Taxes)
		if err != nil {
			return err
		}

		const query = `
			UPDATE invoices SET
				subtotal = $2, total_discount = $3, tax_base = $4, taxes = $5,
				total_tax = $6, total = $7, total_in_words = $8, notes = $9,
				updated_at = $10
			WHERE id = $1`

		result, err := tx.Exec(ctx, query,
			inv.ID,
			inv.Financial.Subtotal, inv.Financial.TotalDiscount, inv.Financial.TaxBase,
			taxes, inv.Financial.TotalTax, inv.Financial.Total,
			inv.Financial.TotalInWords, inv.Notes, inv.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("invoicing: update invoice: %w", err)
		}
		if result.RowsAffected() == 0 {
			return shared.ErrNotFound
		}

		if _, err := tx.Exec(ctx, "DELETE FROM invoice_lines WHERE invoice_id = $1", inv.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, inv.ID, inv.Items)
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, invoiceID int64, items []LineItem) error {
	const query = `
		INSERT INTO invoice_lines (
			invoice_id, product_name, sku, description, quantity, unit,
			unit_price, discount_percent, tax_rate, tax_category,
			subtotal, discount, total, line_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	for i := range items {
		item := &items[i]
		err := tx.QueryRow(ctx, query,
			invoiceID, item.ProductName, item.SKU, item.Description,
			item.Quantity, item.Unit, item.UnitPrice, item.DiscountPercent,
			item.TaxRate, item.TaxCategory,
			item.Subtotal, item.Discount, item.Total, i,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("invoicing: insert line: %w", err)
		}
	}
	return nil
}

// GetInvoice retrieves an invoice with its lines and payments.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	const query = `
		SELECT id, series, sequential_number, number, type, user_id,
			customer_id, customer_name, customer_tax_id, customer_email,
			customer_phone, customer_address,
			issue_date, due_date, payment_terms,
			subtotal, total_discount, tax_base, taxes, total_tax, total,
			total_in_words, status, paid_amount, notes,
			created_at, updated_at
		FROM invoices
		WHERE id = $1`

	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	if inv.Items, err = r.listLines(ctx, id); err != nil {
		return nil, err
	}
	if inv.Payments, err = r.listPayments(ctx, id); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns invoices with optional filtering. Issue-date
// bounds are inclusive on both ends.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `
		SELECT id, series, sequential_number, number, type, user_id,
			customer_id, customer_name, customer_tax_id, customer_email,
			customer_phone, customer_address,
			issue_date, due_date, payment_terms,
			subtotal, total_discount, tax_base, taxes, total_tax, total,
			total_in_words, status, paid_amount, notes,
			created_at, updated_at
		FROM invoices
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.UserID > 0 {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, req.UserID)
		argNum++
	}
	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if !req.IssuedFrom.IsZero() {
		query += fmt.Sprintf(" AND issue_date >= $%d", argNum)
		args = append(args, req.IssuedFrom)
		argNum++
	}
	if !req.IssuedTo.IsZero() {
		query += fmt.Sprintf(" AND issue_date <= $%d", argNum)
		args = append(args, req.IssuedTo)
		argNum++
	}

	query += " ORDER BY issue_date DESC, id DESC"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// AppendPayment inserts a payment row and updates the invoice's paid
// amount and status atomically.
func (r *Repository) AppendPayment(ctx context.Context, invoiceID int64, p Payment, paidAmount decimal.Decimal, status PaymentStatus) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `
			INSERT INTO invoice_payments (invoice_id, paid_at, amount, method, reference, note)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.Exec(ctx, insert, invoiceID, p.Date, p.Amount, p.Method, p.Reference, p.Note); err != nil {
			return fmt.Errorf("invoicing: insert payment: %w", err)
		}

		const update = `
			UPDATE invoices SET paid_amount = $2, status = $3, updated_at = NOW()
			WHERE id = $1`
		result, err := tx.Exec(ctx, update, invoiceID, paidAmount, string(status))
		if err != nil {
			return fmt.Errorf("invoicing: update paid amount: %w", err)
		}
		if result.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// SetStatus updates the persisted payment status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status PaymentStatus) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1",
		id, string(status),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) listLines(ctx context.Context, invoiceID int64) ([]LineItem, error) {
	const query = `
		SELECT id, product_name, sku, description, quantity, unit,
			unit_price, discount_percent, tax_rate, tax_category,
			subtotal, discount, total
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_order, id`

	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var item LineItem
		var qty, price, disc, rate, sub, discount, total pgtype.Numeric
		err := rows.Scan(
			&item.ID, &item.ProductName, &item.SKU, &item.Description,
			&qty, &item.Unit, &price, &disc, &rate, &item.TaxCategory,
			&sub, &discount, &total,
		)
		if err != nil {
			return nil, err
		}
		item.Quantity = numericToDecimal(qty)
		item.UnitPrice = numericToDecimal(price)
		item.DiscountPercent = numericToDecimal(disc)
		item.TaxRate = numericToDecimal(rate)
		item.Subtotal = numericToDecimal(sub)
		item.Discount = numericToDecimal(discount)
		item.Total = numericToDecimal(total)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) listPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	const query = `
		SELECT id, paid_at, amount, method, reference, note
		FROM invoice_payments
		WHERE invoice_id = $1
		ORDER BY paid_at, id`

	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		var amount pgtype.Numeric
		if err := rows.Scan(&p.ID, &p.Date, &amount, &p.Method, &p.Reference, &p.Note); err != nil {
			return nil, err
		}
		p.Amount = numericToDecimal(amount)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	var customerID pgtype.Int8
	var addr, taxes []byte
	var subtotal, totalDiscount, taxBase, totalTax, total, paidAmount pgtype.Numeric

	err := row.Scan(
		&inv.ID, &inv.Series, &inv.SequentialNumber, &inv.Number, &inv.Type, &inv.UserID,
		&customerID, &inv.Customer.Name, &inv.Customer.TaxID, &inv.Customer.Email,
		&inv.Customer.Phone, &addr,
		&inv.IssueDate, &inv.DueDate, &inv.PaymentTerms,
		&subtotal, &totalDiscount, &taxBase, &taxes, &totalTax, &total,
		&inv.Financial.TotalInWords, &inv.Status, &paidAmount, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Customer.CustomerID = customerID.Int64
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &inv.Customer.Address); err != nil {
			return nil, err
		}
	}
	if len(taxes) > 0 {
		if err := json.Unmarshal(taxes, &inv.Financial.Taxes); err != nil {
			return nil, err
		}
	}
	inv.Financial.Subtotal = numericToDecimal(subtotal)
	inv.Financial.TotalDiscount = numericToDecimal(totalDiscount)
	inv.Financial.TaxBase = numericToDecimal(taxBase)
	inv.Financial.TotalTax = numericToDecimal(totalTax)
	inv.Financial.Total = numericToDecimal(total)
	inv.PaidAmount = numericToDecimal(paidAmount)
	return &inv, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

var _ RepositoryPort = (*Repository)(nil)
