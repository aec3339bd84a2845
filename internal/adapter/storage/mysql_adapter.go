package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateCustomer(ctx context.Context, c domain.Customer) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, email, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, nullString(c.Phone), nullString(c.Email), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var (
		c        domain.Customer
		phoneCol sql.NullString
		emailCol sql.NullString
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, phone, email, created_at
		FROM customers WHERE phone = ? LIMIT 1`, phone,
	).Scan(&c.ID, &c.Name, &phoneCol, &emailCol, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}

	c.Phone = phoneCol.String
	c.Email = emailCol.String
	return &c, nil
}

func (m *MySQLAdapter) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, phone, email, created_at
		FROM customers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var (
			c        domain.Customer
			phoneCol sql.NullString
			emailCol sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &phoneCol, &emailCol, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.Phone = phoneCol.String
		c.Email = emailCol.String
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product, initialStock int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, price, sku, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Price, nullString(p.SKU), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock, updated_at)
		VALUES (?, ?, NOW())`,
		p.ID, initialStock,
	)
	if err != nil {
		return fmt.Errorf("insert inventory: %w", err)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetProductSnapshot(ctx context.Context, productID string) (*domain.ProductSnapshot, error) {
	var snap domain.ProductSnapshot
	err := m.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.price, COALESCE(i.stock, 0)
		FROM products p LEFT JOIN inventory i ON p.id = i.product_id
		WHERE p.id = ?`, productID,
	).Scan(&snap.ProductID, &snap.Name, &snap.Price, &snap.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &snap, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.ProductSnapshot, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, COALESCE(i.stock, 0)
		FROM products p LEFT JOIN inventory i ON p.id = i.product_id
		ORDER BY p.created_at`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.ProductSnapshot
	for rows.Next() {
		var snap domain.ProductSnapshot
		if err := rows.Scan(&snap.ProductID, &snap.Name, &snap.Price, &snap.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, snap)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) SetStock(ctx context.Context, productID string, stock int) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory SET stock = ?, updated_at = NOW()
		WHERE product_id = ?`,
		stock, productID,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// CreateBill writes the bill header, its items and the stock decrements as one
// transaction. The guarded UPDATE is both the authoritative re-validation and
// the decrement: the row lock it takes is the only mutual exclusion between
// concurrent sales, and zero rows affected means a concurrent sale (or an
// unknown product) got there first.
func (m *MySQLAdapter) CreateBill(ctx context.Context, bill domain.Bill, items []domain.BillItem) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bills (id, customer_id, bill_date, subtotal, tax_amount, discount_amount, final_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, nullString(bill.CustomerID), bill.BillDate,
		bill.Subtotal, bill.Tax, bill.Discount, bill.Final,
	)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bill_items (id, bill_id, product_id, quantity, unit_price, line_total)
			VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, item.BillID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert bill item: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE inventory SET stock = stock - ?, updated_at = NOW()
			WHERE product_id = ? AND stock >= ?`,
			item.Quantity, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return m.stockFailure(ctx, tx, item)
		}
	}

	return tx.Commit()
}

// stockFailure reads the live stock inside the failing transaction to tell an
// unknown product apart from depletion, and to report the available quantity.
func (m *MySQLAdapter) stockFailure(ctx context.Context, tx *sql.Tx, item domain.BillItem) error {
	var available int
	err := tx.QueryRowContext(ctx,
		`SELECT stock FROM inventory WHERE product_id = ?`, item.ProductID,
	).Scan(&available)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %s: %w", item.ProductID, domain.ErrProductNotFound)
	}
	if err != nil {
		return fmt.Errorf("read live stock: %w", err)
	}

	return &domain.InsufficientStockError{
		ProductID: item.ProductID,
		Requested: item.Quantity,
		Available: available,
	}
}

func (m *MySQLAdapter) GetBill(ctx context.Context, billID string) (*domain.Bill, error) {
	var (
		bill        domain.Bill
		customerCol sql.NullString
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_id, bill_date, subtotal, tax_amount, discount_amount, final_amount
		FROM bills WHERE id = ?`, billID,
	).Scan(&bill.ID, &customerCol, &bill.BillDate,
		&bill.Subtotal, &bill.Tax, &bill.Discount, &bill.Final)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query bill: %w", err)
	}

	bill.CustomerID = customerCol.String
	return &bill, nil
}

func (m *MySQLAdapter) GetBillItems(ctx context.Context, billID string) ([]domain.BillItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, bill_id, product_id, quantity, unit_price, line_total
		FROM bill_items WHERE bill_id = ?`, billID)
	if err != nil {
		return nil, fmt.Errorf("query bill items: %w", err)
	}
	defer rows.Close()

	var items []domain.BillItem
	for rows.Next() {
		var item domain.BillItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.ProductID,
			&item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("scan bill item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) ListRecentBills(ctx context.Context, limit int) ([]domain.BillSummary, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT b.id, COALESCE(c.name, ''), b.bill_date, b.final_amount
		FROM bills b LEFT JOIN customers c ON b.customer_id = c.id
		ORDER BY b.bill_date DESC, b.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var summaries []domain.BillSummary
	for rows.Next() {
		var s domain.BillSummary
		if err := rows.Scan(&s.BillID, &s.CustomerName, &s.BillDate, &s.Final); err != nil {
			return nil, fmt.Errorf("scan bill summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
