/*
inventory.go - Inventory persistence and the conditional stock decrement

PURPOSE:
  Row mapping and queries for the inventory table, plus the stock movements
  order creation and deletion depend on.

STOCK SAFETY:
  DeductStock performs the availability check and the decrement in ONE
  UPDATE guarded by "quantity >= ?". If the row count comes back zero the
  item either does not exist or lacks stock; a follow-up read inside the
  same transaction tells the two apart. The derived status column is
  recomputed in the same statement so the row never disagrees with itself.
*/
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/warp/warehouse-ledger/ledger"
)

const inventoryColumns = `id, item_name, brand, category, unit, quantity,
	unit_price, reorder_level, location, supplier_name, supplier_contact,
	status, created_at, updated_at`

func scanItem(row scanner) (*ledger.InventoryItem, error) {
	var (
		item            ledger.InventoryItem
		category        sql.NullString
		unitPrice       string
		location        sql.NullString
		supplierName    sql.NullString
		supplierContact sql.NullString
		createdAt       string
		updatedAt       string
	)

	err := row.Scan(
		&item.ID, &item.ItemName, &item.Brand, &category, &item.Unit,
		&item.Quantity, &unitPrice, &item.ReorderLevel, &location,
		&supplierName, &supplierContact, &item.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Category = category.String
	item.UnitPrice = ledger.MustParseDecimal(unitPrice)
	item.Location = location.String
	item.Supplier = ledger.Supplier{
		Name:    supplierName.String,
		Contact: supplierContact.String,
	}
	item.CreatedAt = parseTime(createdAt)
	item.UpdatedAt = parseTime(updatedAt)

	return &item, nil
}

func getItem(ctx context.Context, db dbtx, id ledger.ItemID) (*ledger.InventoryItem, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+inventoryColumns+" FROM inventory WHERE id = ?", id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

// =============================================================================
// TX METHODS (ledger.Tx interface)
// =============================================================================

func (t *Tx) GetItem(ctx context.Context, id ledger.ItemID) (*ledger.InventoryItem, error) {
	return getItem(ctx, t.tx, id)
}

func (t *Tx) DeductStock(ctx context.Context, id ledger.ItemID, qty int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE inventory SET
			quantity = quantity - ?,
			status = CASE
				WHEN quantity - ? = 0 THEN 'Out of Stock'
				WHEN quantity - ? <= reorder_level THEN 'Low Stock'
				ELSE 'In Stock'
			END,
			updated_at = ?
		WHERE id = ? AND quantity >= ?`,
		qty, qty, qty, fmtTime(time.Now()), id, qty,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: missing item or not enough stock. Read back inside
	// the same transaction to say which.
	item, err := getItem(ctx, t.tx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return ledger.ErrItemNotFound
	}
	return &ledger.InsufficientStockError{
		ItemID:    id,
		ItemName:  item.ItemName,
		Brand:     item.Brand,
		Available: item.Quantity,
		Requested: qty,
	}
}

func (t *Tx) RestoreStock(ctx context.Context, id ledger.ItemID, qty int) error {
	// Restocking a since-deleted item is a no-op: the snapshot on the order
	// outlives the inventory row.
	_, err := t.tx.ExecContext(ctx, `
		UPDATE inventory SET
			quantity = quantity + ?,
			status = CASE
				WHEN quantity + ? = 0 THEN 'Out of Stock'
				WHEN quantity + ? <= reorder_level THEN 'Low Stock'
				ELSE 'In Stock'
			END,
			updated_at = ?
		WHERE id = ?`,
		qty, qty, qty, fmtTime(time.Now()), id,
	)
	return err
}

// =============================================================================
// STORE METHODS (handler-facing CRUD)
// =============================================================================

// InventoryFilter narrows ListItems. Zero values mean "no filter".
type InventoryFilter struct {
	Search   string // matches item name or brand
	Category string
	Status   ledger.StockStatus
}

// GetItem returns an inventory item by id, or nil when absent.
func (s *Store) GetItem(ctx context.Context, id ledger.ItemID) (*ledger.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getItem(ctx, s.db, id)
}

// InsertItem creates an inventory item. Callers must have run RefreshStatus.
func (s *Store) InsertItem(ctx context.Context, item *ledger.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory
		(id, item_name, brand, category, unit, quantity, unit_price,
		 reorder_level, location, supplier_name, supplier_contact, status,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ItemName, item.Brand, nullString(item.Category),
		item.Unit, item.Quantity, item.UnitPrice.String(), item.ReorderLevel,
		nullString(item.Location), nullString(item.Supplier.Name),
		nullString(item.Supplier.Contact), item.Status,
		fmtTime(item.CreatedAt), fmtTime(item.UpdatedAt),
	)
	return err
}

// UpdateItem rewrites an item's editable fields. Existing order snapshots are
// untouched by design: they froze their copy at order creation.
func (s *Store) UpdateItem(ctx context.Context, item *ledger.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory SET
			item_name = ?, brand = ?, category = ?, unit = ?, quantity = ?,
			unit_price = ?, reorder_level = ?, location = ?,
			supplier_name = ?, supplier_contact = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		item.ItemName, item.Brand, nullString(item.Category), item.Unit,
		item.Quantity, item.UnitPrice.String(), item.ReorderLevel,
		nullString(item.Location), nullString(item.Supplier.Name),
		nullString(item.Supplier.Contact), item.Status,
		fmtTime(time.Now()), item.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrItemNotFound
	}
	return nil
}

// DeleteItem removes an inventory item. Order snapshots referencing it keep
// their frozen copies.
func (s *Store) DeleteItem(ctx context.Context, id ledger.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM inventory WHERE id = ?", id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrItemNotFound
	}
	return nil
}

// ListItems returns inventory matching the filter, name-ascending.
func (s *Store) ListItems(ctx context.Context, f InventoryFilter) ([]ledger.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + inventoryColumns + " FROM inventory WHERE 1=1"
	var args []any

	if f.Search != "" {
		query += " AND (item_name LIKE ? OR brand LIKE ?)"
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY item_name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ledger.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
