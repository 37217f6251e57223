package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMenuItemNotFound is returned for an unknown menu item id.
var ErrMenuItemNotFound = errors.New("menu item not found")

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) ListTables(ctx context.Context) ([]tables.Table, error) {
	rows, err := p.pool.Query(ctx, `select id, number, state from dining_tables order by number asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]tables.Table, 0)
	for rows.Next() {
		var t tables.Table
		var state string
		if err := rows.Scan(&t.ID, &t.Number, &state); err != nil {
			return nil, err
		}
		t.State = tables.State(state)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) GetTable(ctx context.Context, id int64) (tables.Table, error) {
	var t tables.Table
	var state string
	err := p.pool.QueryRow(ctx, `select id, number, state from dining_tables where id = $1`, id).Scan(&t.ID, &t.Number, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tables.Table{}, tables.ErrNotFound
		}
		return tables.Table{}, err
	}
	t.State = tables.State(state)
	return t, nil
}

func (p *Postgres) UpdateTableState(ctx context.Context, id int64, state tables.State) error {
	tag, err := p.pool.Exec(ctx, `update dining_tables set state = $2 where id = $1`, id, string(state))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tables.ErrNotFound
	}
	return nil
}

func (p *Postgres) ListCategories(ctx context.Context) ([]menu.Category, error) {
	rows, err := p.pool.Query(ctx, `select id, name, display_order from menu_categories order by display_order asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]menu.Category, 0)
	for rows.Next() {
		var c menu.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const menuItemColumns = `id, name, description, price, image_url, category_id, available, recommended`

func scanMenuItem(row pgx.Row) (menu.Item, error) {
	var (
		item     menu.Item
		price    pgtype.Numeric
		imageURL pgtype.Text
		category pgtype.Int8
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &price, &imageURL, &category, &item.Available, &item.Recommended); err != nil {
		return menu.Item{}, err
	}
	item.Price = utils.NumericToDecimal(price)
	if imageURL.Valid {
		v := imageURL.String
		item.ImageURL = &v
	}
	if category.Valid {
		v := category.Int64
		item.CategoryID = &v
	}
	return item, nil
}

func (p *Postgres) ListAvailableItems(ctx context.Context) ([]menu.Item, error) {
	rows, err := p.pool.Query(ctx, `select `+menuItemColumns+` from menu_items where available = true order by name asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]menu.Item, 0)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (p *Postgres) GetMenuItem(ctx context.Context, id int64) (menu.Item, error) {
	item, err := scanMenuItem(p.pool.QueryRow(ctx, `select `+menuItemColumns+` from menu_items where id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return menu.Item{}, ErrMenuItemNotFound
		}
		return menu.Item{}, err
	}
	return item, nil
}

func (p *Postgres) UpdateMenuItemImage(ctx context.Context, id int64, imageURL string) error {
	tag, err := p.pool.Exec(ctx, `update menu_items set image_url = $2 where id = $1`, id, imageURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

func (p *Postgres) InsertOrder(ctx context.Context, o orders.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		insert into orders (id, table_id, created_at, items, total, status)
		values ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.TableID, o.CreatedAt, items, utils.DecimalToNumeric(o.Total), string(o.Status))
	return err
}

const orderSelect = `
	select o.id, o.table_id, t.number, o.created_at, o.items, o.total, o.status
	from orders o
	left join dining_tables t on t.id = o.table_id
`

func scanOrder(row pgx.Row) (orders.Order, error) {
	var (
		o      orders.Order
		number pgtype.Int4
		items  []byte
		total  pgtype.Numeric
		status string
	)
	if err := row.Scan(&o.ID, &o.TableID, &number, &o.CreatedAt, &items, &total, &status); err != nil {
		return orders.Order{}, err
	}
	if number.Valid {
		n := int(number.Int32)
		o.TableNumber = &n
	}
	lines := make([]cart.Line, 0)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &lines); err != nil {
			return orders.Order{}, fmt.Errorf("decode order items: %w", err)
		}
	}
	o.Items = lines
	o.Total = utils.NumericToDecimal(total)
	o.Status = orders.Status(status)
	return o, nil
}

func (p *Postgres) ListOrders(ctx context.Context) ([]orders.Order, error) {
	rows, err := p.pool.Query(ctx, orderSelect+` order by o.created_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orders.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *Postgres) GetOrder(ctx context.Context, id uuid.UUID) (orders.Order, error) {
	o, err := scanOrder(p.pool.QueryRow(ctx, orderSelect+` where o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.Order{}, orders.ErrNotFound
		}
		return orders.Order{}, err
	}
	return o, nil
}

func (p *Postgres) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status orders.Status) error {
	tag, err := p.pool.Exec(ctx, `update orders set status = $2 where id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (p *Postgres) RecordStatusHistory(ctx context.Context, e orders.HistoryEntry) error {
	recordedAt := e.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	var previous *string
	if e.PreviousStatus != nil {
		v := string(*e.PreviousStatus)
		previous = &v
	}
	_, err := p.pool.Exec(ctx, `
		insert into order_status_history (order_id, status, previous_status, recorded_at, source)
		select $1, $2, $3, $4, $5
		where exists (select 1 from orders where id = $1)
	`, e.OrderID, string(e.Status), previous, recordedAt, e.Source)
	return err
}

func (p *Postgres) ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]orders.HistoryEntry, error) {
	rows, err := p.pool.Query(ctx, `
		select order_id, status, previous_status, recorded_at, source
		from order_status_history
		where order_id = $1
		order by recorded_at asc, id asc
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orders.HistoryEntry, 0)
	for rows.Next() {
		var (
			e        orders.HistoryEntry
			status   string
			previous pgtype.Text
		)
		if err := rows.Scan(&e.OrderID, &status, &previous, &e.RecordedAt, &e.Source); err != nil {
			return nil, err
		}
		e.Status = orders.Status(status)
		if previous.Valid {
			s := orders.Status(previous.String)
			e.PreviousStatus = &s
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
