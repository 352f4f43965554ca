package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/itemtag/internal/model"
)

// GetItem returns the item stored under id. An id that was never saved yields
// an empty item carrying that id, not an error.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item := &model.Item{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, location, buy_date, owner, remark, photo
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &item.Location, &item.BuyDate, &item.Owner, &item.Remark, &item.Photo)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmptyItem(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// SaveItem inserts the item or replaces every column of the existing row.
func SaveItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, location, buy_date, owner, remark, photo)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     location = excluded.location,
		     buy_date = excluded.buy_date,
		     owner = excluded.owner,
		     remark = excluded.remark,
		     photo = excluded.photo`,
		item.ID, item.Name, item.Location, item.BuyDate, item.Owner, item.Remark, item.Photo,
	)
	if err != nil {
		return fmt.Errorf("saving item: %w", err)
	}
	return nil
}
