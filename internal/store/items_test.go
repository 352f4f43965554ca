package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/erazemk/itemtag/internal/db"
	"github.com/erazemk/itemtag/internal/model"
)

func TestGetUnknownItemReturnsEmpty(t *testing.T) {
	database := db.NewTestDB(t)

	item, err := GetItem(context.Background(), database, "nonexistent")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}

	want := model.Item{ID: "nonexistent"}
	if *item != want {
		t.Errorf("expected %+v, got %+v", want, *item)
	}
}

func TestGetItemIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SaveItem(ctx, database, &model.Item{ID: "AB12CD34", Name: "Drill"})

	first, err := GetItem(ctx, database, "AB12CD34")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	second, err := GetItem(ctx, database, "AB12CD34")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if *first != *second {
		t.Errorf("expected identical reads, got %+v and %+v", *first, *second)
	}
}

func TestSaveAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	want := model.Item{
		ID:       "AB12CD34",
		Name:     "Drill",
		Location: "Garage",
		BuyDate:  "2024-03-01",
		Owner:    "Alice",
		Remark:   "Spare battery in the drawer",
		Photo:    "/uploads/AB12CD34_1700000000.jpg",
	}
	if err := SaveItem(ctx, database, &want); err != nil {
		t.Fatalf("SaveItem: %v", err)
	}

	got, err := GetItem(ctx, database, want.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if *got != want {
		t.Errorf("expected %+v, got %+v", want, *got)
	}
}

func TestSaveItemReplacesWholeRow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SaveItem(ctx, database, &model.Item{
		ID:     "AB12CD34",
		Name:   "Drill",
		Owner:  "Alice",
		Remark: "old",
		Photo:  "/uploads/AB12CD34_1700000000.jpg",
	})
	SaveItem(ctx, database, &model.Item{
		ID:       "AB12CD34",
		Name:     "Hammer",
		Location: "Shed",
	})

	got, _ := GetItem(ctx, database, "AB12CD34")
	want := model.Item{ID: "AB12CD34", Name: "Hammer", Location: "Shed"}
	if *got != want {
		t.Errorf("expected full replace %+v, got %+v", want, *got)
	}
}

func TestGetItemQueryError(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer database.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, location`)).
		WithArgs("AB12CD34").
		WillReturnError(boom)

	item, err := GetItem(context.Background(), database, "AB12CD34")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	if item != nil {
		t.Errorf("expected nil item on error, got %+v", item)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveItemExecError(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer database.Close()

	boom := errors.New("database or disk is full")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO items`)).
		WithArgs("AB12CD34", "Drill", "", "", "Alice", "", "").
		WillReturnError(boom)

	err = SaveItem(context.Background(), database, &model.Item{ID: "AB12CD34", Name: "Drill", Owner: "Alice"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
