// Package search runs filtered property queries. Each filter is a Predicate;
// the builder ANDs them behind the availability baseline and binds every
// value as a placeholder argument.
package search

import (
	"context"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/catalog"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
)

// PropertyView is a search hit. Amount is nil for unpriced properties and
// Rooms is nil for commercial buildings.
type PropertyView struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Description  string       `json:"description"`
	Availability bool         `json:"availability"`
	Kind         catalog.Kind `json:"type"`
	Amount       *money.Cents `json:"amount"`
	Rooms        *int         `json:"rooms"`
}

type Engine struct {
	DB    postgres.Querier
	Cache *Cache
}

func NewEngine(db postgres.Querier, cache *Cache) *Engine {
	return &Engine{DB: db, Cache: cache}
}

func (e *Engine) Search(ctx context.Context, f Filters) ([]PropertyView, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	views, gen, ok := e.Cache.Lookup(ctx, f)
	if ok {
		return views, nil
	}

	views, err = e.query(ctx, f)
	if err != nil {
		return nil, apperr.Storage("failed to fetch filtered properties", err)
	}
	_ = e.Cache.Store(ctx, gen, f, views)
	return views, nil
}

func (e *Engine) query(ctx context.Context, f Filters) ([]PropertyView, error) {
	sql, args := Build(f.Predicates(), f.OrderBy)
	rows, err := e.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PropertyView{}
	for rows.Next() {
		var (
			v         PropertyView
			kind      string
			priced    bool
			amount    int64
			hasRooms  bool
			roomCount int
		)
		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.Address, &v.City, &v.State, &v.Description, &v.Availability, &kind,
			&priced, &amount, &hasRooms, &roomCount,
		); err != nil {
			return nil, err
		}
		v.Kind = catalog.Kind(kind)
		if priced {
			c := money.Cents(amount)
			v.Amount = &c
		}
		if hasRooms {
			n := roomCount
			v.Rooms = &n
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
