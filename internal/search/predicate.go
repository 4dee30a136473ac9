package search

import (
	"strconv"
	"strings"

	"github.com/ariefcatur/go-rental-ledger/internal/catalog"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
)

// Builder collects bind arguments and hands out their placeholders.
type Builder struct {
	args []any
}

// Arg binds v and returns its placeholder ($1, $2, ...).
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *Builder) Args() []any { return b.args }

// Predicate renders one boolean SQL condition. Values go through the
// builder, never into the SQL text.
type Predicate func(b *Builder) string

func Available() Predicate {
	return func(*Builder) string { return "p.availability = true" }
}

func CityContains(s string) Predicate {
	return func(b *Builder) string { return "p.city ILIKE " + b.Arg(contains(s)) }
}

func StateContains(s string) Predicate {
	return func(b *Builder) string { return "p.state ILIKE " + b.Arg(contains(s)) }
}

func KindIs(k catalog.Kind) Predicate {
	return func(b *Builder) string { return "p.kind = " + b.Arg(string(k)) }
}

// PriceAtLeast and PriceAtMost are inclusive; unpriced rows never match.
func PriceAtLeast(c money.Cents) Predicate {
	return func(b *Builder) string { return "pr.amount_cents >= " + b.Arg(int64(c)) }
}

func PriceAtMost(c money.Cents) Predicate {
	return func(b *Builder) string { return "pr.amount_cents <= " + b.Arg(int64(c)) }
}

// RoomsAtLeast never matches commercial buildings, which have no rooms.
func RoomsAtLeast(n int) Predicate {
	return func(b *Builder) string { return "COALESCE(h.rooms, a.rooms) >= " + b.Arg(n) }
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

const selectViews = `
	SELECT p.id, p.owner_id, p.address, p.city, p.state, p.description, p.availability, p.kind,
	       pr.amount_cents IS NOT NULL, COALESCE(pr.amount_cents, 0),
	       COALESCE(h.rooms, a.rooms) IS NOT NULL, COALESCE(h.rooms, a.rooms, 0)
	FROM properties p
	LEFT JOIN houses h ON h.property_id = p.id
	LEFT JOIN apartments a ON a.property_id = p.id
	LEFT JOIN prices pr ON pr.property_id = p.id`

// Build ANDs the predicates into a complete query.
func Build(preds []Predicate, order OrderBy) (string, []any) {
	b := &Builder{}
	conds := make([]string, 0, len(preds))
	for _, p := range preds {
		conds = append(conds, p(b))
	}

	var sb strings.Builder
	sb.WriteString(selectViews)
	if len(conds) > 0 {
		sb.WriteString("\n\tWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	switch order {
	case OrderPrice:
		sb.WriteString("\n\tORDER BY pr.amount_cents ASC NULLS LAST, p.id")
	case OrderBedrooms:
		sb.WriteString("\n\tORDER BY COALESCE(h.rooms, a.rooms) ASC NULLS LAST, p.id")
	default:
		sb.WriteString("\n\tORDER BY p.created_at, p.id")
	}
	return sb.String(), b.Args()
}
