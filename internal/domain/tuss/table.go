package tuss

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Table is an immutable in-memory TUSS catalog. It implements Repository so
// the claim builder can run against a fixed code set without a database, and
// doubles as the seed source for the pg table.
type Table struct {
	byCode map[string]*CodigoTUSS
	sorted []*CodigoTUSS
	agora  func() time.Time
}

// NewTable builds a Table from the given codes. The input slice is copied;
// later mutation of the argument does not affect the table.
func NewTable(codes []CodigoTUSS) *Table {
	t := &Table{byCode: make(map[string]*CodigoTUSS, len(codes)), agora: time.Now}
	for i := range codes {
		c := codes[i]
		t.byCode[c.Codigo] = &c
		t.sorted = append(t.sorted, &c)
	}
	sort.Slice(t.sorted, func(i, j int) bool {
		return t.sorted[i].Codigo < t.sorted[j].Codigo
	})
	return t
}

// Len returns the number of codes in the table.
func (t *Table) Len() int { return len(t.sorted) }

func (t *Table) Search(ctx context.Context, query string, limit int, includeInactive bool) ([]*CodigoTUSS, error) {
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(query)
	hoje := t.agora()

	var out []*CodigoTUSS
	for _, c := range t.sorted {
		if !includeInactive && !c.VigenteEm(hoje) {
			continue
		}
		if strings.Contains(strings.ToLower(c.Codigo), q) ||
			strings.Contains(strings.ToLower(c.Descricao), q) {
			out = append(out, c)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (t *Table) GetByCode(ctx context.Context, codigo string) (*CodigoTUSS, error) {
	return t.byCode[codigo], nil
}
