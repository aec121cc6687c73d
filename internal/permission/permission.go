// Package permission resolves per-view grants for the current identity.
package permission

import (
	"context"
	"strings"
)

// ViewPermission is the grant for one view. The zero value denies everything.
type ViewPermission struct {
	Active bool `json:"active"`
	Read   bool `json:"read"`
	Write  bool `json:"write"`
}

// Grant binds a ViewPermission to a module link and view identifier.
type Grant struct {
	Link string `json:"link"`
	View string `json:"view"`
	ViewPermission
}

// Source loads the grant list of the current identity from its owner.
type Source interface {
	Grants(ctx context.Context) ([]Grant, error)
}

// Table is an immutable lookup of grants.
type Table struct {
	grants map[key]ViewPermission
}

type key struct {
	link string
	view string
}

func normalize(link, view string) key {
	return key{
		link: strings.Trim(strings.ToLower(strings.TrimSpace(link)), "/"),
		view: strings.TrimSpace(view),
	}
}

// NewTable indexes grants. Later duplicates win.
func NewTable(grants []Grant) Table {
	t := Table{grants: make(map[key]ViewPermission, len(grants))}
	for _, g := range grants {
		t.grants[normalize(g.Link, g.View)] = g.ViewPermission
	}
	return t
}

// Lookup returns the grant for (link, view); absent grants deny.
func (t Table) Lookup(link, view string) ViewPermission {
	return t.grants[normalize(link, view)]
}

// Len returns the number of grants.
func (t Table) Len() int { return len(t.grants) }

// Static is a Source over a fixed list.
type Static []Grant

func (s Static) Grants(context.Context) ([]Grant, error) {
	out := make([]Grant, len(s))
	copy(out, s)
	return out, nil
}
