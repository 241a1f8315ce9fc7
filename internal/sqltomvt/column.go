package sqltomvt

import "github.com/lib/pq"

// ColumnKind tags the role of a projected column. Roles, not column
// names, drive row post-processing, so renaming a key field or geometry
// column never changes downstream behavior.
type ColumnKind int

const (
	KindAttribute ColumnKind = iota
	KindKey
	KindGeometry
	KindEncodedGeometry
	KindMVTValidity
	KindGeomValidity
	KindHiddenName
)

func (k ColumnKind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindKey:
		return "key"
	case KindGeometry:
		return "geometry"
	case KindEncodedGeometry:
		return "encoded-geometry"
	case KindMVTValidity:
		return "mvt-validity"
	case KindGeomValidity:
		return "geom-validity"
	case KindHiddenName:
		return "hidden-name"
	default:
		return "unknown"
	}
}

// Column is one projected output column: an SQL expression bound to an
// alias, tagged with its role.
type Column struct {
	Expr  string
	Alias string
	Kind  ColumnKind
}

// SQL renders the column for a select list. A bare column reference whose
// alias matches the identifier renders without a redundant AS clause.
func (c Column) SQL() string {
	quoted := pq.QuoteIdentifier(c.Alias)
	if c.Expr == quoted {
		return c.Expr
	}
	return c.Expr + " AS " + quoted
}

// AttributeColumn projects a declared layer field by name.
func AttributeColumn(name string) Column {
	return Column{Expr: pq.QuoteIdentifier(name), Alias: name, Kind: KindAttribute}
}
