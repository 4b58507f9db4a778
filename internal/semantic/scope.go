package semantic

// ScopeType distinguishes where in the query a scope was opened.
type ScopeType int

const (
	// ScopeQuery is the top-level query scope.
	ScopeQuery ScopeType = iota
	// ScopeSubquery is a nested SELECT scope.
	ScopeSubquery
	// ScopeCTE is a common table expression scope.
	ScopeCTE
)

func (t ScopeType) String() string {
	switch t {
	case ScopeQuery:
		return "query"
	case ScopeSubquery:
		return "subquery"
	case ScopeCTE:
		return "cte"
	default:
		return "unknown"
	}
}

// Scope is one lexical scope. Child scopes see their ancestors'
// tables; a subquery can reference tables from its enclosing query.
// Start and End are the byte span of the SELECT that opened the scope.
type Scope struct {
	ID       int
	ParentID int // -1 for root scopes
	Type     ScopeType
	Start    int
	End      int
	Tables   []TableSymbol
}

// Contains reports whether offset falls inside the scope's span.
func (s *Scope) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// FindTable returns the table matching name in this scope only.
func (s *Scope) FindTable(name string) (*TableSymbol, bool) {
	for i := range s.Tables {
		if s.Tables[i].Matches(name) {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// AddTable registers a table. Two tables may share a real name only
// when their display names differ, so self-joins need distinct
// aliases.
func (s *Scope) AddTable(table TableSymbol) error {
	name := table.DisplayName()
	for _, t := range s.Tables {
		if t.DisplayName() == name {
			return &DuplicateAliasError{Name: name}
		}
	}
	s.Tables = append(s.Tables, table)
	return nil
}

// ScopeManager owns the scope forest of one document and resolves
// names along parent chains.
type ScopeManager struct {
	scopes []Scope
}

// NewScopeManager creates an empty manager.
func NewScopeManager() *ScopeManager {
	return &ScopeManager{}
}

// CreateScope appends a scope and returns its ID. Pass -1 for a root
// scope.
func (m *ScopeManager) CreateScope(scopeType ScopeType, parentID int) int {
	id := len(m.scopes)
	m.scopes = append(m.scopes, Scope{ID: id, ParentID: parentID, Type: scopeType})
	return id
}

// Scope returns the scope with the given ID.
func (m *ScopeManager) Scope(id int) (*Scope, bool) {
	if id < 0 || id >= len(m.scopes) {
		return nil, false
	}
	return &m.scopes[id], true
}

// ScopeCount returns the number of scopes created so far.
func (m *ScopeManager) ScopeCount() int {
	return len(m.scopes)
}

// InnermostAt returns the ID of the narrowest scope whose span
// contains offset, or -1 when no scope does.
func (m *ScopeManager) InnermostAt(offset int) int {
	best := -1
	for i := range m.scopes {
		s := &m.scopes[i]
		if !s.Contains(offset) {
			continue
		}
		if best == -1 || s.End-s.Start < m.scopes[best].End-m.scopes[best].Start {
			best = i
		}
	}
	return best
}

// ResolveTable searches scopeID and its ancestors for a table
// matching name.
func (m *ScopeManager) ResolveTable(name string, scopeID int) (*TableSymbol, error) {
	for id := scopeID; id >= 0; {
		scope, ok := m.Scope(id)
		if !ok {
			return nil, &InvalidScopeError{ID: id}
		}
		if table, ok := scope.FindTable(name); ok {
			return table, nil
		}
		id = scope.ParentID
	}
	return nil, &TableNotFoundError{Name: name}
}

// ResolveColumn searches the scope chain for a column. A column
// visible through more than one table is an error; the caller must
// qualify it.
func (m *ScopeManager) ResolveColumn(name string, scopeID int) (*TableSymbol, *ColumnSymbol, error) {
	type match struct {
		table  *TableSymbol
		column ColumnSymbol
	}
	var found []match

	for id := scopeID; id >= 0; {
		scope, ok := m.Scope(id)
		if !ok {
			return nil, nil, &InvalidScopeError{ID: id}
		}
		for i := range scope.Tables {
			if col, ok := scope.Tables[i].FindColumn(name); ok {
				found = append(found, match{table: &scope.Tables[i], column: col})
			}
		}
		id = scope.ParentID
	}

	switch len(found) {
	case 0:
		return nil, nil, &ColumnNotFoundError{Name: name}
	case 1:
		col := found[0].column
		return found[0].table, &col, nil
	default:
		tables := make([]string, len(found))
		for i, f := range found {
			tables[i] = f.table.DisplayName()
		}
		return nil, nil, &AmbiguousColumnError{Name: name, Tables: tables}
	}
}

// VisibleTables returns every table reachable from scopeID, innermost
// scope first.
func (m *ScopeManager) VisibleTables(scopeID int) []TableSymbol {
	var out []TableSymbol
	for id := scopeID; id >= 0; {
		scope, ok := m.Scope(id)
		if !ok {
			break
		}
		out = append(out, scope.Tables...)
		id = scope.ParentID
	}
	return out
}
