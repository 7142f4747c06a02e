package dump

import "strings"

// schema remembers the column lists of tables declared earlier in a dump.
type schema struct {
	tables map[string][]string
}

func newSchema() *schema {
	return &schema{tables: make(map[string][]string)}
}

// record stores the columns of table under its qualified and its bare name.
func (s *schema) record(table, columns []string) {
	s.tables[tableKey(table)] = columns
	if len(table) > 1 {
		s.tables[strings.ToLower(table[len(table)-1])] = columns
	}
}

// columns looks a table up by qualified name, then by bare name.
func (s *schema) columns(table []string) ([]string, bool) {
	if cols, ok := s.tables[tableKey(table)]; ok {
		return cols, true
	}
	cols, ok := s.tables[strings.ToLower(table[len(table)-1])]
	return cols, ok
}

func tableKey(table []string) string {
	return strings.ToLower(strings.Join(table, "."))
}
