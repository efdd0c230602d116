package viewer

// Placeholder texts rendered for an empty result set.
const (
	NoDataHeader = "No Data Available"
	NoDataRow    = "No records found"
)

// TableView is a rendered page of the result set. Cells are already
// formatted as display text.
type TableView struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Empty   bool       `json:"empty"`
}

// renderTable builds the view of one page. Columns come from the first
// record only: values under other columns are dropped and a record lacking
// one of the columns renders an empty cell.
func renderTable(rs ResultSet, p Pagination) TableView {
	if len(rs) == 0 {
		return TableView{
			Headers: []string{NoDataHeader},
			Rows:    [][]string{{NoDataRow}},
			Empty:   true,
		}
	}

	headers := rs.Columns()
	start := min(p.StartIndex(), len(rs))
	end := p.EndIndex(len(rs))
	if end < start {
		end = start
	}

	rows := make([][]string, 0, end-start)
	for _, rec := range rs[start:end] {
		row := make([]string, len(headers))
		for i, col := range headers {
			if v, ok := rec.Get(col); ok {
				row[i] = FormatValue(v)
			}
		}
		rows = append(rows, row)
	}

	return TableView{Headers: headers, Rows: rows}
}
