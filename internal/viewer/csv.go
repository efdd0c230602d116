package viewer

import (
	"strings"
	"time"
)

// DefaultExportPrefix is the file name prefix of CSV exports.
const DefaultExportPrefix = "emis_data"

// Downloader delivers an exported file to the user.
type Downloader interface {
	Download(filename string, content []byte) error
}

// DownloaderFunc adapts a function to the Downloader interface.
type DownloaderFunc func(filename string, content []byte) error

// Download calls f(filename, content).
func (f DownloaderFunc) Download(filename string, content []byte) error {
	return f(filename, content)
}

// EncodeCSV serializes a result set. The header line is the column names
// joined by commas; every data cell is wrapped in double quotes. Lines are
// separated by "\n" with no trailing newline.
//
// Cell contents are not escaped: a value holding a quote, comma or newline
// produces a line that CSV readers will split differently.
func EncodeCSV(rs ResultSet) string {
	headers := rs.Columns()

	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	for _, rec := range rs {
		b.WriteByte('\n')
		for i, col := range headers {
			if i > 0 {
				b.WriteByte(',')
			}
			v, _ := rec.Get(col)
			b.WriteByte('"')
			b.WriteString(FormatValue(v))
			b.WriteByte('"')
		}
	}
	return b.String()
}

// ExportFilename returns "<prefix>_YYYY-MM-DD.csv" for the UTC date of now.
func ExportFilename(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultExportPrefix
	}
	return prefix + "_" + now.UTC().Format(time.DateOnly) + ".csv"
}
