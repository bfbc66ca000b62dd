//go:build cgo

package persist

// The DuckDB driver requires cgo; without it OpenDuckDB reports an unknown driver.
import _ "github.com/marcboeker/go-duckdb"
