// Package record is a record sink: it flattens a decoded message's named
// AVPs into one row and inserts it into a SQL table. Modeled on the
// teacher's cdrwriter package (its attribute-map-driven field extraction
// and per-type column inference), retargeted from BigQuery/CSV onto
// MySQL via database/sql + go-sql-driver/mysql. Stateless and
// per-message: it performs no correlation across requests/answers, so it
// does not reintroduce accounting state machines or session management.
package record

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/francistor/diameter/dict"
	"github.com/francistor/diameter/message"
)

// Writer inserts one row per decoded message into a MySQL table.
type Writer struct {
	db        *sql.DB
	table     string
	avpNames  []string
	insertSQL string
}

// NewWriter prepares a Writer that extracts avpNames (dot-paths resolved
// with message.GetAVPFromPath for nested Grouped AVPs) from each message
// and inserts them, one column per name, into table.
func NewWriter(db *sql.DB, table string, avpNames []string) *Writer {
	columns := make([]string, len(avpNames))
	placeholders := make([]string, len(avpNames))
	for i, name := range avpNames {
		columns[i] = columnName(name)
		placeholders[i] = "?"
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	return &Writer{
		db:        db,
		table:     table,
		avpNames:  avpNames,
		insertSQL: insertSQL,
	}
}

// columnName turns a dot-path AVP name into a SQL-safe column name.
func columnName(avpName string) string {
	return strings.ReplaceAll(strings.ReplaceAll(avpName, "-", "_"), ".", "_")
}

// Write flattens m's configured AVPs into a row and inserts it.
func (w *Writer) Write(m *message.Message) error {
	values := make([]interface{}, len(w.avpNames))
	for i, name := range w.avpNames {
		values[i] = columnValue(m, name)
	}

	_, err := w.db.Exec(w.insertSQL, values...)
	if err != nil {
		return fmt.Errorf("inserting record into %s: %w", w.table, err)
	}
	return nil
}

// columnValue extracts name from m and converts it to a value suitable
// for a SQL column, the same Integer/Unsigned->integer, Time->datetime,
// everything-else->text inference the teacher's BigQuery formatter
// applies, here against driver-native Go types instead of
// bigquery.Value.
func columnValue(m *message.Message, name string) interface{} {
	a, err := m.GetAVPFromPath(name)
	if err != nil {
		return nil
	}

	switch a.Type {
	case dict.Integer32, dict.Enumerated:
		v, _ := a.Value.(int32)
		return int64(v)
	case dict.Integer64:
		v, _ := a.Value.(int64)
		return v
	case dict.Unsigned32:
		v, _ := a.Value.(uint32)
		return int64(v)
	case dict.Unsigned64:
		v, _ := a.Value.(uint64)
		return int64(v)
	case dict.Time:
		v, _ := a.Value.(time.Time)
		return v
	default:
		return a.GetString()
	}
}

// CreateTableSQL renders a CREATE TABLE statement matching NewWriter's
// column layout, suitable for provisioning the sink's table.
func CreateTableSQL(table string, avpNames []string) string {
	columns := make([]string, len(avpNames))
	for i, name := range avpNames {
		columns[i] = columnName(name) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(columns, ", "))
}
