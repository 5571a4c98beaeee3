package record

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/francistor/diameter/avp"
	"github.com/francistor/diameter/dict"
	"github.com/francistor/diameter/message"
)

func testDict(t *testing.T) *dict.Dictionary {
	t.Helper()
	xmlSrc := `<diameter-dictionary>
		<avp-vendor id="0">
			<avp code="263" name="Session-Id" type="UTF8String"/>
			<avp code="416" name="CC-Total-Octets" type="Unsigned32"/>
			<avp code="55" name="Event-Timestamp" type="Time"/>
		</avp-vendor>
		<application id="4" name="Credit-Control">
			<command code="272" name="Credit-Control"/>
		</application>
	</diameter-dictionary>`
	d, err := dict.Load(bytes.NewReader([]byte(xmlSrc)))
	if err != nil {
		t.Fatalf("loading test dictionary: %v", err)
	}
	return d
}

func TestNewWriterBuildsParameterizedInsert(t *testing.T) {
	w := NewWriter(nil, "credit_control_records", []string{"Session-Id", "CC-Total-Octets"})
	if !strings.Contains(w.insertSQL, "INSERT INTO credit_control_records") {
		t.Errorf("insertSQL = %q", w.insertSQL)
	}
	if !strings.Contains(w.insertSQL, "session_id") || !strings.Contains(w.insertSQL, "cc_total_octets") {
		t.Errorf("insertSQL missing columns: %q", w.insertSQL)
	}
}

func TestColumnNameSanitizesDots(t *testing.T) {
	if got := columnName("Multiple-Services-Credit-Control.Used-Service-Unit"); got != "Multiple_Services_Credit_Control_Used_Service_Unit" {
		t.Errorf("columnName = %q", got)
	}
}

func TestColumnValueTypeInference(t *testing.T) {
	d := testDict(t)
	m := message.New(true, 272, 4, 1, 1)
	m.AddAVP(d, "Session-Id", "abc;1;1")
	m.AddAVP(d, "CC-Total-Octets", uint32(42))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Add(mustAVP(d, "Event-Timestamp", now))

	if got := columnValue(m, "Session-Id"); got != "abc;1;1" {
		t.Errorf("Session-Id value = %v", got)
	}
	if got := columnValue(m, "CC-Total-Octets"); got != int64(42) {
		t.Errorf("CC-Total-Octets value = %v (%T)", got, got)
	}
	if got := columnValue(m, "Missing-AVP"); got != nil {
		t.Errorf("missing AVP value = %v, want nil", got)
	}
	if got, ok := columnValue(m, "Event-Timestamp").(time.Time); !ok || !got.Equal(now) {
		t.Errorf("Event-Timestamp value = %v", got)
	}
}

func TestCreateTableSQL(t *testing.T) {
	got := CreateTableSQL("credit_control_records", []string{"Session-Id", "CC-Total-Octets"})
	if !strings.Contains(got, "CREATE TABLE IF NOT EXISTS credit_control_records") {
		t.Errorf("CreateTableSQL = %q", got)
	}
}

func mustAVP(d *dict.Dictionary, name string, value interface{}) avp.Avp {
	a, err := avp.NewNamed(d, name, value)
	if err != nil {
		panic(err)
	}
	return *a
}
