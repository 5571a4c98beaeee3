package dict

import (
	"bytes"
	"testing"
)

const baseXML = `<diameter-dictionary>
	<vendor id="10415" name="TGPP"/>
	<avp-vendor id="0">
		<avp code="1" name="User-Name" type="UTF8String"/>
		<avp code="415" name="CC-Request-Type" type="Enumerated">
			<enum name="INITIAL_REQUEST" code="1"/>
			<enum name="TERMINATION_REQUEST" code="3"/>
		</avp>
	</avp-vendor>
	<avp-vendor id="10415">
		<avp code="1" name="TGPP-IMSI" type="UTF8String"/>
	</avp-vendor>
	<application id="4" name="Credit-Control">
		<command code="272" name="Credit-Control"/>
	</application>
</diameter-dictionary>`

func TestLoadAndLookup(t *testing.T) {
	d, err := Load(bytes.NewReader([]byte(baseXML)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := d.GetAVPType(1, 0); got != UTF8String {
		t.Errorf("GetAVPType(1,0) = %v, want UTF8String", got)
	}
	if got := d.GetAVPType(1, 10415); got != UTF8String {
		t.Errorf("GetAVPType(1,10415) = %v, want UTF8String", got)
	}
	if got := d.GetAVPType(999999, 0); got != Unknown {
		t.Errorf("GetAVPType for absent code = %v, want Unknown", got)
	}
}

func TestVendorAndBaseNamespacesAreDistinct(t *testing.T) {
	d, err := Load(bytes.NewReader([]byte(baseXML)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	base, ok := d.GetAVPInfo(1, 0)
	if !ok || base.Name != "User-Name" {
		t.Fatalf("base code 1 = %#v", base)
	}
	vendor, ok := d.GetAVPInfo(1, 10415)
	if !ok || vendor.Name != "TGPP-IMSI" {
		t.Fatalf("vendor code 1 = %#v", vendor)
	}
}

func TestEnumeratedValues(t *testing.T) {
	d, err := Load(bytes.NewReader([]byte(baseXML)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	info, ok := d.GetAVPByName("CC-Request-Type")
	if !ok {
		t.Fatal("CC-Request-Type not found")
	}
	if info.EnumValues["INITIAL_REQUEST"] != 1 || info.EnumValues["TERMINATION_REQUEST"] != 3 {
		t.Errorf("enum values = %#v", info.EnumValues)
	}
	if info.EnumNames[1] != "INITIAL_REQUEST" {
		t.Errorf("enum names = %#v", info.EnumNames)
	}
}

func TestApplicationAndCommandLookup(t *testing.T) {
	d, err := Load(bytes.NewReader([]byte(baseXML)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	app, ok := d.GetApplication(4)
	if !ok || app.Name != "Credit-Control" {
		t.Fatalf("application 4 = %#v", app)
	}
	cmd, ok := app.CommandsByCode[272]
	if !ok || cmd.Name != "Credit-Control" {
		t.Fatalf("command 272 = %#v", cmd)
	}
}

func TestLastWriterWinsOnCollision(t *testing.T) {
	override := `<diameter-dictionary>
		<avp-vendor id="0">
			<avp code="1" name="User-Name" type="OctetString"/>
		</avp-vendor>
	</diameter-dictionary>`

	d, err := Load(
		bytes.NewReader([]byte(baseXML)),
		bytes.NewReader([]byte(override)),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := d.GetAVPType(1, 0); got != OctetString {
		t.Errorf("later source should win: got %v, want OctetString", got)
	}
}

func TestMergeProducesIndependentDictionary(t *testing.T) {
	d, err := Load(bytes.NewReader([]byte(baseXML)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	extra := `<diameter-dictionary>
		<avp-vendor id="0">
			<avp code="2" name="Extra-AVP" type="Unsigned32"/>
		</avp-vendor>
	</diameter-dictionary>`

	merged, err := d.Merge(bytes.NewReader([]byte(extra)))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if got := d.GetAVPType(2, 0); got != Unknown {
		t.Errorf("original dictionary must stay unchanged, got %v", got)
	}
	if got := merged.GetAVPType(2, 0); got != Unsigned32 {
		t.Errorf("merged dictionary should see Extra-AVP, got %v", got)
	}
	if got := merged.GetAVPType(1, 0); got != UTF8String {
		t.Errorf("merged dictionary should keep original entries, got %v", got)
	}
}

func TestGetAVPTypeNeverPanicsOnUnknownKey(t *testing.T) {
	d, err := Load(bytes.NewReader([]byte(baseXML)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, code := range []uint32{0, 1, 12345, 4294967295} {
		_ = d.GetAVPType(code, 999)
	}
}
