package avp

import (
	"bytes"
	"net"
	"reflect"
	"testing"

	"github.com/francistor/diameter/dict"
)

func testDict(t *testing.T) *dict.Dictionary {
	t.Helper()
	xmlSrc := `<diameter-dictionary>
		<avp-vendor id="0">
			<avp code="1" name="User-Name" type="UTF8String"/>
			<avp code="416" name="CC-Total-Octets" type="Unsigned32"/>
			<avp code="257" name="Host-IP-Address" type="Address"/>
			<avp code="263" name="Session-Id" type="UTF8String"/>
			<avp code="456" name="Test-Grouped" type="Grouped"/>
		</avp-vendor>
	</diameter-dictionary>`
	d, err := dict.Load(bytes.NewReader([]byte(xmlSrc)))
	if err != nil {
		t.Fatalf("loading test dictionary: %v", err)
	}
	return d
}

// Scenario 2: single Unsigned32 AVP.
func TestEncodeUnsigned32Scenario(t *testing.T) {
	a, err := New(416, 0, true, dict.Unsigned32, uint32(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	want := []byte{0x00, 0x00, 0x01, 0xA0, 0x40, 0x00, 0x00, 0x0C, 0x00, 0x00, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

// Scenario 3: single UTF8String AVP "a", 1 data octet padded to 4.
func TestEncodeUTF8StringScenario(t *testing.T) {
	a, err := New(263, 0, true, dict.UTF8String, "a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	want := []byte{0x00, 0x00, 0x01, 0x07, 0x40, 0x00, 0x00, 0x09, 0x61, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestRoundTripUTF8String(t *testing.T) {
	d := testDict(t)
	a, err := NewNamed(d, "Session-Id", "this;is;a;session-id")
	if err != nil {
		t.Fatalf("NewNamed: %v", err)
	}

	encoded, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	rebuilt, n, err := FromBytes(encoded, d, DecodeOptions{})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if int(n) != len(encoded) {
		t.Errorf("consumed %d, want %d", n, len(encoded))
	}
	if rebuilt.GetString() != a.Value.(string) {
		t.Errorf("got %q, want %q", rebuilt.GetString(), a.Value)
	}
}

// Scenario 5: grouped AVP round-trip preserves child ordering.
func TestGroupedRoundTrip(t *testing.T) {
	d := testDict(t)

	child1, _ := New(416, 0, true, dict.Unsigned32, uint32(1))
	child2, _ := New(263, 0, true, dict.UTF8String, "a")

	group, err := New(456, 0, true, dict.Grouped, []Avp{*child1, *child2})
	if err != nil {
		t.Fatalf("New grouped: %v", err)
	}

	encoded, err := group.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	rebuilt, _, err := FromBytes(encoded, d, DecodeOptions{})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	children, ok := rebuilt.Value.([]Avp)
	if !ok || len(children) != 2 {
		t.Fatalf("expected 2 children, got %#v", rebuilt.Value)
	}
	if children[0].Code != 416 || children[1].Code != 263 {
		t.Errorf("child ordering not preserved: %#v", children)
	}
}

// Scenario 6: unknown AVP code, strict vs lenient.
func TestUnknownCodeDecode(t *testing.T) {
	d := testDict(t)

	raw, _ := New(99999, 0, true, dict.OctetString, []byte("payload!"))
	encoded, err := raw.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	if _, _, err := FromBytes(encoded, d, DecodeOptions{Lenient: false}); err == nil {
		t.Error("expected strict decode to fail on unknown code")
	}

	lenient, _, err := FromBytes(encoded, d, DecodeOptions{Lenient: true})
	if err != nil {
		t.Fatalf("lenient decode failed: %v", err)
	}
	if lenient.Type != dict.OctetString {
		t.Errorf("lenient decode type = %v, want OctetString", lenient.Type)
	}
	if !bytes.Equal(lenient.Value.([]byte), []byte("payload!")) {
		t.Errorf("lenient decode value mismatch: %v", lenient.Value)
	}
}

func TestAddressAVP(t *testing.T) {
	ip := net.ParseIP("192.0.2.1").To4()
	a, err := New(257, 0, true, dict.Address, net.IP(ip))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	encoded, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	d := testDict(t)
	rebuilt, _, err := FromBytes(encoded, d, DecodeOptions{Lenient: true})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	rebuiltIP, ok := rebuilt.Value.(net.IP)
	if !ok || !rebuiltIP.Equal(net.IP(ip)) {
		t.Errorf("got %v, want %v", rebuilt.Value, ip)
	}
}

func TestPadding(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: 3}
	for n, want := range cases {
		if got := Padding(n); got != want {
			t.Errorf("Padding(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestLenIncludesPadding(t *testing.T) {
	a, err := New(263, 0, true, dict.UTF8String, "a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Len() != 12 {
		t.Errorf("Len() = %d, want 12", a.Len())
	}
}

func TestGroupedLenIsSumOfChildren(t *testing.T) {
	child1, _ := New(416, 0, true, dict.Unsigned32, uint32(1))
	child2, _ := New(263, 0, true, dict.UTF8String, "a")
	group, err := New(456, 0, true, dict.Grouped, []Avp{*child1, *child2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := child1.Len() + child2.Len()
	got, err := valueLen(group.Type, group.Value)
	if err != nil {
		t.Fatalf("valueLen: %v", err)
	}
	if got != want {
		t.Errorf("grouped value length = %d, want %d", got, want)
	}
}

func TestGetAVPOnGroup(t *testing.T) {
	child, _ := New(416, 0, true, dict.Unsigned32, uint32(42))
	child.Name = "CC-Total-Octets"
	group, _ := New(456, 0, true, dict.Grouped, []Avp{*child})

	found, err := group.GetAVP("CC-Total-Octets")
	if err != nil {
		t.Fatalf("GetAVP: %v", err)
	}
	if !reflect.DeepEqual(found.Value, uint32(42)) {
		t.Errorf("got %v, want 42", found.Value)
	}

	if _, err := group.GetAVP("Missing"); err == nil {
		t.Error("expected error for missing child")
	}
}
