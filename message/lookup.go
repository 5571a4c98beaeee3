package message

import (
	"net"
	"strings"
	"time"

	"github.com/francistor/diameter/avp"
	"github.com/francistor/diameter/diamerr"
	"golang.org/x/exp/slices"
)

// GetAVP returns the first top-level AVP with the given name.
func (m *Message) GetAVP(name string) (avp.Avp, error) {
	for i := range m.AVPs {
		if m.AVPs[i].Name == name {
			return m.AVPs[i], nil
		}
	}
	return avp.Avp{}, diamerr.Decodef("avp named %s not found", name)
}

// GetAVPFromPath resolves a dot-separated path through nested Grouped
// AVPs, e.g. "Multiple-Services-Credit-Control.Used-Service-Unit".
func (m *Message) GetAVPFromPath(path string) (avp.Avp, error) {
	components := strings.Split(path, ".")

	a, err := m.GetAVP(components[0])
	if err != nil {
		return avp.Avp{}, err
	}
	for _, component := range components[1:] {
		a, err = a.GetAVP(component)
		if err != nil {
			return avp.Avp{}, err
		}
	}
	return a, nil
}

// GetAllAVP returns every top-level AVP with the given name.
func (m *Message) GetAllAVP(name string) []avp.Avp {
	result := make([]avp.Avp, 0)
	for i := range m.AVPs {
		if m.AVPs[i].Name == name {
			result = append(result, m.AVPs[i])
		}
	}
	return result
}

// DeleteAllAVP removes every top-level AVP with the given name and
// recomputes the cached length.
func (m *Message) DeleteAllAVP(name string) *Message {
	kept := make([]avp.Avp, 0, len(m.AVPs))
	for i := range m.AVPs {
		if m.AVPs[i].Name != name {
			kept = append(kept, m.AVPs[i])
		}
	}
	m.AVPs = kept
	m.recomputeLength()
	return m
}

func (m *Message) recomputeLength() {
	total := uint32(headerLen)
	for i := range m.AVPs {
		total += uint32(m.AVPs[i].Len())
	}
	m.length = total
}

// FilterAVPs returns only the top-level AVPs whose name appears in names,
// preserving order. Grounded on the teacher's use of slices.Contains for
// attribute allow-lists when shaping outbound messages.
func (m *Message) FilterAVPs(names []string) []avp.Avp {
	kept := make([]avp.Avp, 0, len(m.AVPs))
	for i := range m.AVPs {
		if slices.Contains(names, m.AVPs[i].Name) {
			kept = append(kept, m.AVPs[i])
		}
	}
	return kept
}

// GetResultCode returns the Result-Code AVP's value, or 0 if absent.
func (m *Message) GetResultCode() uint32 {
	a, err := m.GetAVP("Result-Code")
	if err != nil {
		return 0
	}
	v, _ := a.Value.(uint32)
	return v
}

// GetStringAVP resolves path and renders it as a string, or "" if absent.
func (m *Message) GetStringAVP(path string) string {
	a, err := m.GetAVPFromPath(path)
	if err != nil {
		return ""
	}
	return a.GetString()
}

// GetIPAddressAVP resolves path as a net.IP, or the zero value if absent
// or not an address-typed AVP.
func (m *Message) GetIPAddressAVP(path string) net.IP {
	a, err := m.GetAVPFromPath(path)
	if err != nil {
		return net.IP{}
	}
	ip, _ := a.Value.(net.IP)
	return ip
}

// GetDateAVP resolves path as a time.Time, or the zero value if absent.
func (m *Message) GetDateAVP(path string) time.Time {
	a, err := m.GetAVPFromPath(path)
	if err != nil {
		return time.Time{}
	}
	t, _ := a.Value.(time.Time)
	return t
}
