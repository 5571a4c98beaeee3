// Package dict implements the Diameter dictionary: a static, immutable
// mapping of (code, vendor-id) to a semantic AVP type and name, plus
// application/command metadata, loaded from one or more XML sources.
package dict

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/francistor/diameter/logging"
)

// Key identifies an AVP by its code and vendor-id (0 for the base
// namespace).
type Key struct {
	Code     uint32
	VendorID uint32
}

// AVPInfo is everything the codec needs to know about a declared AVP.
type AVPInfo struct {
	Code       uint32
	VendorID   uint32
	Name       string
	Type       Type
	EnumNames  map[int32]string // non-nil only for Enumerated
	EnumValues map[string]int32 // non-nil only for Enumerated
}

// Command is a Diameter command (request/answer pair share one entry,
// distinguished on the wire by the R bit).
type Command struct {
	Code uint32
	Name string
}

// Application groups the commands that belong to one Diameter application.
type Application struct {
	Code           uint32
	Name           string
	CommandsByCode map[uint32]Command
	CommandsByName map[string]Command
}

// Dictionary is the immutable, concurrency-safe result of loading one or
// more XML sources. The zero value is not usable; build one with Load,
// LoadFiles or Embedded.
type Dictionary struct {
	avpByKey  map[Key]AVPInfo
	avpByName map[string]AVPInfo
	vendors   map[uint32]string
	appByCode map[uint32]Application
	appByName map[string]Application
}

// GetAVPType returns the semantic type declared for (code, vendorID), or
// Unknown if no loaded source declares it. Never panics.
func (d *Dictionary) GetAVPType(code, vendorID uint32) Type {
	info, ok := d.avpByKey[Key{Code: code, VendorID: vendorID}]
	if !ok {
		return Unknown
	}
	return info.Type
}

// GetAVPInfo returns the full dictionary entry for (code, vendorID).
func (d *Dictionary) GetAVPInfo(code, vendorID uint32) (AVPInfo, bool) {
	info, ok := d.avpByKey[Key{Code: code, VendorID: vendorID}]
	return info, ok
}

// GetAVPByName looks up a declared AVP by its dictionary name.
func (d *Dictionary) GetAVPByName(name string) (AVPInfo, bool) {
	info, ok := d.avpByName[name]
	return info, ok
}

// GetApplication looks up a declared application by numeric id.
func (d *Dictionary) GetApplication(code uint32) (Application, bool) {
	app, ok := d.appByCode[code]
	return app, ok
}

// GetApplicationByName looks up a declared application by name.
func (d *Dictionary) GetApplicationByName(name string) (Application, bool) {
	app, ok := d.appByName[name]
	return app, ok
}

// builder accumulates dictionary entries across sources, applying
// last-writer-wins on key collision, then freezes into a Dictionary.
type builder struct {
	avpByKey  map[Key]AVPInfo
	avpByName map[string]AVPInfo
	vendors   map[uint32]string
	appByCode map[uint32]Application
	appByName map[string]Application
}

func newBuilder() *builder {
	return &builder{
		avpByKey:  make(map[Key]AVPInfo),
		avpByName: make(map[string]AVPInfo),
		vendors:   make(map[uint32]string),
		appByCode: make(map[uint32]Application),
		appByName: make(map[string]Application),
	}
}

func (b *builder) addSource(src io.Reader) error {
	var xd xmlDictionary
	if err := xml.NewDecoder(src).Decode(&xd); err != nil {
		return fmt.Errorf("parsing dictionary XML: %w", err)
	}

	for _, v := range xd.Vendors {
		b.vendors[v.ID] = v.Name
	}

	for _, av := range xd.AVPVendors {
		for _, a := range av.AVPs {
			t, ok := parseType(a.Type)
			if !ok {
				return fmt.Errorf("avp %q: unknown type %q", a.Name, a.Type)
			}

			info := AVPInfo{
				Code:     a.Code,
				VendorID: av.ID,
				Name:     a.Name,
				Type:     t,
			}

			if t == Enumerated && len(a.Enums) > 0 {
				info.EnumNames = make(map[int32]string, len(a.Enums))
				info.EnumValues = make(map[string]int32, len(a.Enums))
				for _, e := range a.Enums {
					info.EnumNames[e.Code] = e.Name
					info.EnumValues[e.Name] = e.Code
				}
			}

			key := Key{Code: a.Code, VendorID: av.ID}
			b.avpByKey[key] = info
			b.avpByName[a.Name] = info
		}
	}

	for _, xa := range xd.Applications {
		app := Application{
			Code:           xa.ID,
			Name:           xa.Name,
			CommandsByCode: make(map[uint32]Command),
			CommandsByName: make(map[string]Command),
		}
		for _, xc := range xa.Commands {
			cmd := Command{Code: xc.Code, Name: xc.Name}
			app.CommandsByCode[xc.Code] = cmd
			app.CommandsByName[xc.Name] = cmd
		}
		b.appByCode[xa.ID] = app
		b.appByName[xa.Name] = app
	}

	return nil
}

func (b *builder) freeze() *Dictionary {
	return &Dictionary{
		avpByKey:  b.avpByKey,
		avpByName: b.avpByName,
		vendors:   b.vendors,
		appByCode: b.appByCode,
		appByName: b.appByName,
	}
}

// Load builds a Dictionary from one or more XML sources, applied in
// order so that later sources override earlier ones on (code, vendor-id)
// collision.
func Load(sources ...io.Reader) (*Dictionary, error) {
	b := newBuilder()
	for i, src := range sources {
		if err := b.addSource(src); err != nil {
			logging.L.Errorw("failed to load dictionary source", "index", i, "error", err)
			return nil, err
		}
	}
	return b.freeze(), nil
}

// LoadFiles builds a Dictionary from XML files on disk, in order.
func LoadFiles(paths ...string) (*Dictionary, error) {
	b := newBuilder()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening dictionary file %s: %w", path, err)
		}
		err = b.addSource(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return b.freeze(), nil
}

// Merge layers extra XML sources on top of an already-built Dictionary,
// producing a fresh, independent Dictionary. The receiver is never
// mutated, matching the "rebuild and swap" rule for shared immutable
// dictionaries.
func (d *Dictionary) Merge(sources ...io.Reader) (*Dictionary, error) {
	b := newBuilder()
	for k, v := range d.avpByKey {
		b.avpByKey[k] = v
	}
	for k, v := range d.avpByName {
		b.avpByName[k] = v
	}
	for k, v := range d.vendors {
		b.vendors[k] = v
	}
	for k, v := range d.appByCode {
		b.appByCode[k] = v
	}
	for k, v := range d.appByName {
		b.appByName[k] = v
	}
	for _, src := range sources {
		if err := b.addSource(src); err != nil {
			return nil, err
		}
	}
	return b.freeze(), nil
}
