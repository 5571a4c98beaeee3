package dict

import "encoding/xml"

// XML schema for dictionary sources. Each source declares vendors, the
// AVPs owned by each vendor (vendor id 0 is the base IETF namespace),
// and applications with their commands.
//
// <diameter-dictionary>
//   <vendor id="10415" name="TGPP"/>
//   <avp-vendor id="0">
//     <avp code="1" name="User-Name" type="UTF8String"/>
//     <avp code="6" name="Auth-Request-Type" type="Enumerated">
//       <enum name="AUTHENTICATE_ONLY" code="1"/>
//     </avp>
//   </avp-vendor>
//   <application id="4" name="Credit-Control">
//     <command code="272" name="Credit-Control"/>
//   </application>
// </diameter-dictionary>

type xmlDictionary struct {
	XMLName      xml.Name        `xml:"diameter-dictionary"`
	Vendors      []xmlVendor     `xml:"vendor"`
	AVPVendors   []xmlAVPVendor  `xml:"avp-vendor"`
	Applications []xmlApplication `xml:"application"`
}

type xmlVendor struct {
	ID   uint32 `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type xmlAVPVendor struct {
	ID   uint32   `xml:"id,attr"`
	AVPs []xmlAVP `xml:"avp"`
}

type xmlAVP struct {
	Code  uint32    `xml:"code,attr"`
	Name  string    `xml:"name,attr"`
	Type  string    `xml:"type,attr"`
	Enums []xmlEnum `xml:"enum"`
}

type xmlEnum struct {
	Name string `xml:"name,attr"`
	Code int32  `xml:"code,attr"`
}

type xmlApplication struct {
	ID       uint32       `xml:"id,attr"`
	Name     string       `xml:"name,attr"`
	Commands []xmlCommand `xml:"command"`
}

type xmlCommand struct {
	Code uint32 `xml:"code,attr"`
	Name string `xml:"name,attr"`
}
