package types

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// ClassMicrocontroller is the only device class this protocol emits.
const ClassMicrocontroller = "microcontroller"

// Transports reported in Device.Transport.
const (
	TransportNetwork = "network"
	TransportUSB     = "usb"
)

// UnknownID is reported when the hardware unique id cannot be read.
const UnknownID = "unknown"

// Device is the identity record wrapping a capability list.
type Device struct {
	ID         string `json:"id"`
	Class      string `json:"class"`
	Transport  string `json:"transport"`
	Model      string `json:"model"`
	Firmware   string `json:"firmware"`
	ReportedAt string `json:"reportedAt"`
}

// Document is one capability snapshot.
type Document struct {
	Device       Device       `json:"device"`
	Capabilities Capabilities `json:"capabilities"`
}

// Has reports whether the document carries a capability of kind k.
func (d Document) Has(k Kind) bool { return len(d.Capabilities.OfKind(k)) > 0 }

// Capabilities is the ordered, open discriminated list.
type Capabilities []Capability

// OfKind returns the entries of kind k, in order.
func (cs Capabilities) OfKind(k Kind) []Capability {
	var out []Capability
	for _, c := range cs {
		if c.Kind() == k {
			out = append(out, c)
		}
	}
	return out
}

// Known drops entries whose type this build does not understand.
func (cs Capabilities) Known() Capabilities {
	out := make(Capabilities, 0, len(cs))
	for _, c := range cs {
		if _, ok := c.(Unknown); !ok {
			out = append(out, c)
		}
	}
	return out
}

func (cs Capabilities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, c := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalCapability(c)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCapability encodes c with its "type" field first.
func marshalCapability(c Capability) ([]byte, error) {
	if u, ok := c.(Unknown); ok {
		return u.Raw, nil
	}
	body, err := json.Marshal(normalize(c))
	if err != nil {
		return nil, err
	}
	head, err := json.Marshal(string(c.Kind()))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(head)+9)
	out = append(out, `{"type":`...)
	out = append(out, head...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

// normalize replaces nil lists with empty ones so they encode as [].
func normalize(c Capability) Capability {
	switch v := c.(type) {
	case I2C:
		if v.Buses == nil {
			v.Buses = []I2CBus{}
		}
		buses := make([]I2CBus, len(v.Buses))
		for i, b := range v.Buses {
			if b.DevicesFound == nil {
				b.DevicesFound = []Addr{}
			}
			buses[i] = b
		}
		v.Buses = buses
		return v
	case Peripheral:
		if v.Provides == nil {
			v.Provides = []string{}
		}
		return v
	case Analog:
		if v.Pins == nil {
			v.Pins = []int{}
		}
		return v
	case GPIO:
		if v.DigitalOut == nil {
			v.DigitalOut = []int{}
		}
		if v.DigitalIn == nil {
			v.DigitalIn = []int{}
		}
		return v
	case Network:
		if v.Interfaces == nil {
			v.Interfaces = []Interface{}
		}
		return v
	}
	return c
}

func (cs *Capabilities) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	out := make(Capabilities, 0, len(raws))
	for _, raw := range raws {
		c, err := decodeCapability(raw)
		if err != nil {
			return err
		}
		out = append(out, c)
	}
	*cs = out
	return nil
}

func decodeCapability(raw json.RawMessage) (Capability, error) {
	var head struct {
		Type    string  `json:"type"`
		Chipset *string `json:"chipset"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	var err error
	switch Kind(head.Type) {
	case KindCompute:
		var v Compute
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindI2C:
		var v I2C
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindSensor, KindDisplay:
		v := Peripheral{Class: Kind(head.Type)}
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindADC:
		// "adc" names both a resolved ADC chipset and on-chip analog pins.
		if head.Chipset != nil {
			v := Peripheral{Class: KindADC}
			err = json.Unmarshal(raw, &v)
			return v, err
		}
		var v Analog
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindGPIO:
		var v GPIO
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindNeopixel:
		var v Neopixel
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindStorage:
		var v Storage
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindNetwork:
		var v Network
		err = json.Unmarshal(raw, &v)
		return v, err
	}
	return Unknown{Type: head.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
}

// Encode serialises doc as compact, ASCII-only JSON.
func Encode(doc Document) ([]byte, error) {
	if doc.Capabilities == nil {
		doc.Capabilities = Capabilities{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return asciiSafe(b), nil
}

// Decode parses a document. Unknown capability types are preserved as Unknown.
func Decode(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, err
	}
	if doc.Capabilities == nil {
		doc.Capabilities = Capabilities{}
	}
	return doc, nil
}

// asciiSafe escapes every non-ASCII rune as \uXXXX. In encoded JSON such
// runes only occur inside strings.
func asciiSafe(b []byte) []byte {
	ascii := true
	for _, c := range b {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return b
	}
	const hexd = "0123456789abcdef"
	esc := func(out []byte, r rune) []byte {
		return append(out, '\\', 'u',
			hexd[(r>>12)&0xF], hexd[(r>>8)&0xF], hexd[(r>>4)&0xF], hexd[r&0xF])
	}
	out := make([]byte, 0, len(b)+16)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		switch {
		case r < utf8.RuneSelf:
			out = append(out, byte(r))
		case r > 0xFFFF:
			r -= 0x10000
			out = esc(out, 0xD800+(r>>10))
			out = esc(out, 0xDC00+(r&0x3FF))
		default:
			out = esc(out, r)
		}
	}
	return out
}
