package ccnb

import (
	"net/url"
	"strings"
)

// AppendNameComponent appends one Component element.
func AppendNameComponent(buf []byte, comp []byte) []byte {
	return AppendTaggedBlob(buf, DTagComponent, comp)
}

// AppendName appends a complete Name element holding the given
// components.
func AppendName(buf []byte, comps ...[]byte) []byte {
	buf = AppendDTag(buf, DTagName)
	for _, c := range comps {
		buf = AppendNameComponent(buf, c)
	}
	return AppendCloser(buf)
}

// NameFromURI encodes a Name element from its slash-separated URI
// form. Components are percent-decoded. "/" is the empty name.
func NameFromURI(uri string) ([]byte, error) {
	uri = strings.TrimPrefix(uri, "ccnx:")
	if !strings.HasPrefix(uri, "/") {
		return nil, ErrFormat{What: "name URI must be absolute"}
	}
	var comps [][]byte
	for _, part := range strings.Split(uri, "/") {
		if part == "" {
			continue
		}
		dec, err := url.PathUnescape(part)
		if err != nil {
			return nil, ErrFormat{What: "bad percent escape in name URI"}
		}
		comps = append(comps, []byte(dec))
	}
	return AppendName(nil, comps...), nil
}

// NameToURI renders a Name element in URI form.
func NameToURI(name []byte) (string, error) {
	comps, err := NameComponents(name)
	if err != nil {
		return "", err
	}
	if len(comps) == 0 {
		return "/", nil
	}
	var sb strings.Builder
	for _, c := range comps {
		sb.WriteByte('/')
		sb.WriteString(escapeComponent(c))
	}
	return sb.String(), nil
}

func escapeComponent(c []byte) string {
	var sb strings.Builder
	for _, b := range c {
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9',
			b == '-', b == '.', b == '_', b == '~':
			sb.WriteByte(b)
		default:
			const hex = "0123456789ABCDEF"
			sb.WriteByte('%')
			sb.WriteByte(hex[b>>4])
			sb.WriteByte(hex[b&0x0f])
		}
	}
	return sb.String()
}

// NameComponents parses a Name element into its component values.
func NameComponents(name []byte) ([][]byte, error) {
	d := NewBufDecoder(name)
	if !d.MatchDTag(DTagName) {
		return nil, ErrFormat{What: "not a Name", At: 0}
	}
	d.Advance()
	var comps [][]byte
	for d.MatchDTag(DTagComponent) {
		d.Advance()
		if blob, ok := d.MatchBlob(); ok {
			d.Advance()
			comps = append(comps, blob)
		} else {
			comps = append(comps, []byte{})
		}
		d.CheckClose()
	}
	d.CheckClose()
	if !d.Ok() {
		return nil, ErrFormat{What: "bad Name", At: d.Pos()}
	}
	return comps, nil
}
