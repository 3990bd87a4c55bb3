// internal/message/message.go
// Contains the wire messages exchanged between clients and the hub, and the
// decoding and validation of inbound frames.
package message

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

const (
	TypeJoin   = "join"
	TypeMsg    = "msg"
	TypeSystem = "system"

	// MaxTextLength is the upper bound, in UTF-16 code units, of a trimmed
	// chat text.
	MaxTextLength = 100
)

// Outbound is a frame sent by the server. System notices carry only Text;
// chat messages carry From as well.
type Outbound struct {
	Type string `json:"type"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// Join is the validated payload of a join frame.
type Join struct {
	Name string `json:"name" validate:"required"`
}

// Chat is the validated payload of a msg frame.
type Chat struct {
	Text string `json:"text" validate:"utf16min=1,utf16max=100"`
}

// Inbound is a decoded client frame whose type has been recognized. Its
// payload is validated lazily by Join or Chat.
type Inbound struct {
	Type   string
	fields map[string]json.RawMessage
}

var validate = newValidator()

// newValidator registers utf16min/utf16max, which bound a string's length in
// UTF-16 code units, the unit clients measure text in.
func newValidator() *validator.Validate {
	v := validator.New()
	bound := func(ok func(n, limit int) bool) validator.Func {
		return func(fl validator.FieldLevel) bool {
			limit, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return ok(UTF16Len(fl.Field().String()), limit)
		}
	}
	if err := v.RegisterValidation("utf16min", bound(func(n, limit int) bool { return n >= limit })); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("utf16max", bound(func(n, limit int) bool { return n <= limit })); err != nil {
		panic(err)
	}
	return v
}

// UTF16Len is the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// Trim strips leading and trailing whitespace and line terminators the way
// clients do: U+FEFF counts as whitespace, U+0085 does not.
func Trim(s string) string {
	return strings.TrimFunc(s, isTrimmable)
}

func isTrimmable(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// Decode parses one raw frame. The returned error is always a *Rejection.
func Decode(raw []byte) (Inbound, error) {
	if !json.Valid(raw) {
		return Inbound{}, ErrBadJSON
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Arrays, strings, numbers and booleans have no type field.
		return Inbound{}, ErrMissingType
	}
	if fields == nil {
		return Inbound{}, ErrBadJSON
	}

	var kind interface{}
	if rawType, ok := fields["type"]; ok {
		if err := json.Unmarshal(rawType, &kind); err != nil {
			return Inbound{}, ErrBadJSON
		}
	}
	if isBlank(kind) {
		return Inbound{}, ErrMissingType
	}

	switch kind {
	case TypeJoin, TypeMsg:
		return Inbound{Type: kind.(string), fields: fields}, nil
	default:
		return Inbound{}, ErrUnknownType
	}
}

// isBlank reports whether a decoded type value counts as absent: missing,
// null, false, zero or the empty string.
func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	default:
		return false
	}
}

// Join returns the trimmed join payload, or ErrJoinInvalid.
func (in Inbound) Join() (Join, error) {
	name, ok := in.stringField("name")
	if !ok {
		return Join{}, ErrJoinInvalid
	}
	j := Join{Name: Trim(name)}
	if err := validate.Struct(j); err != nil {
		return Join{}, ErrJoinInvalid
	}
	return j, nil
}

// Chat returns the trimmed msg payload, or ErrTextInvalid.
func (in Inbound) Chat() (Chat, error) {
	text, ok := in.stringField("text")
	if !ok {
		return Chat{}, ErrTextInvalid
	}
	c := Chat{Text: Trim(text)}
	if err := validate.Struct(c); err != nil {
		return Chat{}, ErrTextInvalid
	}
	return c, nil
}

func (in Inbound) stringField(key string) (string, bool) {
	raw, ok := in.fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// System builds a server notice.
func System(text string) Outbound {
	return Outbound{Type: TypeSystem, Text: text}
}

// ChatFrom builds a chat message attributed to from.
func ChatFrom(from, text string) Outbound {
	return Outbound{Type: TypeMsg, From: from, Text: text}
}

// Greeting is sent to every connection right after it is accepted.
func Greeting() Outbound { return System("send join first") }

// Joined announces a successful join to every connection.
func Joined(name string) Outbound { return System(name + " joined") }

// Left announces that a joined connection went away.
func Left(name string) Outbound { return System(name + " left") }

// Encode serializes an outbound frame without HTML escaping and without the
// trailing newline json.Encoder appends.
func Encode(out Outbound) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// DecodeOutbound parses a frame produced by the server.
func DecodeOutbound(raw []byte) (Outbound, error) {
	var out Outbound
	err := json.Unmarshal(raw, &out)
	return out, err
}
