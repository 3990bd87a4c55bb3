// internal/message/rejection.go
package message

// Rejection is a protocol error reported back to the originating connection
// as a system notice. Its text is part of the wire protocol.
type Rejection struct {
	text string
}

func (r *Rejection) Error() string { return r.text }

// Notice returns the system frame sent to the originator.
func (r *Rejection) Notice() Outbound { return System(r.text) }

var (
	ErrBadJSON       = &Rejection{text: "bad json"}
	ErrMissingType   = &Rejection{text: "missing type"}
	ErrUnknownType   = &Rejection{text: "unknown type"}
	ErrJoinInvalid   = &Rejection{text: "join invalid"}
	ErrMustJoinFirst = &Rejection{text: "you must join first"}
	ErrTextInvalid   = &Rejection{text: "text invalid"}
)
