package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest  = "E_PROTO_BAD_REQUEST"
	ErrProtoUnsupported = "E_PROTO_UNSUPPORTED"

	// World routing.
	ErrWorldNotFound = "E_WORLD_NOT_FOUND"

	// Query layer.
	ErrInvalidArgument = "E_INVALID_ARGUMENT"
	ErrTooLarge        = "E_TOO_LARGE"
	ErrInternal        = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:  {},
	ErrProtoUnsupported: {},
	ErrWorldNotFound:    {},
	ErrInvalidArgument:  {},
	ErrTooLarge:         {},
	ErrInternal:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
