package request

import "fmt"

// Method is one of the request methods the server understands.
type Method int

const (
	MethodGet Method = iota + 1
	MethodHead
	MethodOptions
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
)

var methodNames = map[Method]string{
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodPatch:   "PATCH",
	MethodDelete:  "DELETE",
}

var methodTokens = map[string]Method{
	"GET":     MethodGet,
	"HEAD":    MethodHead,
	"OPTIONS": MethodOptions,
	"POST":    MethodPost,
	"PUT":     MethodPut,
	"PATCH":   MethodPatch,
	"DELETE":  MethodDelete,
}

// ParseMethod matches the token exactly; "get" is not GET.
func ParseMethod(token string) (Method, error) {
	m, ok := methodTokens[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, token)
	}
	return m, nil
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}
