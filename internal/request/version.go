package request

import "fmt"

// Version is the protocol label from the request line. It is only echoed
// back in the status line; framing is HTTP/1.x whatever the label says.
type Version int

const (
	Version09 Version = iota + 1
	Version10
	Version11
	Version20
	Version30
)

var versionNames = map[Version]string{
	Version09: "HTTP/0.9",
	Version10: "HTTP/1.0",
	Version11: "HTTP/1.1",
	Version20: "HTTP/2.0",
	Version30: "HTTP/3.0",
}

var versionTokens = map[string]Version{
	"HTTP/0.9": Version09,
	"HTTP/1.0": Version10,
	"HTTP/1.1": Version11,
	"HTTP/2.0": Version20,
	"HTTP/3.0": Version30,
}

func ParseVersion(token string) (Version, error) {
	v, ok := versionTokens[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, token)
	}
	return v, nil
}

func (v Version) String() string {
	if name, ok := versionNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Version(%d)", int(v))
}
