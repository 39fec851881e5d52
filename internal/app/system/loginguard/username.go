package loginguard

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// maxUsernameBody bounds how much of the body is buffered for extraction.
const maxUsernameBody = 64 << 10

// Source records where a claimed username came from.
type Source int

const (
	SourceNone Source = iota
	SourceJSON
	SourceForm
)

func (s Source) String() string {
	switch s {
	case SourceJSON:
		return "json"
	case SourceForm:
		return "form"
	default:
		return "none"
	}
}

// ClaimedUsername is the username a request says it is acting for. It is
// unverified and only used to attribute failures.
type ClaimedUsername struct {
	Name   string
	Source Source
}

// Available reports whether a username was found.
func (c ClaimedUsername) Available() bool {
	return c.Source != SourceNone && c.Name != ""
}

// ExtractUsername reads the "username" field from the JSON or form body of
// a POST. The body is restored so later readers see it unchanged. Other
// methods, unparsable bodies and other content types yield SourceNone.
// Only the first maxUsernameBody bytes are parsed.
func ExtractUsername(r *http.Request) ClaimedUsername {
	if r.Method != http.MethodPost || r.Body == nil || r.Body == http.NoBody {
		return ClaimedUsername{}
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ClaimedUsername{}
	}
	if mediaType != "application/json" && mediaType != "application/x-www-form-urlencoded" {
		return ClaimedUsername{}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUsernameBody))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	if err != nil {
		return ClaimedUsername{}
	}

	switch mediaType {
	case "application/json":
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return ClaimedUsername{}
		}
		var name string
		if err := json.Unmarshal(fields["username"], &name); err != nil {
			return ClaimedUsername{}
		}
		return claimed(name, SourceJSON)
	default:
		vals, err := url.ParseQuery(string(body))
		if err != nil {
			return ClaimedUsername{}
		}
		return claimed(vals.Get("username"), SourceForm)
	}
}

func claimed(name string, src Source) ClaimedUsername {
	name = strings.TrimSpace(name)
	if name == "" {
		return ClaimedUsername{}
	}
	return ClaimedUsername{Name: name, Source: src}
}
