package convert

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

type marker int

const (
	noMarker marker = iota
	idMarker
	pidMarker
)

// referenceText is reference text split into its candidate interpretations.
type referenceText struct {
	marker    marker
	id        int64
	hasID     bool
	pid       string
	undefined bool
}

// parseReference applies the reference grammar without resolving objects.
func parseReference(t *schema.ReferenceType, text string) (referenceText, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return referenceText{}, dataerr.InvalidFormat(t.PID, text, "empty reference")
	}

	if at, kind, ok := findMarker(s); ok {
		if kind == pidMarker {
			pid := strings.TrimSpace(s[at+len("pid:"):])
			if end := strings.IndexAny(pid, " \t),;"); end >= 0 {
				pid = pid[:end]
			}
			if pid == "" {
				return referenceText{}, dataerr.InvalidFormat(t.PID, text, "missing pid after marker")
			}
			return referenceText{marker: pidMarker, pid: pid, undefined: isUndefinedPID(pid)}, nil
		}
		rest := strings.TrimSpace(s[at+len("id:"):])
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		id, err := strconv.ParseInt(rest[:end], 10, 64)
		if err != nil {
			return referenceText{}, dataerr.InvalidFormat(t.PID, text, "missing id after marker")
		}
		return referenceText{marker: idMarker, id: id, hasID: true, undefined: id == 0}, nil
	}

	ref := referenceText{pid: s}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		ref.id, ref.hasID = id, true
		ref.undefined = id == 0
	} else {
		ref.undefined = isUndefinedPID(s)
	}
	return ref, nil
}

// findMarker returns the position of the last "id:" or "pid:" marker that
// starts the text or follows whitespace or punctuation, so that PIDs such
// as "grid:1" are not split.
func findMarker(s string) (int, marker, bool) {
	lower := asciiLower(s)
	for i := strings.LastIndex(lower, "id:"); i >= 0; i = strings.LastIndex(lower[:i], "id:") {
		at, kind := i, idMarker
		if i > 0 && lower[i-1] == 'p' {
			at, kind = i-1, pidMarker
		}
		if prev, _ := utf8.DecodeLastRuneInString(lower[:at]); at == 0 || markerBoundary(prev) {
			return at, kind, true
		}
	}
	return 0, noMarker, false
}

// asciiLower keeps byte offsets intact, unlike strings.ToLower.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func markerBoundary(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) && r != '.' && r != '_' && r != '-'
}

func isUndefinedPID(pid string) bool {
	return strings.EqualFold(pid, "null") || strings.EqualFold(pid, UndefinedText)
}

// TextToReference resolves text to an object of t. A nil object with a nil
// error is the undefined reference.
//
// An explicit "id:" or "pid:" marker (the last one wins) fixes the
// interpretation. Without a marker numeric text is tried as an id first and
// then, like any other text, as a PID.
func TextToReference(t *schema.ReferenceType, text string, lookup schema.ObjectLookup) (*schema.Object, error) {
	ref, err := parseReference(t, text)
	if err != nil {
		return nil, err
	}
	if ref.undefined {
		if !t.UndefinedAllowed {
			return nil, dataerr.NotAllowed(t.PID, text)
		}
		return nil, nil
	}

	resolve := func(obj *schema.Object) *schema.Object {
		if obj == nil || !t.Accepts(obj) {
			return nil
		}
		return obj
	}

	if lookup != nil {
		switch ref.marker {
		case idMarker:
			if obj := resolve(lookup.ObjectByID(ref.id)); obj != nil {
				return obj, nil
			}
		case pidMarker:
			if obj := resolve(lookup.ObjectByPID(ref.pid)); obj != nil {
				return obj, nil
			}
		default:
			if ref.hasID {
				if obj := resolve(lookup.ObjectByID(ref.id)); obj != nil {
					return obj, nil
				}
			}
			if obj := resolve(lookup.ObjectByPID(ref.pid)); obj != nil {
				return obj, nil
			}
		}
	}
	return nil, dataerr.NotResolvable(t.PID, text)
}

// FormatReference renders a stored id. obj is the object the id resolved
// to, nil when unknown.
func FormatReference(obj *schema.Object, id int64) string {
	if id == 0 {
		return UndefinedText
	}
	if obj == nil || obj.PID == "" {
		return "id:" + strconv.FormatInt(id, 10)
	}
	if _, err := strconv.ParseInt(obj.PID, 10, 64); err == nil || isUndefinedPID(obj.PID) {
		return "pid:" + obj.PID
	}
	return obj.PID
}
