package semantic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/posecontact/internal/models"
)

// Path is a location in the document tree, one segment per map key or
// sequence index.
type Path []string

// Child returns a new path extended by segs. The receiver is not modified.
func (p Path) Child(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Index returns a new path extended by a sequence position.
func (p Path) Index(i int) Path {
	return p.Child(strconv.Itoa(i))
}

// String renders the path as a slash-delimited pointer. The root is "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	return "/" + strings.Join(p, "/")
}

func issueAt(p Path, format string, args ...any) models.Issue {
	return models.Issue{Path: p.String(), Message: fmt.Sprintf(format, args...)}
}

// display renders a referenced value for messages. Missing values render empty.
func display(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
