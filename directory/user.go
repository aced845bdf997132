package directory

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// UserRecord is one entry in the user directory.
//
// Queue is derived from the display name and id at creation time and only
// changes through Rename. Contacts holds ids of other directory entries;
// the relation is directed and dangling ids are filtered at read time.
type UserRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Queue     string    `json:"queue"`
	Contacts  []string  `json:"contacts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasContact reports whether the given id is in the record's contact set.
func (u *UserRecord) HasContact(id string) bool {
	for _, c := range u.Contacts {
		if c == id {
			return true
		}
	}
	return false
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-z0-9_]`)
)

// SanitizeName normalizes a display name for use in queue names and routing
// keys: lower-cased, whitespace runs collapsed to a single underscore, and
// every remaining character outside [a-z0-9_] stripped.
func SanitizeName(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRun.ReplaceAllString(s, "_")
	return disallowed.ReplaceAllString(s, "")
}

// QueueName derives the destination queue for a user. Including the id makes
// queue names collision-free even when sanitized display names coincide.
func QueueName(name, id string) string {
	return fmt.Sprintf("fila_%s_%s", SanitizeName(name), id)
}
