package wiki

import (
	"strconv"
	"strings"

	"eopbot/internal/format"
)

// Site builds links into one MediaWiki installation.
type Site struct {
	// Base is the site root without a trailing slash, e.g. https://psychonautwiki.org.
	Base string
}

func NewSite(base string) Site {
	return Site{Base: strings.TrimRight(strings.TrimSpace(base), "/")}
}

// Page links to an article.
func (s Site) Page(title string) string {
	return s.Base + "/wiki/" + format.PagePath(title)
}

// User links to a user page.
func (s Site) User(name string) string {
	return s.Page("User:" + name)
}

// Diff links to the difference between two revisions.
func (s Site) Diff(title string, rev, old int64) string {
	return s.index(title) + "&type=revision&diff=" + itoa(rev) + "&oldid=" + itoa(old)
}

// Revision links to one revision of a page.
func (s Site) Revision(title string, rev int64) string {
	return s.index(title) + "&oldid=" + itoa(rev)
}

// RevisionView is Revision with the revision-type marker, used for the
// revoked approval link.
func (s Site) RevisionView(title string, rev int64) string {
	return s.index(title) + "&type=revision&oldid=" + itoa(rev)
}

func (s Site) index(title string) string {
	return s.Base + "/w/index.php?title=" + format.EncodeTitle(title)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
