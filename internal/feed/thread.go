package feed

import "alliancefeed/internal/models"

// UnknownAuthor is the sentinel rendered when a reply references a comment
// that no longer exists (the parent was deleted after the reply was posted).
const UnknownAuthor = "unknown"

// BuildIndex builds an id -> comment lookup for one snapshot. Callers build
// the index once per snapshot; resolving each comment's parent against the
// raw slice would make rendering quadratic on large feeds.
func BuildIndex(ordered []models.Comment) map[string]models.Comment {
	index := make(map[string]models.Comment, len(ordered))
	for _, c := range ordered {
		index[c.ID] = c
	}
	return index
}

// ResolveParentAuthor returns the display author of the comment this one
// replies to. ok is false for top-level comments. A dangling reference
// resolves to UnknownAuthor; it is never an error.
func ResolveParentAuthor(c models.Comment, index map[string]models.Comment) (author string, ok bool) {
	if !c.IsReply() {
		return "", false
	}
	parent, found := index[*c.ReplyTo]
	if !found {
		return UnknownAuthor, true
	}
	return parent.Author, true
}
