// Package cardname maps card display names to file name tokens and back.
//
// Every character that is unsafe in a file name on common filesystems is
// replaced with an escape token, so a sanitized name can be turned back into
// the display name it came from. That holds only for names that do not
// themselves contain "__" followed by a token body such as "LT__" or "PIPE".
package cardname

import "strings"

type replacement struct {
	char  string
	token string
}

// replacements is the fixed escape table. No token is a substring of another
// token. Plain text followed by a token can still read as a different token
// ("__LT:" sanitizes to "__LT__COLON__"), so Unsanitize is an exact inverse
// only for names without token text in them.
var replacements = []replacement{
	{char: "<", token: "__LT__"},
	{char: ">", token: "__GT__"},
	{char: ":", token: "__COLON__"},
	{char: `"`, token: "__QUOTE__"},
	{char: "/", token: "__SLASH__"},
	{char: `\`, token: "__BSLASH__"},
	{char: "|", token: "__PIPE__"},
	{char: "?", token: "__QUEST__"},
	{char: "*", token: "__STAR__"},
}

var (
	sanitizer   *strings.Replacer
	unsanitizer *strings.Replacer
)

func init() {
	forward := make([]string, 0, len(replacements)*2)
	for _, r := range replacements {
		forward = append(forward, r.char, r.token)
	}
	sanitizer = strings.NewReplacer(forward...)

	// Longer tokens first.
	ordered := make([]replacement, len(replacements))
	copy(ordered, replacements)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && len(ordered[j].token) > len(ordered[j-1].token); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	reverse := make([]string, 0, len(ordered)*2)
	for _, r := range ordered {
		reverse = append(reverse, r.token, r.char)
	}
	unsanitizer = strings.NewReplacer(reverse...)
}

// Sanitize returns a file name safe token for a card name.
func Sanitize(name string) string {
	return sanitizer.Replace(name)
}

// Unsanitize reverses Sanitize. Text without escape tokens is returned unchanged.
func Unsanitize(token string) string {
	return unsanitizer.Replace(token)
}

// Tokens returns the escape tokens in table order.
func Tokens() []string {
	out := make([]string, 0, len(replacements))
	for _, r := range replacements {
		out = append(out, r.token)
	}
	return out
}

// Slug replaces every unsafe character with an underscore. Unlike Sanitize it
// is lossy; it is meant for files handed to people, not for cache keys.
func Slug(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, name)
}
