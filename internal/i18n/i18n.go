// Package i18n translates the interface strings the reconciliation code
// writes into the page. Keys use the forum's "namespace:key" form and
// text may carry "[[namespace:key, arg]]" tokens, as rendered templates do.
package i18n

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Keys used by the reconciliation handlers.
const (
	KeyPostIsDeleted    = "topic:post-is-deleted"
	KeyEditedTimestamp  = "global:edited-timestamp"
	KeyOneReply         = "topic:one-reply-to-this-post"
	KeyReplies          = "topic:replies-to-this-post"
	KeyStatusOnline     = "global:online"
	KeyStatusAway       = "global:away"
	KeyStatusDND        = "global:dnd"
	KeyStatusOffline    = "global:offline"
	KeyTopicDeleted     = "topic:deleted-message"
	KeyTopicLocked      = "topic:locked"
	KeyTopicPinned      = "topic:pinned"
	KeyPostEditedBy     = "topic:last-edited-by"
	KeyPostCountSuffix  = "global:posts"
	KeyTopicTagsHeading = "tags:tags"
)

// ErrUnsupportedLanguage is returned for languages with no messages.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// DefaultLanguage is used when no language is configured.
var DefaultLanguage = language.BritishEnglish

var messages = map[language.Tag]map[string]string{
	language.BritishEnglish: {
		KeyPostIsDeleted:    "This post is deleted!",
		KeyEditedTimestamp:  "Edited %[1]s",
		KeyOneReply:         "1 Reply",
		KeyReplies:          "%[1]s Replies",
		KeyStatusOnline:     "Online",
		KeyStatusAway:       "Away",
		KeyStatusDND:        "Do not disturb",
		KeyStatusOffline:    "Offline",
		KeyTopicDeleted:     "This topic has been deleted. Only users with topic management privileges can see it.",
		KeyTopicLocked:      "Locked",
		KeyTopicPinned:      "Pinned",
		KeyPostEditedBy:     "Last edited by %[1]s",
		KeyPostCountSuffix:  "Posts",
		KeyTopicTagsHeading: "Tags",
	},
	language.German: {
		KeyPostIsDeleted:    "Dieser Beitrag wurde gelöscht!",
		KeyEditedTimestamp:  "Bearbeitet %[1]s",
		KeyOneReply:         "1 Antwort",
		KeyReplies:          "%[1]s Antworten",
		KeyStatusOnline:     "Online",
		KeyStatusAway:       "Abwesend",
		KeyStatusDND:        "Bitte nicht stören",
		KeyStatusOffline:    "Offline",
		KeyTopicDeleted:     "Dieses Thema wurde gelöscht. Nur Nutzer mit Themenverwaltungsrechten können es sehen.",
		KeyTopicLocked:      "Gesperrt",
		KeyTopicPinned:      "Angeheftet",
		KeyPostEditedBy:     "Zuletzt bearbeitet von %[1]s",
		KeyPostCountSuffix:  "Beiträge",
		KeyTopicTagsHeading: "Schlagworte",
	},
}

// Translator resolves keys for one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
	keys    map[string]struct{}
}

// New creates a translator for lang, a BCP 47 tag such as "en-GB" or "de".
// Regional variants fall back to the closest supported language.
func New(lang string) (*Translator, error) {
	tag := DefaultLanguage
	if lang != "" {
		requested, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
		}
		supported := SupportedLanguages()
		matched, _, conf := language.NewMatcher(supported).Match(requested)
		if conf == language.No {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
		}
		tag = matched
	}

	b := catalog.NewBuilder(catalog.Fallback(DefaultLanguage))
	keys := make(map[string]struct{})
	for t, msgs := range messages {
		for k, v := range msgs {
			if err := b.SetString(t, k, v); err != nil {
				return nil, fmt.Errorf("build catalog: %w", err)
			}
			keys[k] = struct{}{}
		}
	}

	base, _ := tag.Base()
	printTag := DefaultLanguage
	for t := range messages {
		if tb, _ := t.Base(); tb == base {
			printTag = t
		}
	}

	return &Translator{
		tag:     printTag,
		printer: message.NewPrinter(printTag, message.Catalog(b)),
		keys:    keys,
	}, nil
}

// SupportedLanguages lists the languages with messages, default first.
func SupportedLanguages() []language.Tag {
	tags := []language.Tag{DefaultLanguage}
	for t := range messages {
		if t != DefaultLanguage {
			tags = append(tags, t)
		}
	}
	return tags
}

// Language returns the language messages are printed in.
func (t *Translator) Language() language.Tag {
	return t.tag
}

// Has reports whether key has a message.
func (t *Translator) Has(key string) bool {
	_, ok := t.keys[key]
	return ok
}

// Translate returns the message for key. Unknown keys are returned as the
// original token so the gap is visible on the page.
func (t *Translator) Translate(key string, args ...string) string {
	if !t.Has(key) {
		return Token(key, args...)
	}
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return t.printer.Sprintf(key, vals...)
}

var tokenPattern = regexp.MustCompile(`\[\[([\w-]+:[\w.\-]+)((?:\s*,[^\]]*)?)\]\]`)

// Compile replaces every "[[namespace:key, args]]" token in text.
func (t *Translator) Compile(text string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		var args []string
		if rest := strings.TrimSpace(m[2]); rest != "" {
			for _, a := range strings.Split(strings.TrimPrefix(rest, ","), ",") {
				args = append(args, strings.TrimSpace(a))
			}
		}
		if !t.Has(m[1]) {
			return tok
		}
		return t.Translate(m[1], args...)
	})
}

// Token builds a translation token for key.
func Token(key string, args ...string) string {
	if len(args) == 0 {
		return "[[" + key + "]]"
	}
	return "[[" + key + ", " + strings.Join(args, ", ") + "]]"
}

var unescaper = strings.NewReplacer("&#91;", "[", "&#93;", "]")

var escaper = strings.NewReplacer("[", "&#91;", "]", "&#93;")

// Unescape restores brackets escaped by the server so user content is not
// read as translation tokens.
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// Escape hides brackets from Compile.
func Escape(s string) string {
	return escaper.Replace(s)
}

var timeLayouts = map[language.Tag]string{
	language.BritishEnglish: "02/01/2006, 15:04",
	language.German:         "02.01.2006, 15:04",
}

// FormatTime formats ts for display in the translator's language.
func (t *Translator) FormatTime(ts time.Time) string {
	layout, ok := timeLayouts[t.tag]
	if !ok {
		layout = timeLayouts[DefaultLanguage]
	}
	return ts.Format(layout)
}
