package preprocess

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/happyhackingspace/senti/internal/textutil"
)

// funcTransform adapts a plain function to Transform.
type funcTransform struct {
	name string
	fn   func(string) string
}

func (f funcTransform) Preprocess(text string) string { return f.fn(text) }
func (f funcTransform) Name() string                  { return f.name }

// regexpTransform replaces every match of re with repl.
type regexpTransform struct {
	name string
	re   *regexp.Regexp
	repl string
}

func (r regexpTransform) Preprocess(text string) string {
	return r.re.ReplaceAllLiteralString(text, r.repl)
}

func (r regexpTransform) Name() string { return r.name }

// Lowercase maps text to lower case with Unicode case rules.
func Lowercase() Transform {
	return funcTransform{name: "lowercase", fn: func(text string) string {
		return cases.Lower(language.Und).String(text)
	}}
}

// urlRe is the "liberal, accurate" URL pattern from daringfireball.net.
var urlRe = regexp.MustCompile(`(?i)\b(?:https?://|www\d{0,3}[.]|[a-z0-9.\-]+[.][a-z]{2,4}/)` +
	`(?:[^\s()<>]+|\((?:[^\s()<>]+|\([^\s()<>]+\))*\))+` +
	`(?:\((?:[^\s()<>]+|\([^\s()<>]+\))*\)|[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’])`)

// URLEncode replaces URLs with URLToken.
func URLEncode() Transform {
	return regexpTransform{name: "url_encode", re: urlRe, repl: URLToken}
}

// URLDomainEncode replaces URLs with a placeholder carrying the registrable
// domain, e.g. "URL_example_co_uk". Unparseable URLs become URLToken.
func URLDomainEncode() Transform {
	return funcTransform{name: "url_domain_encode", fn: func(text string) string {
		return urlRe.ReplaceAllStringFunc(text, domainToken)
	}}
}

func domainToken(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return URLToken
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return URLToken
	}
	return "URL_" + strings.Map(func(r rune) rune {
		if textutil.IsWordRune(r) {
			return r
		}
		return '_'
	}, domain)
}

// MentionEncode replaces @-mentions with MentionToken.
func MentionEncode() Transform {
	return regexpTransform{
		name: "mention_encode",
		re:   regexp.MustCompile(`@[\p{L}\p{N}_]+`),
		repl: MentionToken,
	}
}

var (
	// eyes, optional tear, nose, mouth; or the mirrored form
	positiveSmileyRe = regexp.MustCompile(`[:;=8xX]'?[-o]*[3D\]})]+|[\[({]+[-o]*'?[:;=8]`)
	negativeSmileyRe = regexp.MustCompile(`[:=]'?[-o]*[(\[{\\/]+|[)\]}\\/]+[-o]*'?[:=]`)
)

// EmoticonEncode replaces emoticons with PositiveSmiley or NegativeSmiley.
// Positive glyphs are replaced first.
func EmoticonEncode() Transform {
	return funcTransform{name: "emoticon_encode", fn: func(text string) string {
		text = positiveSmileyRe.ReplaceAllLiteralString(text, PositiveSmiley)
		return negativeSmileyRe.ReplaceAllLiteralString(text, NegativeSmiley)
	}}
}

// HashtagRemove deletes hashtags of two or more word characters.
func HashtagRemove() Transform {
	return regexpTransform{
		name: "hashtag_remove",
		re:   regexp.MustCompile(`#+[\p{L}\p{N}_]+[\p{L}\p{N}_'\-]*[\p{L}\p{N}_]+`),
	}
}

// LengtheningRemove shortens runs of a repeated word character to two,
// so "sooooo" becomes "soo".
func LengtheningRemove() Transform {
	return funcTransform{name: "lengthening_remove", fn: func(text string) string {
		return textutil.CollapseRepeats(text, 2)
	}}
}

// PunctuationRemove deletes every Unicode punctuation character except '_'.
func PunctuationRemove() Transform {
	return funcTransform{name: "punctuation_remove", fn: func(text string) string {
		return strings.Map(func(r rune) rune {
			if r != '_' && unicode.IsPunct(r) {
				return -1
			}
			return r
		}, text)
	}}
}

// WhitespaceRemove collapses whitespace runs to a single space.
func WhitespaceRemove() Transform {
	return funcTransform{name: "whitespace_remove", fn: textutil.NormalizeWhitespaces}
}
