// Package preprocess rewrites raw social-media text before feature extraction.
//
// Each elementary Transform is a pure text rewrite. A Chain applies transforms
// in order, the output of one feeding the next:
//
//	chain := preprocess.Default()
//	chain.Preprocess("Sooo happy!!! http://t.co/x @bob :)")
//	// "soo happy URL_TOKEN USERNAME POSITIVE_SMILEY"
package preprocess

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder tokens emitted by the encoding transforms.
const (
	URLToken       = "URL_TOKEN"
	MentionToken   = "USERNAME"
	PositiveSmiley = "POSITIVE_SMILEY"
	NegativeSmiley = "NEGATIVE_SMILEY"
)

// Transform rewrites a document. Implementations must be deterministic and
// total on valid UTF-8 input.
type Transform interface {
	Preprocess(text string) string
	Name() string
}

// Chain applies a sequence of transforms in order.
type Chain struct {
	transforms []Transform
}

// NewChain creates a chain of the given transforms.
func NewChain(transforms ...Transform) *Chain {
	return &Chain{transforms: transforms}
}

// Append adds a transform to the end of the chain.
func (c *Chain) Append(t Transform) {
	c.transforms = append(c.transforms, t)
}

// Preprocess runs every transform of the chain over text.
func (c *Chain) Preprocess(text string) string {
	for _, t := range c.transforms {
		text = t.Preprocess(text)
	}
	return text
}

// Name implements Transform.
func (c *Chain) Name() string { return "chain" }

// Transforms returns the transforms of the chain in application order.
func (c *Chain) Transforms() []Transform {
	return append([]Transform(nil), c.transforms...)
}

// String describes the chain, e.g. "Preprocessor=[lowercase, url_encode]".
func (c *Chain) String() string {
	names, err := Names(c)
	if err != nil {
		return "Preprocessor=custom"
	}
	return "Preprocessor=[" + strings.Join(names, ", ") + "]"
}

// MarshalJSON writes the chain as the list of its transform names.
func (c *Chain) MarshalJSON() ([]byte, error) {
	names, err := Names(c)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// UnmarshalJSON rebuilds the chain from a list of transform names.
func (c *Chain) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	chain, err := FromNames(names)
	if err != nil {
		return err
	}
	c.transforms = chain.transforms
	return nil
}

// Options toggles the transforms assembled by Build.
type Options struct {
	// All enables the eight standard transforms, from Lowercase to
	// RemoveWhitespace. The supplementary transforms keep their own toggles.
	All bool `yaml:"all" json:"all"`

	HTMLStrip         bool `yaml:"html_strip" json:"html_strip"`
	Lowercase         bool `yaml:"lowercase" json:"lowercase"`
	EncodeURLs        bool `yaml:"encode_urls" json:"encode_urls"`
	URLDomains        bool `yaml:"url_domains" json:"url_domains"` // keep the registrable domain in URL placeholders
	EncodeMentions    bool `yaml:"encode_mentions" json:"encode_mentions"`
	EncodeEmoticons   bool `yaml:"encode_emoticons" json:"encode_emoticons"`
	RemoveHashtags    bool `yaml:"remove_hashtags" json:"remove_hashtags"`
	RemoveLengthening bool `yaml:"remove_lengthening" json:"remove_lengthening"`
	RemovePunctuation bool `yaml:"remove_punctuation" json:"remove_punctuation"`
	RemoveStopwords   bool `yaml:"remove_stopwords" json:"remove_stopwords"`
	Stem              bool `yaml:"stem" json:"stem"`
	RemoveWhitespace  bool `yaml:"remove_whitespace" json:"remove_whitespace"`
}

// Build assembles the enabled transforms in canonical order. Encoders run
// before punctuation removal so their glyphs and placeholders survive intact.
func Build(opts Options) *Chain {
	if opts.All {
		opts.Lowercase = true
		opts.EncodeURLs = true
		opts.EncodeMentions = true
		opts.EncodeEmoticons = true
		opts.RemoveHashtags = true
		opts.RemoveLengthening = true
		opts.RemovePunctuation = true
		opts.RemoveWhitespace = true
	}

	chain := NewChain()
	if opts.HTMLStrip {
		chain.Append(HTMLStrip())
	}
	if opts.Lowercase {
		chain.Append(Lowercase())
	}
	switch {
	case opts.URLDomains:
		chain.Append(URLDomainEncode())
	case opts.EncodeURLs:
		chain.Append(URLEncode())
	}
	if opts.EncodeMentions {
		chain.Append(MentionEncode())
	}
	if opts.EncodeEmoticons {
		chain.Append(EmoticonEncode())
	}
	if opts.RemoveHashtags {
		chain.Append(HashtagRemove())
	}
	if opts.RemoveLengthening {
		chain.Append(LengtheningRemove())
	}
	if opts.RemovePunctuation {
		chain.Append(PunctuationRemove())
	}
	if opts.RemoveStopwords {
		chain.Append(StopwordRemove())
	}
	if opts.Stem {
		chain.Append(Stem())
	}
	if opts.RemoveWhitespace {
		chain.Append(WhitespaceRemove())
	}
	return chain
}

// Default returns the chain with all standard transforms enabled.
func Default() *Chain {
	return Build(Options{All: true})
}

var registry = map[string]func() Transform{
	"html_strip":         HTMLStrip,
	"lowercase":          Lowercase,
	"url_encode":         URLEncode,
	"url_domain_encode":  URLDomainEncode,
	"mention_encode":     MentionEncode,
	"emoticon_encode":    EmoticonEncode,
	"hashtag_remove":     HashtagRemove,
	"lengthening_remove": LengtheningRemove,
	"punctuation_remove": PunctuationRemove,
	"stopword_remove":    StopwordRemove,
	"stem":               Stem,
	"whitespace_remove":  WhitespaceRemove,
}

// ByName returns a new instance of the named transform.
func ByName(name string) (Transform, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("preprocess: unknown transform %q", name)
	}
	return ctor(), nil
}

// FromNames builds a chain from transform names.
func FromNames(names []string) (*Chain, error) {
	chain := NewChain()
	for _, name := range names {
		t, err := ByName(name)
		if err != nil {
			return nil, err
		}
		chain.Append(t)
	}
	return chain, nil
}

// Names flattens t into the names of its elementary transforms. It fails for
// transforms that are not registered, since those cannot be rebuilt.
func Names(t Transform) ([]string, error) {
	if t == nil {
		return nil, nil
	}
	if c, ok := t.(*Chain); ok {
		var names []string
		for _, inner := range c.transforms {
			sub, err := Names(inner)
			if err != nil {
				return nil, err
			}
			names = append(names, sub...)
		}
		return names, nil
	}
	if _, ok := registry[t.Name()]; !ok {
		return nil, fmt.Errorf("preprocess: transform %q is not serializable", t.Name())
	}
	return []string{t.Name()}, nil
}
