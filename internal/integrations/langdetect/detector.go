// Package langdetect identifies the language of a caller's transcript.
package langdetect

import (
	"context"
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// ErrUndetectable is returned when text carries no script to classify, such as
// empty input, digits, or punctuation.
var ErrUndetectable = errors.New("langdetect: no detectable language in text")

// isoCodes maps whatlanggo languages to ISO 639-1 codes. Languages outside this
// table are reported by their whatlanggo name, which callers treat as
// unsupported.
var isoCodes = map[whatlanggo.Lang]string{
	whatlanggo.Eng: "en",
	whatlanggo.Hin: "hi",
	whatlanggo.Guj: "gu",
	whatlanggo.Mar: "mr",
	whatlanggo.Nep: "ne",
	whatlanggo.Ben: "bn",
	whatlanggo.Pan: "pa",
	whatlanggo.Urd: "ur",
	whatlanggo.Tam: "ta",
	whatlanggo.Tel: "te",
	whatlanggo.Spa: "es",
	whatlanggo.Fra: "fr",
	whatlanggo.Deu: "de",
}

// SupportedLanguages is the default whitelist. Short Devanagari turns are
// otherwise routed to Marathi, Nepali or Bhojpuri.
var SupportedLanguages = []whatlanggo.Lang{whatlanggo.Eng, whatlanggo.Hin, whatlanggo.Guj}

// Detector classifies text with whatlanggo's trigram model. Results are
// deterministic for the same input.
type Detector struct {
	options whatlanggo.Options
}

type Option func(*Detector)

// WithWhitelist restricts detection to the given languages. Calling it with no
// languages lifts the restriction.
func WithWhitelist(langs ...whatlanggo.Lang) Option {
	return func(d *Detector) {
		d.options.Whitelist = whitelist(langs)
	}
}

func whitelist(langs []whatlanggo.Lang) map[whatlanggo.Lang]bool {
	if len(langs) == 0 {
		return nil
	}
	m := make(map[whatlanggo.Lang]bool, len(langs))
	for _, l := range langs {
		m[l] = true
	}
	return m
}

// New returns a Detector limited to SupportedLanguages unless an option says
// otherwise.
func New(opts ...Option) *Detector {
	d := &Detector{options: whatlanggo.Options{Whitelist: whitelist(SupportedLanguages)}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the ISO 639-1 code of the most likely language of text.
func (d *Detector) Detect(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUndetectable
	}

	info := whatlanggo.DetectWithOptions(text, d.options)
	if info.Script == nil || info.Lang < 0 {
		return "", ErrUndetectable
	}
	if code, ok := isoCodes[info.Lang]; ok {
		return code, nil
	}
	return strings.ToLower(info.Lang.String()), nil
}
