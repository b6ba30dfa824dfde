// Package i18n resolves user-facing messages for the locale negotiated from
// an Accept-Language header.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Localizer owns the message catalog and the locale matcher. It is safe for
// concurrent use once built.
type Localizer struct {
	catalog   *catalog.Builder
	matcher   language.Matcher
	supported []language.Tag
}

// Printer renders messages for one negotiated locale.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New builds a Localizer whose fallback locale is defaultLocale
// (a BCP 47 tag such as "en" or "pt-BR").
func New(defaultLocale string) (*Localizer, error) {
	def, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("parse default locale %q: %w", defaultLocale, err)
	}

	supported := []language.Tag{def}
	for tag := range translations {
		if tag != def {
			supported = append(supported, tag)
		}
	}

	b := catalog.NewBuilder(catalog.Fallback(def))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", tag, key, err)
			}
		}
	}

	return &Localizer{
		catalog:   b,
		matcher:   language.NewMatcher(supported),
		supported: supported,
	}, nil
}

// Printer negotiates a locale from an Accept-Language header value.
// An empty or unparsable header selects the default locale.
func (l *Localizer) Printer(acceptLanguage string) *Printer {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, _ := l.matcher.Match(tags...)
	tag := l.supported[idx]

	return &Printer{
		tag: tag,
		p:   message.NewPrinter(tag, message.Catalog(l.catalog)),
	}
}

// Tag returns the negotiated locale.
func (p *Printer) Tag() language.Tag {
	return p.tag
}

// Message returns the translation of key, or fallback when the catalog has
// no entry for the negotiated locale.
func (p *Printer) Message(key, fallback string) string {
	return p.p.Sprintf(message.Key(key, fallback))
}
