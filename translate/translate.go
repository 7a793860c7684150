// Package translate formats user-facing messages in the caller's locale.
package translate

import (
	"github.com/jeandeaual/go-locale"
	"github.com/tliron/commonlog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var log = commonlog.GetLogger("duet.translate")

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Warningf("locale: %v", err)
	}

	printer = NewPrinter(locales...)
}

// NewPrinter returns a message printer for the best match among locales,
// falling back to en-US.
func NewPrinter(locales ...string) *message.Printer {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	tag := message.MatchLanguage(locales...)
	if tag == language.Und {
		tag = language.AmericanEnglish
	}

	return message.NewPrinter(tag)
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
