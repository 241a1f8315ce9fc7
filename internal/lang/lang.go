// Package lang resolves a requested locale list into the SQL expression
// selecting a feature's display name, falling back through localized
// name:<locale> tags to the generic name column.
package lang

import (
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
)

// NameAlias is the output column the resolved name expression binds to.
const NameAlias = "name"

// HiddenNameAlias is the placeholder column emitted when names are not
// requested, keeping the projected column shape uniform across calls.
// The row post-processor strips it before anything is displayed.
const HiddenNameAlias = "_hidden_name_"

// BCP 47-ish shape: a 2-3 letter primary subtag plus optional alphanumeric
// subtags, the forms OSM name:* keys actually use (en, pt-BR, zh-Hant).
var localePattern = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

// ValidateLocale rejects malformed locale identifiers. A missing
// translation is a runtime absence and never an error; only the identifier
// shape is checked here.
func ValidateLocale(locale string) error {
	if !localePattern.MatchString(locale) {
		return errors.Newf(errors.ErrUnknownLocaleFormat,
			"locale %q is not a valid language tag", locale)
	}
	return nil
}

// NameColumn builds the fallback chain for the requested locales:
//
//	COALESCE(NULLIF(tags->'name:l1', ''), ..., NULLIF(name, ''))
//
// bound to the NameAlias output column. Empty localized values fall
// through to the next locale and finally to the generic name column. An
// empty locale list yields a NULL expression bound to HiddenNameAlias
// instead.
func NameColumn(locales []string) (expr, alias string, err error) {
	if len(locales) == 0 {
		return "NULL", HiddenNameAlias, nil
	}

	args := make([]string, 0, len(locales)+1)
	for _, locale := range locales {
		if err := ValidateLocale(locale); err != nil {
			return "", "", err
		}
		args = append(args, "NULLIF(tags->"+pq.QuoteLiteral("name:"+locale)+", '')")
	}
	args = append(args, "NULLIF(name, '')")

	return "COALESCE(" + strings.Join(args, ", ") + ")", NameAlias, nil
}

// NameExpression is NameColumn rendered as a single aliased SQL fragment.
func NameExpression(locales []string) (string, error) {
	expr, alias, err := NameColumn(locales)
	if err != nil {
		return "", err
	}
	return expr + " AS " + pq.QuoteIdentifier(alias), nil
}
