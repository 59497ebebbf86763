package i18n

// Locale represents a supported language/region convention
type Locale string

const (
	LocaleEn Locale = "en"
	LocaleDe Locale = "de"
	LocaleFr Locale = "fr"
	LocaleNl Locale = "nl"
	LocaleKo Locale = "ko"
)

// commaLocales write decimal fractions with a comma separator
var commaLocales = map[Locale]bool{
	LocaleDe: true,
	LocaleFr: true,
	LocaleNl: true,
}

// DecimalComma reports whether the locale's decimal convention uses a
// comma instead of a dot
func DecimalComma(l Locale) bool {
	return commaLocales[l]
}
