package enums

// Locale is the storefront display language.
type Locale string

const (
	LocaleID Locale = "id"
	LocaleEN Locale = "en"
)

// String implements fmt.Stringer.
func (l Locale) String() string {
	return string(l)
}

// IsValid reports whether the locale is supported.
func (l Locale) IsValid() bool {
	return l == LocaleID || l == LocaleEN
}

// ParseLocale normalizes raw cookie input, falling back to Indonesian.
func ParseLocale(value string) Locale {
	switch value {
	case string(LocaleEN):
		return LocaleEN
	case string(LocaleID):
		return LocaleID
	default:
		return LocaleID
	}
}
