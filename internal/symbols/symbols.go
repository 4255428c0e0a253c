package symbols

import (
	"html"
	"strconv"
)

// Unicode code points in decimal.
var symbols = map[string]int{
	"checkmark": 10004,
	"crossmark": 10008,
}

func CastUnicodeToSymbol(code int) string {
	return html.UnescapeString("&#" + strconv.Itoa(code) + ";")
}

func GetSymbol(name string) string {
	if val, ok := symbols[name]; ok {
		return CastUnicodeToSymbol(val)
	}
	return ""
}

// ForError returns a check mark for a nil error and a cross otherwise.
func ForError(err error) string {
	if err == nil {
		return GetSymbol("checkmark")
	}
	return GetSymbol("crossmark")
}
