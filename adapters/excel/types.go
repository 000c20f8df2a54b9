package excel

// missingTokens are cell values read as missing besides the empty string
var missingTokens = map[string]struct{}{
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
}
