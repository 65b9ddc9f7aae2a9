package model

import "strings"

// LocalSuffix qualifies a ticker as listed on the local exchange (BYMA).
const LocalSuffix = ".BA"

// NormalizeSymbol canonicalizes a bare ticker to its exchange-qualified form.
func NormalizeSymbol(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	if !strings.HasSuffix(t, LocalSuffix) {
		t += LocalSuffix
	}
	return t
}

// DisplaySymbol strips the exchange suffix for display.
func DisplaySymbol(s string) string {
	return strings.TrimSuffix(s, LocalSuffix)
}

// DisplaySymbols maps DisplaySymbol over a list.
func DisplaySymbols(symbols []string) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = DisplaySymbol(s)
	}
	return out
}

var bareUniverse = []string{
	"ALUA", "BMA", "BYMA", "CEPU", "COME", "CRES", "CVH", "EDN", "GGAL", "MIRG",
	"PAMP", "SUPV", "TECO2", "TGNO4", "TGSU2", "TRAN", "TXAR", "VALO", "YPFD",
	"DOME", "AGRO", "AUSO", "BBAR", "BHIP", "BPAT", "CADO", "CAPX", "CARC",
	"CELU", "CGPA2", "CTIO", "DGCU2", "DYCA", "FERR", "FIPL", "BOLT", "A3",
	"GARO", "GBAN", "GCLA", "GRIM", "HARG", "HAVA", "INTR", "INVJ", "IRSA",
	"LEDE", "LOMA", "LONG", "METR", "MOLA", "MOLI", "MORI", "OEST", "PATA",
	"POLL", "RICH", "RIGO", "ROSE", "SAMI", "SEMI",
}

// Universe returns the exchange-qualified symbols the return panel iterates over.
func Universe() []string {
	out := make([]string, len(bareUniverse))
	for i, t := range bareUniverse {
		out[i] = NormalizeSymbol(t)
	}
	return out
}
