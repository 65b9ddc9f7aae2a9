package notifier

import (
	"fmt"
	"strings"

	"CCLSentinel/internal/model"
)

// Fixed replies.
const (
	MsgUsageIni      = "Formato: /ini YYYY-MM-DD"
	MsgUsageFin      = "Formato: /fin YYYY-MM-DD"
	MsgInvalidDate   = "Fecha inválida. Formato: YYYY-MM-DD"
	MsgUsageVars     = "Uso: /cclvars <top_n> <bottom_n> (ej: /cclvars 15 20)"
	MsgVarsInts      = "Los dos parámetros deben ser enteros positivos."
	MsgUsagePlot     = "Uso: /cclplot <TICKER> [TICKER ...] (ej: /cclplot BBAR)"
	MsgNeedRange     = "Definí primero el rango con /ini y /fin."
	MsgRangeOrder    = "La fecha inicial debe ser anterior a la final."
	MsgNoData        = "Sin datos para ese rango."
	MsgUnknown       = "Comando desconocido. Usá /start para ver la ayuda."
	unsetPlaceholder = "⟂"
)

// FormatHelp lists the commands and the chat's current settings.
func FormatHelp(st model.SessionState) string {
	var b strings.Builder
	b.WriteString("Comandos: /ini YYYY-MM-DD | /fin YYYY-MM-DD | /cclvars N M | /cclplot TICKER | /normalize\n")
	b.WriteString(fmt.Sprintf("Rango actual: inicio=%s | fin=%s | normalize=%v",
		orUnset(st.Start), orUnset(st.End), st.Normalize))
	return b.String()
}

// FormatDateSaved confirms a stored date; start selects the label.
func FormatDateSaved(start bool, date string) string {
	if start {
		return "Fecha inicial guardada: " + date
	}
	return "Fecha final guardada: " + date
}

// FormatNormalize explains what the new normalize setting does to each chart.
func FormatNormalize(on bool) string {
	if on {
		return "Normalización: ON\n" +
			"Desde ahora TODOS los gráficos se devuelven normalizados con base 100 en la fecha inicial.\n" +
			"- /cclplot: línea índice (100=ini).\n" +
			"- /cclvars: rendimientos relativos; el gráfico aclara Base 100=ini."
	}
	return "Normalización: OFF\n" +
		"Desde ahora los gráficos NO se normalizan.\n" +
		"- /cclplot: precio en USD (vía CCL) absoluto.\n" +
		"- /cclvars: rendimientos relativos en % (sin base 100 en el título)."
}

// FormatComputing acknowledges a /cclvars request before the slow part.
func FormatComputing(top, bottom int, start, end string) string {
	return fmt.Sprintf("Calculando Top %d / Bottom %d para %s → %s …", top, bottom, start, end)
}

// FormatPlotting acknowledges a /cclplot request.
func FormatPlotting(symbols []string, start, end string) string {
	return fmt.Sprintf("Graficando %s para %s → %s …", strings.Join(symbols, ", "), start, end)
}

// FormatCaption is the photo caption for a chart over [start, end).
func FormatCaption(label, start, end string) string {
	return fmt.Sprintf("%s %s → %s", label, start, end)
}

// FormatStorageError tells the user the session could not be read or saved.
func FormatStorageError(ref string) string {
	return fmt.Sprintf("No se pudo acceder a la configuración guardada. Intentá de nuevo más tarde (ref %s).", ref)
}

// FormatFailure reports an unexpected error while producing a chart.
func FormatFailure(what string, err error) string {
	return fmt.Sprintf("Error al %s: %v", what, err)
}

func orUnset(s string) string {
	if s == "" {
		return unsetPlaceholder
	}
	return s
}
