package executor

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

/* ------------------------------ arg helpers ------------------------------ */

func argString(args map[string]any, key string) string {
	return strings.TrimSpace(cast.ToString(args[key]))
}

func argStringOr(args map[string]any, key, fallback string) string {
	if v := argString(args, key); v != "" {
		return v
	}
	return fallback
}

func argInt(args map[string]any, key string, fallback int) int {
	v, ok := args[key]
	if !ok || v == nil {
		return fallback
	}
	return cast.ToInt(v)
}

func argInt64(args map[string]any, key string) int64 {
	return cast.ToInt64(args[key])
}

/* ----------------------------- map accessors ----------------------------- */

func subMap(m map[string]any, key string) map[string]any {
	if inner, ok := m[key].(map[string]any); ok {
		return inner
	}
	return map[string]any{}
}

func subList(m map[string]any, key string) []any {
	if inner, ok := m[key].([]any); ok {
		return inner
	}
	return nil
}

func fieldOr(m map[string]any, key, fallback string) string {
	if v := strings.TrimSpace(cast.ToString(m[key])); v != "" {
		return v
	}
	return fallback
}

/* ------------------------------- rendering ------------------------------- */

// sinistreRef picks the human-facing reference: broker refs win over the
// internal id.
func sinistreRef(s map[string]any) string {
	if ref := cast.ToString(s["ref_assureur"]); ref != "" {
		return ref
	}
	if ref := cast.ToString(s["ref_courtier"]); ref != "" {
		return ref
	}
	return cast.ToString(s["id"])
}

func statutLabel(s map[string]any) string {
	if cast.ToInt(s["statut"]) == 1 {
		return "🟢 OUVERT"
	}
	return "🔴 CLÔTURÉ"
}

// contenuDocuments is the content line of the identification result; the
// consultation result counts events instead of documents.
func contenuDocuments(s map[string]any) string {
	return fmt.Sprintf("**📊 CONTENU:** %d tâches, %d règlements, %d documents",
		len(subList(s, "taches")), len(subList(s, "reglements")), len(subList(s, "ged")))
}

func contenuEvenements(s map[string]any) string {
	return fmt.Sprintf("**📊 CONTENU:** %d tâches, %d règlements, %d événements",
		len(subList(s, "taches")), len(subList(s, "reglements")), len(subList(s, "evenements")))
}

// formatSinistre renders the claim summary block shared by identification
// and consultation results. The caller supplies the operation's content line.
func formatSinistre(s map[string]any, contenu string) []string {
	var lines []string

	lines = append(lines,
		fmt.Sprintf("**Statut:** %s", statutLabel(s)),
		fmt.Sprintf("**Type:** %s", fieldOr(s, "type_sinistre", "N/A")),
		fmt.Sprintf("**Assureur:** %s", fieldOr(s, "nom_assureur", "N/A")),
		fmt.Sprintf("**Gestionnaire:** %s", fieldOr(s, "gestionnaire_nom", "Non assigné")),
		fmt.Sprintf("**Date ouverture:** %s", fieldOr(s, "date_ouverture", "N/A")),
	)

	details := subMap(s, "sinistre")
	if len(details) > 0 {
		lines = append(lines, "", "**📍 DÉTAILS DU SINISTRE**")
		if d := cast.ToString(details["date_sinistre"]); d != "" {
			lines = append(lines, strings.TrimSpace(fmt.Sprintf("**Date:** %s %s", d, cast.ToString(details["heure_sinistre"]))))
		}
		if v := cast.ToString(details["ville_sinistre"]); v != "" {
			lines = append(lines, strings.TrimSpace(fmt.Sprintf("**Lieu:** %s %s", cast.ToString(details["cp_sinistre"]), v)))
		}
		if c := cast.ToString(details["circonstance"]); c != "" {
			lines = append(lines, fmt.Sprintf("**Circonstances:** %s", c))
		}
	}

	lines = append(lines, "", contenu)

	if cast.ToInt(s["fraude"]) == 1 {
		lines = append(lines, fmt.Sprintf("⚠️ **ALERTE:** Suspicion fraude (%s%%)", fieldOr(s, "suspicion_tx", "0")))
	}
	if cast.ToInt(s["mecontent"]) == 1 {
		lines = append(lines, "⚠️ **ALERTE:** Client mécontent")
	}

	return lines
}

func formatPoids(v any) string {
	poids := cast.ToFloat64(v)
	if poids <= 0 {
		return "?"
	}
	return fmt.Sprintf("%.1f Ko", poids/1024)
}

// sanitize strips control characters so result blocks stay safe for the
// transcript and for speech synthesis downstream. Newlines survive.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' {
			return -1
		}
		return r
	}, s)
}
