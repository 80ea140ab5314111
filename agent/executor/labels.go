package executor

// Sydia template and type identifiers. The numeric ids are configured in the
// remote back office and are part of the integration contract.

var mailTemplates = map[string]int64{
	"adversaire_reclamation": 744,
	"demande_rib":            1584,
	"documents_manquants":    740,
	"relance_declaration":    1258,
}

const defaultMailTemplate = "adversaire_reclamation"

var eventTypes = map[string]int{
	// Autre
	"affectation_gestionnaire": 316,
	"assignation":              219,
	"autre":                    12,
	"controle_audit":           112,
	"declaration":              178,
	"declaration_compagnie":    54,
	"fermeture":                13,
	"ouverture":                3,
	"pli_non_distribue":        308,
	"reouverture":              91,
	"revision":                 113,
	"suspicion_gel":            224,
	"transfert_gestionnaire":   317,
	"transfert_dossier":        62,

	// Comptabilité
	"encaissement":      315,
	"reglement_attente": 117,
	"reglement_valide":  56,
	"paiement":          56,

	// Conformité
	"avis_technique":          131,
	"avis_technique_demande":  175,
	"dossier_complet":         120,
	"garantie":                179,
	"piece_manquante":         121,
	"pieces_manquantes":       121,
	"prise_en_charge":         247,

	// Expertise
	"conclusions_techniques": 116,
	"expertise":              55,
	"mission_expert":         215,
	"rapport_expertise":      27,
	"expert":                 55,

	// Mails/Courriers/Tél
	"appel":                  4,
	"appel_telephonique":     4,
	"courrier":               11,
	"courrier_lrar":          11,
	"email_envoye":           85,
	"envoi_email":            85,
	"sms_envoye":             89,
	"envoi_sms":              89,
	"email_recu":             84,
	"reception_email":        84,
	"sms_recu":               90,
	"reception_sms":          90,
	"reclamation_materielle": 217,

	// PJ Ouverture
	"reception_declaration": 41,

	// Réclamation
	"reclamation":         60,
	"reponse_reclamation": 61,
}

const defaultEventTypeID = 4 // appel

var sinistreTypeLabels = map[int]string{
	1: "AUTO",
	2: "MRH",
	3: "PROTECTION JURIDIQUE",
	4: "AFFINITAIRE",
	5: "RC",
	6: "NVEI",
}

var demandeTypeLabels = map[int]string{
	1:  "Demande de rappel",
	2:  "Demande d'information",
	3:  "Transmission de pièces",
	4:  "Modification d'informations",
	5:  "Réclamation",
	10: "Autre",
}

var urgenceLabels = map[int]string{
	1: "🟢 Normal",
	2: "🟠 Prioritaire",
	3: "🔴 Critique",
}

var raisonClotureLabels = map[int]string{
	1:  "Sans réponse",
	2:  "Pièces manquantes",
	16: "Désistement",
	20: "Indemnisation complète",
	21: "Sans suite",
	23: "Doublon",
	24: "Fraude",
	25: "Autre",
	26: "Indemnisation partielle",
}

var reglementStatusLabels = map[int]string{
	0: "⏳ Attente vérif",
	1: "✅ Vérifié N1",
	2: "✅ Vérifié N2",
	3: "💳 Attente paiement",
	4: "✅ Payé",
	5: "⏳ Attente transaction",
	6: "🚫 Bloqué",
}

var reglementSensLabels = map[int]string{
	0: "↗️ Sortant",
	1: "↙️ Entrant",
}

func labelOr(labels map[int]string, code int, fallback string) string {
	if v, ok := labels[code]; ok {
		return v
	}
	return fallback
}
