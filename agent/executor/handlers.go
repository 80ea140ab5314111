package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	contractx "github.com/assurlab/sydia-agent/agent/contract"
	sessionx "github.com/assurlab/sydia-agent/agent/session"
)

// referencePrefix is combined with the current Unix timestamp (seconds) to
// synthesize the public reference of a newly opened claim. Two creations in
// the same second collide; acceptable at the declaration rates involved.
const referencePrefix = "MCP-"

// resolveSinistre is the mandatory first step of every operation addressed
// by a public reference: the mutating endpoints only accept the internal
// numeric id, so the reference is looked up even when the argument bag
// happens to contain something id-shaped.
func (e *Executor) resolveSinistre(ctx context.Context, ref string) (map[string]any, int64, string) {
	res := e.gw.GetSinistre(ctx, 0, ref)
	if !res.Success {
		return nil, 0, fmt.Sprintf("❌ Sinistre non trouvé avec la référence %s", ref)
	}
	id := cast.ToInt64(res.Data["id"])
	if id == 0 {
		return nil, 0, fmt.Sprintf("❌ Impossible de trouver l'ID du sinistre %s", ref)
	}
	return res.Data, id, ""
}

/* ----------------------------- identification ---------------------------- */

// identifierAssure is a two-fact check: the stored surname AND first name
// must both match, case-insensitively and trimmed. A partial match is a
// total failure; no fuzzy matching.
func (e *Executor) identifierAssure(ctx context.Context, sess *sessionx.Session, args map[string]any) string {
	nom := argString(args, "nom")
	prenom := argString(args, "prenom")
	ref := argString(args, "ref_sinistre")

	res := e.gw.GetSinistre(ctx, 0, ref)
	if !res.Success {
		return fmt.Sprintf("❌ Sinistre non trouvé avec la référence %s", ref)
	}

	s := res.Data
	assure := subMap(s, "assure")
	storedNom := strings.TrimSpace(cast.ToString(assure["nom"]))
	storedPrenom := strings.TrimSpace(cast.ToString(assure["prenom"]))

	if !strings.EqualFold(storedNom, nom) || !strings.EqualFold(storedPrenom, prenom) {
		return "❌ **IDENTIFICATION ÉCHOUÉE**\n\n" +
			"Les informations fournies ne correspondent pas au dossier.\n" +
			"Veuillez vérifier le nom, prénom et la référence du sinistre."
	}

	sess.MarkIdentified()

	lines := []string{
		"✅ **IDENTIFICATION RÉUSSIE**",
		"",
		fmt.Sprintf("**Assuré:** %s %s", storedPrenom, storedNom),
		fmt.Sprintf("**Email:** %s", fieldOr(assure, "email", "N/A")),
		fmt.Sprintf("**Tél:** %s", fieldOr(assure, "tel1", "N/A")),
		"",
		"---",
		"",
		fmt.Sprintf("**📋 SINISTRE %s**", sinistreRef(s)),
		"",
	}
	lines = append(lines, formatSinistre(s, contenuDocuments(s))...)
	return strings.Join(lines, "\n")
}

/* ------------------------------ consultation ----------------------------- */

func (e *Executor) getSinistre(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	res := e.gw.GetSinistre(ctx, argInt64(args, "id_sinistre"), argString(args, "ref_sinistre"))
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	s := res.Data
	assure := subMap(s, "assure")

	lines := []string{
		fmt.Sprintf("**SINISTRE %s**", sinistreRef(s)),
		"",
	}
	lines = append(lines, formatSinistre(s, contenuEvenements(s))...)
	if len(assure) > 0 {
		lines = append(lines, "",
			fmt.Sprintf("**ASSURÉ:** %s", strings.TrimSpace(cast.ToString(assure["prenom"])+" "+cast.ToString(assure["nom"]))),
			fmt.Sprintf("Email: %s", fieldOr(assure, "email", "N/A")),
			fmt.Sprintf("Tél: %s", fieldOr(assure, "tel1", "N/A")),
		)
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) listSinistres(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	limit := argInt(args, "limit", 10)

	res := e.gw.ListSinistres(ctx)
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	sinistres := res.List
	if limit > 0 && len(sinistres) > limit {
		sinistres = sinistres[:limit]
	}

	lines := []string{fmt.Sprintf("**LISTE DES SINISTRES (%d résultats)**", len(sinistres)), ""}
	for _, s := range sinistres {
		marker := "🔴"
		if cast.ToInt(s["statut"]) == 1 {
			marker = "🟢"
		}
		ref := cast.ToString(s["ref_assureur"])
		if ref == "" {
			ref = fieldOr(s, "ref_courtier", "N/A")
		}
		lines = append(lines, fmt.Sprintf("%s **%s** | %s | %s",
			marker, cast.ToString(s["id"]), ref, fieldOr(s, "type_sinistre", "?")))
	}
	return strings.Join(lines, "\n")
}

/* ------------------------------- declaration ----------------------------- */

func (e *Executor) addSinistre(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	reference := referencePrefix + strconv.FormatInt(e.now().Unix(), 10)
	typeSinistre := argInt(args, "type_sinistre", 0)

	res := e.gw.AddSinistre(ctx, contractx.AddSinistreInput{
		Reference:       reference,
		TypeSinistre:    typeSinistre,
		DateSinistre:    argString(args, "date_sinistre"),
		Ville:           argString(args, "ville"),
		CP:              argString(args, "cp"),
		Circonstances:   argString(args, "circonstances"),
		Immatriculation: argStringOr(args, "immatriculation", "AA-000-AA"),
		Nom:             argString(args, "nom"),
		Prenom:          argString(args, "prenom"),
		Email:           argString(args, "email"),
		Tel:             argString(args, "tel"),
	})
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	// The reference echoed here is the only identifier the insured receives.
	echoed := fieldOr(res.Data, "reference", reference)

	return fmt.Sprintf(`✅ **SINISTRE CRÉÉ AVEC SUCCÈS**

**Référence:** %s
**ID Sinistre:** %s
**ID Assuré:** %s

**Récapitulatif:**
- Type: %s
- Date: %s
- Lieu: %s %s
- Assuré: %s %s

📧 Communiquez la référence **%s** à l'assuré.`,
		echoed,
		cast.ToString(res.Data["id_sinistre"]),
		cast.ToString(res.Data["id_assure"]),
		labelOr(sinistreTypeLabels, typeSinistre, "?"),
		argString(args, "date_sinistre"),
		argString(args, "cp"), argString(args, "ville"),
		argString(args, "prenom"), argString(args, "nom"),
		echoed)
}

/* -------------------------------- documents ------------------------------ */

func (e *Executor) addDocument(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	idSinistre := argInt64(args, "id_sinistre")

	res := e.gw.AddDocument(ctx, contractx.AddDocumentInput{
		IDSinistre:  idSinistre,
		Filename:    argString(args, "filename"),
		Commentaire: argString(args, "commentaire"),
		Content:     []byte(argString(args, "content_text")),
	})
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	return fmt.Sprintf(`✅ **DOCUMENT AJOUTÉ AVEC SUCCÈS**

**ID Document:** %s
**Sinistre:** %d
**Fichier:** %s
**Description:** %s

📎 Le document a été ajouté au dossier et le gestionnaire a été notifié.`,
		cast.ToString(res.Data["id_ged"]),
		idSinistre,
		argString(args, "filename"),
		argString(args, "commentaire"))
}

func (e *Executor) listDocuments(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	idSinistre := argInt64(args, "id_sinistre")

	res := e.gw.ListDocuments(ctx, idSinistre)
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	if len(res.List) == 0 {
		return fmt.Sprintf("📂 Aucun document trouvé pour le sinistre %d", idSinistre)
	}

	lines := []string{fmt.Sprintf("**📂 DOCUMENTS DU SINISTRE %d** (%s pièces)",
		idSinistre, fieldOr(res.Data, "count", strconv.Itoa(len(res.List)))), ""}
	for _, doc := range res.List {
		verified := "⏳"
		if cast.ToInt(doc["piece_verifiee"]) == 1 {
			verified = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s **%s** | %s | %s | %s",
			verified,
			cast.ToString(doc["id_ged"]),
			cast.ToString(doc["filename"]),
			fieldOr(doc, "categorie", "Non classé"),
			formatPoids(doc["poids"])))
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) getDocument(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	res := e.gw.GetDocument(ctx, argInt64(args, "id_ged"))
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	doc := res.Data
	verified := "⏳ En attente"
	if cast.ToInt(doc["piece_verifiee"]) == 1 {
		verified = "✅ Vérifié"
	}
	public := "🔒 Privé"
	if cast.ToInt(doc["public"]) == 1 {
		public = "🔓 Public"
	}

	return fmt.Sprintf(`**📄 DOCUMENT %s**

**Fichier:** %s
**Extension:** %s
**Poids:** %s
**Date:** %s
**Catégorie:** %s
**Commentaire:** %s

**Statut:** %s | %s
**Sinistre:** %s
**Assuré:** %s`,
		cast.ToString(doc["id_ged"]),
		cast.ToString(doc["filename"]),
		cast.ToString(doc["extension"]),
		formatPoids(doc["poids"]),
		fieldOr(doc, "date", "N/A"),
		fieldOr(doc, "categorie", "Non classé"),
		fieldOr(doc, "commentaire", "Aucun"),
		verified, public,
		fieldOr(doc, "id_sinistre", "N/A"),
		fieldOr(doc, "id_assure", "N/A"))
}

/* --------------------------------- profile ------------------------------- */

// updateAssureKeys is the deterministic order modifications are reported in.
var updateAssureKeys = []string{"nom", "prenom", "email", "tel1", "tel2", "adresse", "cp", "ville"}

func (e *Executor) updateAssure(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	ref := argString(args, "ref_sinistre")

	s, _, failure := e.resolveSinistre(ctx, ref)
	if failure != "" {
		return failure
	}

	assure := subMap(s, "assure")
	idAssure := cast.ToInt64(assure["id"])
	if idAssure == 0 {
		return fmt.Sprintf("❌ Impossible de trouver l'assuré pour le sinistre %s", ref)
	}

	champs := map[string]string{}
	for _, key := range updateAssureKeys {
		if v := argString(args, key); v != "" {
			champs[key] = v
		}
	}
	if len(champs) == 0 {
		return "❌ Aucun champ à modifier spécifié."
	}

	res := e.gw.UpdateAssure(ctx, idAssure, champs)
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	fields := make(map[string]any, len(champs))
	var modifications []string
	for _, key := range updateAssureKeys {
		if v, ok := champs[key]; ok {
			fields[key] = v
			modifications = append(modifications, fmt.Sprintf("• **%s** → %s", key, v))
		}
	}

	e.notify("assure_updated", "assure/update",
		map[string]any{"id_assure": idAssure, "ref_sinistre": ref}, fields)

	return fmt.Sprintf(`✅ **ASSURÉ MODIFIÉ AVEC SUCCÈS**

**Sinistre:** %s
**Assuré:** %s %s (ID: %d)

**Modifications effectuées:**
%s

🔄 L'interface Sydia va se rafraîchir automatiquement.`,
		ref,
		cast.ToString(assure["prenom"]), cast.ToString(assure["nom"]), idAssure,
		strings.Join(modifications, "\n"))
}

/* ------------------------------ manager tasks ---------------------------- */

func (e *Executor) contactGestionnaire(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	ref := argString(args, "ref_sinistre")

	_, idSinistre, failure := e.resolveSinistre(ctx, ref)
	if failure != "" {
		return failure
	}

	typeDemande := argInt(args, "type_demande", 10)
	objet := argString(args, "objet")
	commentaire := argString(args, "commentaire")
	urgence := argInt(args, "urgence", 1)

	res := e.gw.ContactGestionnaire(ctx, contractx.ContactInput{
		IDSinistre:       idSinistre,
		TypeDemande:      typeDemande,
		Objet:            objet,
		Commentaire:      commentaire,
		Urgence:          urgence,
		RappelPreference: argString(args, "rappel_preference"),
	})
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	idTache := cast.ToString(res.Data["id_tache"])

	e.notify("tache_created", "sinistre/contact",
		map[string]any{"id_sinistre": idSinistre, "ref_sinistre": ref, "id_tache": idTache},
		map[string]any{"type_demande": typeDemande, "objet": objet, "urgence": urgence})

	return fmt.Sprintf(`✅ **TÂCHE CRÉÉE AVEC SUCCÈS**

**ID Tâche:** %s
**Sinistre:** %s

**Détails:**
• **Type:** %s
• **Objet:** %s
• **Commentaire:** %s
• **Urgence:** %s

📧 Le gestionnaire a été notifié.
🔄 L'interface Sydia va se rafraîchir automatiquement.`,
		idTache, ref,
		labelOr(demandeTypeLabels, typeDemande, "Autre"),
		objet,
		orDefault(commentaire, "Aucun"),
		labelOr(urgenceLabels, urgence, "Normal"))
}

/* --------------------------------- closure ------------------------------- */

func (e *Executor) cloturerSinistre(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	ref := argString(args, "ref_sinistre")

	s, idSinistre, failure := e.resolveSinistre(ctx, ref)
	if failure != "" {
		return failure
	}

	// Local guard: never ask the remote to close an already-closed claim.
	if cast.ToInt(s["statut"]) != 1 {
		return fmt.Sprintf("❌ Le sinistre %s est déjà clôturé.", ref)
	}

	raison := argInt(args, "raison", 25)
	commentaire := argString(args, "commentaire")
	dateFermeture := e.now().Format("2006-01-02")

	res := e.gw.CloturerSinistre(ctx, contractx.ClotureInput{
		IDSinistre:    idSinistre,
		DateFermeture: dateFermeture,
		Raison:        raison,
		Commentaire:   commentaire,
	})
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	e.notify("sinistre_cloture", "sinistre/cloturer",
		map[string]any{"id_sinistre": idSinistre, "ref_sinistre": ref},
		map[string]any{"raison": raison, "date_fermeture": dateFermeture})

	return fmt.Sprintf(`✅ **SINISTRE CLÔTURÉ AVEC SUCCÈS**

**Sinistre:** %s
**ID:** %d
**Date de clôture:** %s
**Raison:** %s
**Commentaire:** %s

🔴 Le dossier est maintenant fermé.
🔄 L'interface Sydia va se rafraîchir automatiquement.`,
		ref, idSinistre, dateFermeture,
		labelOr(raisonClotureLabels, raison, "Autre"),
		orDefault(commentaire, "Aucun"))
}

/* -------------------------------- checklist ------------------------------ */

// verifierChecklist cross-references required items against submitted
// documents with deliberately loose matching: an item counts as present when
// its name, or any single word of it, appears as a substring of a filename
// or category label. Loose by contract; do not tighten.
func (e *Executor) verifierChecklist(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	ref := argString(args, "ref_sinistre")

	_, idSinistre, failure := e.resolveSinistre(ctx, ref)
	if failure != "" {
		return failure
	}

	checklistRes := e.gw.GetChecklist(ctx, idSinistre)
	if !checklistRes.Success {
		return fmt.Sprintf("❌ Erreur checklist: %s", checklistRes.Err)
	}
	if len(checklistRes.List) == 0 {
		return "📋 Aucune checklist configurée pour ce type de sinistre."
	}

	var fournis []string
	if docsRes := e.gw.ListDocuments(ctx, idSinistre); docsRes.Success {
		for _, doc := range docsRes.List {
			fournis = append(fournis,
				strings.ToUpper(cast.ToString(doc["filename"])),
				strings.ToUpper(cast.ToString(doc["categorie"])))
		}
	}

	lines := []string{fmt.Sprintf("**📋 CHECKLIST DU SINISTRE %s**", ref), ""}

	var piecesOK, piecesManquantes []string
	for _, piece := range checklistRes.List {
		nom := cast.ToString(piece["nom"])
		if checklistItemPresent(nom, fournis) {
			piecesOK = append(piecesOK, fmt.Sprintf("✅ **%s**", nom))
		} else {
			piecesManquantes = append(piecesManquantes,
				fmt.Sprintf("❌ **%s** - %s", nom, cast.ToString(piece["description"])))
		}
	}

	if len(piecesOK) > 0 {
		lines = append(lines, "**Pièces fournies :**")
		lines = append(lines, piecesOK...)
		lines = append(lines, "")
	}
	if len(piecesManquantes) > 0 {
		lines = append(lines, "**Pièces manquantes :**")
		lines = append(lines, piecesManquantes...)
		lines = append(lines, "")
	}

	total := len(checklistRes.List)
	if len(piecesManquantes) == 0 {
		lines = append(lines, fmt.Sprintf("🎉 **DOSSIER COMPLET !** (%d/%d pièces)", len(piecesOK), total))
	} else {
		lines = append(lines, fmt.Sprintf("⚠️ **%d pièce(s) manquante(s)** (%d/%d pièces)",
			len(piecesManquantes), len(piecesOK), total))
	}
	return strings.Join(lines, "\n")
}

func checklistItemPresent(nom string, fournis []string) bool {
	nomUpper := strings.ToUpper(strings.TrimSpace(nom))
	if nomUpper == "" {
		return false
	}
	words := strings.Fields(nomUpper)
	for _, doc := range fournis {
		if doc == "" {
			continue
		}
		if strings.Contains(doc, nomUpper) {
			return true
		}
		for _, word := range words {
			if strings.Contains(doc, word) {
				return true
			}
		}
	}
	return false
}

/* -------------------------------- payments ------------------------------- */

func (e *Executor) listReglements(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	filter := contractx.ReglementFilter{Limit: argInt(args, "limit", 50)}
	if v, ok := args["status"]; ok && v != nil {
		status := cast.ToInt(v)
		filter.Status = &status
	}
	if v, ok := args["sens"]; ok && v != nil {
		sens := cast.ToInt(v)
		filter.Sens = &sens
	}

	res := e.gw.ListReglements(ctx, filter)
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}
	if len(res.List) == 0 {
		return "📋 Aucun règlement trouvé."
	}

	lines := []string{fmt.Sprintf("**💰 LISTE DES RÈGLEMENTS** (%d résultats)", len(res.List)), ""}

	shown := res.List
	if len(shown) > 20 {
		shown = shown[:20]
	}
	for _, r := range shown {
		lines = append(lines,
			fmt.Sprintf("**#%s** | Sinistre %s | %s %s",
				cast.ToString(r["id"]),
				cast.ToString(r["id_sinistre"]),
				cast.ToString(r["montant"]),
				fieldOr(r, "devise", "EUR")),
			fmt.Sprintf("   → %s | %s | %s",
				labelOr(reglementStatusLabels, cast.ToInt(r["statut_code"]), "?"),
				labelOr(reglementSensLabels, cast.ToInt(r["sens_code"]), "?"),
				fieldOr(r, "destinataire", "N/A")),
			"")
	}
	if len(res.List) > 20 {
		lines = append(lines, fmt.Sprintf("... et %d autres règlements", len(res.List)-20))
	}
	return strings.Join(lines, "\n")
}

/* ------------------------------- generation ------------------------------ */

func (e *Executor) generateDocument(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	ref := argString(args, "ref_sinistre")
	idType := argInt64(args, "id_type")

	_, idSinistre, failure := e.resolveSinistre(ctx, ref)
	if failure != "" {
		return failure
	}

	res := e.gw.GenerateDocument(ctx, idType, idSinistre)
	if !res.Success {
		return fmt.Sprintf("❌ Erreur: %s", res.Err)
	}

	filename := cast.ToString(res.Data["filename"])

	e.notify("document_generated", "ged/document/get",
		map[string]any{"id_sinistre": idSinistre, "ref_sinistre": ref, "filename": filename},
		map[string]any{"id_type": idType, "filename": filename})

	return fmt.Sprintf(`✅ **DOCUMENT GÉNÉRÉ AVEC SUCCÈS**

**Fichier:** %s
**Taille:** %s
**Sinistre:** %s

📄 Le document PDF a été généré.
🔄 L'interface Sydia va se rafraîchir automatiquement.`,
		filename, formatPoids(res.Data["size"]), ref)
}

/* ------------------------------ modal openers ---------------------------- */

func (e *Executor) preparerMail(ctx context.Context, _ *sessionx.Session, args map[string]any) string {
	ref := argString(args, "ref_sinistre")
	typeMail := argStringOr(args, "type_mail", defaultMailTemplate)

	idModele, ok := mailTemplates[typeMail]
	if !ok {
		idModele = mailTemplates[defaultMailTemplate]
	}

	s, _, failure := e.resolveSinistre(ctx, ref)
	if failure != "" {
		return failure
	}
	idAssure := cast.ToInt64(subMap(s, "assure")["id"])

	e.notify("open_mail_modal", "mail/prepare",
		map[string]any{"ref_sinistre": ref, "id_modele": idModele, "id_assure": idAssure, "type_mail": typeMail},
		map[string]any{"id_modele": idModele, "id_assure": idAssure, "type_mail": typeMail})

	return fmt.Sprintf(`✅ **MODALE MAIL OUVERTE**

**Sinistre:** %s
**Modèle:** %s
**ID Modèle:** %d

📧 La modale Sydia s'ouvre avec le modèle pré-chargé.`,
		ref, typeMail, idModele)
}

func (e *Executor) creerEvenement(_ context.Context, _ *sessionx.Session, args map[string]any) string {
	commentaire := argString(args, "commentaire")
	typeEvt := argStringOr(args, "type_evenement", "appel")
	dateEvt := argString(args, "date")
	heureEvt := argString(args, "heure")

	idType, ok := eventTypes[typeEvt]
	if !ok {
		idType = defaultEventTypeID
	}

	e.notify("open_event_modal", "evenement/create",
		map[string]any{"commentaire": commentaire, "type_evenement": idType, "date": dateEvt, "heure": heureEvt},
		map[string]any{"commentaire": commentaire, "type_evenement": idType, "date": dateEvt, "heure": heureEvt})

	return fmt.Sprintf(`✅ **MODALE ÉVÉNEMENT OUVERTE**

📝 **Type:** %s (ID: %d)
📝 **Commentaire:** %s
📅 **Date:** %s
🕐 **Heure:** %s

Le gestionnaire peut vérifier et cliquer sur "Enregistrer l'évènement".`,
		typeEvt, idType, commentaire,
		orDefault(dateEvt, "Aujourd'hui"),
		orDefault(heureEvt, "Maintenant"))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
