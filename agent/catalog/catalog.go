// Package catalog declares the operations the completion service may request.
// The catalog is the negotiated contract: every descriptor here must have an
// executor handler, and the executor may not handle anything undeclared.
package catalog

import "github.com/cloudwego/eino/schema"

// Operation names, kept verbatim from the Sydia assistant contract.
const (
	OpIdentifierAssure    = "identifier_assure"
	OpGetSinistre         = "get_sinistre"
	OpListSinistres       = "list_sinistres"
	OpAddSinistre         = "add_sinistre"
	OpAddDocument         = "add_document"
	OpListDocuments       = "list_documents"
	OpGetDocument         = "get_document"
	OpUpdateAssure        = "update_assure"
	OpContactGestionnaire = "contact_gestionnaire"
	OpCloturerSinistre    = "cloturer_sinistre"
	OpVerifierChecklist   = "verifier_checklist"
	OpListReglements      = "list_reglements"
	OpGenerateDocument    = "generate_document"
	OpPreparerMail        = "preparer_mail"
	OpCreerEvenement      = "creer_evenement"
)

// Descriptors returns the full catalog in stable order. The slice is rebuilt
// on each call so callers cannot mutate the shared schemas.
func Descriptors() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: OpIdentifierAssure,
			Desc: "Identifie et authentifie un assuré par son nom, prénom et référence de sinistre. Utiliser AVANT d'afficher les infos sensibles d'un dossier.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"nom":          {Type: schema.String, Desc: "Nom de famille de l'assuré", Required: true},
				"prenom":       {Type: schema.String, Desc: "Prénom de l'assuré", Required: true},
				"ref_sinistre": {Type: schema.String, Desc: "Référence du sinistre (ex: E0025151284)", Required: true},
			}),
		},
		{
			Name: OpGetSinistre,
			Desc: "Récupère les informations d'un sinistre depuis Sydia (après identification)",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"id_sinistre":  {Type: schema.Integer, Desc: "L'ID du sinistre (ex: 221003)"},
				"ref_sinistre": {Type: schema.String, Desc: "La référence du sinistre (ex: E0025151284)"},
			}),
		},
		{
			Name: OpListSinistres,
			Desc: "Liste les sinistres disponibles",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"limit": {Type: schema.Integer, Desc: "Nombre de sinistres (défaut: 10)"},
			}),
		},
		{
			Name: OpAddSinistre,
			Desc: "Déclare un nouveau sinistre. Demander toutes les infos nécessaires avant d'appeler.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"type_sinistre":   {Type: schema.Integer, Desc: "Type: 1=AUTO, 2=MRH, 3=PROTECTION JURIDIQUE, 4=AFFINITAIRE, 5=RC, 6=NVEI", Required: true},
				"date_sinistre":   {Type: schema.String, Desc: "Date du sinistre au format YYYY-MM-DD", Required: true},
				"ville":           {Type: schema.String, Desc: "Ville où s'est produit le sinistre", Required: true},
				"cp":              {Type: schema.String, Desc: "Code postal", Required: true},
				"circonstances":   {Type: schema.String, Desc: "Description des circonstances du sinistre", Required: true},
				"immatriculation": {Type: schema.String, Desc: "Plaque d'immatriculation du véhicule (OBLIGATOIRE pour sinistre AUTO)", Required: true},
				"nom":             {Type: schema.String, Desc: "Nom de l'assuré", Required: true},
				"prenom":          {Type: schema.String, Desc: "Prénom de l'assuré", Required: true},
				"email":           {Type: schema.String, Desc: "Email de l'assuré", Required: true},
				"tel":             {Type: schema.String, Desc: "Téléphone de l'assuré", Required: true},
			}),
		},
		{
			Name: OpAddDocument,
			Desc: "Ajoute un document/pièce à un sinistre (constat, carte grise, facture, etc.)",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"id_sinistre":  {Type: schema.Integer, Desc: "ID du sinistre auquel ajouter le document", Required: true},
				"filename":     {Type: schema.String, Desc: "Nom du fichier avec extension (ex: constat.pdf, carte_grise.jpg)", Required: true},
				"commentaire":  {Type: schema.String, Desc: "Description du document (ex: Constat amiable, Carte grise du véhicule)", Required: true},
				"content_text": {Type: schema.String, Desc: "Contenu texte du document (pour les notes ou commentaires)"},
			}),
		},
		{
			Name: OpListDocuments,
			Desc: "Liste les documents/pièces d'un sinistre",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"id_sinistre": {Type: schema.Integer, Desc: "ID du sinistre", Required: true},
			}),
		},
		{
			Name: OpGetDocument,
			Desc: "Récupère les détails d'un document spécifique",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"id_ged": {Type: schema.Integer, Desc: "ID du document en GED", Required: true},
			}),
		},
		{
			Name: OpUpdateAssure,
			Desc: "Modifie les informations d'un assuré (téléphone, email, adresse, etc.). Utiliser la référence du sinistre pour identifier l'assuré.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ref_sinistre": {Type: schema.String, Desc: "Référence du sinistre pour identifier l'assuré (ex: MCP-1766592530)", Required: true},
				"nom":          {Type: schema.String, Desc: "Nouveau nom"},
				"prenom":       {Type: schema.String, Desc: "Nouveau prénom"},
				"email":        {Type: schema.String, Desc: "Nouvelle adresse email"},
				"tel1":         {Type: schema.String, Desc: "Nouveau numéro de téléphone principal"},
				"tel2":         {Type: schema.String, Desc: "Nouveau numéro de téléphone secondaire"},
				"adresse":      {Type: schema.String, Desc: "Nouvelle adresse postale"},
				"cp":           {Type: schema.String, Desc: "Nouveau code postal"},
				"ville":        {Type: schema.String, Desc: "Nouvelle ville"},
			}),
		},
		{
			Name: OpContactGestionnaire,
			Desc: "Contacte le gestionnaire du dossier et crée une tâche. Utiliser pour demande de rappel, demande d'info, réclamation, etc.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ref_sinistre":      {Type: schema.String, Desc: "Référence du sinistre (ex: MCP-1766592530)", Required: true},
				"type_demande":      {Type: schema.Integer, Desc: "Type: 1=Demande de rappel, 2=Demande d'info, 3=Transmission pièces, 4=Modification infos, 5=Réclamation, 10=Autre", Required: true},
				"objet":             {Type: schema.String, Desc: "Objet de la demande (ex: Faire un point sur le dossier)", Required: true},
				"commentaire":       {Type: schema.String, Desc: "Description détaillée de la demande"},
				"urgence":           {Type: schema.Integer, Desc: "Urgence: 1=Normal, 2=Prioritaire, 3=Critique (défaut: 1)"},
				"rappel_preference": {Type: schema.String, Desc: "Préférences de rappel si type=1 (ex: Lundi après 16h)"},
			}),
		},
		{
			Name: OpCloturerSinistre,
			Desc: "Clôture un sinistre. ATTENTION: action irréversible. Demander confirmation avant d'exécuter.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ref_sinistre": {Type: schema.String, Desc: "Référence du sinistre à clôturer (ex: MCP-1766592530)", Required: true},
				"raison":       {Type: schema.Integer, Desc: "Raison: 20=Indemnisation complète, 21=Sans suite, 25=Autre, 26=Indemnisation partielle, 16=Désistement, 23=Doublon, 24=Fraude", Required: true},
				"commentaire":  {Type: schema.String, Desc: "Commentaire sur la clôture"},
			}),
		},
		{
			Name: OpVerifierChecklist,
			Desc: "Vérifie la checklist d'un sinistre : compare les pièces requises avec les pièces déjà fournies. Indique ce qui manque.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ref_sinistre": {Type: schema.String, Desc: "Référence du sinistre (ex: MCP-1766592530)", Required: true},
			}),
		},
		{
			Name: OpListReglements,
			Desc: "Liste les règlements (paiements). Peut filtrer par statut et sens.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"status": {Type: schema.Integer, Desc: "Statut: 0=Attente vérif, 1=Vérifié N1, 2=Vérifié N2, 3=Attente paiement, 4=Payé, 5=Attente transaction, 6=Bloqué"},
				"sens":   {Type: schema.Integer, Desc: "Sens: 0=Sortant (on paye), 1=Entrant (on reçoit)"},
				"limit":  {Type: schema.Integer, Desc: "Nombre max de résultats (défaut: 50, max: 100)"},
			}),
		},
		{
			Name: OpGenerateDocument,
			Desc: "Génère un document PDF (attestation, courrier, carte verte, mise en demeure, etc.). Les modèles doivent être configurés dans Sydia.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ref_sinistre": {Type: schema.String, Desc: "Référence du sinistre (ex: MCP-1766592530)", Required: true},
				"id_type":      {Type: schema.Integer, Desc: "Type de document à générer (ID du modèle configuré dans Sydia)", Required: true},
			}),
		},
		{
			Name: OpPreparerMail,
			Desc: "Ouvre la modale mail Sydia avec un modèle pré-chargé. Modèles disponibles: adversaire_reclamation, demande_rib, documents_manquants, relance_declaration",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ref_sinistre": {Type: schema.String, Desc: "Référence du sinistre", Required: true},
				"type_mail":    {Type: schema.String, Desc: "Type de modèle: adversaire_reclamation"},
			}),
		},
		{
			Name: OpCreerEvenement,
			Desc: "Ouvre la modale de création d'événement sur le dossier sinistre. " +
				"Types: appel, email_envoye, email_recu, sms_envoye, sms_recu, courrier, piece_manquante, dossier_complet, " +
				"prise_en_charge, garantie, avis_technique, reglement_valide, reglement_attente, encaissement, paiement, " +
				"expertise, rapport_expertise, mission_expert, conclusions_techniques, reclamation, reponse_reclamation, " +
				"ouverture, fermeture, reouverture, transfert_dossier, autre, declaration. " +
				"Une date et une heure de rappel sont possibles.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"commentaire":    {Type: schema.String, Desc: "Le commentaire/description de l'événement", Required: true},
				"type_evenement": {Type: schema.String, Desc: "Type d'événement. Par défaut: appel"},
				"date":           {Type: schema.String, Desc: "Date au format JJ/MM/AAAA (ex: 02/01/2026)"},
				"heure":          {Type: schema.String, Desc: "Heure au format HH:MM (ex: 15:30)"},
			}),
		},
	}
}

// Names returns the operation names in catalog order.
func Names() []string {
	infos := Descriptors()
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names
}
