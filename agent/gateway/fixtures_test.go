package gateway

import (
	contractx "github.com/assurlab/sydia-agent/agent/contract"
)

func addSinistreFixture() contractx.AddSinistreInput {
	return contractx.AddSinistreInput{
		Reference:       "MCP-1700000000",
		TypeSinistre:    1,
		DateSinistre:    "2026-08-01",
		Ville:           "Lyon",
		CP:              "69001",
		Circonstances:   "Collision en sortie de parking",
		Immatriculation: "AB-123-CD",
		Nom:             "Dupont",
		Prenom:          "Marie",
		Email:           "marie.dupont@example.fr",
		Tel:             "0612346789",
	}
}

func addDocumentFixture() contractx.AddDocumentInput {
	return contractx.AddDocumentInput{
		IDSinistre:  42,
		Filename:    "note.txt",
		Commentaire: "Note de l'assuré",
		Content:     []byte("bonjour"),
	}
}

func contactFixture() contractx.ContactInput {
	return contractx.ContactInput{
		IDSinistre:       42,
		TypeDemande:      1,
		Objet:            "Faire un point sur le dossier",
		Commentaire:      "Merci de rappeler",
		Urgence:          1,
		RappelPreference: "Lundi après 16h",
	}
}

func reglementFilterWithLimit(limit int) contractx.ReglementFilter {
	return contractx.ReglementFilter{Limit: limit}
}
