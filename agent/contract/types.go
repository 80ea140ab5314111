package contract

import "time"

// Result is the normalized envelope every gateway call produces, regardless
// of how the remote endpoint signals its outcome.
type Result struct {
	Success bool             `json:"success"`
	Data    map[string]any   `json:"data,omitempty"`
	List    []map[string]any `json:"list,omitempty"`
	Err     string           `json:"error,omitempty"`
}

// Failure builds a failed Result with a best-effort message.
func Failure(msg string) Result {
	if msg == "" {
		msg = "Erreur"
	}
	return Result{Err: msg}
}

// Event is a transient UI-refresh hint. Not persisted, delivered at most once
// to listeners connected at emission time.
type Event struct {
	Action    string         `json:"action"`
	Endpoint  string         `json:"endpoint,omitempty"`
	Fields    map[string]any `json:"fields"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// AddSinistreInput carries the fields needed to open a new claim.
type AddSinistreInput struct {
	Reference       string
	TypeSinistre    int
	DateSinistre    string
	Ville           string
	CP              string
	Circonstances   string
	Immatriculation string
	Nom             string
	Prenom          string
	Email           string
	Tel             string
}

// AddDocumentInput carries a document to attach to a claim. Content is the
// raw body; the gateway base64-encodes it on the wire.
type AddDocumentInput struct {
	IDSinistre  int64
	Filename    string
	Commentaire string
	Content     []byte
}

// ContactInput creates a manager task on a claim.
type ContactInput struct {
	IDSinistre       int64
	TypeDemande      int
	Objet            string
	Commentaire      string
	Urgence          int
	RappelPreference string
}

// ClotureInput closes a claim.
type ClotureInput struct {
	IDSinistre    int64
	DateFermeture string
	Raison        int
	Commentaire   string
}

// ReglementFilter narrows the payment listing. Nil pointers mean "no filter".
type ReglementFilter struct {
	Status *int
	Sens   *int
	Limit  int
}
