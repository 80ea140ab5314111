package contract

import "context"

// Gateway is the uniform surface over the Sydia claim-management API. Every
// method normalizes the remote response into a Result; transport failures
// become failed Results, never panics or raw errors.
type Gateway interface {
	GetSinistre(ctx context.Context, idSinistre int64, refSinistre string) Result
	ListSinistres(ctx context.Context) Result
	AddSinistre(ctx context.Context, in AddSinistreInput) Result
	ListDocuments(ctx context.Context, idSinistre int64) Result
	GetDocument(ctx context.Context, idGed int64) Result
	AddDocument(ctx context.Context, in AddDocumentInput) Result
	UpdateAssure(ctx context.Context, idAssure int64, fields map[string]string) Result
	ContactGestionnaire(ctx context.Context, in ContactInput) Result
	CloturerSinistre(ctx context.Context, in ClotureInput) Result
	ListReglements(ctx context.Context, f ReglementFilter) Result
	GetChecklist(ctx context.Context, idSinistre int64) Result
	GenerateDocument(ctx context.Context, idType int64, idSinistre int64) Result
}

// Notifier broadcasts refresh hints to connected presentation clients.
// Implementations must never block or fail the caller.
type Notifier interface {
	PublishBlind(ev Event)
}
