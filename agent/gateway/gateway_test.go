package gateway

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		URL:     srv.URL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c, srv
}

func TestCallInjectsTokenAndFormEncodes(t *testing.T) {
	t.Parallel()

	var gotPath, gotToken, gotContentType string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotToken = r.PostFormValue("token")
		w.Write([]byte(`{"status": 200, "data": {}}`))
	})

	res := c.Call(context.Background(), "sinistre/get", url.Values{"ref_sinistre": {"MCP-1"}})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if gotPath != "/api/v2/sinistre/get" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotToken != "test-token" {
		t.Fatalf("token not injected, got %q", gotToken)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type: %s", gotContentType)
	}
}

func TestNormalizeStatusConventions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    string
		success bool
	}{
		{"numeric status 200", `{"status": 200, "data": {"id": 1}}`, true},
		{"string status 200", `{"status": "200", "data": {"id": 1}}`, true},
		{"id presence convention", `{"id_sinistre": 42, "reference": "MCP-1"}`, true},
		{"top-level array", `[{"id": 1}, {"id": 2}]`, true},
		{"error payload", `{"status": 400, "message": "Référence inconnue"}`, false},
		{"empty body", ``, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			res := c.Call(context.Background(), "any/endpoint", nil)
			if res.Success != tc.success {
				t.Fatalf("expected success=%v, got %v (err=%q)", tc.success, res.Success, res.Err)
			}
		})
	}
}

func TestNormalizeFailureKeepsRemoteMessage(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 400, "message": "Sinistre introuvable"}`))
	})

	res := c.Call(context.Background(), "sinistre/get", nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Err != "Sinistre introuvable" {
		t.Fatalf("unexpected message: %q", res.Err)
	}
}

func TestAddSinistreFormShape(t *testing.T) {
	t.Parallel()

	var form url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"id_sinistre": 99, "id_assure": 7}`))
	})

	res := c.AddSinistre(context.Background(), addSinistreFixture())
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}

	expectations := map[string]string{
		"type_ouverture":            "1",
		"nature_sinistre":           "1",
		"type_sinistre":             "1",
		"ref_sinistre":              "MCP-1700000000",
		"sinistre[date_sinistre]":   "2026-08-01",
		"sinistre[ville]":           "Lyon",
		"sinistre[cp]":              "69001",
		"sinistre[pays]":            "FR",
		"sinistre[immatriculation]": "AB-123-CD",
		"assure[nom]":               "Dupont",
		"assure[prenom]":            "Marie",
		"assure[ref_assure]":        "ASS-6789",
		"assure[police]":            "123456",
	}
	for key, want := range expectations {
		if got := form.Get(key); got != want {
			t.Fatalf("form[%s]: expected %q, got %q", key, want, got)
		}
	}

	if res.Data["reference"] != "MCP-1700000000" {
		t.Fatalf("reference not echoed: %v", res.Data["reference"])
	}
}

func TestAddSinistreDefaultsImmatriculation(t *testing.T) {
	t.Parallel()

	var form url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"id_sinistre": 99}`))
	})

	in := addSinistreFixture()
	in.Immatriculation = ""
	if res := c.AddSinistre(context.Background(), in); !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if got := form.Get("sinistre[immatriculation]"); got != "AA-000-AA" {
		t.Fatalf("expected placeholder plate, got %q", got)
	}
}

func TestAddDocumentEncodesContent(t *testing.T) {
	t.Parallel()

	var form url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"id_ged": 5}`))
	})

	in := addDocumentFixture()
	if res := c.AddDocument(context.Background(), in); !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}

	decoded, err := base64.StdEncoding.DecodeString(form.Get("content"))
	if err != nil {
		t.Fatalf("content is not base64: %v", err)
	}
	if string(decoded) != "bonjour" {
		t.Fatalf("unexpected content: %q", decoded)
	}
	if form.Get("public") != "1" || form.Get("notif_gestionnaire") != "1" {
		t.Fatal("upload flags missing")
	}
}

func TestAddDocumentEmptyContentPlaceholder(t *testing.T) {
	t.Parallel()

	var form url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"id_ged": 5}`))
	})

	in := addDocumentFixture()
	in.Content = nil
	c.AddDocument(context.Background(), in)

	decoded, _ := base64.StdEncoding.DecodeString(form.Get("content"))
	if string(decoded) != "Document vide" {
		t.Fatalf("expected placeholder content, got %q", decoded)
	}
}

func TestContactGestionnaireRappelPreferenceOnlyForRappel(t *testing.T) {
	t.Parallel()

	var form url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"id_tache": 3}`))
	})

	in := contactFixture()
	in.TypeDemande = 2
	c.ContactGestionnaire(context.Background(), in)
	if form.Has("rappel_preference") {
		t.Fatal("rappel_preference must not be sent for non-rappel requests")
	}

	in.TypeDemande = 1
	c.ContactGestionnaire(context.Background(), in)
	if got := form.Get("rappel_preference"); got != "Lundi après 16h" {
		t.Fatalf("expected rappel preference, got %q", got)
	}
}

func TestListReglementsClampsLimit(t *testing.T) {
	t.Parallel()

	var form url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`[]`))
	})

	c.ListReglements(context.Background(), reglementFilterWithLimit(500))
	if got := form.Get("limit"); got != "100" {
		t.Fatalf("expected clamped limit 100, got %q", got)
	}

	c.ListReglements(context.Background(), reglementFilterWithLimit(0))
	if got := form.Get("limit"); got != "50" {
		t.Fatalf("expected default limit 50, got %q", got)
	}
}

func TestGenerateDocumentJSONTuple(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"filename": "attestation.pdf", "size": 2048, "content": "..."}`))
	})

	res := c.GenerateDocument(context.Background(), 10, 42)
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Data["filename"] != "attestation.pdf" {
		t.Fatalf("unexpected filename: %v", res.Data["filename"])
	}
}

func TestGenerateDocumentJSONError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 500, "message": "Modèle inconnu"}`))
	})

	res := c.GenerateDocument(context.Background(), 10, 42)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Err != "Modèle inconnu" {
		t.Fatalf("unexpected message: %q", res.Err)
	}
}

func TestGenerateDocumentBinaryFallback(t *testing.T) {
	t.Parallel()

	pdf := []byte("%PDF-1.4 raw bytes")
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdf)
	})

	res := c.GenerateDocument(context.Background(), 10, 42)
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Data["filename"] != "document.pdf" {
		t.Fatalf("unexpected filename: %v", res.Data["filename"])
	}
	if res.Data["size"] != len(pdf) {
		t.Fatalf("unexpected size: %v", res.Data["size"])
	}
}

func TestGenerateDocumentHTTPErrorWithoutJSON(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream died"))
	})

	res := c.GenerateDocument(context.Background(), 10, 42)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Err != "Erreur HTTP 502" {
		t.Fatalf("unexpected message: %q", res.Err)
	}
}

func TestGetChecklistUnwrapsNestedData(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 200, "data": {"checklist": [{"nom": "Constat"}, {"nom": "Carte grise"}]}}`))
	})

	res := c.GetChecklist(context.Background(), 42)
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if len(res.List) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.List))
	}
	if res.List[0]["nom"] != "Constat" {
		t.Fatalf("unexpected first item: %v", res.List[0])
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "", Token: "x"}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "https://example.test", Token: " "}); err == nil {
		t.Fatal("expected error for empty token")
	}
}
