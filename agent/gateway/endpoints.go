package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/spf13/cast"

	contractx "github.com/assurlab/sydia-agent/agent/contract"
)

// assureFields are the insured-profile fields the update endpoint accepts.
var assureFields = []string{
	"nom", "prenom", "email", "tel1", "tel2",
	"adresse", "cp", "ville", "pays",
	"civilite", "naissance", "statut", "etat",
	"iban", "bic", "commentaire",
}

func (c *Client) GetSinistre(ctx context.Context, idSinistre int64, refSinistre string) contractx.Result {
	form := url.Values{}
	if idSinistre > 0 {
		form.Set("id_sinistre", strconv.FormatInt(idSinistre, 10))
	}
	if refSinistre != "" {
		form.Set("ref_sinistre", refSinistre)
	}

	res := c.Call(ctx, "sinistre/get", form)
	if !res.Success {
		return res
	}
	return contractx.Result{Success: true, Data: dataObject(res)}
}

func (c *Client) ListSinistres(ctx context.Context) contractx.Result {
	res := c.Call(ctx, "sinistre/list", nil)
	if !res.Success {
		return res
	}
	return contractx.Result{Success: true, List: dataList(res)}
}

func (c *Client) AddSinistre(ctx context.Context, in contractx.AddSinistreInput) contractx.Result {
	immat := in.Immatriculation
	if immat == "" {
		immat = "AA-000-AA"
	}
	refAssure := "ASS-0000"
	if len(in.Tel) >= 4 {
		refAssure = "ASS-" + in.Tel[len(in.Tel)-4:]
	}

	form := url.Values{}
	form.Set("type_ouverture", "1")
	form.Set("type_sinistre", strconv.Itoa(in.TypeSinistre))
	form.Set("nature_sinistre", "1")
	form.Set("ref_sinistre", in.Reference)
	form.Set("sinistre[date_sinistre]", in.DateSinistre)
	form.Set("sinistre[ville]", in.Ville)
	form.Set("sinistre[cp]", in.CP)
	form.Set("sinistre[circonstances]", in.Circonstances)
	form.Set("sinistre[pays]", "FR")
	form.Set("sinistre[immatriculation]", immat)
	form.Set("assure[statut]", "1")
	form.Set("assure[nom]", in.Nom)
	form.Set("assure[prenom]", in.Prenom)
	form.Set("assure[email]", in.Email)
	form.Set("assure[tel1]", in.Tel)
	form.Set("assure[ref_assure]", refAssure)
	form.Set("assure[police]", "123456")

	res := c.Call(ctx, "sinistre/add", form)
	if !res.Success {
		return res
	}

	reference := cast.ToString(res.Data["reference"])
	if reference == "" {
		reference = in.Reference
	}
	return contractx.Result{Success: true, Data: map[string]any{
		"id_sinistre": res.Data["id_sinistre"],
		"reference":   reference,
		"id_assure":   res.Data["id_assure"],
	}}
}

func (c *Client) ListDocuments(ctx context.Context, idSinistre int64) contractx.Result {
	form := url.Values{}
	form.Set("id_sinistre", strconv.FormatInt(idSinistre, 10))

	res := c.Call(ctx, "ged/list", form)
	if !res.Success {
		return res
	}

	data := dataObject(res)
	return contractx.Result{
		Success: true,
		Data:    map[string]any{"count": data["count"]},
		List:    castMapSlice(data["geds"]),
	}
}

func (c *Client) GetDocument(ctx context.Context, idGed int64) contractx.Result {
	form := url.Values{}
	form.Set("id_ged", strconv.FormatInt(idGed, 10))

	res := c.Call(ctx, "ged/get", form)
	if !res.Success {
		return res
	}
	if inner := dataObject(res); len(inner) > 0 {
		return contractx.Result{Success: true, Data: inner}
	}
	// Some deployments return the document fields at top level.
	return res
}

func (c *Client) AddDocument(ctx context.Context, in contractx.AddDocumentInput) contractx.Result {
	content := in.Content
	if len(content) == 0 {
		content = []byte("Document vide")
	}

	form := url.Values{}
	form.Set("id_sinistre", strconv.FormatInt(in.IDSinistre, 10))
	form.Set("filename", in.Filename)
	form.Set("commentaire", in.Commentaire)
	form.Set("content", base64.StdEncoding.EncodeToString(content))
	form.Set("public", "1")
	form.Set("notif_gestionnaire", "1")

	return c.Call(ctx, "ged/add", form)
}

func (c *Client) UpdateAssure(ctx context.Context, idAssure int64, fields map[string]string) contractx.Result {
	form := url.Values{}
	form.Set("id_assure", strconv.FormatInt(idAssure, 10))
	for _, key := range assureFields {
		if v, ok := fields[key]; ok && v != "" {
			form.Set(key, v)
		}
	}
	return c.Call(ctx, "assure/update", form)
}

func (c *Client) ContactGestionnaire(ctx context.Context, in contractx.ContactInput) contractx.Result {
	form := url.Values{}
	form.Set("id_sinistre", strconv.FormatInt(in.IDSinistre, 10))
	form.Set("type", strconv.Itoa(in.TypeDemande))
	form.Set("objet", in.Objet)
	form.Set("commentaire", in.Commentaire)
	form.Set("urgence", strconv.Itoa(in.Urgence))
	if in.TypeDemande == 1 && in.RappelPreference != "" {
		form.Set("rappel_preference", in.RappelPreference)
	}
	return c.Call(ctx, "sinistre/contact", form)
}

func (c *Client) CloturerSinistre(ctx context.Context, in contractx.ClotureInput) contractx.Result {
	form := url.Values{}
	form.Set("id_sinistre", strconv.FormatInt(in.IDSinistre, 10))
	form.Set("date_fermeture", in.DateFermeture)
	form.Set("raison", strconv.Itoa(in.Raison))
	form.Set("commentaire", in.Commentaire)
	return c.Call(ctx, "sinistre/cloturer", form)
}

func (c *Client) ListReglements(ctx context.Context, f contractx.ReglementFilter) contractx.Result {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	form := url.Values{}
	form.Set("limit", strconv.Itoa(limit))
	if f.Status != nil {
		form.Set("status", strconv.Itoa(*f.Status))
	}
	if f.Sens != nil {
		form.Set("sens", strconv.Itoa(*f.Sens))
	}

	res := c.Call(ctx, "sinistre/reglement/list", form)
	if !res.Success {
		return res
	}
	if res.List != nil {
		return res
	}
	return contractx.Result{Success: true, List: dataList(res)}
}

func (c *Client) GetChecklist(ctx context.Context, idSinistre int64) contractx.Result {
	form := url.Values{}
	form.Set("id_sinistre", strconv.FormatInt(idSinistre, 10))

	res := c.Call(ctx, "sinistre/checklist/get", form)
	if !res.Success {
		return res
	}

	checklist := dataObject(res)["checklist"]
	if checklist == nil {
		checklist = res.Data["checklist"]
	}
	return contractx.Result{Success: true, List: castMapSlice(checklist)}
}

// GenerateDocument renders a PDF from a configured template. The endpoint is
// the one place where Sydia answers with three different shapes: a JSON
// filename/size/content tuple, a JSON error payload, or the raw binary body
// with success carried by the HTTP status alone. JSON is tried first; the
// binary fallback only applies when the body is not parseable JSON.
func (c *Client) GenerateDocument(ctx context.Context, idType int64, idSinistre int64) contractx.Result {
	form := url.Values{}
	form.Set("id_type", strconv.FormatInt(idType, 10))
	if idSinistre > 0 {
		form.Set("id_sinistre", strconv.FormatInt(idSinistre, 10))
	}

	raw, statusCode, err := c.post(ctx, "ged/document/get", form)
	if err != nil {
		return contractx.Failure(err.Error())
	}

	var payload map[string]any
	if jsonErr := json.Unmarshal(raw, &payload); jsonErr == nil {
		if filename := cast.ToString(payload["filename"]); filename != "" {
			return contractx.Result{Success: true, Data: map[string]any{
				"filename": filename,
				"size":     payload["size"],
				"content":  payload["content"],
			}}
		}
		if status := cast.ToInt(payload["status"]); status == 500 {
			msg := cast.ToString(payload["message"])
			return contractx.Failure(msg)
		}
		return contractx.Result{Success: true, Data: payload}
	}

	if statusCode == 200 {
		return contractx.Result{Success: true, Data: map[string]any{
			"filename": "document.pdf",
			"size":     len(raw),
			"content":  raw,
		}}
	}
	return contractx.Failure("Erreur HTTP " + strconv.Itoa(statusCode))
}

/* ------------------------------ map helpers ------------------------------ */

func dataObject(res contractx.Result) map[string]any {
	if m, ok := res.Data["data"].(map[string]any); ok {
		return m
	}
	return res.Data
}

func dataList(res contractx.Result) []map[string]any {
	return castMapSlice(res.Data["data"])
}

func castMapSlice(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
