package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agrefed/dem-harvester/internal/config"
	"github.com/agrefed/dem-harvester/internal/harvester"
	"github.com/agrefed/dem-harvester/internal/metrics"
	"github.com/agrefed/dem-harvester/internal/model"
	"github.com/agrefed/dem-harvester/internal/source"
	"github.com/agrefed/dem-harvester/internal/terrain"
	"github.com/agrefed/dem-harvester/internal/wcs"
)

type api struct {
	log       *slog.Logger
	cfg       config.Config
	client    *wcs.Client
	harvester *harvester.Harvester
	metrics   *metrics.Provider
}

type layerJSON struct {
	Identifier  string     `json:"identifier"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	BBox        [4]float64 `json:"bbox"`
}

func (a *api) handleLayers(w http.ResponseWriter, r *http.Request) {
	serviceURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if serviceURL == "" {
		serviceURL = a.cfg.ServiceURL
	}

	layers, err := a.client.ListLayers(r.Context(), serviceURL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	out := make([]layerJSON, 0, len(layers))
	for _, l := range layers {
		out = append(out, layerJSON{
			Identifier:  l.Identifier,
			Title:       l.Title,
			Description: l.Description,
			BBox:        [4]float64{l.BBox.MinX, l.BBox.MinY, l.BBox.MaxX, l.BBox.MaxY},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"layers": out})
}

func (a *api) handleSource(w http.ResponseWriter, _ *http.Request) {
	m := source.GetMetadata()
	writeJSON(w, http.StatusOK, map[string]any{
		"title":             m.Title,
		"description":       m.Description,
		"crs":               m.CRS,
		"bbox":              [4]float64{m.BBox.MinX, m.BBox.MinY, m.BBox.MaxX, m.BBox.MaxY},
		"resolution_arcsec": m.ResolutionArcsec,
	})
}

func (a *api) handleLicense(w http.ResponseWriter, _ *http.Request) {
	l := source.GetLicense()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":          l.Name,
		"source_url":    l.SourceURL,
		"license":       l.LicenseName,
		"license_title": l.LicenseTitle,
		"license_url":   l.LicenseURL,
		"copyright":     l.Copyright,
		"attribution":   l.Attribution,
	})
}

type fetchRequest struct {
	BBox             [4]float64 `json:"bbox"`
	ResolutionArcsec float64    `json:"resolution_arcsec"`
	ServiceURL       string     `json:"service_url"`
	CRS              string     `json:"crs"`
	Derivatives      []string   `json:"derivatives"`
}

type fetchResponse struct {
	Path        string            `json:"path"`
	Skipped     bool              `json:"skipped"`
	Bytes       int64             `json:"bytes,omitempty"`
	Digest      string            `json:"digest,omitempty"`
	Derivatives map[string]string `json:"derivatives,omitempty"`
}

func (a *api) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bbox := model.BBox{MinX: req.BBox[0], MinY: req.BBox[1], MaxX: req.BBox[2], MaxY: req.BBox[3]}
	if err := bbox.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	serviceURL := req.ServiceURL
	if serviceURL == "" {
		serviceURL = a.cfg.ServiceURL
	}
	crs := req.CRS
	if crs == "" {
		crs = a.cfg.CRS
	}

	result, err := a.harvester.Fetch(r.Context(), model.DownloadRequest{
		OutDir:           a.cfg.OutDir,
		BBox:             bbox,
		ResolutionArcsec: req.ResolutionArcsec,
		ServiceURL:       serviceURL,
		CRS:              crs,
	})
	if err != nil {
		a.log.ErrorContext(r.Context(), "download failed", "err", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	resp := fetchResponse{
		Path:    result.Path,
		Skipped: result.Skipped,
		Bytes:   result.Bytes,
		Digest:  result.Digest,
	}
	for _, kind := range req.Derivatives {
		var out string
		var derr error
		switch kind {
		case "slope":
			out, derr = terrain.Slope(result.Path, terrain.Options{})
		case "aspect":
			out, derr = terrain.Aspect(result.Path, terrain.Options{})
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown derivative kind %q", kind))
			return
		}
		if derr != nil {
			a.log.ErrorContext(r.Context(), "derivative failed", "kind", kind, "err", derr)
			writeError(w, http.StatusInternalServerError, derr)
			return
		}
		a.metrics.DerivativeDone(kind)
		if resp.Derivatives == nil {
			resp.Derivatives = make(map[string]string, len(req.Derivatives))
		}
		resp.Derivatives[kind] = out
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
