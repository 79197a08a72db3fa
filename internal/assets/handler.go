package assets

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler serves GET /assets/* from source. The route must be mounted with a
// trailing wildcard so the asset name is available as chi's "*" parameter.
func Handler(source Source, logger zerolog.Logger) http.HandlerFunc {
	logger = logger.With().Str("handler", "assets").Logger()

	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")

		asset, err := source.Open(r.Context(), name)
		if err != nil {
			if errors.Is(err, ErrAssetNotFound) {
				http.NotFound(w, r)
				return
			}
			logger.Error().Err(err).Str("asset", name).Msg("failed to open asset")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		http.ServeContent(w, r, asset.Name, asset.ModTime, bytes.NewReader(asset.Body))
	}
}
