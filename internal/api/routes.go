package api

import (
	"net/http"

	"github.com/hcortiz/cotejo/internal/config"
	"github.com/hcortiz/cotejo/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	batchHandler := domain.Batches.Handler()
	batchHandler.Launch = domain.launch

	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Templates.Handler().Routes(),
		domain.Extractions.Handler().Routes(),
		batchHandler.Routes(),
	)
}
