// Package vision adapts the go-agents vision model client into the narrow
// extraction backend contracts the pipeline consumes. The client is built
// once at startup and injected; nothing in this package reads ambient state.
package vision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"golang.org/x/time/rate"

	"github.com/hcortiz/cotejo/internal/prompts"
	"github.com/hcortiz/cotejo/internal/templates"
	"github.com/hcortiz/cotejo/pkg/formatting"
)

// TemplateMatch is the classifier's best template candidate with confidence.
type TemplateMatch struct {
	Template   string  `json:"template"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// CriticalFields is the alternate-prompt re-extraction result.
type CriticalFields struct {
	Expediente string `json:"expediente"`
	Accion     string `json:"accion"`
	Grupo      string `json:"grupo"`
	Nif        string `json:"nif"`
}

// Backend is the extraction backend contract consumed by pipeline nodes.
// All calls are blocking network calls and honor the shared rate limiter.
type Backend interface {
	ClassifyTemplate(ctx context.Context, pageURI string, templateNames []string) (*TemplateMatch, error)
	ExtractRegion(ctx context.Context, cropURI string, region templates.Region) (string, error)
	ExtractCriticalFields(ctx context.Context, pageURI string) (*CriticalFields, error)
	ModelName() string
	ProviderName() string
}

type backend struct {
	agent   agent.Agent
	cfg     *gaconfig.AgentConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a vision backend from the agent configuration. The limiter
// bounds the request rate against the provider across all pipeline workers.
func New(cfg *gaconfig.AgentConfig, limit rate.Limit, burst int, logger *slog.Logger) (Backend, error) {
	a, err := agent.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create vision agent: %w", err)
	}

	return &backend{
		agent:   a,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With("system", "vision"),
	}, nil
}

func (b *backend) ClassifyTemplate(
	ctx context.Context,
	pageURI string,
	templateNames []string,
) (*TemplateMatch, error) {
	content, err := b.vision(ctx, prompts.ComposeClassify(templateNames), pageURI)
	if err != nil {
		return nil, err
	}

	m, err := formatting.Parse[TemplateMatch](content)
	if err != nil {
		return nil, fmt.Errorf("parse classification: %w", err)
	}
	return &m, nil
}

type regionResponse struct {
	Value string `json:"value"`
}

func (b *backend) ExtractRegion(
	ctx context.Context,
	cropURI string,
	region templates.Region,
) (string, error) {
	checkbox := region.FieldType == templates.FieldTypeCheckbox

	content, err := b.vision(ctx, prompts.ComposeExtract(region.Label, checkbox), cropURI)
	if err != nil {
		return "", err
	}

	resp, err := formatting.Parse[regionResponse](content)
	if err != nil {
		return "", fmt.Errorf("parse region %s: %w", region.Label, err)
	}
	return resp.Value, nil
}

func (b *backend) ExtractCriticalFields(ctx context.Context, pageURI string) (*CriticalFields, error) {
	content, err := b.vision(ctx, prompts.ComposeVerify(), pageURI)
	if err != nil {
		return nil, err
	}

	fields, err := formatting.Parse[CriticalFields](content)
	if err != nil {
		return nil, fmt.Errorf("parse critical fields: %w", err)
	}
	return &fields, nil
}

func (b *backend) ModelName() string {
	if b.cfg.Model != nil {
		return b.cfg.Model.Name
	}
	return ""
}

func (b *backend) ProviderName() string {
	if b.cfg.Provider != nil {
		return b.cfg.Provider.Name
	}
	return ""
}

func (b *backend) vision(ctx context.Context, prompt, imageURI string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := b.agent.Vision(ctx, prompt, []string{imageURI})
	if err != nil {
		if isRateLimited(err) {
			return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return "", fmt.Errorf("vision call: %w", err)
	}

	return resp.Content(), nil
}

// isRateLimited recognizes provider throttling responses. Providers surface
// these as plain errors, so detection is by status code text.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}
