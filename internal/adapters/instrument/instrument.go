// Package instrument wraps gateways with metrics and debug logging.
package instrument

import (
	"context"
	"time"

	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/pkg/logger"
	"github.com/okian/auralearn/pkg/metrics"
)

const (
	gatewayRetriever = "retriever"
	gatewayGenerator = "generator"
)

type retriever struct {
	next   ports.Retriever
	logger logger.Logger
}

// Retriever records calls made through next.
func Retriever(next ports.Retriever) ports.Retriever {
	return &retriever{next: next, logger: logger.Named("gateway.retriever")}
}

func (r *retriever) Search(ctx context.Context, query string) ([]model.RetrievedDocument, error) {
	start := time.Now()
	docs, err := r.next.Search(ctx, query)
	observe(gatewayRetriever, start, err)
	if err != nil {
		r.logger.Warn(ctx, "search failed", logger.String("query", query), logger.Error(err))
		return nil, err
	}
	r.logger.Debug(ctx, "search", logger.String("query", query), logger.Int("documents", len(docs)),
		logger.Duration("elapsed", time.Since(start)))
	return docs, nil
}

type generator struct {
	next   ports.Generator
	logger logger.Logger
}

// Generator records calls made through next.
func Generator(next ports.Generator) ports.Generator {
	return &generator{next: next, logger: logger.Named("gateway.generator")}
}

func (g *generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := g.next.GenerateText(ctx, prompt)
	observe(gatewayGenerator, start, err)
	if err != nil {
		g.logger.Warn(ctx, "generation failed", logger.Int("prompt_chars", len(prompt)), logger.Error(err))
		return "", err
	}
	g.logger.Debug(ctx, "generation", logger.Int("prompt_chars", len(prompt)), logger.Int("response_chars", len(text)),
		logger.Duration("elapsed", time.Since(start)))
	return text, nil
}

func observe(gateway string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		metrics.RecordErrorByComponent(gateway, "transport")
	}
	metrics.RecordGatewayCall(gateway, result)
	metrics.RecordGatewayLatency(gateway, float64(time.Since(start).Milliseconds()))
}
