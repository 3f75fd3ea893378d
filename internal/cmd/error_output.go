package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/rowtree/internal/render"
	"github.com/salmonumbrella/rowtree/internal/rows"
	"github.com/salmonumbrella/rowtree/internal/tree"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch render.FormatFromContext(ctx) {
		case render.FormatJSON, render.FormatNDJSON:
			return "json"
		case render.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintf(stderrFromContext(ctx), "Error: %v\n", err)
}

func buildErrorEnvelope(err error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message":  err.Error(),
		"category": "system",
		"type":     "error",
	}

	var notFound *rows.ResourceNotFoundError
	if errors.As(err, &notFound) {
		errMap["type"] = "resource_not_found"
		errMap["category"] = "user"
		errMap["path"] = notFound.Path
	}

	var unknown *tree.UnknownTagKindError
	if errors.As(err, &unknown) {
		errMap["type"] = "unknown_tag"
		errMap["category"] = "user"
		errMap["line"] = unknown.Line
		errMap["code"] = unknown.Code
	}

	var orphan *tree.OrphanRowError
	if errors.As(err, &orphan) {
		errMap["type"] = "orphan_row"
		errMap["category"] = "user"
		errMap["line"] = orphan.Line
		errMap["code"] = orphan.Code
	}

	return map[string]interface{}{"error": errMap}
}
