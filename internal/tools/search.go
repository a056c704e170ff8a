package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/JerePrograma/laburen-agent/internal/knowledge"
	"github.com/google/jsonschema-go/jsonschema"
)

func searchDocsTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"question": stringSchema("the question to answer from the product documentation"),
	}, "question")

	return define(ToolSearchDocs,
		"Search the product documentation and return the most relevant fragments. Available without authentication.",
		schema,
		func(ctx context.Context, tc *Context, in SearchDocsInput) (Result, error) {
			question := strings.TrimSpace(in.Question)
			if question == "" {
				return nil, fmt.Errorf("%w: question is required", ErrInvalidInput)
			}
			fragments, err := cfg.Docs.Search(ctx, question, knowledge.DefaultTopK)
			if err != nil {
				return nil, err
			}
			kept := make([]knowledge.Fragment, 0, len(fragments))
			for _, f := range fragments {
				if f.Similarity >= MinSimilarity {
					kept = append(kept, f)
				}
			}
			msg := fmt.Sprintf("found %d relevant fragments", len(kept))
			if len(kept) == 0 {
				msg = "no relevant documentation found"
			}
			return &SearchResult{
				outcome:   success(msg),
				Question:  question,
				Fragments: kept,
			}, nil
		})
}
