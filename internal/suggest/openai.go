package suggest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/rules"
	"github.com/christopherklint97/preflight/internal/validate"
)

const defaultModel = "gpt-4o-mini"

// OpenAI implements Provider on the Chat Completions API with JSON-schema
// constrained responses.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAI(apiKey, model string, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

// schemaFor derives a response schema from the wire struct so the prompts
// and the decoder can never drift apart.
func schemaFor(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{DoNotReference: true}
	return r.Reflect(v)
}

func (o *OpenAI) generate(ctx context.Context, name, system, user string, schema *jsonschema.Schema) (string, error) {
	o.logger.Debug("calling suggestion service",
		"request", name,
		"model", o.model,
		"system_prompt_len", len(system),
		"user_prompt_len", len(user),
	)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: schema,
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s request: %w", name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s request: empty response", name)
	}

	content := resp.Choices[0].Message.Content
	o.logger.Debug("suggestion service responded", "request", name, "response_len", len(content))
	return content, nil
}

func (o *OpenAI) ValidateData(ctx context.Context, ds entity.DataSet) ([]validate.Diagnostic, error) {
	raw, err := o.generate(ctx, "validation_findings",
		validateSystemPrompt, buildValidateUserPrompt(ds), schemaFor(&findingsPayload{}))
	if err != nil {
		return nil, err
	}
	findings, err := decodeFindings(raw)
	if err != nil {
		o.logger.Warn("discarding malformed findings response", "error", err)
		return nil, err
	}
	return findings, nil
}

func (o *OpenAI) SuggestRules(ctx context.Context, ds entity.DataSet) ([]rules.Rule, error) {
	raw, err := o.generate(ctx, "rule_suggestions",
		rulesSystemPrompt, buildRulesUserPrompt(ds), schemaFor(&rulesPayload{}))
	if err != nil {
		return nil, err
	}
	out, errs := decodeRuleSpecs(raw, rules.SourceAISuggested)
	for _, e := range errs {
		o.logger.Warn("skipping malformed rule suggestion", "error", e)
	}
	if out == nil && len(errs) > 0 {
		return nil, fmt.Errorf("no usable rule suggestions: %w", errs[0])
	}
	return out, nil
}

func (o *OpenAI) ConvertRule(ctx context.Context, input string) (rules.Rule, error) {
	raw, err := o.generate(ctx, "converted_rule",
		convertSystemPrompt, buildConvertUserPrompt(input), schemaFor(&ruleSpec{}))
	if err != nil {
		return rules.Rule{}, err
	}
	return decodeRule(raw, rules.SourceNaturalLanguage)
}

func (o *OpenAI) Search(ctx context.Context, query string, ds entity.DataSet) (SearchResult, error) {
	raw, err := o.generate(ctx, "search_config",
		searchSystemPrompt, buildSearchUserPrompt(query, ds), schemaFor(&SearchConfig{}))
	if err != nil {
		return SearchResult{}, err
	}
	cfg, err := decodeSearchConfig(raw)
	if err != nil {
		return SearchResult{}, err
	}
	matches, err := ApplyFilter(ds, cfg)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Config: cfg, Matches: matches}, nil
}

func (o *OpenAI) SuggestCorrection(ctx context.Context, d validate.Diagnostic) (Correction, error) {
	raw, err := o.generate(ctx, "correction",
		correctionSystemPrompt, buildCorrectionUserPrompt(d), schemaFor(&Correction{}))
	if err != nil {
		return Correction{}, err
	}
	return decodeCorrection(raw)
}
