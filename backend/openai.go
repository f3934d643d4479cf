package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/invlocale"
	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend implements Backend using OpenAI's chat completions API.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// localeClarifications pins the regional variant the model should write.
var localeClarifications = map[invlocale.Locale]string{
	invlocale.LocaleHR: "Use standard Croatian (hrvatski standardni jezik) with ijekavian forms, not Serbian or Bosnian vocabulary.",
	invlocale.LocaleDE: "Use standard German as written in Germany; address the reader with \"Sie\".",
	invlocale.LocaleFR: "Use metropolitan French; address the reader with \"vous\".",
	invlocale.LocaleIT: "Use standard Italian; address the reader formally.",
}

// styleDescriptions describe each register for the system prompt.
var styleDescriptions = map[invlocale.TranslationStyle]string{
	invlocale.StyleFormal:    "Use formal, professional language suitable for official documents.",
	invlocale.StyleNeutral:   "Use a neutral, professional tone suitable for general content.",
	invlocale.StyleMarketing: "Use persuasive, engaging language that makes the opportunity attractive without overstating returns.",
	invlocale.StyleFinancial: "Use the precise register of an investment prospectus. Keep figures, currencies and percentages exactly as given.",
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Model returns the configured model name.
func (b *OpenAIBackend) Model() string {
	return b.model
}

// Translate translates a batch of texts using OpenAI.
func (b *OpenAIBackend) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: b.buildUserMessage(req)},
		},
		Temperature: b.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &invlocale.BackendError{
			Message:    "OpenAI API call failed",
			Cause:      err,
			Locale:     req.TargetLang,
			Retryable:  isRetryableError(err),
			RetryAfter: retryAfterHint(err),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &invlocale.BackendError{
			Message:   "no response from OpenAI",
			Locale:    req.TargetLang,
			Retryable: true,
		}
	}

	return b.parseResponse(resp.Choices[0].Message.Content, len(req.Texts))
}

func (b *OpenAIBackend) buildSystemPrompt(req TranslateRequest) string {
	targetName := invlocale.GetLanguageName(req.TargetLang)

	style := req.Style
	if style == "" {
		style = invlocale.StyleNeutral
	}
	styleDesc := styleDescriptions[style]
	if styleDesc == "" {
		styleDesc = styleDescriptions[invlocale.StyleNeutral]
	}

	contextText := "The texts are fields of an investment opportunity listed on a crowdfunding marketplace."
	if req.Context != "" {
		contextText = fmt.Sprintf("The texts are for: %s. Adapt the tone to be appropriate for this context.", req.Context)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `# Role
You are an expert native translator. You translate content to %s with the fluency of a highly educated native speaker.

# Context
%s

# Register
%s

# Task
Translate the provided texts into idiomatic %s.

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase sentences to sound natural to a native speaker.
- **Numbers**: Keep amounts, currencies, percentages and dates exactly as written.
- **Names**: Do NOT translate company names, product names or place names that have no established local form.
- **Markup Safety**: Do NOT translate HTML tags, attributes, URLs or email addresses.
- **Short Labels**: Category names and tags are short labels. Translate them as labels, not sentences.`, targetName, contextText, styleDesc, targetName)

	if hint := localeClarifications[req.TargetLang]; hint != "" {
		fmt.Fprintf(&sb, "\n- **Locale**: %s", hint)
	}

	if len(req.Glossary) > 0 {
		sb.WriteString("\n\n# Glossary\nWhen you encounter these phrases, prefer these translations (unless context demands otherwise):")
		sources := make([]string, 0, len(req.Glossary))
		for source := range req.Glossary {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Fprintf(&sb, "\n- \"%s\" → %s", source, req.Glossary[source])
		}
	}

	sb.WriteString(`

# Format
Return a valid JSON object with a single key "translations" containing an array of strings in the exact same order as the input.
Example: { "translations": ["translated string 1", "translated string 2"] }
- Do NOT wrap in Markdown code blocks.`)

	if len(req.ExcludedTerms) > 0 {
		fmt.Fprintf(&sb, "\n\n# Exclusions\nDo NOT translate the following terms. Keep them exactly as they appear in the source:\n- %s",
			strings.Join(req.ExcludedTerms, "\n- "))
	}

	return sb.String()
}

func (b *OpenAIBackend) buildUserMessage(req TranslateRequest) string {
	hasContexts := false
	for _, c := range req.TextContexts {
		if c != "" {
			hasContexts = true
			break
		}
	}

	if !hasContexts {
		data, _ := json.Marshal(req.Texts)
		return string(data)
	}

	type item struct {
		Text    string `json:"text"`
		Context string `json:"context,omitempty"`
	}

	items := make([]item, len(req.Texts))
	for i, text := range req.Texts {
		items[i].Text = text
		if i < len(req.TextContexts) {
			items[i].Context = req.TextContexts[i]
		}
	}

	data, _ := json.Marshal(map[string][]item{"items": items})
	return string(data)
}

func (b *OpenAIBackend) parseResponse(content string, expectedCount int) ([]string, error) {
	var objResult map[string]interface{}
	if err := json.Unmarshal([]byte(content), &objResult); err == nil {
		if translations, ok := objResult["translations"]; ok {
			if arr, ok := translations.([]interface{}); ok {
				return toStringSlice(arr, expectedCount)
			}
		}

		// Some models pick their own key.
		for _, v := range objResult {
			if arr, ok := v.([]interface{}); ok {
				return toStringSlice(arr, expectedCount)
			}
		}
	}

	var arrResult []interface{}
	if err := json.Unmarshal([]byte(content), &arrResult); err == nil {
		return toStringSlice(arrResult, expectedCount)
	}

	return nil, &invlocale.BackendError{
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

func toStringSlice(arr []interface{}, expectedCount int) ([]string, error) {
	result := make([]string, len(arr))
	for i, v := range arr {
		if s, ok := v.(string); ok {
			result[i] = s
		} else {
			result[i] = fmt.Sprintf("%v", v)
		}
	}

	if len(result) != expectedCount {
		return nil, &invlocale.CountMismatchError{
			Expected: expectedCount,
			Got:      len(result),
		}
	}

	return result, nil
}

func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"rate limit", "connection refused", "connection reset", "temporary"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// OpenAI rate limit messages end with "Please try again in 1.2s" or "in 350ms".
var retryAfterPattern = regexp.MustCompile(`try again in (\d+(?:\.\d+)?)(ms|s)\b`)

func retryAfterHint(err error) time.Duration {
	m := retryAfterPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	v, perr := strconv.ParseFloat(m[1], 64)
	if perr != nil {
		return 0
	}
	if m[2] == "ms" {
		return time.Duration(v * float64(time.Millisecond))
	}
	return time.Duration(v * float64(time.Second))
}

var _ Backend = (*OpenAIBackend)(nil)
