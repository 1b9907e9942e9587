// Package ai generates practice conversations, alternative expressions and
// response feedback with an LLM.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/expresslang/express/internal/retry"
)

// Generator produces language-learning content from a chat model.
type Generator struct {
	llm llms.Model
}

// NewGenerator builds a Generator over the OpenAI chat API. A nil
// httpClient falls back to the default client with no request timeout, so
// callers should pass a bounded one.
func NewGenerator(apiKey, model string, httpClient *http.Client) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: api key must not be empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(httpClient))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ai: create llm client: %w", err)
	}
	return &Generator{llm: llm}, nil
}

// complete runs one prompt through the model, retrying transient failures
// such as rate limits.
func (g *Generator) complete(ctx context.Context, name, prompt string, opts ...llms.CallOption) (string, error) {
	var response string
	result := retry.Do(ctx, retry.LLMConfig(), name, func() error {
		var err error
		response, err = llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
		return err
	})
	if !result.Success {
		return "", result.LastError
	}
	return response, nil
}

// GeneratedTurn is one line of a generated conversation. Person B lines
// carry Text; Person A lines carry the Korean thought and its English
// expression.
type GeneratedTurn struct {
	Speaker           string `json:"speaker"`
	Text              string `json:"text,omitempty"`
	KoreanThought     string `json:"korean_thought,omitempty"`
	EnglishExpression string `json:"english_expression,omitempty"`
}

// GeneratedConversation is the model's dialogue for a topic.
type GeneratedConversation struct {
	Topic      string          `json:"topic"`
	Difficulty string          `json:"difficulty"`
	Dialogue   []GeneratedTurn `json:"dialogue"`
}

const conversationSystemPrompt = `You are a language learning conversation designer specializing in Korean-to-English expression.

Your task is to create realistic, natural conversations that help Korean speakers express their thoughts in English.

Key principles:
1. Use authentic, colloquial American English (not textbook English)
2. Include natural fillers, contractions, and everyday expressions
3. Make Person A (the learner) need to express complex thoughts/feelings
4. Keep conversations practical and relatable to daily life
5. Each response should be 1-3 sentences maximum

Output format must be valid JSON:
{
    "dialogue": [
        {
            "speaker": "Person B",
            "text": "Neighbor's opening line"
        },
        {
            "speaker": "Person A",
            "korean_thought": "What the learner is thinking in Korean",
            "english_expression": "How to express it naturally in English"
        }
    ]
}`

// GenerateConversation asks the model for a short dialogue on topic at the
// given difficulty (easy, intermediate, hard).
func (g *Generator) GenerateConversation(ctx context.Context, topic, difficulty string) (*GeneratedConversation, error) {
	if difficulty == "" {
		difficulty = "intermediate"
	}

	prompt := fmt.Sprintf(`%s

Create a conversation about: %s

Difficulty: %s
- Easy: Simple responses, basic vocabulary
- Intermediate: Natural expressions, some idioms
- Hard: Complex thoughts, nuanced expressions

The conversation should have 3-4 exchanges total.
Person B starts the conversation.
Person A needs to respond with something that requires thought and tact.

Remember: Output must be valid JSON matching the format specified.`,
		conversationSystemPrompt, topic, difficulty)

	response, err := g.complete(ctx, "generate_conversation", prompt,
		llms.WithTemperature(0.8),
		llms.WithMaxTokens(800),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("ai: generate conversation: %w", err)
	}

	var conv GeneratedConversation
	if err := json.Unmarshal([]byte(response), &conv); err != nil {
		return nil, fmt.Errorf("ai: decode conversation response: %w", err)
	}
	conv.Topic = topic
	conv.Difficulty = difficulty

	log.Debug().Str("topic", topic).Int("turns", len(conv.Dialogue)).Msg("generated conversation")
	return &conv, nil
}

// FallbackConversation is served when generation fails so the client always
// has something to practice.
func FallbackConversation(topic string) *GeneratedConversation {
	return &GeneratedConversation{
		Topic:      topic,
		Difficulty: "intermediate",
		Dialogue: []GeneratedTurn{
			{Speaker: "Person B", Text: "Hey, I wanted to talk to you about something. Do you have a minute?"},
			{
				Speaker:           "Person A",
				KoreanThought:     "지금은 좀 바쁜데... 하지만 무슨 일인지 궁금하네. 시간을 내야 할 것 같아.",
				EnglishExpression: "I'm actually a bit tied up right now, but sure, what's on your mind?",
			},
			{Speaker: "Person B", Text: "It's about the project deadline. I know we agreed on Friday, but I'm wondering if we could push it back a few days?"},
			{
				Speaker:           "Person A",
				KoreanThought:     "금요일까지 끝내기로 했는데... 미루면 내 일정도 꼬이는데. 하지만 이유가 있겠지.",
				EnglishExpression: "Well, we did commit to Friday, and pushing it back might throw off my schedule too. What's going on that you need more time?",
			},
		},
	}
}

// Suggest returns up to three alternative ways to phrase userInput in the
// given context.
func (g *Generator) Suggest(ctx context.Context, userInput, conversationContext, koreanThought string) ([]string, error) {
	thoughtLine := ""
	if koreanThought != "" {
		thoughtLine = fmt.Sprintf("Original thought in Korean: %s\n", koreanThought)
	}

	prompt := fmt.Sprintf(`Given this context and attempted expression, provide 3 alternative ways to say the same thing.

Context: %s
User attempted: "%s"
%s
Provide 3 alternatives that are:
1. More natural/colloquial
2. More polite/formal
3. More casual/friendly

Output as a JSON object with a "suggestions" array of strings.`,
		conversationContext, userInput, thoughtLine)

	response, err := g.complete(ctx, "generate_suggestions", prompt,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(200),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("ai: generate suggestions: %w", err)
	}

	suggestions := extractSuggestions(response)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("ai: no suggestions in model response")
	}
	return suggestions, nil
}

// extractSuggestions tolerates the model answering with a bare array, a
// "suggestions" or "alternatives" key, or any other single-list object.
func extractSuggestions(raw string) []string {
	var asList []string
	if err := json.Unmarshal([]byte(raw), &asList); err == nil {
		return cap3(asList)
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &asObject); err != nil {
		return nil
	}
	for _, key := range []string{"suggestions", "alternatives"} {
		if v, ok := asObject[key]; ok {
			var list []string
			if err := json.Unmarshal(v, &list); err == nil {
				return cap3(list)
			}
		}
	}
	for _, v := range asObject {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil && len(list) > 0 {
			return cap3(list)
		}
	}
	return nil
}

func cap3(list []string) []string {
	if len(list) > 3 {
		return list[:3]
	}
	return list
}

// FallbackSuggestions is served when suggestion generation fails.
func FallbackSuggestions() []string {
	return []string{
		"Let me think about that differently",
		"Here's another way to put it",
		"What I mean to say is",
	}
}

// Evaluation is the model's scoring of a learner's expression attempt.
type Evaluation struct {
	Score       int      `json:"score"`
	Accuracy    string   `json:"accuracy"`
	Feedback    string   `json:"feedback"`
	Corrections []string `json:"corrections"`
	WellDone    []string `json:"well_done"`
}

// Evaluate scores how close the learner's attempt came to the expected
// expression.
func (g *Generator) Evaluate(ctx context.Context, userResponse, expectedResponse, conversationContext string) (*Evaluation, error) {
	if strings.TrimSpace(conversationContext) == "" {
		conversationContext = "General conversation"
	}

	prompt := fmt.Sprintf(`Evaluate this English expression attempt by a Korean speaker.

Expected expression: "%s"
User said: "%s"
Context: %s

Provide evaluation as JSON:
{
    "score": 0-100 (how close to natural expression),
    "accuracy": "excellent|good|fair|needs_work",
    "feedback": "Brief, encouraging feedback",
    "corrections": ["specific corrections if needed"],
    "well_done": ["what they did well"]
}

Be encouraging but honest. Focus on communication effectiveness over perfect grammar.`,
		expectedResponse, userResponse, conversationContext)

	response, err := g.complete(ctx, "evaluate_response", prompt,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(300),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("ai: evaluate response: %w", err)
	}

	eval := Evaluation{
		Score:       70,
		Accuracy:    "good",
		Feedback:    "Keep practicing!",
		Corrections: []string{},
		WellDone:    []string{"Clear communication"},
	}
	if err := json.Unmarshal([]byte(response), &eval); err != nil {
		return nil, fmt.Errorf("ai: decode evaluation response: %w", err)
	}
	if eval.Corrections == nil {
		eval.Corrections = []string{}
	}
	if eval.WellDone == nil {
		eval.WellDone = []string{"Clear communication"}
	}
	return &eval, nil
}

// FallbackEvaluation is served when evaluation fails.
func FallbackEvaluation() *Evaluation {
	return &Evaluation{
		Score:       75,
		Accuracy:    "good",
		Feedback:    "Good effort! Keep practicing",
		Corrections: []string{},
		WellDone:    []string{"You communicated your thought clearly"},
	}
}
