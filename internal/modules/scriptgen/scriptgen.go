// Package scriptgen turns a topic into a short-video script via OpenAI.
package scriptgen

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/trendflow/trendflow/internal/contract"
	"github.com/trendflow/trendflow/internal/modules"
	"github.com/trendflow/trendflow/internal/services/chatgpt"
	"github.com/trendflow/trendflow/internal/utils"
)

// Module implements the script generation functionality
type Module struct {
	initOnce    sync.Once
	initErr     error
	chatService chatgpt.Servicer
}

// Input contains the parameters for script generation
type Input struct {
	Topic            string  `json:"topic"`
	Style            string  `json:"style"`            // informative, humorous or dramatic
	MaxWords         int     `json:"maxWords"`         // Target script length (default: 150)
	Model            string  `json:"model"`            // OpenAI model to use (default: "gpt-4o")
	Temperature      float64 `json:"temperature"`      // Model temperature (default: 0.7)
	RequestTimeoutMS int     `json:"requestTimeoutMs"` // API request timeout in milliseconds
	PromptTemplate   string  `json:"promptTemplate"`   // Path to a custom system prompt file
	Output           string  `json:"output"`           // Directory to persist the script text to (optional)
}

// Script is the three-part structure every short follows
type Script struct {
	Hook         string `json:"hook"`
	Body         string `json:"body"`
	CallToAction string `json:"callToAction"`
}

// Output carries the generated script
type Output struct {
	Script    Script `json:"script"`
	WordCount int    `json:"wordCount"`
}

// New creates a script generation module backed by the real OpenAI service
func New() modules.Adapter {
	return &Module{}
}

// NewWithService creates a script generation module with a custom service
func NewWithService(svc chatgpt.Servicer) modules.Adapter {
	return &Module{chatService: svc}
}

// Name returns the module name
func (m *Module) Name() string {
	return "scriptgen"
}

// Contract returns the module's published contract
func (m *Module) Contract() *contract.Contract {
	input := contract.Object(map[string]*contract.Schema{
		"topic":            contract.String(),
		"style":            contract.Enum("informative", "humorous", "dramatic"),
		"maxWords":         contract.NumberRange(30, 400),
		"model":            contract.String(),
		"temperature":      contract.NumberRange(0, 2),
		"requestTimeoutMs": contract.NumberRange(1, 600000),
		"promptTemplate":   contract.String(),
		"output":           contract.String(),
	}, "topic", "style")

	output := contract.Object(map[string]*contract.Schema{
		"script": contract.Object(map[string]*contract.Schema{
			"hook":         contract.String(),
			"body":         contract.String(),
			"callToAction": contract.String(),
		}, "hook", "body", "callToAction"),
		"wordCount": contract.NumberRange(0, 10000),
	}, "script", "wordCount")

	return contract.MustNew("scriptgen", "1.0.0", input, output, "OPENAI_API_KEY")
}

const systemPrompt = `You write scripts for short vertical videos. ` +
	`Respond with a JSON object only, no markdown fences, with exactly three ` +
	`string fields: "hook", "body" and "callToAction".`

// Execute asks the model for a script and parses its JSON reply
func (m *Module) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in Input
	if err := modules.ParseInput(input, &in); err != nil {
		return nil, err
	}

	// Set default values
	if in.MaxWords == 0 {
		in.MaxWords = 150
	}
	if in.Model == "" {
		in.Model = "gpt-4o"
	}
	if in.Temperature == 0 {
		in.Temperature = 0.7
	}

	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	prompt := systemPrompt
	if in.PromptTemplate != "" {
		custom, err := utils.ReadTextFile(in.PromptTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt template: %w", err)
		}
		prompt = custom
	}

	userPrompt := fmt.Sprintf("Write a %s script of at most %d words about: %s",
		in.Style, in.MaxWords, in.Topic)

	content, err := svc.GetContent(ctx, []chatgpt.ChatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: userPrompt},
	}, chatgpt.CompletionOptions{
		Model:            in.Model,
		Temperature:      in.Temperature,
		RequestTimeoutMS: in.RequestTimeoutMS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate script: %w", err)
	}

	script, err := parseScript(content)
	if err != nil {
		return nil, err
	}

	words := len(strings.Fields(script.Hook)) +
		len(strings.Fields(script.Body)) +
		len(strings.Fields(script.CallToAction))

	if in.Output != "" {
		if err := utils.EnsureDir(in.Output); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		text := script.Hook + "\n\n" + script.Body + "\n\n" + script.CallToAction + "\n"
		if err := utils.WriteTextFile(filepath.Join(in.Output, "script.txt"), text); err != nil {
			return nil, fmt.Errorf("failed to persist script: %w", err)
		}
	}

	return modules.Output(Output{Script: *script, WordCount: words})
}

// service returns the chat service, creating the real one on first use. One
// adapter serves concurrent runs, so the first initialization outcome is
// cached for the adapter's lifetime.
func (m *Module) service() (chatgpt.Servicer, error) {
	m.initOnce.Do(func() {
		if m.chatService != nil {
			return
		}
		svc, err := chatgpt.New()
		if err != nil {
			m.initErr = err
			return
		}
		m.chatService = svc
	})
	return m.chatService, m.initErr
}

// parseScript decodes the model reply, tolerating markdown code fences the
// model sometimes adds despite instructions
func parseScript(content string) (*Script, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var script Script
	if err := json.Unmarshal([]byte(cleaned), &script); err != nil {
		return nil, fmt.Errorf("failed to parse script response: %w", err)
	}
	if script.Hook == "" || script.Body == "" {
		return nil, fmt.Errorf("script response is missing hook or body")
	}
	return &script, nil
}
