package lexgrep

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dhamidi/lexgrep/session"
)

// DefaultModel is the model the research agent uses unless overridden.
const DefaultModel = "gemini-2.5-pro-preview-03-25"

// systemPrompt instructs the model how to research German legal questions
// with the corpus tools. The corpus is German, so the prompt is too.
const systemPrompt = `Du bist ein juristischer Rechercheassistent für deutsches Recht.
Dir steht ein Korpus aus Gesetzen (gesetze/) und Gerichtsentscheidungen
(urteile_markdown_by_year/) zur Verfügung, zugänglich über Werkzeuge:

1) list_paths: Dateien unterhalb eines Unterverzeichnisses auflisten.
2) file_search: Dateien finden, deren Inhalt eine boolesche Anfrage erfüllt
   (AND/OR, Klammern), z.B. "BGB AND Kündigung".
3) search_rg: präzise zeilenweise Suche. Liefert Treffer mit Kontext,
   nächstem Abschnitts-Header und byte_range.
4) read_file_range: Textausschnitt lesen. Die byte_range-Werte aus search_rg
   können direkt übergeben werden.
5) elasticsearch_search (falls verfügbar): Volltextsuche mit Ranking für den
   Einstieg in ein Thema.

Arbeitsweise:
- Beginne breit (elasticsearch_search oder file_search), dann benutze
  search_rg für präzise Fundstellen in einer oder mehreren Dateien.
- Suche auch in der neueren Rechtsprechung im Ordner urteile_markdown_by_year.
- Zitiere Fundstellen mit Datei, Paragraph bzw. Abschnitt und wörtlichem Text.
- Antworte auf Deutsch, knapp und mit Quellenangaben.`

// Research starts the interactive research agent on stdin/stdout. It is the
// entry point the CLI uses.
func Research(kit *Toolkit, modelName string, sessionLog *session.Log) error {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("initializing client: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	getUserMessage := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}

	agent := NewAgent(client, getUserMessage, kit.Tools(), systemPrompt)
	agent.sessionLog = sessionLog
	if modelName != "" {
		agent.ChooseModel(modelName)
	}
	return agent.Run(ctx)
}

// Agent drives the conversation loop: user question, model response, tool
// calls, tool results, repeat.
type Agent struct {
	client            *genai.Client
	getUserMessage    func() (string, bool)
	tools             ToolBox
	tracingEnabled    bool
	systemInstruction string
	history           []*genai.Content
	modelName         string
	sessionLog        *session.Log
}

func NewAgent(client *genai.Client, getUserMessage func() (string, bool), tools ToolBox, systemInstruction string) *Agent {
	return &Agent{
		client:            client,
		getUserMessage:    getUserMessage,
		tools:             tools,
		systemInstruction: systemInstruction,
		modelName:         DefaultModel,
	}
}

func (agent *Agent) ChooseModel(modelName string) *Agent {
	agent.modelName = modelName
	return agent
}

func (agent *Agent) EnableTracing() *Agent {
	agent.tracingEnabled = true
	return agent
}

// Run loops until the user closes stdin. Tool results are fed back to the
// model until it answers without further calls.
func (agent *Agent) Run(ctx context.Context) error {
	if agent.history == nil {
		agent.history = []*genai.Content{}
	}
	fmt.Printf("Rechtsrecherche mit %s (Strg-C zum Beenden)\n", agent.modelName)
	fmt.Printf("Verfügbare Werkzeuge: %s\n", strings.Join(agent.tools.Names(), ", "))
	readUserInput := true
	for {
		if readUserInput {
			fmt.Printf("[94mFrage [%d][0m: ", len(agent.history))
			userInput, ok := agent.getUserMessage()
			if !ok {
				break
			}
			if strings.TrimSpace(userInput) == "/trace" {
				agent.EnableTracing()
				continue
			}
			if strings.TrimSpace(userInput) == "" {
				continue
			}
			agent.history = append(agent.history, genai.NewContentFromText(userInput, genai.RoleUser))
		}

		response, err := agent.runInference(ctx, agent.history)
		if err != nil {
			return err
		}

		if len(response.Candidates) == 0 {
			agent.errorMessage("empty response received")
			readUserInput = true
			continue
		}

		responseMessage := response.Candidates[0].Content
		agent.history = append(agent.history, responseMessage)
		toolResults := []*genai.Content{}

		for _, content := range responseMessage.Parts {
			if content.Text != "" {
				agent.modelMessage("%s", content.Text)
			} else if content.FunctionCall != nil {
				toolResults = append(toolResults, agent.executeTool(content.FunctionCall))
			}
		}

		if len(toolResults) == 0 {
			readUserInput = true
			continue
		}
		readUserInput = false
		agent.history = append(agent.history, toolResults...)
	}
	return nil
}

func (agent *Agent) executeTool(call *genai.FunctionCall) *genai.Content {
	agent.toolMessage("%s", FormatFunctionCall(call))
	tool, found := agent.tools.Get(call.Name)
	if !found {
		agent.toolMessage("%s", "not found")
		return genai.NewContentFromFunctionResponse(call.Name, map[string]any{"error": "tool not found"}, genai.RoleUser)
	}
	result, err := tool.Function(call.Args)
	if err != nil {
		agent.toolMessage("%s", err)
		result = map[string]any{"error": err.Error()}
	} else {
		agent.toolMessage("%s", CropText(AsJSON(result), 70))
	}
	if agent.sessionLog != nil {
		if logErr := agent.sessionLog.Record(call.Name, call.Args, result); logErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: session log: %v\n", logErr)
		}
	}
	return genai.NewContentFromFunctionResponse(call.Name, result, genai.RoleUser)
}

func (agent *Agent) errorMessage(fmtStr string, value ...any) {
	fmt.Printf("[91mFehler [%d][0m: "+fmtStr+"\n", append([]any{len(agent.history)}, value...)...)
}

func (agent *Agent) toolMessage(fmtStr string, value ...any) {
	fmt.Printf("[95mWerkzeug [%d][0m: "+fmtStr+"\n", append([]any{len(agent.history)}, value...)...)
}

func (agent *Agent) modelMessage(fmtStr string, value ...any) {
	fmt.Printf("[93mAntwort [%d][0m: "+fmtStr+"\n", append([]any{len(agent.history)}, value...)...)
}

func (agent *Agent) trace(direction string, arg any) {
	if !agent.tracingEnabled {
		return
	}
	fmt.Printf("[90mTrace [%d] %s[0m: %s\n", len(agent.history), direction, AsJSON(arg))
}

func (agent *Agent) runInference(ctx context.Context, conversation []*genai.Content) (*genai.GenerateContentResponse, error) {
	agent.trace(">", conversation)

	var response *genai.GenerateContentResponse
	var err error
	retryDelays := []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}

	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		config := &genai.GenerateContentConfig{
			MaxOutputTokens: 4 * 1024,
		}
		if len(agent.tools) > 0 {
			config.Tools = []*genai.Tool{agent.tools.List()}
		}
		if strings.TrimSpace(agent.systemInstruction) != "" {
			config.SystemInstruction = genai.NewContentFromText(agent.systemInstruction, genai.RoleUser)
		}

		response, err = agent.client.Models.GenerateContent(ctx, agent.modelName, conversation, config)
		if err == nil {
			agent.trace("<", response)
			return response, nil
		}
		if !strings.Contains(err.Error(), "An internal error has occurred") && !strings.Contains(err.Error(), "server error") {
			return response, err
		}
		if attempt < len(retryDelays) {
			fmt.Fprintf(os.Stderr, "Attempt %d: API error: %v; retrying in %s\n", attempt+1, err, retryDelays[attempt])
			time.Sleep(retryDelays[attempt])
		}
	}
	return response, fmt.Errorf("after %d attempts, last error: %w", len(retryDelays)+1, err)
}
