package broker

import "github.com/deepchat/deepchat/internal/llm"

// toolSpecDefs lists spec.md §4.7's six tool classes with the JSON
// schemas matching dispatch.go's arg structs (fileArgs, listDirArgs,
// modifyFileArgs, codeExecArgs, webSearchArgs), so a ToolSpec's schema
// always agrees with what Dispatch actually unmarshals.
var toolSpecDefs = []llm.ToolSpec{
	{
		Name:        "web_search",
		Description: "Search the web for current information and return a summarized answer with sources.",
		Schema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
			"required":   []string{"query"},
		},
	},
	{
		Name:        "read_file",
		Description: "Read a file's raw contents from the workspace.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path":         map[string]interface{}{"type": "string"},
				"line_numbers": map[string]interface{}{"type": "boolean"},
			},
			"required": []string{"path"},
		},
	},
	{
		Name:        "read_code",
		Description: "Read a source file from the workspace; set line_numbers to prefix each line with its 1-based number.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path":         map[string]interface{}{"type": "string"},
				"line_numbers": map[string]interface{}{"type": "boolean"},
			},
			"required": []string{"path"},
		},
	},
	{
		Name:        "list_dir",
		Description: "List a directory's entries in the workspace, optionally filtered by a glob pattern (e.g. \"*.go\").",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path":    map[string]interface{}{"type": "string"},
				"pattern": map[string]interface{}{"type": "string"},
			},
			"required": []string{"path"},
		},
	},
	{
		Name:        "modify_file",
		Description: "Write new content to a file in the workspace. Requires human approval before taking effect.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path":    map[string]interface{}{"type": "string"},
				"content": map[string]interface{}{"type": "string"},
			},
			"required": []string{"path", "content"},
		},
	},
	{
		Name:        "code_exec",
		Description: "Execute a snippet of code in a sandboxed interpreter. Requires human approval before running.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"language": map[string]interface{}{"type": "string"},
				"code":     map[string]interface{}{"type": "string"},
			},
			"required": []string{"language", "code"},
		},
	},
}

// ToolSpecs builds the []llm.ToolSpec to advertise to the model for a
// turn, filtered by the same enabled-map DispatchConfig.Enabled (and
// cmd/root.go's --enable-derived buildDispatchEnabled) uses to decide
// whether Dispatch will actually honor a call. A nil map advertises
// every class, matching DispatchConfig.enabled's "nil means allow all"
// convention; a read-only session still advertises modify_file (so the
// model can try it and receive the read_only refusal text) since
// read-only is a Dispatch-time policy, not an availability toggle.
func ToolSpecs(enabled map[string]bool) []llm.ToolSpec {
	if enabled == nil {
		out := make([]llm.ToolSpec, len(toolSpecDefs))
		copy(out, toolSpecDefs)
		return out
	}
	var out []llm.ToolSpec
	for _, spec := range toolSpecDefs {
		if enabled[spec.Name] {
			out = append(out, spec)
		}
	}
	return out
}
