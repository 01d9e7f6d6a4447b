package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(name)) {
	case OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	case OutputFormatYAML:
		return OutputFormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", name)
	}
}

// rowKeys are the envelope fields rendered as a row table.
var rowKeys = []string{"results", "data"}

// summaryKeys are the scalar envelope fields shown above the rows.
var summaryKeys = []string{"status", "query", "log_group", "table", "count", "tenant", "timestamp"}

// preferredColumns lead the column order when present.
var preferredColumns = []string{"@timestamp", "@message", "id", "name", "count"}

const maxColumns = 6

// ExecutorOptions contains options for tool execution
type ExecutorOptions struct {
	Format OutputFormat
	Quiet  bool

	// Out and ErrOut default to the process streams.
	Out    io.Writer
	ErrOut io.Writer
}

// ToolExecutor calls tools and renders their envelopes
type ToolExecutor struct {
	client  *CLIClient
	options ExecutorOptions
}

// NewToolExecutor creates a new tool executor
func NewToolExecutor(client *CLIClient, options ExecutorOptions) *ToolExecutor {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}
	if options.ErrOut == nil {
		options.ErrOut = os.Stderr
	}
	return &ToolExecutor{
		client:  client,
		options: options,
	}
}

// Connect establishes connection to the server
func (e *ToolExecutor) Connect(ctx context.Context) error {
	return e.client.Connect(ctx)
}

// Close closes the connection
func (e *ToolExecutor) Close() error {
	return e.client.Close()
}

// Execute executes a tool and formats the output
func (e *ToolExecutor) Execute(ctx context.Context, toolName string, arguments map[string]interface{}) error {
	result, err := e.client.CallTool(ctx, toolName, arguments)
	if err != nil {
		return fmt.Errorf("failed to execute tool %s: %w", toolName, err)
	}

	if result.IsError {
		return e.formatError(result)
	}

	return e.formatOutput(result)
}

// ListResources prints the resources advertised by the server.
func (e *ToolExecutor) ListResources(ctx context.Context) error {
	resources, err := e.client.ListResources(ctx)
	if err != nil {
		return err
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].URI < resources[j].URI })

	switch e.options.Format {
	case OutputFormatJSON, OutputFormatYAML:
		rows := make([]map[string]interface{}, 0, len(resources))
		for _, res := range resources {
			rows = append(rows, map[string]interface{}{
				"uri":         res.URI,
				"name":        res.Name,
				"description": res.Description,
				"mimeType":    res.MIMEType,
			})
		}
		return e.outputStructured(rows)
	}

	if len(resources) == 0 {
		fmt.Fprintln(e.options.Out, text.FgYellow.Sprint("No resources found"))
		return nil
	}

	t := e.newTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("URI"),
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
	})
	for _, res := range resources {
		t.AppendRow(table.Row{res.URI, res.Name, e.formatDescription(res.Description)})
	}
	t.Render()
	return nil
}

// ReadResource prints the text of one resource.
func (e *ToolExecutor) ReadResource(ctx context.Context, uri string) error {
	content, err := e.client.ReadResource(ctx, uri)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.options.Out, content)
	return nil
}

// formatError prints the error envelope and returns it as an error
func (e *ToolExecutor) formatError(result *mcp.CallToolResult) error {
	raw := resultText(result)

	var env map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		fmt.Fprintf(e.options.ErrOut, "Error: %s\n", raw)
		return fmt.Errorf("%s", raw)
	}

	msg := fmt.Sprintf("%v", env["error"])
	if kind, ok := env["error_kind"]; ok {
		msg = fmt.Sprintf("%s (%v)", msg, kind)
	}
	if query, ok := env["query"]; ok && query != "" {
		fmt.Fprintf(e.options.ErrOut, "%s %v\n", text.FgHiBlack.Sprint("Query:"), query)
	}
	fmt.Fprintf(e.options.ErrOut, "%s %s\n", text.FgRed.Sprint("Error:"), msg)
	return fmt.Errorf("%s", msg)
}

// formatOutput formats the tool output according to the specified format
func (e *ToolExecutor) formatOutput(result *mcp.CallToolResult) error {
	raw := resultText(result)
	if raw == "" {
		if !e.options.Quiet {
			fmt.Fprintln(e.options.Out, "No results")
		}
		return nil
	}

	switch e.options.Format {
	case OutputFormatJSON:
		fmt.Fprintln(e.options.Out, raw)
		return nil
	case OutputFormatYAML:
		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		return e.outputStructured(data)
	case OutputFormatTable:
		return e.outputTable(raw)
	default:
		return fmt.Errorf("unsupported output format: %s", e.options.Format)
	}
}

func (e *ToolExecutor) outputStructured(data interface{}) error {
	if e.options.Format == OutputFormatJSON {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		fmt.Fprintln(e.options.Out, string(out))
		return nil
	}

	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	fmt.Fprint(e.options.Out, string(yamlData))
	return nil
}

// outputTable renders an envelope as a summary plus a row or metrics table
func (e *ToolExecutor) outputTable(jsonData string) error {
	var env map[string]interface{}
	if err := json.Unmarshal([]byte(jsonData), &env); err != nil {
		fmt.Fprintln(e.options.Out, jsonData)
		return nil
	}

	if !e.options.Quiet {
		e.formatSummary(env)
	}

	for _, key := range rowKeys {
		if rows, ok := env[key].([]interface{}); ok {
			return e.formatTableFromArray(rows)
		}
	}

	if metrics, ok := env["metrics"].(map[string]interface{}); ok {
		if err := e.formatKeyValueTable(metrics); err != nil {
			return err
		}
		if degraded, ok := env["degraded"].([]interface{}); ok && len(degraded) > 0 {
			names := make([]string, 0, len(degraded))
			for _, d := range degraded {
				names = append(names, fmt.Sprintf("%v", d))
			}
			fmt.Fprintf(e.options.Out, "%s %s\n", text.FgYellow.Sprint("Unavailable:"), strings.Join(names, ", "))
		}
	}
	return nil
}

// formatSummary prints the scalar envelope fields on single lines
func (e *ToolExecutor) formatSummary(env map[string]interface{}) {
	for _, key := range summaryKeys {
		value, ok := env[key]
		if !ok || value == nil {
			continue
		}
		fmt.Fprintf(e.options.Out, "%s %v\n", text.FgHiBlue.Sprint(key+":"), e.formatCellValue(key, value))
	}
	if stats, ok := env["statistics"].(map[string]interface{}); ok {
		fmt.Fprintf(e.options.Out, "%s matched=%v scanned=%v bytes=%v\n",
			text.FgHiBlue.Sprint("statistics:"),
			stats["recordsMatched"], stats["recordsScanned"], stats["bytesScanned"])
	}
}

// formatTableFromArray creates a table from an array of objects
func (e *ToolExecutor) formatTableFromArray(data []interface{}) error {
	if len(data) == 0 {
		fmt.Fprintln(e.options.Out, text.FgYellow.Sprint("No items found"))
		return nil
	}

	firstObj, ok := data[0].(map[string]interface{})
	if !ok {
		for _, item := range data {
			fmt.Fprintln(e.options.Out, item)
		}
		return nil
	}

	columns := e.optimizeColumns(firstObj)

	t := e.newTable()
	headers := make(table.Row, len(columns))
	for i, col := range columns {
		headers[i] = text.FgHiCyan.Sprint(strings.ToUpper(col))
	}
	t.AppendHeader(headers)

	for _, item := range data {
		if itemMap, ok := item.(map[string]interface{}); ok {
			row := make(table.Row, len(columns))
			for i, col := range columns {
				row[i] = e.formatCellValue(col, itemMap[col])
			}
			t.AppendRow(row)
		}
	}

	t.Render()
	return nil
}

// optimizeColumns picks the preferred columns first, then the remaining keys
// in name order, up to maxColumns
func (e *ToolExecutor) optimizeColumns(sample map[string]interface{}) []string {
	var columns []string
	used := make(map[string]bool)
	for _, col := range preferredColumns {
		if _, ok := sample[col]; ok {
			columns = append(columns, col)
			used[col] = true
		}
	}

	var rest []string
	for key := range sample {
		if !used[key] && !strings.HasPrefix(key, "@ptr") {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	for _, key := range rest {
		if len(columns) >= maxColumns {
			break
		}
		columns = append(columns, key)
	}
	return columns
}

// formatCellValue formats individual cell values with appropriate styling
func (e *ToolExecutor) formatCellValue(column string, value interface{}) interface{} {
	if value == nil {
		return text.FgHiBlack.Sprint("-")
	}

	switch v := value.(type) {
	case map[string]interface{}, []interface{}:
		encoded, _ := json.Marshal(v)
		return e.truncate(string(encoded), 40)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	}

	strValue := fmt.Sprintf("%v", value)
	switch strings.ToLower(column) {
	case "status":
		return e.formatStatus(strValue)
	case "query", "@message":
		return e.truncate(strValue, 80)
	default:
		return e.truncate(strValue, 40)
	}
}

// formatStatus adds color coding to the envelope status
func (e *ToolExecutor) formatStatus(status string) interface{} {
	switch strings.ToLower(status) {
	case "success":
		return text.FgGreen.Sprint("✅ " + status)
	case "error":
		return text.FgRed.Sprint("❌ " + status)
	default:
		return status
	}
}

// formatDescription truncates long descriptions appropriately
func (e *ToolExecutor) formatDescription(desc string) interface{} {
	return e.truncate(desc, 50)
}

// formatKeyValueTable formats an object as key-value pairs
func (e *ToolExecutor) formatKeyValueTable(data map[string]interface{}) error {
	t := e.newTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("METRIC"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t.AppendRow(table.Row{
			text.FgYellow.Sprint(key),
			e.formatCellValue(key, data[key]),
		})
	}

	t.Render()
	return nil
}

func (e *ToolExecutor) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(e.options.Out)
	t.SetStyle(table.StyleRounded)
	return t
}

// truncate shortens s to at most limit runes.
func (e *ToolExecutor) truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
