// Package executor executes code-style edit actions emitted by the coding
// agent against a cloned template slide. The action grammar is a small
// line-based call syntax; each call maps to one edit API.
package executor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/deck-agent/internal/presentation"
	"github.com/jonathan/deck-agent/internal/types"
)

// Feedback reports a failed execution back to the coding agent. A nil
// *Feedback signals success.
type Feedback struct {
	Message   string
	Traceback string
}

// CodeExecutor parses and applies edit-action code blocks, keeping
// append-only logs of attempted code and individual API calls.
type CodeExecutor struct {
	retryTimes  int
	codeHistory []types.CodeRecord
	apiHistory  []string
}

// New creates a code executor. retryTimes only annotates the executor for
// history reporting; the retry loop itself lives in the slide editor.
func New(retryTimes int) *CodeExecutor {
	return &CodeExecutor{retryTimes: retryTimes}
}

// APIDocs returns the edit API documentation handed to the coding agent.
func (e *CodeExecutor) APIDocs() string {
	return `Available APIs (one call per line, string arguments double-quoted):

replace_paragraph("element name", index, "new text")
    Replace the paragraph at the zero-based index of a text element.

clone_paragraph("element name", index)
    Duplicate the paragraph at the index, appending the copy after it.
    Use it before replace_paragraph when the new content has more
    paragraphs than the template.

del_paragraph("element name", index)
    Delete the paragraph at the index. Use it when the new content has
    fewer paragraphs than the template.

replace_image("element name", "image path or caption")
    Point an image element at a new image. Captions are resolved against
    the source document's media set.

del_image("element name")
    Clear an image element that the new content does not use.`
}

// actionPattern matches one API call line: name(arg, arg, ...).
var actionPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// ExecuteActions applies a code block to the slide. The document resolves
// image captions to paths. Returns nil on success; otherwise feedback
// naming the offending line.
func (e *CodeExecutor) ExecuteActions(code string, slide *presentation.SlidePage, doc *types.Document) *Feedback {
	var feedback *Feedback
	for lineNo, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if err := e.executeLine(line, slide, doc); err != nil {
			feedback = &Feedback{
				Message:   err.Error(),
				Traceback: fmt.Sprintf("line %d: %s\n%v", lineNo+1, line, err),
			}
			break
		}
	}

	outcome := types.OutcomeCorrect
	if feedback != nil {
		outcome = feedback.Message
	}
	e.codeHistory = append(e.codeHistory, types.CodeRecord{
		Code:       code,
		Outcome:    outcome,
		TemplateID: slide.TemplateID,
	})
	return feedback
}

func (e *CodeExecutor) executeLine(line string, slide *presentation.SlidePage, doc *types.Document) error {
	match := actionPattern.FindStringSubmatch(line)
	if match == nil {
		return fmt.Errorf("unparseable action: %q", line)
	}
	name, rawArgs := match[1], match[2]
	args, err := splitArgs(rawArgs)
	if err != nil {
		return fmt.Errorf("bad arguments in %q: %w", line, err)
	}
	e.apiHistory = append(e.apiHistory, name)

	switch name {
	case "replace_paragraph":
		element, index, text, err := paragraphArgs(args, 3)
		if err != nil {
			return err
		}
		shape, err := slide.Shape(element)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(shape.Paragraphs) {
			return fmt.Errorf("paragraph index out of range for %q: %d", element, index)
		}
		shape.Paragraphs[index] = text
		return nil

	case "clone_paragraph":
		element, index, _, err := paragraphArgs(args, 2)
		if err != nil {
			return err
		}
		shape, err := slide.Shape(element)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(shape.Paragraphs) {
			return fmt.Errorf("paragraph index out of range for %q: %d", element, index)
		}
		shape.Paragraphs = append(shape.Paragraphs, "")
		copy(shape.Paragraphs[index+2:], shape.Paragraphs[index+1:])
		shape.Paragraphs[index+1] = shape.Paragraphs[index]
		return nil

	case "del_paragraph":
		element, index, _, err := paragraphArgs(args, 2)
		if err != nil {
			return err
		}
		shape, err := slide.Shape(element)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(shape.Paragraphs) {
			return fmt.Errorf("paragraph index out of range for %q: %d", element, index)
		}
		shape.Paragraphs = append(shape.Paragraphs[:index], shape.Paragraphs[index+1:]...)
		return nil

	case "replace_image":
		if len(args) != 2 {
			return fmt.Errorf("replace_image expects 2 arguments, got %d", len(args))
		}
		shape, err := slide.Shape(args[0])
		if err != nil {
			return err
		}
		if shape.Type != "image" {
			return fmt.Errorf("shape %q is not an image element", args[0])
		}
		target := args[1]
		// The coder may hand back either a path or a caption.
		if path, err := doc.FindCaption(target); err == nil {
			shape.Caption = target
			shape.Source = path
			return nil
		}
		shape.Source = target
		return nil

	case "del_image":
		if len(args) != 1 {
			return fmt.Errorf("del_image expects 1 argument, got %d", len(args))
		}
		shape, err := slide.Shape(args[0])
		if err != nil {
			return err
		}
		if shape.Type != "image" {
			return fmt.Errorf("shape %q is not an image element", args[0])
		}
		shape.Source = ""
		shape.Caption = ""
		return nil

	default:
		return fmt.Errorf("unknown API: %q", name)
	}
}

func paragraphArgs(args []string, want int) (element string, index int, text string, err error) {
	if len(args) != want {
		return "", 0, "", fmt.Errorf("expected %d arguments, got %d", want, len(args))
	}
	index, err = strconv.Atoi(args[1])
	if err != nil {
		return "", 0, "", fmt.Errorf("paragraph index must be an integer: %q", args[1])
	}
	if want == 3 {
		text = args[2]
	}
	return args[0], index, text, nil
}

// splitArgs splits a comma-separated argument list, honoring double quotes
// and backslash escapes inside quoted strings.
func splitArgs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var args []string
	var current strings.Builder
	inQuote, escaped := false, false
	for _, r := range raw {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && inQuote:
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case r == ',' && !inQuote:
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string")
	}
	args = append(args, strings.TrimSpace(current.String()))
	return args, nil
}

// CodeHistory returns the attempted code blocks in order.
func (e *CodeExecutor) CodeHistory() []types.CodeRecord {
	return e.codeHistory
}

// APIHistory returns the names of every parsed API call in order.
func (e *CodeExecutor) APIHistory() []string {
	return e.apiHistory
}

// Merge appends another executor's logs, used when aggregating per-slide
// executors into the run history in outline order.
func (e *CodeExecutor) Merge(other *CodeExecutor) {
	if other == nil {
		return
	}
	e.codeHistory = append(e.codeHistory, other.codeHistory...)
	e.apiHistory = append(e.apiHistory, other.apiHistory...)
}
