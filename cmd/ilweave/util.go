package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/ilweave/bytecode"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func isTerminalOutput() bool {
	stdout := os.Stdout.Fd()
	return isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminalOutput() {
		color.NoColor = true
	}
}

var outputFormatsCompletion = []string{"json", "text"}

func getOutput(result any, format string) (string, error) {
	switch strings.ToLower(format) {
	case "":
		if result == nil {
			return "", nil
		}
		output, err := getOutputJSON(result)
		if err != nil {
			return fmt.Sprintf("%v", result), nil
		}
		return string(output), nil
	case "json":
		output, err := getOutputJSON(result)
		if err != nil {
			return "", err
		}
		return string(output), nil
	case "text":
		return fmt.Sprintf("%v", result), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func getOutputJSON(result any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}

// parseArgs converts command line arguments to values of the method's
// parameter types.
func parseArgs(m *bytecode.Method, args []string) ([]any, error) {
	if len(args) != m.ParameterCount() {
		return nil, fmt.Errorf("%s takes %d argument(s) (%d given)", m.FullName(), m.ParameterCount(), len(args))
	}
	values := make([]any, len(args))
	for i, arg := range args {
		p := m.ParameterAt(i)
		switch {
		case p.Type.Same(bytecode.Int32Type):
			n, err := strconv.ParseInt(arg, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %s: %w", p.Name, err)
			}
			values[i] = int32(n)
		case p.Type.Same(bytecode.BooleanType):
			b, err := strconv.ParseBool(arg)
			if err != nil {
				return nil, fmt.Errorf("argument %s: %w", p.Name, err)
			}
			values[i] = b
		default:
			values[i] = arg
		}
	}
	return values, nil
}
