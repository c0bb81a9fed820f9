package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/ilweave/bytecode"
	"github.com/deepnoodle-ai/ilweave/dis"
	"github.com/deepnoodle-ai/ilweave/vm"
)

type methodSummary struct {
	Name      string         `json:"name"`
	Signature string         `json:"signature"`
	Stats     bytecode.Stats `json:"stats"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the methods of the module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		module, err := loadModule()
		if err != nil {
			return err
		}
		var summaries []methodSummary
		for _, name := range module.MethodNames() {
			m, err := module.Method(name)
			if err != nil {
				return err
			}
			summaries = append(summaries, methodSummary{
				Name:      name,
				Signature: m.Signature(),
				Stats:     m.Body().Stats(),
			})
		}
		format, _ := cmd.Flags().GetString("output")
		if format == "" || format == "text" {
			for _, s := range summaries {
				fmt.Fprintln(cmd.OutOrStdout(), s.Signature)
			}
			return nil
		}
		output, err := getOutput(summaries, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), output)
		return nil
	},
}

var disCmd = &cobra.Command{
	Use:   "dis METHOD",
	Short: "Disassemble a method",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := lookupMethod(args[0])
		if err != nil {
			return err
		}
		if err := bytecode.Verify(m); err != nil {
			log := logger()
			log.Warn().Err(err).Str("method", m.FullName()).Msg("method does not verify")
		}
		instructions, err := dis.Disassemble(m)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, m.Signature())
		if err := dis.Print(instructions, out); err != nil {
			return err
		}
		return dis.PrintHandlers(dis.Handlers(m), out)
	},
}

var runCmd = &cobra.Command{
	Use:   "run METHOD [ARGS...]",
	Short: "Execute a method",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := lookupMethod(args[0])
		if err != nil {
			return err
		}
		values, err := parseArgs(m, args[1:])
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []vm.Option
		if trace, _ := cmd.Flags().GetBool("trace"); trace {
			opts = append(opts, vm.WithObserver(vm.NewTraceObserver(traceLogger(), vm.StepAll)))
		}
		result, err := vm.Run(ctx, m, values, opts...)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("output")
		output, err := getOutput(result, format)
		if err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintln(cmd.OutOrStdout(), output)
		}
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump METHOD FILE",
	Short: "Write a method image to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := lookupMethod(args[0])
		if err != nil {
			return err
		}
		data, err := bytecode.Marshal(m)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return err
		}
		log := logger()
		log.Info().Str("method", m.FullName()).Int("bytes", len(data)).Str("file", args[1]).Msg("wrote method image")
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, runCmd} {
		cmd.Flags().StringP("output", "o", "", "Output format (json, text)")
		cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
		})
	}
	runCmd.Flags().Bool("trace", false, "Log every executed instruction at debug level")
}
