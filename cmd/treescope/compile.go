package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/kpumuk/treescope/internal/appconfig"
	"github.com/kpumuk/treescope/internal/compile"
	"github.com/kpumuk/treescope/internal/session"
	"github.com/kpumuk/treescope/internal/tree"
)

func newCompileCmd() *cobra.Command {
	var cfgPath string
	var stage string
	var dump string
	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile one source file and dump a pipeline view",
		Long:  "Compile a file (or stdin when omitted) through the configured backend and print tokens, trees, recovery records, or formatter output.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := compile.Stage(stage)
			if !st.Valid() {
				return fmt.Errorf("invalid stage %q", stage)
			}

			source, err := readSource(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			logger := pslog.Ctx(cmd.Context())
			backend, closeBackend, err := buildBackend(cfg, logger)
			if err != nil {
				return err
			}
			if closeBackend != nil {
				defer closeBackend()
			}

			sess := session.New(backend, session.Config{Stage: st}, logger)
			res := sess.CompileNow(cmd.Context(), source)
			if !res.OK() {
				if res.ErrLoc != nil {
					return fmt.Errorf("compile failed at line %d, col %d: %s", res.ErrLoc.Line, res.ErrLoc.Col, res.Err)
				}
				return fmt.Errorf("compile failed: %s", res.Err)
			}

			out := cmd.OutOrStdout()
			switch dump {
			case "tokens":
				dumpTokens(out, res.Tokens)
			case "tree":
				dumpTree(out, res.Tree(false), 0)
			case "lowered":
				dumpTree(out, res.Tree(true), 0)
			case "recovery":
				dumpRecovery(out, res.Recovery)
			case "formatted":
				fmt.Fprint(out, res.Formatted)
			default:
				return fmt.Errorf("unknown dump %q (tokens, tree, lowered, recovery, formatted)", dump)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&stage, "stage", string(compile.StageAll), "pipeline stage (parse, lower, infer, all)")
	cmd.Flags().StringVar(&dump, "dump", "tree", "view to print (tokens, tree, lowered, recovery, formatted)")
	return cmd
}

func readSource(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func dumpTokens(w io.Writer, tokens []compile.Token) {
	for _, tok := range tokens {
		mate := ""
		if tok.Mate != nil {
			mate = fmt.Sprintf(" mate=%d", *tok.Mate)
		}
		fmt.Fprintf(w, "%-16s %-10s %q%s\n", tok.Kind, tok.Span, tok.Text, mate)
	}
}

func dumpTree(w io.Writer, node *tree.ResolvedNode, depth int) {
	if node == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	label := node.Kind
	if node.FieldName != "" {
		label = node.FieldName + ": " + label
	}
	if node.HasSpan() {
		fmt.Fprintf(w, "%s%s %s\n", indent, label, node.Span)
	} else {
		fmt.Fprintf(w, "%s%s\n", indent, label)
	}
	for _, child := range node.Children {
		dumpTree(w, child, depth+1)
	}
}

func dumpRecovery(w io.Writer, records []compile.RecoveryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no recovery records")
		return
	}
	for _, rec := range records {
		sev := rec.Severity
		if sev == "" {
			sev = "info"
		}
		if rec.Code != "" {
			fmt.Fprintf(w, "%-7s %s %s: %s\n", sev, rec.Span, rec.Code, rec.Message)
			continue
		}
		fmt.Fprintf(w, "%-7s %s %s\n", sev, rec.Span, rec.Message)
	}
}
