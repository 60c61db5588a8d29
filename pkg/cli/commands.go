package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/pkg/alerts"
	"github.com/recallhq/recall/pkg/insight"
	"github.com/recallhq/recall/pkg/patterns"
	"github.com/recallhq/recall/pkg/quiz"
	"github.com/recallhq/recall/pkg/relevance"
)

func newAlertsCommand(e *env) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show prioritized alerts",
		Long: `Show up to five prioritized alerts for the tag.

Mode "coach" asks the configured generator and falls back to the rule engine;
mode "rules" uses the rule engine only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.svc.Insight.Alerts(cmd.Context(), e.opts.tag, insight.ParseAlertMode(mode))
			if err != nil {
				return fmt.Errorf("alerts: %w", err)
			}
			if e.text() {
				printAlerts(cmd.OutOrStdout(), res)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(insight.ModeCoach), "Alert mode: coach or rules")
	return cmd
}

func printAlerts(w io.Writer, res alerts.Result) {
	if len(res.Alerts) == 0 {
		fmt.Fprintln(w, "No alerts.")
		return
	}
	for i, a := range res.Alerts {
		fmt.Fprintf(w, "%d. [%s] %s (priority %d)\n", i+1, a.Type, a.Title, a.Priority)
		fmt.Fprintf(w, "   %s\n", a.Message)
		if a.Action != "" {
			fmt.Fprintf(w, "   -> %s\n", a.Action)
		}
	}
	if res.Degraded {
		fmt.Fprintf(w, "\n(source: %s, fallback: %s)\n", res.Source, res.FallbackReason)
	}
}

func newPatternsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Detect learning habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := e.svc.Insight.Patterns(cmd.Context(), e.opts.tag)
			if err != nil {
				return fmt.Errorf("patterns: %w", err)
			}
			if ps == nil {
				ps = []patterns.Pattern{}
			}
			if e.text() {
				if len(ps) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Not enough history to detect patterns.")
				}
				for _, p := range ps {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s (%.0f%%): %s\n", p.Title, p.Confidence*100, p.Description)
				}
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), ps)
		},
	}
}

func newSearchCommand(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank memories by relevance to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			results, err := e.svc.Insight.Search(cmd.Context(), e.opts.tag, query, limit)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if results == nil {
				results = []relevance.ScoredRecord{}
			}
			if e.text() {
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
				}
				for i, r := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s] %s (score %d)\n",
						i+1, r.Record.Metadata.Type, snippet(r.Record.Content, 80), r.Score)
				}
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Max results")
	return cmd
}

func newDigestCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Build the weekly digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := e.svc.Insight.Digest(cmd.Context(), e.opts.tag)
			if err != nil {
				return fmt.Errorf("digest: %w", err)
			}
			if e.text() {
				fmt.Fprint(cmd.OutOrStdout(), d.Body)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), d)
		},
	}
}

func newQuizCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Practice and score memories",
	}
	cmd.AddCommand(newQuizAnswerCommand(e), newQuizQuestionsCommand(e))
	return cmd
}

func newQuizAnswerCommand(e *env) *cobra.Command {
	var correct, wrong bool

	cmd := &cobra.Command{
		Use:   "answer <memory-id>",
		Short: "Record a quiz answer and update retention",
		Long: `Record whether a quiz answer was correct. With --file the export is
rewritten with the updated retention score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if correct == wrong {
				return fmt.Errorf("pass exactly one of --correct or --wrong")
			}
			out, err := e.svc.Quiz.Answer(cmd.Context(), e.opts.tag, args[0], correct)
			if err != nil {
				return fmt.Errorf("answer: %w", err)
			}
			if err := e.persist(cmd.Context()); err != nil {
				return fmt.Errorf("save export: %w", err)
			}
			if e.text() {
				fmt.Fprintf(cmd.OutOrStdout(), "Retention %.0f%% (%d/%d correct)\n",
					out.RetentionScore*100, out.CorrectAttempts, out.QuizAttempts)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&correct, "correct", false, "The answer was correct")
	cmd.Flags().BoolVar(&wrong, "wrong", false, "The answer was wrong")
	return cmd
}

func newQuizQuestionsCommand(e *env) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Generate practice questions for the weakest memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := e.svc.Quiz.Questions(cmd.Context(), e.opts.tag, count)
			if err != nil {
				return fmt.Errorf("questions: %w", err)
			}
			if qs == nil {
				qs = []quiz.Question{}
			}
			if e.text() {
				for i, q := range qs {
					fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, q.Prompt)
					for j, opt := range q.Options {
						fmt.Fprintf(cmd.OutOrStdout(), "   %c) %s\n", 'a'+j, opt)
					}
				}
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), qs)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of questions")
	return cmd
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
