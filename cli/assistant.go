package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"library-catalog/recommend"
)

var (
	// Recommend flags
	recStrategy string
	recCount    int

	// Chat flags
	chatTranscript string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [student-id]",
	Short: "Recommend books for a student",
	Long: `Rank books for a student. Without a student id only the general
strategies (popular, trending) can produce results.

Examples:
  library recommend S1                      # Hybrid ranking
  library recommend S1 --strategy course    # Titles from the student's course
  library recommend --strategy trending -n 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := recommend.ParseStrategy(recStrategy)
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		studentID := ""
		if len(args) == 1 {
			studentID = args[0]
		}
		printRecommendations(cmd.OutOrStdout(), a.mgr.Recommend(cmd.Context(), studentID, strategy, recCount))
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat [question...]",
	Short: "Ask the library assistant",
	Long: `Ask a single question, or start a conversation when no question is given.

Examples:
  library chat what are the library timings
  library chat --transcript chat_history.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			fmt.Fprintln(out, a.mgr.Chat(cmd.Context(), strings.Join(args, " ")).Text)
			return nil
		}

		var transcript recommend.Transcript
		sc := bufio.NewScanner(cmd.InOrStdin())
		info(out, "Ask about books, courses or library rules. Blank line or 'bye' to leave.")
		for {
			fmt.Fprint(out, "You: ")
			if !sc.Scan() {
				break
			}
			q := strings.TrimSpace(sc.Text())
			if q == "" || strings.EqualFold(q, "bye") {
				break
			}
			answer := a.mgr.Chat(cmd.Context(), q)
			fmt.Fprintf(out, "Assistant: %s\n", answer.Text)
			transcript.Add(time.Now(), q, answer.Text)
		}
		if chatTranscript != "" && transcript.Len() > 0 {
			if err := writeTranscript(chatTranscript, &transcript); err != nil {
				return err
			}
			success(out, "Saved %d exchanges to %s.", transcript.Len(), chatTranscript)
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVarP(&recStrategy, "strategy", "s", "hybrid", "hybrid, popular, trending, course or collaborative")
	recommendCmd.Flags().IntVarP(&recCount, "count", "n", 0, "Number of results (0 uses recommend.top_n)")
	chatCmd.Flags().StringVar(&chatTranscript, "transcript", "", "Write the conversation to this file on exit")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(chatCmd)
}

func printRecommendations(w io.Writer, recs []recommend.Recommendation) {
	if len(recs) == 0 {
		info(w, "No recommendations available yet.")
		return
	}
	rows := make([][]string, 0, len(recs))
	for i, r := range recs {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.BookID, r.Name, r.Author})
	}
	table(w, []int{3, 8, 36, 24}, []string{"#", "ID", "Name", "Author"}, rows)
}

func writeTranscript(path string, t *recommend.Transcript) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := t.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
