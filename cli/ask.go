package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github/itish2003/ddqchat/services"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var askKnowledgeFile string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Chat with the knowledge base in the terminal",
	Long: `Ask questions from the terminal.

With a question argument, answer it and exit. Without one, start an
interactive chat that remembers the conversation. Type /clear to forget the
conversation and exit to quit.`,
	Example: `  ddqchat ask "Who is the Auditor?"
  ddqchat ask --kb questionnaire.pdf`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askKnowledgeFile, "kb", "", "answer from this document instead of the default knowledge base")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := a.sessions.Create()
	if err := sess.Login(terminalUser(), "terminal"); err != nil {
		return err
	}

	if askKnowledgeFile != "" {
		data, err := os.ReadFile(askKnowledgeFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", askKnowledgeFile, err)
		}
		name := filepath.Base(askKnowledgeFile)
		text, err := a.extractor.ExtractText(name, data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		info := a.chat.UseDocument(sess, name, text)
		color.Cyan("Answering from %s (%d Q&A entries)", info.Name, info.Entries)
	}

	if len(args) > 0 {
		return askOnce(ctx, cmd.OutOrStdout(), a.chat, sess, strings.Join(args, " "))
	}
	return chatLoop(ctx, cmd.InOrStdin(), a.chat, sess)
}

func askOnce(ctx context.Context, out io.Writer, chat *services.ChatService, sess *services.Session, question string) error {
	resp, err := chat.Ask(ctx, sess, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, resp.Answer)
	return nil
}

func chatLoop(ctx context.Context, in io.Reader, chat *services.ChatService, sess *services.Session) error {
	messages := chat.Messages(sess)
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()
	userPrompt := color.New(color.FgGreen).PrintfFunc()

	assistantPrompt("%s\n", messages.Messages[0].Content)
	color.Cyan("\nAnswering from %s. Type 'exit' to quit, '/clear' to start over.", messages.Document.Name)

	scanner := bufio.NewScanner(in)
	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/clear":
			sess.ClearHistory()
			color.Yellow("Conversation cleared.")
			continue
		}

		spinner := getSpinner("Thinking...")
		stopSpinner := spin(spinner)
		resp, err := chat.Ask(ctx, sess, query)
		stopSpinner()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		tag := ""
		if resp.ExactMatch {
			tag = color.HiBlackString(" [knowledge base]")
		}
		assistantPrompt("Assistant:%s %s\n", tag, resp.Answer)
	}

	return scanner.Err()
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// spin animates bar until the returned func is called.
func spin(bar *progressbar.ProgressBar) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
		_ = bar.Finish()
		_ = bar.Clear()
	}
}

func terminalUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if u := strings.TrimSpace(os.Getenv(key)); u != "" {
			return u
		}
	}
	return "terminal"
}
