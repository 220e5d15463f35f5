package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var chatFile string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a PDF interactively on the terminal",
	Long: `Loads the given PDF, builds its index, and answers questions read from
stdin until EOF or "exit". Each answer is grounded in the document and the
conversation so far.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "path to the PDF to chat with (required)")
	_ = chatCmd.MarkFlagRequired("file")
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	data, err := os.ReadFile(chatFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", chatFile, err)
	}

	fmt.Printf("Indexing %s...\n", chatFile)
	result, err := a.pipeline.Upload(ctx, a.session, data)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d pages (%d segments) in %s. Ask away.\n\n",
		result.Pages, result.Segments, result.Duration.Round(time.Millisecond))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		answer, err := a.pipeline.Ask(ctx, a.session, question)
		if err != nil {
			// A failed question is discarded; the conversation continues.
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", answer)
	}

	return scanner.Err()
}
