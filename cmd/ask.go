package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/askcampus/askcampus/internal/app"
)

func runAsk(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	classID := fs.Int("class", 0, "class id to search")
	topK := fs.Int("k", 0, "retrieval depth (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *classID <= 0 {
		return fmt.Errorf("ask: -class is required")
	}
	question := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("ask: question must not be empty")
	}

	k := *topK
	if k == 0 {
		k = a.Config.AskTopK
	}

	ans, err := a.Ask.Ask(ctx, question, int32(*classID), k)
	if err != nil {
		return err
	}

	fmt.Println(ans.Text)
	if len(ans.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range ans.Sources {
			fmt.Printf("%2d. %s (score %.2f)\n", i+1, src.Name, src.Score)
		}
	}
	return nil
}
