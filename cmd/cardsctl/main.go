// Command cardsctl drives the flashcards API from a terminal: generate
// proposals from a text file, review them with flags and save the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/vytor/tenxcards/internal/client"
	"github.com/vytor/tenxcards/internal/generate"
	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/review"
)

const usage = `Usage: cardsctl <command> [flags]

Commands:
  generate   generate proposals from a text file, review and save them
  add        create one manual flashcard
  list       list saved flashcards

Run "cardsctl <command> --help" for command flags.
`

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type globalOpts struct {
	server  string
	token   string
	verbose bool
	timeout time.Duration
}

func (g *globalOpts) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.server, "server", envOr("TENXCARDS_URL", "http://localhost:8080"), "API base URL (env TENXCARDS_URL)")
	fs.StringVar(&g.token, "token", os.Getenv("TENXCARDS_TOKEN"), "access token (env TENXCARDS_TOKEN)")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "log requests")
	fs.DurationVar(&g.timeout, "timeout", 0, "override the per-call timeout")
}

func (g *globalOpts) client(stderr io.Writer) (*client.Client, context.Context) {
	level := logger.WARN
	if g.verbose {
		level = logger.DEBUG
	}
	log := logger.New(logger.WithOutput(stderr), logger.WithLevel(level), logger.WithCaller(false))
	logger.SetDefault(log)

	c := client.New(g.server, g.token)
	if g.timeout > 0 {
		c.GenerateTimeout = g.timeout
		c.SaveTimeout = g.timeout
		c.DefaultTimeout = g.timeout
	}
	return c, logger.NewContext(context.Background(), log)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	var err error
	switch args[0] {
	case "generate":
		err = runGenerate(args[1:], stdout, stderr)
	case "add":
		err = runAdd(args[1:], stdout, stderr)
	case "list":
		err = runList(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func runGenerate(args []string, stdout, stderr io.Writer) error {
	var (
		g       globalOpts
		file    string
		model   string
		accept  []int
		reject  []int
		edits   []string
		save    string
		asJSON  bool
		hourCap int
	)
	fs := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	fs.StringVarP(&file, "file", "f", "", "source text file, - for stdin (required)")
	fs.StringVar(&model, "model", generate.DefaultModel, "LLM model")
	fs.IntSliceVar(&accept, "accept", nil, "proposal indexes to accept")
	fs.IntSliceVar(&reject, "reject", nil, "proposal indexes to reject")
	fs.StringArrayVar(&edits, "edit", nil, `edit a proposal: "INDEX=FRONT::BACK" (repeatable, applied after --accept)`)
	fs.StringVar(&save, "save", "accepted", "what to save: accepted, all or none")
	fs.BoolVar(&asJSON, "json", false, "print proposals as JSON")
	fs.IntVar(&hourCap, "hourly-limit", generate.DefaultHourlyLimit, "generation allowance quoted in errors")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if file == "" {
		return errors.New("--file is required")
	}
	if save != "accepted" && save != "all" && save != "none" {
		return fmt.Errorf("--save must be accepted, all or none, got %q", save)
	}

	text, err := readSource(file)
	if err != nil {
		return err
	}

	c, ctx := g.client(stderr)
	view := generate.NewView(c, model)
	view.SetHourlyLimit(hourCap)
	view.SetText(text)

	if err := view.Generate(ctx); err != nil {
		return errors.New(view.Snapshot().GenerationError)
	}

	type edit struct {
		i           int
		front, back string
	}
	parsed := make([]edit, 0, len(edits))
	for _, e := range edits {
		i, front, back, err := parseEdit(e)
		if err != nil {
			return err
		}
		parsed = append(parsed, edit{i, front, back})
	}

	// Accepts go first so an accepted proposal that is also edited is saved
	// as edited.
	accepted := make(map[int]bool, len(accept))
	for _, i := range accept {
		accepted[i] = true
		view.Accept(i)
	}
	for _, e := range parsed {
		if accepted[e.i] {
			fmt.Fprintf(stderr, "proposal %d is both accepted and edited; saving the edit\n", e.i)
		}
		view.Edit(e.i)
		if err := view.SaveEdit(e.front, e.back); err != nil {
			return fmt.Errorf("edit %d: %w", e.i, err)
		}
	}
	for _, i := range reject {
		view.Reject(i)
	}

	st := view.Snapshot()
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st.Proposals); err != nil {
			return err
		}
	} else {
		printProposals(stdout, *st.GenerationID, st.Proposals, view.Counts())
	}

	var resp *models.BatchCreateFlashcardsResponse
	switch save {
	case "accepted":
		resp, err = view.SaveAccepted(ctx)
	case "all":
		resp, err = view.SaveAll(ctx)
	default:
		return nil
	}
	if err != nil {
		return errors.New(view.Snapshot().SaveError)
	}
	if resp == nil {
		fmt.Fprintln(stderr, "nothing to save")
		return nil
	}
	fmt.Fprintf(stderr, "saved %d flashcards\n", resp.CreatedCount)
	return nil
}

func runAdd(args []string, stdout, stderr io.Writer) error {
	var (
		g           globalOpts
		front, back string
	)
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	fs.StringVar(&front, "front", "", "card front (required)")
	fs.StringVar(&back, "back", "", "card back (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, ctx := g.client(stderr)
	card, err := c.CreateFlashcard(ctx, models.CreateFlashcardCommand{Front: front, Back: back})
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(stdout, "created flashcard %d\n", card.ID)
	return nil
}

func runList(args []string, stdout, stderr io.Writer) error {
	var (
		g globalOpts
		p client.ListParams
	)
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	fs.IntVar(&p.Limit, "limit", 0, "page size (server default 50, max 100)")
	fs.Int64Var(&p.Cursor, "cursor", 0, "return cards after this id")
	fs.StringVar(&p.Source, "source", "", "filter by source: manual, ai-full or ai-edited")
	fs.Int64Var(&p.GenerationID, "generation", 0, "filter by generation id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, ctx := g.client(stderr)
	list, err := c.ListFlashcards(ctx, p)
	if err != nil {
		return describe(err)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tFRONT\tBACK")
	for _, card := range list.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", card.ID, card.Source, truncate(card.Front, 40), truncate(card.Back, 40))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if list.Pagination.HasMore && list.Pagination.NextCursor != nil {
		fmt.Fprintf(stderr, "more results: --cursor %d\n", *list.Pagination.NextCursor)
	}
	return nil
}

func printProposals(w io.Writer, generationID int64, proposals []review.Proposal, counts review.Counts) {
	fmt.Fprintf(w, "generation %d: %d proposals\n\n", generationID, counts.Total)
	for _, p := range proposals {
		fmt.Fprintf(w, "[%d] %-8s Q: %s\n", p.Index, p.Action, p.Current.Front)
		fmt.Fprintf(w, "    %-8s A: %s\n", "", p.Current.Back)
	}
	fmt.Fprintf(w, "\naccepted %d (edited %d), rejected %d, pending %d\n",
		counts.Accepted, counts.Edited, counts.Rejected, counts.Pending)
}

// parseEdit reads "INDEX=FRONT::BACK".
func parseEdit(s string) (int, string, string, error) {
	idx, rest, ok := strings.Cut(s, "=")
	if !ok {
		return 0, "", "", fmt.Errorf("edit %q: want INDEX=FRONT::BACK", s)
	}
	i, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return 0, "", "", fmt.Errorf("edit %q: bad index: %w", s, err)
	}
	front, back, ok := strings.Cut(rest, "::")
	if !ok {
		return 0, "", "", fmt.Errorf("edit %q: want INDEX=FRONT::BACK", s)
	}
	return i, front, back, nil
}

func readSource(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read source text: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// describe renders a client failure for the terminal.
func describe(err error) error {
	var f *client.Failure
	if errors.As(err, &f) && f.Message != "" {
		return fmt.Errorf("%s: %s", f.Kind, f.Message)
	}
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
