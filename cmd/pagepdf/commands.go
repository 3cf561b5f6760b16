package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	pagepdf "github.com/porticus-lab/go-page-pdf"
	"github.com/porticus-lab/go-page-pdf/internal/config"
	"github.com/porticus-lab/go-page-pdf/internal/server"
	"github.com/porticus-lab/go-page-pdf/internal/storage/sqlite"
)

// runServe implements the "serve" command.
func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg, err := config.Parse(fs, args)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	h := server.NewHandler(a.source, a.streamer, a.logger)
	return server.New(cfg.HTTPAddr, h, cfg.ShutdownTimeout, a.logger).ListenAndServe(ctx)
}

// runRender implements the "render" command.
func runRender(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		output   string
		pageList string
	)
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.StringVarP(&output, "output", "o", "", "output file (default: the document file name)")
	fs.StringVarP(&pageList, "pages", "p", "", "comma-separated page ids in output order (default: all)")
	cfg, err := config.Parse(fs, args)
	if err != nil {
		return err
	}
	ids, err := parsePageList(pageList)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	doc, err := a.streamer.Generate(ctx, a.source.Manifest().Requests(ids...))
	if err != nil {
		return err
	}
	if output == "" {
		output = doc.Filename()
	}
	if err := doc.WriteToFile(output, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	a.logger.Info("document written",
		zap.String("file", output),
		zap.Int("pages", doc.Pages()),
		zap.Int("bytes", doc.Len()))
	fmt.Fprintf(stdout, "%s: %d pages, %d bytes\n", output, doc.Pages(), doc.Len())
	if doc.Filename() == pagepdf.ErrorFilename {
		return errors.New("no document was produced; see the error page for details")
	}
	return nil
}

// runBind implements the "bind" command.
func runBind(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		pageID string
		file   string
		sets   []string
		show   bool
	)
	fs := flag.NewFlagSet("bind", flag.ContinueOnError)
	fs.StringVar(&pageID, "page", "", "page id")
	fs.StringVarP(&file, "file", "f", "", "YAML file of bindings")
	fs.StringArrayVar(&sets, "set", nil, "binding as key=value (repeatable)")
	fs.BoolVar(&show, "show", false, "print the stored bindings instead of changing them")
	cfg, err := config.Parse(fs, args)
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return errors.New("--db is required")
	}
	if strings.TrimSpace(pageID) == "" {
		return errors.New("--page is required")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	current, err := store.Bindings(ctx, pageID)
	if err != nil {
		return err
	}
	if show {
		return printBindings(stdout, pageID, current)
	}

	updates := map[string]any{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, &updates); err != nil {
			return fmt.Errorf("decoding %s: %w", file, err)
		}
	}
	assigned, err := parseAssignments(sets)
	if err != nil {
		return err
	}
	for k, v := range assigned {
		updates[k] = v
	}
	if len(updates) == 0 {
		return errors.New("nothing to bind: use -f or --set")
	}

	merged := map[string]any{}
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	if err := store.PutBindings(ctx, pageID, merged); err != nil {
		return err
	}
	return printBindings(stdout, pageID, merged)
}

func printBindings(w io.Writer, pageID string, b map[string]any) error {
	out, err := yaml.Marshal(map[string]any{pageID: b})
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// runInfo implements the "info" command.
func runInfo(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no input file specified")
	}
	inputFile := args[0]

	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputFile, err)
	}
	n, err := pagepdf.CountPages(data)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputFile, err)
	}

	fmt.Fprintf(stdout, "File:  %s\n", inputFile)
	fmt.Fprintf(stdout, "Size:  %d bytes\n", len(data))
	fmt.Fprintf(stdout, "Pages: %d\n", n)
	return nil
}

// parsePageList splits a comma-separated list of page ids. An empty list
// selects every page.
func parsePageList(spec string) ([]string, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var ids []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(spec, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			return nil, fmt.Errorf("empty page id in %q", spec)
		}
		if seen[id] {
			return nil, fmt.Errorf("page %q listed twice", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// parseAssignments converts key=value pairs into bindings.
func parseAssignments(sets []string) (map[string]any, error) {
	out := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid binding %q: want key=value", s)
		}
		out[key] = value
	}
	return out, nil
}
