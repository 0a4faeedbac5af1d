package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"

	"github.com/samvad-hq/lnk/internal/config"
	"github.com/samvad-hq/lnk/internal/logger"
	"github.com/samvad-hq/lnk/pkg/dbs"
	"github.com/samvad-hq/lnk/pkg/link"
	"github.com/samvad-hq/lnk/pkg/wrappers"
)

// Output formats accepted by Call.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatHTML = "html"
	FormatRaw  = "raw"
)

// App runs CLI operations against the connectors declared in the configured file.
type App struct {
	cfg  *config.Config
	link *link.Link
	out  io.Writer
	log  logger.Logger
}

// New loads the connectors file named by cfg and prepares a lazy link over it.
func New(cfg *config.Config, log logger.Logger, out io.Writer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if out == nil {
		out = io.Discard
	}

	reg := link.NewDefaultRegistry(cfg.HTTPTimeout)
	lc, err := link.LoadFile(cfg.ConnectorsFile, reg)
	if err != nil {
		return nil, fmt.Errorf("load connectors: %w", err)
	}
	log.InfoObj("connectors loaded", "connectors", map[string]any{
		"file":    cfg.ConnectorsFile,
		"entries": len(lc.All()),
		"enabled": len(lc.Enabled()),
	})

	return &App{
		cfg:  cfg,
		link: link.New(lc, reg, log),
		out:  out,
		log:  log,
	}, nil
}

// Close releases every wrapper built during the run.
func (a *App) Close() error {
	if a == nil || a.link == nil {
		return nil
	}
	return a.link.Close()
}

// List prints every configured entry with its wrapper tag.
func (a *App) List() error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, e := range a.link.Config().All() {
		state := ""
		if !e.Enabled {
			state = "(disabled)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key(), e.Wrapper, state)
	}
	return tw.Flush()
}

// Call dispatches method against the named API and prints the response in format.
// Non-2xx responses are printed and then reported as an error.
func (a *App) Call(ctx context.Context, api, method, path, data, format string) error {
	w, err := a.link.API(ctx, api)
	if err != nil {
		return err
	}

	var resp *wrappers.ResponseWrapper
	switch strings.ToLower(method) {
	case "get":
		resp, err = w.Get(ctx, path)
	case "post":
		resp, err = w.Post(ctx, path, data)
	case "put":
		resp, err = w.Put(ctx, path, data)
	default:
		return fmt.Errorf("unsupported method %q (expected get, post or put)", method)
	}
	if err != nil {
		return err
	}

	if err := a.printResponse(resp, format); err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%s %s%s returned status %d", strings.ToUpper(method), w.BaseURL(), path, resp.StatusCode())
	}
	return nil
}

func (a *App) printResponse(resp *wrappers.ResponseWrapper, format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		v, err := resp.JSON()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintln(a.out, string(out))
		return err
	case FormatXML:
		root, err := resp.XML()
		if err != nil {
			return err
		}
		writeElement(a.out, root, 0)
		return nil
	case FormatHTML:
		doc, err := resp.HTML()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, strings.TrimSpace(doc.Find("title").First().Text()))
		return err
	case FormatRaw:
		_, err := fmt.Fprintln(a.out, resp.Text())
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// writeElement prints an indented outline of tags with their trimmed text.
func writeElement(out io.Writer, el *wrappers.Element, depth int) {
	if el == nil {
		return
	}
	line := strings.Repeat("  ", depth) + el.Tag()
	if text := strings.TrimSpace(el.Text); text != "" {
		line += ": " + text
	}
	fmt.Fprintln(out, line)
	for _, child := range el.Children {
		writeElement(out, child, depth+1)
	}
}

// Query runs a SELECT against the named database and prints each row as a JSON line.
func (a *App) Query(ctx context.Context, db, query string, args ...any) error {
	q, err := a.querier(ctx, db)
	if err != nil {
		return err
	}
	rows, err := q.Select(ctx, query, args...)
	if err != nil {
		return err
	}
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		if _, err := fmt.Fprintln(a.out, string(line)); err != nil {
			return err
		}
	}
	a.log.DebugObj("query completed", "query_meta", map[string]any{"db": db, "rows": len(rows)})
	return nil
}

// Exec runs a statement against the named database and prints the affected row count,
// or a note when the driver cannot report one.
func (a *App) Exec(ctx context.Context, db, stmt string, args ...any) error {
	q, err := a.querier(ctx, db)
	if err != nil {
		return err
	}
	n, err := q.Execute(ctx, stmt, args...)
	if errors.Is(err, dbs.ErrRowsAffectedUnavailable) {
		_, err = fmt.Fprintln(a.out, "statement executed, rows affected unknown")
		return err
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "%d rows affected\n", n)
	return err
}

func (a *App) querier(ctx context.Context, name string) (dbs.Querier, error) {
	db, err := a.link.DB(ctx, name)
	if err != nil {
		return nil, err
	}
	q, ok := db.(dbs.Querier)
	if !ok {
		return nil, fmt.Errorf("dbs/%s (%T) does not accept SQL", name, db)
	}
	return q, nil
}

// Send delivers message through the named queue and prints the broker message id.
func (a *App) Send(ctx context.Context, queue, message string, attrs map[string]string) error {
	q, err := a.link.Queue(ctx, queue)
	if err != nil {
		return err
	}
	id, err := q.Send(ctx, []byte(message), attrs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, id)
	return err
}
