package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	formdraft "github.com/goliatone/go-formdraft"
	"github.com/goliatone/go-formdraft/pkg/editor"
	"github.com/goliatone/go-formdraft/pkg/i18n"
	"github.com/goliatone/go-formdraft/pkg/notify"
	"github.com/goliatone/go-formdraft/pkg/prompt"
	"github.com/goliatone/go-formdraft/pkg/recovery"
	"github.com/goliatone/go-formdraft/pkg/widget"
)

type editFlags struct {
	id         string
	schema     string
	openapi    string
	component  string
	value      string
	item       string
	dbTime     int64
	maxBytes   int64
	locale     string
	notify     string
	validate   bool
	values     bool
	markErrors bool
}

func newEditCmd(a *app) *cobra.Command {
	f := &editFlags{}
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a document with draft autosave",
		Long: `Mount an editor for a document, offer to recover a newer draft, then
prompt for field paths and JSON values until an empty path is entered.
Every accepted change is autosaved. The final value is printed on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEdit(cmd, a, f)
		},
	}

	cmd.Flags().StringVar(&f.id, "id", "", "Editor id (required)")
	cmd.Flags().StringVar(&f.schema, "schema", "", "JSON Schema file or URL")
	cmd.Flags().StringVar(&f.openapi, "openapi", "", "OpenAPI document file or URL")
	cmd.Flags().StringVar(&f.component, "component", "", "Schema component name inside --openapi")
	cmd.Flags().StringVar(&f.value, "value", "", "JSON file holding the loaded value")
	cmd.Flags().StringVar(&f.item, "item", "", "Item id, enables autosave together with --db-time")
	cmd.Flags().Int64Var(&f.dbTime, "db-time", 0, "Unix time the loaded value was saved")
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", -1, "Size advisory threshold in bytes (defaults to the configuration)")
	cmd.Flags().StringVar(&f.locale, "locale", "", "Locale for recovery prompts")
	cmd.Flags().StringVar(&f.notify, "notify", "", `Write notifications as JSON lines to a file, or "-" for stdout`)
	cmd.Flags().BoolVar(&f.validate, "validate-on-change", false, "Report validation issues on every change")
	cmd.Flags().BoolVar(&f.values, "values-on-change", false, "Report values on every change")
	cmd.Flags().BoolVar(&f.markErrors, "mark-errors", true, "Mark invalid fields on every change")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func runEdit(cmd *cobra.Command, a *app, f *editFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	schema, err := loadSchema(ctx, f)
	if err != nil {
		return err
	}
	start, err := readJSONFile(f.value)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, closeNotifier, err := a.notifier(f.notify, out)
	if err != nil {
		return err
	}
	defer closeNotifier()

	driver := a.driver
	if driver == nil {
		driver = prompt.NewSurveyDriver(prompt.WithOutput(out))
	}

	maxBytes := a.cfg.Editor.MaxBytes
	if f.maxBytes >= 0 {
		maxBytes = f.maxBytes
	}
	dictionary := i18n.Builtin()
	if a.cfg.Editor.Dictionary != "" {
		dictionary = i18n.Chain(dictionary, i18n.FileLoader{Path: a.cfg.Editor.Dictionary})
	}

	manager, session, err := formdraft.MountOne(ctx, formdraft.Options{
		ID:                 f.id,
		Schema:             schema,
		StartValue:         start,
		DraftItemID:        f.item,
		DBTimestamp:        f.dbTime,
		ValidateOnChange:   f.validate,
		ValuesOnChange:     f.values,
		MarkErrorsOnChange: f.markErrors,
		Locale:             f.locale,
	},
		editor.WithStore(store),
		editor.WithRecoverer(recovery.New(
			recovery.WithDialog(recovery.NewTerminalDialog(driver)),
			recovery.WithLogger(a.logger),
		)),
		editor.WithDictionary(dictionary),
		editor.WithNotifier(notifier),
		editor.WithLogger(a.logger),
		editor.WithMaxBytes(maxBytes),
		editor.WithLocale(a.cfg.Editor.Locale),
	)
	if err != nil {
		return err
	}
	defer manager.Close()
	if session == nil {
		return fmt.Errorf("editor %q could not be mounted", f.id)
	}

	select {
	case <-session.Settled():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := session.Err(); err != nil {
		a.logger.Warn().Err(err).Msg("draft recovery failed, keeping loaded value")
	}
	if session.Outcome() != "" {
		a.logger.Info().Str("outcome", string(session.Outcome())).Msg("draft checked")
	}

	if err := editLoop(ctx, driver, session); err != nil {
		return err
	}
	session.WaitSizeChecks()

	final, err := json.MarshalIndent(session.Value(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	fmt.Fprintln(out, string(final))
	return nil
}

// editLoop applies path/value edits until an empty path or an aborted prompt.
func editLoop(ctx context.Context, driver prompt.Driver, session *editor.Session) error {
	for {
		path, err := driver.Input(ctx, prompt.InputConfig{
			Message: "Field path (empty to finish)",
			Help:    "Dotted path such as address.city or tags.0",
		})
		if errors.Is(err, prompt.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return nil
		}

		doc := []byte("{}")
		if v := session.Value(); v != nil {
			if doc, err = json.Marshal(v); err != nil {
				return fmt.Errorf("encode value: %w", err)
			}
		}
		current := gjson.GetBytes(doc, path)

		raw, err := driver.Input(ctx, prompt.InputConfig{
			Message: "Value for " + path + " (JSON, empty to delete)",
			Default: current.Raw,
		})
		if errors.Is(err, prompt.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		updated, err := applyEdit(string(doc), path, raw)
		if err != nil {
			if infoErr := driver.Info(ctx, err.Error()); infoErr != nil {
				return infoErr
			}
			continue
		}
		var value any
		if err := json.Unmarshal([]byte(updated), &value); err != nil {
			return fmt.Errorf("decode value: %w", err)
		}
		session.SetValue(value)

		if marked := session.ProjectErrors(); len(marked) > 0 {
			if err := driver.Info(ctx, "invalid: "+strings.Join(marked, ", ")); err != nil {
				return err
			}
		}
	}
}

// applyEdit sets path to raw in doc. Raw text that is not valid JSON is
// stored as a string; empty text deletes the path.
func applyEdit(doc, path, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		updated, err := sjson.Delete(doc, path)
		if err != nil {
			return "", fmt.Errorf("delete %s: %w", path, err)
		}
		return updated, nil
	}
	var (
		updated string
		err     error
	)
	if gjson.Valid(raw) {
		updated, err = sjson.SetRaw(doc, path, raw)
	} else {
		updated, err = sjson.Set(doc, path, raw)
	}
	if err != nil {
		return "", fmt.Errorf("set %s: %w", path, err)
	}
	return updated, nil
}

func loadSchema(ctx context.Context, f *editFlags) (*widget.Schema, error) {
	if f.openapi != "" {
		if f.component == "" {
			return nil, errors.New("--component is required with --openapi")
		}
		src, err := widget.ParseSource(f.openapi)
		if err != nil {
			return nil, err
		}
		raw, err := widget.ReadSource(ctx, src)
		if err != nil {
			return nil, err
		}
		return widget.SchemaFromOpenAPI(ctx, raw, f.component)
	}
	if f.schema == "" {
		return nil, errors.New("one of --schema or --openapi is required")
	}
	src, err := widget.ParseSource(f.schema)
	if err != nil {
		return nil, err
	}
	return widget.LoadSchema(ctx, src)
}

func readJSONFile(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return value, nil
}

func (a *app) notifier(target string, stdout io.Writer) (editor.Notifier, func() error, error) {
	noop := func() error { return nil }
	switch target {
	case "":
		return notify.Log(a.logger), noop, nil
	case "-":
		return notify.NewWriter(stdout), noop, nil
	default:
		file, err := os.Create(target)
		if err != nil {
			return nil, noop, fmt.Errorf("open notification file: %w", err)
		}
		return notify.Fanout(notify.NewWriter(file), notify.Log(a.logger)), file.Close, nil
	}
}
