package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/editor"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("212"))

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

type draftRow struct {
	editorID string
	itemID   string
	draft    draft.Draft
	size     int
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			lister, ok := store.(draft.Lister)
			if !ok {
				return fmt.Errorf("store %q cannot list drafts", a.cfg.Store.Driver)
			}
			keys, err := lister.Keys(ctx)
			if err != nil {
				return fmt.Errorf("list drafts: %w", err)
			}

			rows := make([]draftRow, 0, len(keys))
			for _, key := range keys {
				editorID, itemID, ok := draft.SplitKey(key)
				if !ok {
					a.logger.Debug().Str("key", key).Msg("skipping foreign key")
					continue
				}
				d, found, err := store.GetItem(ctx, key)
				if err != nil {
					a.logger.Warn().Err(err).Str("key", key).Msg("failed to read draft")
					continue
				}
				if !found || !d.IsDraft() {
					continue
				}
				payload, err := draft.Encode(d)
				if err != nil {
					return err
				}
				rows = append(rows, draftRow{editorID: editorID, itemID: itemID, draft: d, size: len(payload)})
			}
			sort.Slice(rows, func(i, j int) bool {
				return rows[i].draft.Timestamp > rows[j].draft.Timestamp
			})
			writeDraftTable(cmd.OutOrStdout(), rows, time.Now())
			return nil
		},
	}
}

func writeDraftTable(out io.Writer, rows []draftRow, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(out, headerStyle.Render("No drafts found"))
		return
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d draft(s)", len(rows))))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EDITOR\tITEM\tSAVED\tSIZE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			idStyle.Render(r.editorID),
			r.itemID,
			dateStyle.Render(humanize.RelTime(r.draft.Time(), now, "ago", "from now")),
			humanize.Bytes(uint64(r.size)),
		)
	}
	w.Flush()
}

func newShowCmd(a *app) *cobra.Command {
	var (
		editorID string
		itemID   string
		dataOnly bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print one stored draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			key := draft.Key(editorID, itemID)
			if err := draft.ValidateKey(key); err != nil {
				return err
			}
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			d, found, err := store.GetItem(ctx, key)
			if err != nil {
				return fmt.Errorf("read draft %s: %w", key, err)
			}
			if !found || !d.IsDraft() {
				return fmt.Errorf("no draft stored for %s", key)
			}

			var payload any = d
			if dataOnly {
				payload = d.Data
			}
			out, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&editorID, "id", "", "Editor id")
	cmd.Flags().StringVar(&itemID, "item", "", "Item id")
	cmd.Flags().BoolVar(&dataOnly, "data", false, "Print only the draft data")
	return cmd
}

func newDiscardCmd(a *app) *cobra.Command {
	var editorID, itemID string
	cmd := &cobra.Command{
		Use:   "discard",
		Short: "Remove a stored draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			manager := editor.New(editor.WithStore(store), editor.WithLogger(a.logger))
			defer manager.Close()
			if err := manager.DiscardDraft(ctx, editorID, itemID); err != nil {
				if errors.Is(err, draft.ErrInvalidKey) {
					return fmt.Errorf("--id and --item are required: %w", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Discarded draft %s\n", draft.Key(editorID, itemID))
			return nil
		},
	}
	cmd.Flags().StringVar(&editorID, "id", "", "Editor id")
	cmd.Flags().StringVar(&itemID, "item", "", "Item id")
	return cmd
}
