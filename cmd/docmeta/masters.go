package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/docmeta/internal/cli"
	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/config"
	"github.com/Veraticus/docmeta/internal/masterio"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/storage"
)

func mastersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "masters",
		Short: "Manage document type, office and customer masters",
	}

	cmd.PersistentFlags().String("kind", "", "Master kind: document, office or customer")
	_ = cmd.MarkPersistentFlagRequired("kind")

	cmd.AddCommand(mastersImportCmd())
	cmd.AddCommand(mastersListCmd())
	cmd.AddCommand(mastersExportCmd())
	cmd.AddCommand(mastersAliasCmd())
	cmd.AddCommand(mastersDeleteCmd())

	return cmd
}

func mastersImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import masters from a CSV or XLSX file",
		Long: `Import masters from a CSV or XLSX file with a header row.

Recognized columns: id, name (名称/氏名), short_name (略称), furigana (フリガナ),
office_id (事業所ID), care_manager_id (ケアマネID), aliases (別名), keywords (キーワード).
Lists are separated by ";" or "、". Rows without an id get a generated one.

Existing entries with the same id are updated. With --replace, entries missing
from the file are removed. Learned aliases are always kept.`,
		Args: cobra.ExactArgs(1),
		RunE: runMastersImport,
	}
	cmd.Flags().Bool("replace", false, "Remove masters of this kind that are not in the file")
	return cmd
}

func runMastersImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := parseKind(kindFlag)
	if err != nil {
		return err
	}

	res, err := masterio.ReadFile(config.ExpandPath(args[0]))
	if err != nil {
		return common.NewUserError("cannot import "+args[0], err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	replace, _ := cmd.Flags().GetBool("replace")
	if replace {
		err = store.ReplaceMasters(ctx, kind, res.Entries)
	} else {
		err = store.SaveMasters(ctx, kind, res.Entries)
	}
	if err != nil {
		return err
	}

	slog.Info("Imported masters",
		"kind", kind,
		"entries", len(res.Entries),
		"generated_ids", len(res.GeneratedIDs),
		"skipped_rows", res.Skipped,
		"replace", replace)

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d %s masters", len(res.Entries), kind)))
	if len(res.GeneratedIDs) > 0 {
		_, _ = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d rows had no id and were given one", len(res.GeneratedIDs))))
	}
	dups := 0
	for i := range res.Entries {
		if res.Entries[i].IsDuplicate {
			dups++
		}
	}
	if dups > 0 {
		_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d entries share a name with another entry", dups)))
	}
	return nil
}

func mastersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List masters of one kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			kindFlag, _ := cmd.Flags().GetString("kind")
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.ListMasters(ctx, kind)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("No %s masters", kind)))
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderMasters(entries))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print masters as JSON")
	return cmd
}

func mastersExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Export masters of one kind to CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kindFlag, _ := cmd.Flags().GetString("kind")
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.ListMasters(ctx, kind)
			if err != nil {
				return err
			}
			return exportMasters(config.ExpandPath(args[0]), kind, entries)
		},
	}
}

func exportMasters(path string, kind model.EntityKind, entries []model.MasterEntry) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return common.NewUserError("export file must end in .csv or .xlsx", masterio.ErrUnsupportedFormat)
	}

	f, err := os.Create(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	if ext == ".csv" {
		return masterio.WriteCSV(f, entries)
	}
	return masterio.WriteXLSX(f, kind, entries)
}

func mastersAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias ID ALIAS",
		Short: "Teach an alias to a master",
		Long: `Record an alternative spelling seen in OCR text for a master entry.
Learned aliases survive later imports.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kindFlag, _ := cmd.Flags().GetString("kind")
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.AddAlias(ctx, kind, args[0], args[1], storage.AliasLearned); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added alias %q to %s %s", args[1], kind, args[0])))
			return nil
		},
	}
}

func mastersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a master entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kindFlag, _ := cmd.Flags().GetString("kind")
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteMaster(ctx, kind, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s %s", kind, args[0])))
			return nil
		},
	}
}
