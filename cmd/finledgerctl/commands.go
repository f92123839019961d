package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	urfave "github.com/urfave/cli/v2"

	"finledger/internal/core"
	"finledger/internal/services"
	"finledger/internal/transfer"
)

func listCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:  "list",
		Usage: "list transactions, newest first",
		Flags: []urfave.Flag{
			&urfave.StringFlag{Name: "type", Value: "all", Usage: "all, income or expense"},
			&urfave.StringFlag{Name: "q", Usage: "case-insensitive search"},
		},
		Action: func(c *urfave.Context) error {
			records := e.app.Query.View(c.Context, services.ParseFilter(c.String("type")), c.String("q"))
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tORIGINAL\tDESCRIPTION")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s %s\t%s\n",
					r.ID, r.Date, r.Type, r.Category, r.Amount, r.Original.Amount, r.Original.Currency, r.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			e.printf("%d transaction(s)\n", len(records))
			return nil
		},
	}
}

func addCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:  "add",
		Usage: "record an income or expense, or edit one with --edit",
		Flags: []urfave.Flag{
			&urfave.StringFlag{Name: "type", Value: string(core.Expense), Usage: "income or expense"},
			&urfave.StringFlag{Name: "amount", Required: true},
			&urfave.StringFlag{Name: "date", Usage: "YYYY-MM-DD, defaults to today"},
			&urfave.StringFlag{Name: "description", Aliases: []string{"d"}, Required: true},
			&urfave.StringFlag{Name: "currency", Value: core.BaseCurrency},
			&urfave.StringFlag{Name: "category", Aliases: []string{"c"}},
			&urfave.StringFlag{Name: "other-category", Usage: "free-text category when --category is Other"},
			&urfave.StringFlag{Name: "edit", Usage: "id of the record to update"},
		},
		Action: func(c *urfave.Context) error {
			date := c.String("date")
			if date == "" {
				date = e.clock().Format(core.DateLayout)
			}
			res, err := e.app.Builder.Build(c.Context, services.Form{
				Type:          core.TxnType(strings.ToLower(c.String("type"))),
				Amount:        c.String("amount"),
				Date:          date,
				Description:   c.String("description"),
				Currency:      c.String("currency"),
				Category:      c.String("category"),
				OtherCategory: c.String("other-category"),
				EditID:        c.String("edit"),
			})
			var verr *services.ValidationError
			if errors.As(err, &verr) {
				for _, name := range sortedKeys(verr.Fields) {
					e.printf("%s: %s\n", name, verr.Fields[name])
				}
				return urfave.Exit("validation failed", 2)
			}
			if err != nil {
				return err
			}
			e.printf("%s %s %s %s\n", res.Outcome, res.Record.ID, res.Record.Amount, core.BaseCurrency)
			return nil
		},
	}
}

func deleteCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:      "delete",
		Usage:     "delete transactions by id",
		ArgsUsage: "ID [ID...]",
		Action: func(c *urfave.Context) error {
			if c.NArg() == 0 {
				return urfave.Exit("at least one id is required", 2)
			}
			for _, id := range c.Args().Slice() {
				_, found := e.app.Ledger.FindByID(c.Context, id)
				if err := e.app.Ledger.Delete(c.Context, id); err != nil {
					return err
				}
				if found {
					e.printf("deleted %s\n", id)
				} else {
					e.printf("%s not found\n", id)
				}
			}
			return nil
		},
	}
}

var monthFlag = &urfave.StringFlag{Name: "month", Usage: "YYYY-MM, defaults to the current month"}

func (e *env) month(c *urfave.Context) (time.Time, error) {
	v := c.String("month")
	if v == "" {
		return e.clock(), nil
	}
	t, err := time.ParseInLocation("2006-01", v, time.Local)
	if err != nil {
		return time.Time{}, urfave.Exit(fmt.Sprintf("invalid --month %q: want YYYY-MM", v), 2)
	}
	return t, nil
}

func summaryCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:  "summary",
		Usage: "monthly income, expense, top category and health score",
		Flags: []urfave.Flag{monthFlag},
		Action: func(c *urfave.Context) error {
			at, err := e.month(c)
			if err != nil {
				return err
			}
			s := e.app.Aggregator.MonthSummary(c.Context, at)
			e.printf("Month:        %s\n", at.Format("2006-01"))
			e.printf("Income:       %s %s\n", s.Income, core.BaseCurrency)
			e.printf("Expense:      %s %s\n", s.Expense, core.BaseCurrency)
			e.printf("Top category: %s\n", s.TopCategory)
			e.printf("Health score: %d\n", s.HealthScore)
			return nil
		},
	}
}

func budgetCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:  "budget",
		Usage: "spending against each budget cap",
		Flags: []urfave.Flag{monthFlag},
		Action: func(c *urfave.Context) error {
			at, err := e.month(c)
			if err != nil {
				return err
			}
			warn := e.app.Settings.Load(c.Context).WarnOverCap == core.WarnOn
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tCAP\tSPENT\tUSED\tREMAINING\t")
			for _, l := range e.app.Aggregator.BudgetProgress(c.Context, at) {
				flag := ""
				if warn && l.OverCap() {
					flag = "over cap"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%d%%\t%s\t%s\n", l.Key, l.Cap, l.Spent, l.PercentUsed, l.Remaining, flag)
			}
			return tw.Flush()
		},
	}
}

func exportCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:  "export",
		Usage: "write a JSON backup or a CSV/XLSX sheet",
		Flags: []urfave.Flag{
			&urfave.StringFlag{Name: "format", Value: "json", Usage: "json, csv or xlsx"},
			&urfave.StringFlag{Name: "scope", Value: "all", Usage: "json only: all, settings or records"},
			&urfave.StringFlag{Name: "type", Value: "all", Usage: "csv/xlsx only: all, income or expense"},
			&urfave.StringFlag{Name: "q", Usage: "csv/xlsx only: search filter"},
			&urfave.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "file or directory, - for stdout; defaults to a dated file"},
		},
		Action: func(c *urfave.Context) error {
			ctx := c.Context
			now := e.clock()

			var (
				name  string
				write func(io.Writer) error
			)
			switch format := strings.ToLower(c.String("format")); format {
			case "json":
				scope := transfer.ParseScope(c.String("scope"))
				name = transfer.JSONFileName(scope, now)
				write = func(w io.Writer) error {
					return transfer.ExportJSON(w, scope, e.app.Settings.Load(ctx), e.app.Ledger.Load(ctx))
				}
			case "csv", "xlsx":
				records := e.app.Query.View(ctx, services.ParseFilter(c.String("type")), c.String("q"))
				name = transfer.TableFileName(format, now)
				write = func(w io.Writer) error {
					if format == "csv" {
						return transfer.ExportCSV(w, records)
					}
					return transfer.ExportXLSX(w, records)
				}
			default:
				return urfave.Exit(fmt.Sprintf("unknown format %q", format), 2)
			}

			out := c.String("out")
			if out == "-" {
				return write(e.out)
			}
			path := name
			if out != "" {
				path = out
				if info, err := os.Stat(out); err == nil && info.IsDir() {
					path = filepath.Join(out, name)
				}
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := write(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			e.printf("wrote %s\n", path)
			return nil
		},
	}
}

func (e *env) printResult(res transfer.Result) {
	e.printf("settings applied: %t\n", res.SettingsApplied)
	e.printf("imported: %d (reassigned ids: %d)\n", res.Imported, res.Reassigned)
}

func importCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:      "import",
		Usage:     "merge a JSON backup or transaction array",
		ArgsUsage: "FILE (- for stdin)",
		Action: func(c *urfave.Context) error {
			if c.NArg() != 1 {
				return urfave.Exit("exactly one file is required", 2)
			}
			var (
				data []byte
				err  error
			)
			if path := c.Args().First(); path == "-" {
				data, err = io.ReadAll(e.in)
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			res, err := e.app.Importer.Apply(c.Context, transfer.ParseImport(data))
			if err != nil {
				return err
			}
			e.printResult(res)
			return nil
		},
	}
}

func seedCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:  "seed",
		Usage: "import the default data file",
		Flags: []urfave.Flag{
			&urfave.StringFlag{Name: "file", Usage: "override SEED_FILE_PATH"},
		},
		Action: func(c *urfave.Context) error {
			path := c.String("file")
			if path == "" {
				path = e.cfg.SeedFilePath
			}
			res, err := e.app.Importer.ApplyFile(c.Context, path)
			if err != nil {
				return err
			}
			e.printResult(res)
			return nil
		},
	}
}

func settingsCommand(e *env) *urfave.Command {
	show := func(st core.Settings) error {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	return &urfave.Command{
		Name:  "settings",
		Usage: "show, change or reset preferences and budget caps",
		Subcommands: []*urfave.Command{
			{
				Name:  "show",
				Usage: "print the stored settings",
				Action: func(c *urfave.Context) error {
					return show(e.app.Settings.Load(c.Context))
				},
			},
			{
				Name:  "reset",
				Usage: "restore the default settings",
				Action: func(c *urfave.Context) error {
					st, err := e.app.Settings.Reset(c.Context)
					if err != nil {
						return err
					}
					return show(st)
				},
			},
			{
				Name:  "set",
				Usage: "change individual settings",
				Flags: []urfave.Flag{
					&urfave.StringFlag{Name: "name"},
					&urfave.StringFlag{Name: "theme", Usage: "light, dark or system"},
					&urfave.StringFlag{Name: "warn", Usage: "on or off"},
					&urfave.StringSliceFlag{Name: "budget", Usage: "KEY=CAP, repeatable"},
				},
				Action: func(c *urfave.Context) error {
					patch, err := settingsPatch(c)
					if err != nil {
						return urfave.Exit(err.Error(), 2)
					}
					st, err := e.app.Settings.Merge(c.Context, patch)
					if err != nil {
						return err
					}
					return show(st)
				},
			},
		},
	}
}

func settingsPatch(c *urfave.Context) (core.SettingsPatch, error) {
	var patch core.SettingsPatch
	if c.IsSet("name") {
		v := c.String("name")
		patch.Name = &v
	}
	if c.IsSet("theme") {
		v := core.Theme(strings.ToLower(c.String("theme")))
		patch.Theme = &v
	}
	if c.IsSet("warn") {
		v := strings.ToLower(c.String("warn"))
		patch.WarnOverCap = &v
	}
	for _, kv := range c.StringSlice("budget") {
		key, raw, ok := strings.Cut(kv, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || !core.IsBudgetKey(key) {
			return patch, fmt.Errorf("invalid --budget %q: want one of %v as KEY=CAP", kv, core.BudgetKeys)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return patch, fmt.Errorf("invalid --budget %q: cap must be a whole number", kv)
		}
		if patch.Budget == nil {
			patch.Budget = map[string]int64{}
		}
		patch.Budget[key] = v
	}
	return patch, nil
}

func ratesCommand(e *env) *urfave.Command {
	return &urfave.Command{
		Name:  "rates",
		Usage: "list supported currencies and their rate to the base currency",
		Action: func(c *urfave.Context) error {
			conv := e.app.Converter
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "CODE\tRATE TO %s\n", conv.Base())
			for _, r := range conv.Rates() {
				fmt.Fprintf(tw, "%s\t%s\n", r.Code, r.Rate)
			}
			return tw.Flush()
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
