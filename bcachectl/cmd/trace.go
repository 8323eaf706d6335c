package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ParkGyuhwan/buffercache/datarecording"
	"github.com/ParkGyuhwan/buffercache/hooking"
)

type traceOptions struct {
	what   string
	limit  int
	offset int
}

var traceCmd = &cobra.Command{
	Use:   "trace <db>",
	Short: "List the cache tasks recorded by bench with BCACHE_TRACE=db.",
	Long: `trace lists the tasks stored in a trace database, in the order ` +
		`they started, and counts how many of them were tagged as a hit, ` +
		`a miss, an eviction, or a write-back. The .sqlite3 extension of ` +
		`<db> may be omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts traceOptions
		opts.what, _ = cmd.Flags().GetString("what")
		opts.limit, _ = cmd.Flags().GetInt("limit")
		opts.offset, _ = cmd.Flags().GetInt("offset")

		return printTrace(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
	},
}

func init() {
	traceCmd.Flags().String("what", "",
		"Only list tasks of this kind (read, write, flush, flush_all, terminate)")
	traceCmd.Flags().Int("limit", 20, "Number of tasks to list, 0 for all")
	traceCmd.Flags().Int("offset", 0, "Number of tasks to skip")

	rootCmd.AddCommand(traceCmd)
}

func traceFile(path string) string {
	_, err := os.Stat(path)
	if err != nil && !strings.HasSuffix(path, ".sqlite3") {
		return path + ".sqlite3"
	}

	return path
}

// tagFilter matches the tasks that carry the tag, with or without a detail.
func tagFilter(params datarecording.QueryParams, tag string) datarecording.QueryParams {
	cond := "((',' || Tags || ',') LIKE ? OR (',' || Tags || ',') LIKE ?)"
	args := []any{"%," + tag + ",%", "%," + tag + "=%"}

	if params.Where != "" {
		cond = params.Where + " AND " + cond
		args = append(slices.Clone(params.Args), args...)
	}

	return datarecording.QueryParams{Where: cond, Args: args}
}

func printTrace(
	ctx context.Context,
	w io.Writer,
	path string,
	opts traceOptions,
) error {
	reader, err := datarecording.NewReader(traceFile(path))
	if err != nil {
		return err
	}
	defer reader.Close()

	tables, err := reader.StoredTables(ctx)
	if err != nil {
		return err
	}

	if !slices.Contains(tables, hooking.TaskTableName) {
		return fmt.Errorf("%s holds no %s table", path, hooking.TaskTableName)
	}

	if slices.Contains(tables, datarecording.ExecTableName) {
		err = printExecInfo(ctx, w, reader)
		if err != nil {
			return err
		}
	}

	params := datarecording.QueryParams{
		OrderBy: "StartTime, ID",
		Limit:   opts.limit,
		Offset:  opts.offset,
	}
	if opts.what != "" {
		params.Where = "What = ?"
		params.Args = []any{opts.what}
	}

	reader.MapTable(hooking.TaskTableName, hooking.TaskEntry{})

	rows, total, err := reader.Query(ctx, hooking.TaskTableName, params)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHAT\tDETAIL\tDURATION\tTAGS\tERROR")

	for _, row := range rows {
		t := row.(*hooking.TaskEntry)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.6fs\t%s\t%s\n",
			t.ID, t.What, t.Detail, t.EndTime-t.StartTime, t.Tags, t.Err)
	}

	err = tw.Flush()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d of %d tasks\n", len(rows), total)

	for _, tag := range []string{"hit", "miss", "evict", "writeback"} {
		n, err := reader.Count(ctx, hooking.TaskTableName, tagFilter(params, tag))
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "tagged %-10s %d\n", tag+":", n)
	}

	return nil
}

func printExecInfo(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
) error {
	reader.MapTable(datarecording.ExecTableName, datarecording.ExecInfo{})

	rows, _, err := reader.Query(ctx, datarecording.ExecTableName,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, row := range rows {
		info := row.(*datarecording.ExecInfo)
		fmt.Fprintf(w, "%-19s %s\n", info.Property+":", info.Value)
	}

	fmt.Fprintln(w)

	return nil
}
