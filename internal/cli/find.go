package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Where []string
	Sort  string
	Desc  bool
	Skip  int64
	Limit int64
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <collection>",
		Short: "List documents matching equality filters",
		Long: `List documents matching equality filters.

Example:
  polystore find players --where verified=true --sort created_at --desc --limit 20`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality filter field=value (repeatable)")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "sort field (insertion order when omitted)")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "sort descending")
	cmd.Flags().Int64Var(&opts.Skip, "skip", 0, "documents to skip")
	cmd.Flags().Int64Var(&opts.Limit, "limit", 0, "maximum documents to return (0 = all)")

	return cmd
}

func runFind(cmd *cobra.Command, opts *FindOptions, collection string) error {
	ctx := cmd.Context()
	reg, _, err := openRegistry(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer reg.Backend().Close(ctx)

	handle, err := reg.Handle(collection)
	if err != nil {
		return err
	}
	pred, err := parseWhere(opts.Where)
	if err != nil {
		return err
	}

	docs, err := backend.Collect(handle.Find(ctx, pred, &backend.FindOptions{
		Sort:  opts.Sort,
		Desc:  opts.Desc,
		Skip:  opts.Skip,
		Limit: opts.Limit,
	}))
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Documents(docs)
}

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
}

// NewGetCommand creates the get command (find_one by id).
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "get <collection> <id>",
		Short:         "Fetch a single document by id",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts, args[0], args[1])
		},
	}
	return cmd
}

func runGet(cmd *cobra.Command, opts *GetOptions, collection, id string) error {
	ctx := cmd.Context()
	reg, _, err := openRegistry(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer reg.Backend().Close(ctx)

	handle, err := reg.Handle(collection)
	if err != nil {
		return err
	}

	doc, found, err := handle.FindOne(ctx, query.ByID(id))
	if err != nil {
		return err
	}
	if !found {
		// Not-found is an ordinary outcome; say so instead of erroring.
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return out.Success(fmt.Sprintf("no document with id %q in %q", id, collection))
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Documents([]document.Document{doc})
}

// CountOptions holds flags for the count command.
type CountOptions struct {
	*RootOptions
	Where []string
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "count <collection>",
		Short:         "Count documents matching equality filters",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality filter field=value (repeatable)")
	return cmd
}

func runCount(cmd *cobra.Command, opts *CountOptions, collection string) error {
	ctx := cmd.Context()
	reg, _, err := openRegistry(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer reg.Backend().Close(ctx)

	handle, err := reg.Handle(collection)
	if err != nil {
		return err
	}
	pred, err := parseWhere(opts.Where)
	if err != nil {
		return err
	}

	n, err := handle.CountDocuments(ctx, pred)
	if err != nil {
		return err
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(n)
}
