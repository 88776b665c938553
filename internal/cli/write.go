package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions
	NoID bool
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert <collection> <json>",
		Short: "Insert a document",
		Long: `Insert a document given as a JSON object.

The store never generates identifiers, so the CLI fills in a UUID "id"
when the document has none (disable with --no-id).

Example:
  polystore insert players '{"player_name":"Jo Ramirez","grad_class":"2026","verified":false}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(cmd, opts, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&opts.NoID, "no-id", false, "do not generate an id field")
	return cmd
}

func runInsert(cmd *cobra.Command, opts *InsertOptions, collection, raw string) error {
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
	doc, err := parseDocument(raw)
	if err != nil {
		return err
	}
	if _, ok := doc["id"]; !ok && !opts.NoID {
		doc["id"] = document.String(uuid.NewString())
	}

	res, err := handle.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(fmt.Sprintf("inserted id=%s", res.InsertedID))
}

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Where []string
}

// NewUpdateCommand creates the update command (set-fields only; array
// mutations are an application-level concern, not operator tooling).
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <collection> <set-json>",
		Short: "Set fields on the first matching document",
		Long: `Set fields on the first document matching the --where filters.

Example:
  polystore update players '{"verified":true}' --where id=p1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts, args[0], args[1])
		},
	}
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality filter field=value (repeatable)")
	return cmd
}

func runUpdate(cmd *cobra.Command, opts *UpdateOptions, collection, raw string) error {
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
	fields, err := parseDocument(raw)
	if err != nil {
		return err
	}

	res, err := handle.UpdateOne(ctx, pred, query.Set(fields))
	if err != nil {
		return err
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(fmt.Sprintf("matched=%d modified=%d", res.MatchedCount, res.ModifiedCount))
}

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Where []string
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "delete <collection>",
		Short:         "Delete the first matching document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality filter field=value (repeatable)")
	return cmd
}

func runDelete(cmd *cobra.Command, opts *DeleteOptions, collection string) error {
	ctx := cmd.Context()
	if len(opts.Where) == 0 {
		return fmt.Errorf("refusing to delete without --where filters")
	}
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

	res, err := handle.DeleteOne(ctx, pred)
	if err != nil {
		return err
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(fmt.Sprintf("deleted=%d", res.DeletedCount))
}
