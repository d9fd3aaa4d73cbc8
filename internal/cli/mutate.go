package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/weave/internal/delta"
	"github.com/roach88/weave/internal/engine"
	"github.com/roach88/weave/internal/session"
)

// RevisionResult is the output of commands that append a revision.
type RevisionResult struct {
	Session string       `json:"session"`
	Rev     engine.RevID `json:"rev"`
	Head    string       `json:"head"`
}

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Name string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init [text]",
		Short: "Create a session",
		Long: `Create a session whose seed revision shows the given text and print
its id.

Examples:
  weave init
  weave init "hello" --name greeting
  weave init "hello" --db ./weave.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			initial := ""
			if len(args) == 1 {
				initial = args[0]
			}
			return runInit(opts, initial, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")

	return cmd
}

func runInit(opts *InitOptions, initial string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := session.New(ctx, st, initial,
		session.WithName(opts.Name),
		session.WithLogger(opts.Logger),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}

	head, rev := sess.Head()
	f := opts.formatter(cmd)
	if f.IsJSON() {
		return f.Success(RevisionResult{Session: sess.ID(), Rev: rev, Head: head.String()})
	}
	return f.Success(sess.ID())
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Base     int64 // 0 means the current head
	Start    int
	End      int // defaults to Start (pure insertion)
	Priority int
	Group    int
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <session> [text]",
		Short: "Submit an edit computed against a revision",
		Long: `Replace the byte range [start, end) of a base revision's text with the
given text. The edit is rebased over every revision after the base and
appended to the log.

Priority and group default to default_priority and default_group from
the config file.

Examples:
  weave edit 0190... "XY" --start 1
  weave edit 0190... --start 0 --end 3
  weave edit 0190... "abc" --base 2 --start 4 --priority 1 --group 7`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			replacement := ""
			if len(args) == 2 {
				replacement = args[1]
			}
			return runEdit(opts, args[0], replacement, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Base, "base", 0, "base revision id (default: head)")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "start byte offset in the base text")
	cmd.Flags().IntVar(&opts.End, "end", 0, "end byte offset in the base text (default: start)")
	cmd.Flags().IntVar(&opts.Priority, "priority", 0, "tie-break priority for concurrent inserts")
	cmd.Flags().IntVar(&opts.Group, "group", 0, "undo group")

	return cmd
}

func runEdit(opts *EditOptions, id, replacement string, cmd *cobra.Command) error {
	ctx := context.Background()

	sess, st, err := opts.openSession(ctx, cmd, id)
	if err != nil {
		return err
	}
	defer st.Close()

	if !cmd.Flags().Changed("end") {
		opts.End = opts.Start
	}
	if !cmd.Flags().Changed("priority") {
		opts.Priority = opts.Config.DefaultPriority
	}
	if !cmd.Flags().Changed("group") {
		opts.Group = opts.Config.DefaultGroup
	}

	base := engine.RevID(opts.Base)
	if base == 0 {
		_, base = sess.Head()
	}
	ix, ok := sess.FindRev(base)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown base revision %d", base))
	}
	baseText, err := sess.Rev(ix)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read base revision", err)
	}

	d, err := delta.Simple(baseText.Len(), opts.Start, opts.End, replacement)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid edit range", err)
	}

	rev, err := sess.Edit(ctx, opts.Priority, opts.Group, base, d)
	if err != nil {
		return WrapExitError(ExitCommandError, "edit rejected", err)
	}
	return outputRevision(opts.formatter(cmd), sess, rev)
}

// UndoOptions holds flags for the undo command.
type UndoOptions struct {
	*RootOptions
	Toggle bool
}

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UndoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "undo <session> [group...]",
		Short: "Set the undone groups",
		Long: `Append an undo revision. The listed groups become exactly the set of
undone groups; groups not listed are redone. With no groups everything
is redone.

With --toggle the listed groups are flipped relative to the current
undo set instead.

Examples:
  weave undo 0190... 1
  weave undo 0190... 1 2
  weave undo 0190...
  weave undo 0190... 2 --toggle`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndo(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Toggle, "toggle", false, "flip the listed groups instead of replacing the set")

	return cmd
}

func runUndo(opts *UndoOptions, id string, groupArgs []string, cmd *cobra.Command) error {
	ctx := context.Background()

	groups, err := parseGroups(groupArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid group", err)
	}

	sess, st, err := opts.openSession(ctx, cmd, id)
	if err != nil {
		return err
	}
	defer st.Close()

	var rev engine.RevID
	if opts.Toggle {
		rev, err = sess.Toggle(ctx, groups)
	} else {
		rev, err = sess.Undo(ctx, groups)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "undo failed", err)
	}
	return outputRevision(opts.formatter(cmd), sess, rev)
}

func parseGroups(args []string) (engine.Groups, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return engine.Groups{}, fmt.Errorf("%q is not an integer", a)
		}
		ids = append(ids, n)
	}
	return engine.NewGroups(ids...), nil
}

// outputRevision prints the appended revision: its id and the new head in
// text mode.
func outputRevision(f *OutputFormatter, sess *session.Session, rev engine.RevID) error {
	head, _ := sess.Head()
	if f.IsJSON() {
		return f.Success(RevisionResult{Session: sess.ID(), Rev: rev, Head: head.String()})
	}
	fmt.Fprintf(f.Writer, "rev %d\n", rev)
	fmt.Fprintln(f.Writer, head.String())
	return nil
}
