package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/weave/internal/delta"
	"github.com/roach88/weave/internal/engine"
)

// TextResult is the output of head and rev.
type TextResult struct {
	Rev  engine.RevID `json:"rev"`
	Text string       `json:"text"`
}

// NewHeadCommand creates the head command.
func NewHeadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "head <session>",
		Short: "Print the head text",
		Long: `Print the text of the latest revision.

Examples:
  weave head 0190...
  weave head 0190... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, st, err := rootOpts.openSession(context.Background(), cmd, args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			head, rev := sess.Head()
			f := rootOpts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(TextResult{Rev: rev, Text: head.String()})
			}
			return f.Success(head.String())
		},
	}
}

// NewRevCommand creates the rev command.
func NewRevCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rev <session> <rev-id>",
		Short: "Print the text of a historical revision",
		Long: `Reconstruct and print the text of the revision with the given id.

Examples:
  weave rev 0190... 1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid revision id %q", args[1]))
			}
			id := engine.RevID(n)

			sess, st, err := rootOpts.openSession(context.Background(), cmd, args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			ix, ok := sess.FindRev(id)
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown revision %d", id))
			}
			q, err := sess.Rev(ix)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to reconstruct revision", err)
			}

			f := rootOpts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(TextResult{Rev: id, Text: q.String()})
			}
			return f.Success(q.String())
		},
	}
}

// DeltaElement is the JSON form of one delta element.
type DeltaElement struct {
	Kind  string `json:"kind"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
	Text  string `json:"text,omitempty"`
}

// NewDeltaCommand creates the delta command.
func NewDeltaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delta <session>",
		Short: "Print the delta from the previous head to the head",
		Long: `Print the minimal delta that turns the previous revision's text into
the head text, one element per line.

Examples:
  weave delta 0190...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, st, err := rootOpts.openSession(context.Background(), cmd, args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := sess.DeltaHead()
			if err != nil {
				return WrapExitError(ExitCommandError, "no delta", err)
			}

			f := rootOpts.formatter(cmd)
			els := deltaElements(d)
			if f.IsJSON() {
				return f.Success(els)
			}
			for _, el := range els {
				if el.Kind == delta.Copy.String() {
					fmt.Fprintf(f.Writer, "copy %d..%d\n", el.Start, el.End)
				} else {
					fmt.Fprintf(f.Writer, "insert %q\n", el.Text)
				}
			}
			return nil
		},
	}
}

func deltaElements(d delta.Delta) []DeltaElement {
	out := []DeltaElement{}
	for _, el := range d.Elements() {
		de := DeltaElement{Kind: el.Kind.String()}
		if el.Kind == delta.Copy {
			de.Start, de.End = el.Start, el.End
		} else {
			de.Text = el.Text
		}
		out = append(out, de)
	}
	return out
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log <session>",
		Short: "Print the revision log",
		Long: `Print every revision, oldest first.

Text output has one line per revision: id, kind, visible length and
union length, then priority, group and insert/delete counts for edits or
the undone groups for undos. JSON output is the canonical revision form
used by golden files.

Examples:
  weave log 0190...
  weave log 0190... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, st, err := rootOpts.openSession(context.Background(), cmd, args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			revs := sess.Revisions()
			f := rootOpts.formatter(cmd)
			if f.IsJSON() {
				out := make([]map[string]any, len(revs))
				for i, r := range revs {
					out[i] = engine.CanonicalRevision(r)
				}
				return f.Success(out)
			}

			tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
			for _, r := range revs {
				fmt.Fprintf(tw, "%d\t", r.ID)
				switch c := r.Contents.(type) {
				case engine.Edit:
					fmt.Fprintf(tw, "edit\tlen=%d\tunion=%d\tpriority=%d group=%d +%d -%d\n",
						r.FromUnion.Count(), r.UnionLen, c.Priority, c.UndoGroup, c.Inserts.Count(), c.Deletes.Count())
				case engine.Undo:
					fmt.Fprintf(tw, "undo\tlen=%d\tunion=%d\tgroups=%v\n",
						r.FromUnion.Count(), r.UnionLen, c.Groups.IDs())
				}
			}
			return tw.Flush()
		},
	}
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Long: `List every session in the database with its head revision, revision
count and union length.

Examples:
  weave sessions --db ./weave.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.ListSessions(context.Background())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list sessions", err)
			}

			f := rootOpts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(f.Writer, "No sessions found.")
				return nil
			}
			tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tHEAD\tREVISIONS\tUNION")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", info.ID, info.Name, info.HeadRev, info.Revisions, info.UnionLen)
			}
			return tw.Flush()
		},
	}
}
