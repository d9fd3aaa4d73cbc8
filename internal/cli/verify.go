package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/weave/internal/session"
	"github.com/roach88/weave/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Session string // optional - specific session only
}

// VerifySessionResult holds the verification result for a single session.
type VerifySessionResult struct {
	Session   string `json:"session"`
	Revisions int    `json:"revisions"`
	Digest    string `json:"digest,omitempty"`
	Verified  bool   `json:"verified"`
	Error     string `json:"error,omitempty"`
}

// VerifyResult holds the overall verification result.
type VerifyResult struct {
	Sessions      []VerifySessionResult `json:"sessions"`
	TotalSessions int                   `json:"total_sessions"`
	AllVerified   bool                  `json:"all_verified"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reload sessions and verify their digests",
		Long: `Restore each session from the stored revision log twice and check that
every reload produces the same state digest.

Exit codes:
  0 - All sessions verified
  1 - Verification failed (digest mismatch or unreadable log)
  2 - Command error (database not found, etc.)

Examples:
  weave verify --db ./weave.db
  weave verify --db ./weave.db --session 0190...
  weave verify --db ./weave.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "verify specific session only")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	// Get session ids to process
	var ids []string
	if opts.Session != "" {
		ids = []string{opts.Session}
	} else {
		infos, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, info := range infos {
			ids = append(ids, info.ID)
		}
	}

	f := opts.formatter(cmd)
	result := VerifyResult{
		Sessions:      make([]VerifySessionResult, 0, len(ids)),
		TotalSessions: len(ids),
		AllVerified:   true,
	}

	if len(ids) == 0 {
		if f.IsJSON() {
			return f.Success(result)
		}
		fmt.Fprintln(f.Writer, "No sessions found in database.")
		return nil
	}

	for _, id := range ids {
		f.VerboseLog("verifying %s", id)
		r := verifySession(ctx, st, id, opts.RootOptions)
		result.Sessions = append(result.Sessions, r)
		if !r.Verified {
			result.AllVerified = false
		}
	}

	if f.IsJSON() {
		return outputVerifyJSON(f, result)
	}
	return outputVerifyText(f, result)
}

// verifySession opens one session and reloads it twice. A session that
// cannot be opened or restored counts as unverified.
func verifySession(ctx context.Context, st *store.Store, id string, opts *RootOptions) VerifySessionResult {
	r := VerifySessionResult{Session: id}

	sess, err := session.Open(ctx, st, id, session.WithLogger(opts.Logger))
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Revisions = len(sess.Revisions())

	digest, err := sess.Verify(ctx)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Digest = digest
	r.Verified = true
	return r
}

func outputVerifyJSON(f *OutputFormatter, result VerifyResult) error {
	if result.AllVerified {
		return f.Success(result)
	}
	if err := f.Error(CodeDigestMismatch, "verification failed", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "verification failed")
}

func outputVerifyText(f *OutputFormatter, result VerifyResult) error {
	w := f.Writer

	fmt.Fprintf(w, "Verify Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		if !s.Verified {
			fmt.Fprintf(w, "✗ Session: %s\n", s.Session)
			fmt.Fprintf(w, "  Error: %s\n", s.Error)
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "✓ Session: %s\n", s.Session)
		fmt.Fprintf(w, "  Revisions: %d\n", s.Revisions)
		if f.Verbose {
			fmt.Fprintf(w, "  Digest: %s\n", s.Digest)
		}
		fmt.Fprintln(w)
	}

	if result.AllVerified {
		fmt.Fprintln(w, "✓ All sessions verified")
		return nil
	}

	fmt.Fprintln(w, "✗ Verification failed")
	return NewExitError(ExitFailure, "verification failed")
}
