// Command searchcorectl is an operator CLI over the mailbox search core:
// it runs ad-hoc searches against a maildir + sqlite index pair, inspects
// and rewrites a message's maildir flags, and reports mailbox-wide
// index stats. Grounded on the teacher's cmd/mailserver/main.go use of
// cobra as the process entrypoint framework.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-maildir"

	"github.com/kestrelmail/searchcore/internal/charsearch"
	"github.com/kestrelmail/searchcore/internal/config"
	"github.com/kestrelmail/searchcore/internal/logging"
	"github.com/kestrelmail/searchcore/internal/maildirbox"
	"github.com/kestrelmail/searchcore/internal/mailindex"
	"github.com/kestrelmail/searchcore/internal/search"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "searchcorectl",
	Short: "Operator CLI for the mailbox search core",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(logging.Config{
			Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output,
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "searchcore.yaml", "config file path")
	rootCmd.AddCommand(searchCmd, flagsCmd, reindexStatsCmd)

	flagsCmd.AddCommand(flagsGetCmd, flagsSetCmd)

	searchCmd.Flags().Bool("seen", false, "SEEN")
	searchCmd.Flags().Bool("unseen", false, "NOT SEEN")
	searchCmd.Flags().Bool("deleted", false, "DELETED")
	searchCmd.Flags().Bool("undeleted", false, "NOT DELETED")
	searchCmd.Flags().Bool("flagged", false, "FLAGGED")
	searchCmd.Flags().Bool("answered", false, "ANSWERED")
	searchCmd.Flags().Bool("draft", false, "DRAFT")
	searchCmd.Flags().String("before", "", "BEFORE, RFC3339 date")
	searchCmd.Flags().String("since", "", "SINCE, RFC3339 date")
	searchCmd.Flags().StringSlice("header", nil, `HEADER "Name: value" (repeatable)`)
	searchCmd.Flags().StringSlice("body", nil, "BODY substring (repeatable)")
	searchCmd.Flags().StringSlice("text", nil, "TEXT substring (repeatable)")
	searchCmd.Flags().Int64("larger", 0, "LARGER <n> bytes")
	searchCmd.Flags().Int64("smaller", 0, "SMALLER <n> bytes")
	searchCmd.Flags().String("charset", "", "default CHARSET for text leaves")
}

var searchCmd = &cobra.Command{
	Use:   "search <maildir> <db>",
	Short: "Run a search and print matching sequence numbers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		maildirPath, dbPath := args[0], args[1]

		store, view, err := openIndex(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		criteria, err := criteriaFromFlags(cmd)
		if err != nil {
			return err
		}

		opener := maildirbox.DirOpener{Dir: maildir.Dir(maildirPath)}
		charset := cfg.Search.DefaultCharset
		if c, _ := cmd.Flags().GetString("charset"); c != "" {
			charset = c
		}

		sess := search.NewSession(view, opener, charsearch.Factory{}, search.NewAddressParser(), search.NewDateParser(), nil, charset)
		if err := sess.Init(criteria); err != nil {
			return fmt.Errorf("search init: %w", err)
		}
		defer sess.Deinit()

		matches := 0
		for {
			seq, matched, done, err := sess.Next()
			if done {
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				break
			}
			if err != nil {
				logger.Search().Warn("candidate skipped", "seq", seq, "error", err.Error())
				continue
			}
			if matched {
				matches++
				fmt.Printf("%d\n", seq)
			}
		}
		fmt.Fprintf(os.Stderr, "%d message(s) matched\n", matches)
		return nil
	},
}

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Inspect or rewrite a message's maildir flags",
}

var flagsGetCmd = &cobra.Command{
	Use:   "get <maildir> <db> <uid>",
	Short: "Print the decoded flags for one message",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, uidArg := args[0], args[1], args[2]
		uid, err := strconv.ParseUint(uidArg, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid uid: %w", err)
		}

		store, view, err := openIndex(db)
		if err != nil {
			return err
		}
		defer store.Close()

		_, flags, err := lookupByUID(view, uint32(uid))
		if err != nil {
			return err
		}
		fmt.Println(formatFlags(flags))
		return nil
	},
}

var flagsSetCmd = &cobra.Command{
	Use:   "set <maildir> <db> <uid> <flags>",
	Short: `Rewrite a message's flags, e.g. "set mail/ idx.db 42 SDF"`,
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		maildirPath, db, uidArg, flagsArg := args[0], args[1], args[2], args[3]
		uid, err := strconv.ParseUint(uidArg, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid uid: %w", err)
		}

		store, view, err := openIndex(db)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, _, err := lookupByUID(view, uint32(uid))
		if err != nil {
			return err
		}
		loc, ok := rec.Field("LOCATION")
		if !ok {
			return fmt.Errorf("record %d missing LOCATION", uid)
		}

		newFlags := parseFlagLetters(flagsArg)
		dir := maildir.Dir(maildirPath)
		if err := maildirbox.UpdateFlags(dir, uint32(uid), string(loc), newFlags, store); err != nil {
			return fmt.Errorf("update flags: %w", err)
		}
		fmt.Println("ok")
		return nil
	},
}

var reindexStatsCmd = &cobra.Command{
	Use:   "reindex-stats <db>",
	Short: "Print mailbox-wide counters read by the range planner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, view, err := openIndex(args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		hdr, err := view.Header()
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		fmt.Printf("messages:               %d\n", hdr.MessagesCount)
		fmt.Printf("seen:                   %d\n", hdr.SeenCount)
		fmt.Printf("deleted:                %d\n", hdr.DeletedCount)
		fmt.Printf("first_unseen_lowwater:  %d\n", hdr.FirstUnseenUIDLowwater)
		fmt.Printf("first_deleted_lowwater: %d\n", hdr.FirstDeletedUIDLowwater)
		return nil
	},
}

func openIndex(dbPath string) (*mailindex.Store, *mailindex.View, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	store := mailindex.NewStore(db)
	if err := store.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return store, mailindex.NewView(store), nil
}

func lookupByUID(view *mailindex.View, uid uint32) (*search.Record, search.SystemFlag, error) {
	hdr, err := view.Header()
	if err != nil {
		return nil, 0, err
	}
	for seq := uint32(1); seq <= hdr.MessagesCount; seq++ {
		rec, ok, err := view.Lookup(seq)
		if err != nil {
			return nil, 0, err
		}
		if ok && rec.UID == uid {
			return rec, rec.Flags, nil
		}
	}
	return nil, 0, fmt.Errorf("uid %d not found", uid)
}

func criteriaFromFlags(cmd *cobra.Command) (*imap.SearchCriteria, error) {
	c := &imap.SearchCriteria{}

	addFlag := func(name string, f imap.Flag) {
		if v, _ := cmd.Flags().GetBool(name); v {
			c.Flag = append(c.Flag, f)
		}
	}
	addNotFlag := func(name string, f imap.Flag) {
		if v, _ := cmd.Flags().GetBool(name); v {
			c.NotFlag = append(c.NotFlag, f)
		}
	}
	addFlag("seen", imap.FlagSeen)
	addNotFlag("unseen", imap.FlagSeen)
	addFlag("deleted", imap.FlagDeleted)
	addNotFlag("undeleted", imap.FlagDeleted)
	addFlag("flagged", imap.FlagFlagged)
	addFlag("answered", imap.FlagAnswered)
	addFlag("draft", imap.FlagDraft)

	if s, _ := cmd.Flags().GetString("before"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("--before: %w", err)
		}
		c.Before = t
	}
	if s, _ := cmd.Flags().GetString("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("--since: %w", err)
		}
		c.Since = t
	}

	headers, _ := cmd.Flags().GetStringSlice("header")
	for _, h := range headers {
		name, value, _ := strings.Cut(h, ":")
		c.Header = append(c.Header, imap.SearchCriteriaHeaderField{
			Key: strings.TrimSpace(name), Value: strings.TrimSpace(value),
		})
	}

	c.Body, _ = cmd.Flags().GetStringSlice("body")
	c.Text, _ = cmd.Flags().GetStringSlice("text")

	c.Larger, _ = cmd.Flags().GetInt64("larger")
	c.Smaller, _ = cmd.Flags().GetInt64("smaller")

	return c, nil
}

func formatFlags(f search.SystemFlag) string {
	var b strings.Builder
	if f&search.FlagAnswered != 0 {
		b.WriteByte('R')
	}
	if f&search.FlagFlagged != 0 {
		b.WriteByte('F')
	}
	if f&search.FlagDeleted != 0 {
		b.WriteByte('T')
	}
	if f&search.FlagSeen != 0 {
		b.WriteByte('S')
	}
	if f&search.FlagDraft != 0 {
		b.WriteByte('D')
	}
	if f&search.FlagRecent != 0 {
		b.WriteString(" (+RECENT, unpersisted)")
	}
	if b.Len() == 0 {
		return "(none)"
	}
	return b.String()
}

func parseFlagLetters(s string) search.SystemFlag {
	var f search.SystemFlag
	for _, c := range s {
		switch c {
		case 'R':
			f |= search.FlagAnswered
		case 'S':
			f |= search.FlagSeen
		case 'T':
			f |= search.FlagDeleted
		case 'D':
			f |= search.FlagDraft
		case 'F':
			f |= search.FlagFlagged
		}
	}
	return f
}
