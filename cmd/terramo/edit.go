package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terramo-esg/terramo/internal/draft"
	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/submission"
	"github.com/terramo-esg/terramo/internal/utils"
)

const editHelp = `commands:
  set <code> <field> <value>   field is priority, status_quo or comment; "-" clears a score
  show                         print the questionnaire with unsaved edits marked *
  save                         save edits as draft
  submit                       submit the year (read-only afterwards)
  discard                      drop unsaved edits
  year <YYYY>                  switch reporting year
  quit                         leave the session`

var errUnknownQuestion = errors.New("unknown question")

func newEditCmd(current func() *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your answers interactively",
		Long:  "Starts an editing session for one reporting year. Commands are read line by line from stdin.\n\n" + editHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			s, err := newEditSession(cmd.Context(), a, year)
			if err != nil {
				return err
			}
			return s.run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&year, "year", currentYear(), "reporting year")
	return cmd
}

// editSession is one interactive questionnaire session.
type editSession struct {
	a         *app
	drafts    *draft.Store
	coord     *submission.Coordinator
	questions []models.Question
	byCode    map[string]string
	quitArmed bool
}

func newEditSession(ctx context.Context, a *app, year int) (*editSession, error) {
	qs, err := a.client.Questions(ctx)
	if err != nil {
		return nil, err
	}
	s := &editSession{
		a:         a,
		drafts:    draft.NewStore(year),
		questions: qs.Data,
		byCode:    make(map[string]string, len(qs.Data)),
	}
	for _, q := range qs.Data {
		s.byCode[strings.ToUpper(q.IndexCode)] = q.ID
	}
	s.coord = submission.NewCoordinator(a.client, s.drafts, a.cfg.Locale, a.logger)
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// load seeds the draft store from the current year's dashboard.
func (s *editSession) load(ctx context.Context) error {
	year := s.drafts.State().Year
	res, err := s.a.client.Dashboard(ctx, year)
	if err != nil {
		return fmt.Errorf("load %d: %w", year, err)
	}
	s.drafts.InitializeFromServer(res.Version, res.Data)
	return nil
}

func (s *editSession) run(ctx context.Context) error {
	sc := bufio.NewScanner(s.a.in)
	s.prompt()
	for sc.Scan() {
		if s.exec(ctx, sc.Text()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.prompt()
	}
	if s.drafts.State().HasChanges() {
		s.say(submission.LevelWarning, "session.unsaved")
	}
	return sc.Err()
}

func (s *editSession) prompt() {
	st := s.drafts.State()
	mark := ""
	if st.HasChanges() {
		mark = "*"
	}
	fmt.Fprintf(s.a.out, "%d%s> ", st.Year, mark)
}

func (s *editSession) say(level submission.Level, key string) {
	s.print(submission.Notice{Level: level, Key: key, Message: utils.T(s.a.cfg.Locale, key)})
}

func (s *editSession) print(n submission.Notice) {
	if n.Err != nil {
		s.a.logger.Debug("notice", zap.String("key", n.Key), zap.Error(n.Err))
	}
	fmt.Fprintln(s.a.out, renderNotice(n))
}

func (s *editSession) fail(err error) {
	fmt.Fprintln(s.a.out, styleError.Render(err.Error()))
}

// exec runs one command line and reports whether the session should end.
func (s *editSession) exec(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	cmd := strings.ToLower(args[0])
	if cmd != "quit" && cmd != "exit" {
		s.quitArmed = false
	}
	switch cmd {
	case "set":
		if len(args) < 4 {
			s.fail(errors.New("usage: set <code> <field> <value>"))
			return false
		}
		if err := s.set(args[1], args[2], afterFields(line, 3)); err != nil {
			s.fail(err)
		}
	case "show":
		s.show()
	case "save":
		s.print(s.coord.Save(ctx, models.StatusDraft))
	case "submit":
		s.print(s.coord.Save(ctx, models.StatusSubmitted))
	case "discard":
		had := s.drafts.State().HasChanges()
		s.drafts.Reset()
		if had {
			s.say(submission.LevelInfo, "session.discarded")
		} else {
			s.say(submission.LevelInfo, "save.nothing")
		}
	case "year":
		if len(args) != 2 {
			s.fail(errors.New("usage: year <YYYY>"))
			return false
		}
		if err := s.switchYear(ctx, args[1]); err != nil {
			s.fail(err)
		}
	case "quit", "exit":
		if s.drafts.State().HasChanges() && !s.quitArmed {
			s.quitArmed = true
			s.say(submission.LevelWarning, "session.unsaved")
			fmt.Fprintln(s.a.out, styleMuted.Render("quit again to leave anyway"))
			return false
		}
		return true
	case "help", "?":
		fmt.Fprintln(s.a.out, editHelp)
	default:
		s.fail(fmt.Errorf("unknown command %q, try help", args[0]))
	}
	return false
}

func (s *editSession) set(code, fieldName, raw string) error {
	if s.drafts.State().Locked {
		s.say(submission.LevelWarning, "save.locked")
		return nil
	}
	id, ok := s.byCode[strings.ToUpper(code)]
	if !ok {
		return fmt.Errorf("%w %q", errUnknownQuestion, code)
	}
	field, err := draft.ParseField(fieldName)
	if err != nil {
		return err
	}
	if field == draft.FieldComment {
		raw = unquote(raw)
	}
	_, err = s.drafts.SetField(id, field, raw)
	return err
}

func (s *editSession) switchYear(ctx context.Context, arg string) error {
	year, err := strconv.Atoi(arg)
	if err != nil || year < 1900 || year > 9999 {
		return fmt.Errorf("invalid year %q", arg)
	}
	// Fetch first so a failed load leaves the current year and its edits alone.
	res, err := s.a.client.Dashboard(ctx, year)
	if err != nil {
		return fmt.Errorf("load %d: %w", year, err)
	}
	had := s.drafts.State().HasChanges()
	s.drafts.Dispatch(draft.SelectYear{Year: year})
	s.drafts.InitializeFromServer(res.Version, res.Data)
	if had {
		s.say(submission.LevelWarning, "session.year_switched")
	}
	return nil
}

func (s *editSession) show() {
	st := s.drafts.State()
	title := fmt.Sprintf("Reporting year %d", st.Year)
	if st.Locked {
		title += " " + styleWarning.Render("(submitted)")
	}
	fmt.Fprintln(s.a.out, styleHeader.Render(title))
	for _, q := range s.questions {
		v := st.Effective(q.ID)
		mark := " "
		if f, ok := st.Edits[q.ID]; ok && !f.Empty() {
			mark = styleEdited.Render("*")
		}
		fmt.Fprintf(s.a.out, "%s %-6s prio %-2s sq %-2s %s\n", mark, q.IndexCode, v.Priority, v.StatusQuo, v.Comment)
	}
	if st.HasChanges() {
		fmt.Fprintln(s.a.out, styleMuted.Render(fmt.Sprintf("%d unsaved", len(st.Pending()))))
	}
}

// afterFields returns line with its first n whitespace-separated fields removed.
func afterFields(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		j := strings.IndexFunc(rest, unicode.IsSpace)
		if j < 0 {
			return ""
		}
		rest = strings.TrimLeftFunc(rest[j:], unicode.IsSpace)
	}
	return rest
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}
