package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/auth"
	"github.com/yigit/rollcall/internal/seed"
)

const minPasswordLength = 8

var errHelp = errors.New("help provided")

type userStore interface {
	seed.AdminCreator
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, hash string) error
}

type tokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type holidayImporter interface {
	ImportHolidays(ctx context.Context, holidays []*models.Holiday) (int, error)
}

// backend is what the database commands run against
type backend struct {
	users    userStore
	tokens   tokenRevoker
	calendar holidayImporter
	migrate  func(ctx context.Context) error
	seed     func(ctx context.Context) error
	close    func()
}

type commandLine struct {
	ctx          context.Context
	out          io.Writer
	connect      func() (*backend, error)
	readPassword func(fd int) ([]byte, error)
	openFile     func(name string) (io.ReadCloser, error)
}

func newCommandLine(ctx context.Context, connect func() (*backend, error)) *commandLine {
	return &commandLine{
		ctx:          ctx,
		out:          os.Stdout,
		connect:      connect,
		readPassword: term.ReadPassword,
		openFile:     func(name string) (io.ReadCloser, error) { return os.Open(name) },
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                   - apply pending database migrations")
	fmt.Fprintln(cli.out, "  seed                                      - insert default settings, holidays, departments and admin")
	fmt.Fprintln(cli.out, "  create-admin -email EMAIL [-name NAME]    - create an admin account, password prompted")
	fmt.Fprintln(cli.out, "  reset-password -email EMAIL               - set a new password and revoke sessions, password prompted")
	fmt.Fprintln(cli.out, "  import-holidays -file FILE.csv            - upsert holidays from date,label rows")
	fmt.Fprintln(cli.out, "  generate-preview -start DATE -weekday N   - print a generated schedule without touching the database")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		return cli.withBackend(func(b *backend) error { return b.migrate(cli.ctx) })
	case "seed":
		return cli.withBackend(func(b *backend) error { return b.seed(cli.ctx) })
	case "create-admin":
		return cli.createAdmin(args[2:])
	case "reset-password":
		return cli.resetPassword(args[2:])
	case "import-holidays":
		return cli.importHolidays(args[2:])
	case "generate-preview":
		return cli.generatePreview(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) withBackend(fn func(b *backend) error) error {
	b, err := cli.connect()
	if err != nil {
		return err
	}
	defer b.close()
	return fn(b)
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := cli.readPassword(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return string(pwd), nil
}

func (cli *commandLine) createAdmin(args []string) error {
	cmd := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	email := cmd.String("email", "", "The admin's email. The password will be prompted next.")
	name := cmd.String("name", "Administrator", "Display name")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		cmd.Usage()
		return errHelp
	}

	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}
	return cli.withBackend(func(b *backend) error {
		user, err := seed.CreateAdmin(cli.ctx, b.users, *name, strings.ToLower(*email), pwd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Admin %s created with id %d\n", user.Email, user.ID)
		return nil
	})
}

func (cli *commandLine) resetPassword(args []string) error {
	cmd := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	email := cmd.String("email", "", "The user's email. The password will be prompted next.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		cmd.Usage()
		return errHelp
	}

	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(pwd)
	if err != nil {
		return err
	}
	return cli.withBackend(func(b *backend) error {
		user, err := b.users.GetByEmail(cli.ctx, strings.ToLower(*email))
		if err != nil {
			return err
		}
		if err := b.users.UpdatePassword(cli.ctx, user.ID, hash); err != nil {
			return err
		}
		if err := b.tokens.RevokeAllForUser(cli.ctx, user.ID); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Password of %s updated, sessions revoked\n", user.Email)
		return nil
	})
}

func (cli *commandLine) importHolidays(args []string) error {
	cmd := flag.NewFlagSet("import-holidays", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	file := cmd.String("file", "", "CSV file with date,label rows (YYYY-MM-DD)")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		cmd.Usage()
		return errHelp
	}

	f, err := cli.openFile(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	holidays, err := parseHolidays(f)
	if err != nil {
		return err
	}
	return cli.withBackend(func(b *backend) error {
		n, err := b.calendar.ImportHolidays(cli.ctx, holidays)
		if err != nil {
			return fmt.Errorf("imported %d of %d holidays: %w", n, len(holidays), err)
		}
		fmt.Fprintf(cli.out, "Imported %d holidays\n", n)
		return nil
	})
}

// parseHolidays reads date,label rows. A first row whose date column does not
// parse is treated as a header.
func parseHolidays(r io.Reader) ([]*models.Holiday, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read holidays: %w", err)
	}

	holidays := make([]*models.Holiday, 0, len(records))
	for i, record := range records {
		date, err := schedule.ParseDate(strings.TrimSpace(record[0]))
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid date %q", i+1, record[0])
		}
		label := strings.TrimSpace(record[1])
		if label == "" {
			return nil, fmt.Errorf("line %d: empty label", i+1)
		}
		holidays = append(holidays, &models.Holiday{Date: date, Label: label})
	}
	return holidays, nil
}

func (cli *commandLine) generatePreview(args []string) error {
	cmd := flag.NewFlagSet("generate-preview", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	start := cmd.String("start", "", "First possible class date (YYYY-MM-DD)")
	weekday := cmd.Int("weekday", -1, "Class weekday, 0=Sunday .. 6=Saturday")
	length := cmd.Int("length", 15, "Number of teaching weeks")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *start == "" || *weekday < 0 {
		cmd.Usage()
		return errHelp
	}

	startDate, err := schedule.ParseDate(*start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", *start, err)
	}
	drafts, err := schedule.NewGenerator(schedule.RandomCode).Generate(schedule.Request{
		StartDate:    startDate,
		Weekday:      *weekday,
		CourseLength: *length,
		Holidays:     schedule.DefaultHolidays(),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WEEK\tDATE\tKIND\tTITLE\tCODE")
	for _, d := range drafts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.Week, d.Date.Format(schedule.DateLayout), d.Kind, d.Title, d.AuthCode)
	}
	return w.Flush()
}
