// CardioCare - heart health risk assessment client
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/api"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/config"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/export"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/gate"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/intake"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/logging"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/metrics"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/report"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/session"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/share"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/submission"
)

// Build info - set by ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

const usage = `CardioCare heart health risk assessment

Usage: cardiocare <command> [flags]

Commands:
  register   Create an account and log in
  login      Log in with email and password
  logout     Clear the stored session
  whoami     Show the current profile
  submit     Submit an assessment from a JSON answers file
  report     Show the report for an assessment
  history    Show the risk trend across recent assessments
  export     Export a report as PDF
  share      Generate a secure share link for a report
`

// app wires the client-side services together.
type app struct {
	cfg     *config.Config
	client  *api.Client
	session *session.Manager
	gate    *gate.Gate
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL"), "text")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := session.NewFileStore(cfg.StateDir)
	if err != nil {
		logger.Error("failed to open session store", "error", err, "dir", cfg.StateDir)
		os.Exit(1)
	}

	// The client reads the token through the manager, and the manager
	// calls the client; the closure breaks the cycle.
	var mgr *session.Manager
	client := api.New(cfg.APIBaseURL,
		api.WithLogger(logger),
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		api.WithTokenSource(func() string {
			if mgr == nil {
				return ""
			}
			return mgr.Token()
		}),
	)
	mgr = session.NewManager(store, client, session.WithLogger(logger))
	mgr.OnForcedLogout = func() {
		fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
	}

	a := &app{
		cfg:     cfg,
		client:  client,
		session: mgr,
		gate:    gate.New(mgr),
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var runErr error
	switch cmd {
	case "register":
		runErr = a.register(ctx, args)
	case "login":
		runErr = a.login(ctx, args)
	case "logout":
		runErr = a.logout(ctx)
	case "whoami":
		runErr = a.whoami(ctx)
	case "submit":
		runErr = a.submit(ctx, args)
	case "report":
		runErr = a.report(ctx, args)
	case "history":
		runErr = a.history(ctx)
	case "export":
		runErr = a.export(ctx, args)
	case "share":
		runErr = a.share(ctx, args)
	case "version":
		fmt.Printf("cardiocare %s (%s)\n", Version, Commit)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", runErr)
		os.Exit(1)
	}
}

// requireAuth restores the session and enforces the access gate for a
// protected destination.
func (a *app) requireAuth(ctx context.Context, target string) error {
	a.session.Restore(ctx)
	switch a.gate.Decide(target) {
	case gate.Granted:
		return nil
	default:
		return errors.New("you are not logged in. Run 'cardiocare login' first")
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)
	if *name == "" || *email == "" || *password == "" {
		return errors.New("register requires -name, -email and -password")
	}

	user, err := a.session.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s! You are now logged in.\n", user.FullName)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)
	if *email == "" || *password == "" {
		return errors.New("login requires -email and -password")
	}

	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		var pfe *session.ProfileFetchError
		if errors.As(err, &pfe) {
			return fmt.Errorf("logged in but could not load your profile, so the session was not kept: %w", pfe.Err)
		}
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", user.FullName, user.Email)

	if dest := a.gate.ReturnTo(""); dest != "" {
		fmt.Printf("Returning to %s\n", dest)
	}
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.session.Restore(ctx)
	a.session.Logout()
	fmt.Println("Logged out.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.requireAuth(ctx, "/settings"); err != nil {
		return err
	}
	user, err := a.session.FetchProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.FullName, user.Email)
	return nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	input := fs.String("input", "", "path to a JSON file of answers")
	fs.Parse(args)
	if *input == "" {
		return errors.New("submit requires -input")
	}

	if err := a.requireAuth(ctx, "/assessment"); err != nil {
		return err
	}

	raw, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	var answers map[string]string
	if err := json.Unmarshal(raw, &answers); err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}

	form := intake.NewForm()
	for k, v := range answers {
		if err := form.Set(k, v); err != nil {
			return err
		}
	}
	if !form.Validate() {
		for _, f := range intake.Fields {
			if msg, ok := form.Errors()[f.Name]; ok {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Name, msg)
			}
		}
		return errors.New("the assessment has validation errors")
	}

	navigated := make(chan string, 1)
	machine := submission.New(
		a.client,
		a.session.IsAuthenticated,
		func(path string) { navigated <- path },
	)
	defer machine.Close()

	if err := machine.Submit(ctx, form.Payload()); err != nil {
		return err
	}

	out := machine.Outcome()
	switch out.State {
	case submission.StateSucceeded:
		metrics.SubmissionsTotal.WithLabelValues("succeeded").Inc()
		fmt.Println("Assessment saved.")
		for _, rec := range out.Summary.Recommendations {
			fmt.Println(" ", rec)
		}
		if dest := waitForNav(navigated, submission.DefaultSuccessNavDelay); dest != "" {
			fmt.Println("Opening", dest)
		}
	case submission.StateFailed:
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		if dest := waitForNav(navigated, submission.DefaultLoginNavDelay); dest != "" {
			fmt.Fprintln(os.Stderr, out.Message)
			fmt.Println("Opening", dest)
			return nil
		}
		return errors.New(out.Message)
	}
	return nil
}

// waitForNav waits slightly past the machine's navigation delay so the
// deferred destination, if any, is observed before the process exits.
func waitForNav(ch <-chan string, delay time.Duration) string {
	select {
	case dest := <-ch:
		return dest
	case <-time.After(delay + 500*time.Millisecond):
		return ""
	}
}

func (a *app) report(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	id := fs.String("id", "", "assessment id")
	fs.Parse(args)
	if *id == "" {
		return errors.New("report requires -id")
	}

	if err := a.requireAuth(ctx, "/report/"+*id); err != nil {
		return err
	}

	assessment, err := a.client.GetAssessment(ctx, *id)
	if err != nil {
		return err
	}
	rep, err := report.Build(assessment)
	if err != nil {
		return err
	}

	fmt.Printf("Risk Level: %s\n", rep.RiskLevel)
	fmt.Printf("Risk Score: %d/100\n", rep.RiskScore)
	if len(rep.Factors) > 0 {
		fmt.Println("\nContributing Factors:")
		for _, f := range rep.Factors {
			fmt.Printf("  %-28s %-10s %s\n", f.Factor, f.Impact, f.Value)
		}
	}
	if len(rep.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for i, rec := range rep.Recommendations {
			fmt.Printf("  %d. %s\n", i+1, rec)
		}
	}
	if bars := report.Breakdown(rep.Input); len(bars) > 0 {
		fmt.Println("\nKey Metrics:")
		for _, b := range bars {
			fmt.Printf("  %-32s %s %3d%%\n", b.Label, textBar(b.Percent), b.Percent)
		}
	}
	return nil
}

// textBar renders a bar as 20 fill characters.
func textBar(percent int) string {
	filled := percent / 5
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

func (a *app) history(ctx context.Context) error {
	if err := a.requireAuth(ctx, "/dashboard"); err != nil {
		return err
	}

	assessments, err := a.client.ListAssessments(ctx)
	if err != nil {
		return err
	}
	points := report.Trend(assessments)
	if len(points) == 0 {
		fmt.Println("No scored assessments yet.")
		return nil
	}
	fmt.Println("Risk trend (oldest first):")
	for _, p := range points {
		fmt.Printf("  %s  %3d/100  %-14s %s\n",
			p.CreatedAt.Format("2006-01-02"), p.RiskScore, p.RiskLevel, p.AssessmentID)
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	id := fs.String("id", "", "assessment id")
	out := fs.String("o", export.FileName, "output file")
	fs.Parse(args)
	if *id == "" {
		return errors.New("export requires -id")
	}

	if err := a.requireAuth(ctx, "/report/"+*id); err != nil {
		return err
	}

	assessment, err := a.client.GetAssessment(ctx, *id)
	if err != nil {
		return err
	}
	rep, err := report.Build(assessment)
	if err != nil {
		return err
	}

	exporter := export.New(export.WithChart(export.GaugeChart(report.NewGaugeRenderer())))
	res, err := exporter.Render(rep)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, res.PDF, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	metrics.ExportsTotal.Inc()
	fmt.Printf("Exported %s (%d pages)\n", *out, res.Pages)
	return nil
}

func (a *app) share(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	id := fs.String("id", "", "assessment id")
	fs.Parse(args)
	if *id == "" {
		return errors.New("share requires -id")
	}

	if err := a.requireAuth(ctx, "/report/"+*id); err != nil {
		return err
	}

	var minter share.Minter
	if a.cfg.ShareServiceURL != "" {
		minter = share.NewHTTPMinter(a.cfg.ShareServiceURL, nil, a.session.Token)
	} else {
		minter = share.NewSimulatedMinter(a.cfg.ShareBaseURL)
	}

	svc := share.NewService(minter)
	link, err := svc.Generate(ctx, *id)
	if err != nil {
		metrics.ShareLinksTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.ShareLinksTotal.WithLabelValues("generated").Inc()

	fmt.Println("Secure share link (expires in 72 hours):")
	fmt.Println(" ", link.URL)

	copied, err := share.CopyWithFallback(link.URL, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not copy the link:", err)
		return nil
	}
	if copied {
		fmt.Println("Link copied to clipboard.")
	}
	return nil
}
