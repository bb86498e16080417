// Command solace is a terminal client for the Solace API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/soaringjerry/Solace/internal/client"
	"github.com/soaringjerry/Solace/internal/config"
)

const usage = `usage: solace <command> [flags]

commands:
  register   create an account and print a token
  login      sign in and print a token
  assess     answer PHQ-9, GAD-7 and a stress rating
  dashboard  show your risk overview and trends
  chat       talk with the assistant (-html prints rendered markup)

SOLACE_API_URL selects the server, SOLACE_TOKEN carries the session.`

var errUsage = errors.New("bad usage")

type app struct {
	api *client.Client
	in  *bufio.Reader
	out io.Writer
}

func newApp(api *client.Client, in io.Reader, out io.Writer) *app {
	return &app{api: api, in: bufio.NewReader(in), out: out}
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: load .env: %v", err)
	}
	cfg, err := config.LoadCLI()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(cfg.APIURL, client.WithTimeout(cfg.Timeout), client.WithToken(cfg.Token))
	a := newApp(api, os.Stdin, os.Stdout)
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+client.Detail(err, err.Error())))
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "assess":
		return a.assess(ctx)
	case "dashboard":
		return a.dashboard(ctx)
	case "chat":
		fs := flag.NewFlagSet("chat", flag.ContinueOnError)
		html := fs.Bool("html", false, "print replies as rendered HTML")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		return a.chat(ctx, *html)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	}
	return errUsage
}

// prompt prints label and reads one trimmed line. io.EOF is returned once
// input is exhausted.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) credentials(name string, args []string, withEmail bool) (user, email, pass string, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&user, "username", "", "username")
	if withEmail {
		fs.StringVar(&email, "email", "", "email")
	}
	fs.StringVar(&pass, "password", "", "password")
	if err = fs.Parse(args); err != nil {
		return "", "", "", errUsage
	}
	if user == "" {
		if user, err = a.prompt("Username: "); err != nil {
			return
		}
	}
	if withEmail && email == "" {
		if email, err = a.prompt("Email: "); err != nil {
			return
		}
	}
	if pass == "" {
		pass, err = a.prompt("Password: ")
	}
	return
}

func (a *app) printToken(tok *client.TokenResponse) {
	fmt.Fprintf(a.out, "Signed in as %s.\n", tok.User.Username)
	fmt.Fprintf(a.out, "export SOLACE_TOKEN=%s\n", tok.AccessToken)
}

func (a *app) register(ctx context.Context, args []string) error {
	user, email, pass, err := a.credentials("register", args, true)
	if err != nil {
		return err
	}
	tok, err := a.api.Register(ctx, user, email, pass)
	if err != nil {
		return err
	}
	a.printToken(tok)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	user, _, pass, err := a.credentials("login", args, false)
	if err != nil {
		return err
	}
	tok, err := a.api.Login(ctx, user, pass)
	if err != nil {
		return err
	}
	a.printToken(tok)
	return nil
}
