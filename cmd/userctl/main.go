// Command userctl is a terminal client for the user admin API. It keeps the
// login session in a local file and applies the client route guard before
// showing a page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"useradmin/m/domain"
	"useradmin/m/internal/client"
)

const usage = `usage: userctl [flags] <command> [args]

commands:
  test                      check the server is reachable
  register <user> <pass>    create an account
  login <user> <pass>       sign in and cache the session
  logout                    forget the cached session
  home                      show the signed in user
  admin | users             list all users (admin)
  delete <id>               delete a user (admin)
  role <id> <admin|user>    change a user's role (admin)

flags:
`

type app struct {
	api     *client.Client
	session *client.Session
	file    client.SessionFile
}

func main() {
	log.SetFlags(0)
	server := flag.String("server", envOr("USERADMIN_URL", "http://localhost:3000"), "API base URL")
	sessionPath := flag.String("session", client.DefaultSessionPath(), "session cache file")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	file := client.SessionFile{Path: *sessionPath}
	session, err := file.Load()
	if err != nil {
		log.Fatalf("load session: %v", err)
	}
	a := &app{
		api:     client.New(*server).WithToken(session.Token),
		session: session,
		file:    file,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "test":
		msg, err := a.api.Test(ctx)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "register":
		if !a.navigate("/register") {
			return nil
		}
		if len(args) != 2 {
			return fmt.Errorf("expected <user> <pass>")
		}
		id, err := a.api.Register(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("registered %s (id %d), now run: userctl login %s <pass>\n", args[0], id, args[0])
		return nil
	case "login":
		if !a.navigate("/login") {
			return nil
		}
		if len(args) != 2 {
			return fmt.Errorf("expected <user> <pass>")
		}
		s, err := a.api.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if err := a.file.Save(s); err != nil {
			return err
		}
		fmt.Printf("signed in as %s (%s), landing page %s\n", s.Username, s.Role, client.Landing(s.Role))
		return nil
	case "logout":
		return a.file.Clear()
	case "home":
		if !a.navigate("/user-home") {
			return nil
		}
		fmt.Printf("signed in as %s (%s)\n", a.session.Username, a.session.Role)
		return nil
	case "admin", "users":
		if !a.navigate("/admin") {
			return nil
		}
		return a.listUsers(ctx)
	case "delete":
		if !a.navigate("/admin") {
			return nil
		}
		if len(args) != 1 {
			return fmt.Errorf("expected <id>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		if err := a.api.DeleteUser(ctx, id); err != nil {
			return err
		}
		fmt.Printf("user %d deleted\n", id)
		return nil
	case "role":
		if !a.navigate("/admin") {
			return nil
		}
		if len(args) != 2 {
			return fmt.Errorf("expected <id> <admin|user>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		// the server validates the role; pass it through unchanged
		if err := a.api.UpdateRole(ctx, id, domain.Role(args[1])); err != nil {
			return err
		}
		fmt.Printf("user %d is now %s\n", id, args[1])
		return nil
	default:
		flag.Usage()
		os.Exit(2)
	}
	return nil
}

// navigate applies the route guard and reports whether the page may be shown.
func (a *app) navigate(path string) bool {
	d := client.Guard(path, a.session)
	if d.Allowed() {
		return true
	}
	switch d.Redirect {
	case "/login":
		fmt.Fprintln(os.Stderr, "not allowed here, run: userctl login <user> <pass>")
	default:
		fmt.Fprintf(os.Stderr, "already signed in as %s, redirecting to %s\n", a.session.Username, d.Redirect)
	}
	return false
}

func (a *app) listUsers(ctx context.Context) error {
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt)
	}
	return w.Flush()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
