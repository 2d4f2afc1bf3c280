// Command findteacher is the terminal client for the Find My Teacher directory.
//
// Without a subcommand it opens the interactive search. Admin subcommands use the session saved
// by "findteacher login" or the FMT_API_KEY environment variable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shreyas165/Find-My-Teacher/pkg/client"
	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

const defaultServer = "http://localhost:3000"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, client.ErrorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cmd := "search"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "search":
		return runSearch(args)
	case "login":
		return runLogin(ctx, args)
	case "add":
		return runAdd(ctx, args)
	case "update":
		return runUpdate(ctx, args)
	case "delete":
		return runDelete(ctx, args)
	case "set-password":
		return runSetPassword(ctx, args)
	case "change-password":
		return runChangePassword(ctx, args)
	default:
		return fmt.Errorf("unknown command %q (want search, login, add, update, delete, set-password or change-password)", cmd)
	}
}

func serverFlag(fs *flag.FlagSet) *string {
	def := os.Getenv("FMT_SERVER")
	if def == "" {
		def = defaultServer
	}
	return fs.String("server", def, "directory server base URL")
}

// adminClient builds a client carrying the API key or the saved session token.
func adminClient(server string) (*client.Client, error) {
	if key := os.Getenv("FMT_API_KEY"); key != "" {
		return client.New(server, client.WithAPIKey(key)), nil
	}
	s, err := loadSession()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil || s.Token == "" {
		return nil, errors.New(`not logged in; run "findteacher login" first`)
	}
	if s.Server != server {
		return nil, fmt.Errorf("saved session is for %s; log in to %s first", s.Server, server)
	}
	return client.New(server, client.WithToken(s.Token)), nil
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	server := serverFlag(fs)
	_ = fs.Parse(args)

	p := tea.NewProgram(newSearchModel(client.New(*server)), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	server := serverFlag(fs)
	user := fs.String("user", "admin", "admin username")
	_ = fs.Parse(args)

	password, err := newPasswordReader(os.Stdin, os.Stderr).Read("Password: ")
	if err != nil {
		return err
	}
	resp, err := client.New(*server).VerifyPassword(ctx, *user, password)
	if err != nil {
		return err
	}
	if err := saveSession(&session{Server: *server, Token: resp.Token, ExpiresAt: resp.ExpiresAt}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Println(resp.Message)
	return nil
}

func runAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	server := serverFlag(fs)
	name := fs.String("name", "", "teacher name")
	branch := fs.String("branch", "", "department or branch")
	floor := fs.String("floor", "", "floor")
	directions := fs.String("directions", "", "walking directions")
	photo := fs.String("image", "", "path to a photo")
	_ = fs.Parse(args)

	if *photo == "" {
		return errors.New("-image is required")
	}
	img, err := loadPhoto(*photo)
	if err != nil {
		return err
	}
	c, err := adminClient(*server)
	if err != nil {
		return err
	}
	resp, err := c.AddTeacher(ctx, client.AddTeacherRequest{
		Name: *name, Branch: *branch, Floor: *floor, Directions: *directions, Image: *img,
	})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	fmt.Println(client.RenderDetail(&resp.Teacher))
	return nil
}

func runUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	server := serverFlag(fs)
	var req dto.UpdateTeacherRequest
	optional := func(name, usage string, dst **string) {
		fs.Func(name, usage, func(v string) error {
			*dst = &v
			return nil
		})
	}
	optional("name", "new name", &req.Name)
	optional("branch", "new branch", &req.Branch)
	optional("floor", "new floor", &req.Floor)
	optional("directions", "new directions", &req.Directions)
	photo := fs.String("image", "", "path to a replacement photo")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: findteacher update [flags] <current name>")
	}
	var img *client.ImageFile
	if *photo != "" {
		var err error
		if img, err = loadPhoto(*photo); err != nil {
			return err
		}
	}
	c, err := adminClient(*server)
	if err != nil {
		return err
	}
	if err := c.UpdateTeacher(ctx, fs.Arg(0), req, img); err != nil {
		return err
	}
	fmt.Println("Teacher updated successfully.")
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	server := serverFlag(fs)
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: findteacher delete [flags] <name>")
	}
	c, err := adminClient(*server)
	if err != nil {
		return err
	}
	if err := c.DeleteTeacher(ctx, fs.Arg(0)); err != nil {
		return err
	}
	fmt.Println("Teacher deleted successfully.")
	return nil
}

func runSetPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-password", flag.ExitOnError)
	server := serverFlag(fs)
	user := fs.String("user", "admin", "username")
	_ = fs.Parse(args)

	password, err := newPasswordReader(os.Stdin, os.Stderr).Read("New password: ")
	if err != nil {
		return err
	}
	// The first credential can be set anonymously; later ones need a login.
	c, err := adminClient(*server)
	if err != nil {
		c = client.New(*server)
	}
	created, err := c.SetPassword(ctx, *user, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Println("Password set successfully.")
	} else {
		fmt.Println("Password updated successfully.")
	}
	return nil
}

func runChangePassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ExitOnError)
	server := serverFlag(fs)
	user := fs.String("user", "admin", "username")
	_ = fs.Parse(args)

	prompts := newPasswordReader(os.Stdin, os.Stderr)
	oldPassword, err := prompts.Read("Current password: ")
	if err != nil {
		return err
	}
	newPassword, err := prompts.Read("New password: ")
	if err != nil {
		return err
	}
	if err := client.New(*server).ChangePassword(ctx, *user, oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Println("Password changed successfully.")
	return nil
}

// loadPhoto reads a photo from disk and shrinks it before upload.
func loadPhoto(path string) (*client.ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	prepared, err := client.PrepareUpload(data)
	if err != nil {
		return nil, fmt.Errorf("prepare photo %s: %w", filepath.Base(path), err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".jpg"
	return &client.ImageFile{Filename: name, ContentType: "image/jpeg", Data: prepared}, nil
}

