// Command eeos drives the EEOS client from a terminal: log in, browse
// programs and rosters, and change your attendance.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"EEOS-client/internal/client"
	"EEOS-client/internal/client/attendance"
	"EEOS-client/internal/client/programs"
	"EEOS-client/internal/platform/apierr"
	"EEOS-client/internal/platform/config"
)

const usage = `usage: eeos [flags] <command>

commands:
  login           exchange -code for a session
  logout          forget the stored session
  delete-account  delete the account, then log out
  programs        list programs (-category, -status, -all)
  program         show one program and your status (-program)
  roster          list a program's bucket (-program, -status, -all)
  attend          change your status (-program, -to, optional -from)

flags:
`

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to config.yaml")
	server := flag.String("server", "", "override client.base_url")
	code := flag.String("code", "", "authorization code (login)")
	category := flag.String("category", string(programs.CategoryAll), "program category")
	status := flag.String("status", "", "program status (active|end) or roster bucket")
	program := flag.Int64("program", 0, "program id (program, roster, attend)")
	from := flag.String("from", "", "current status (attend); read from the program when empty")
	to := flag.String("to", "", "new status (attend)")
	all := flag.Bool("all", false, "keep loading pages until the list is exhausted")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		config.Exitf("load config: %v", err)
	}
	if *server != "" {
		cfg.Client.BaseURL = strings.TrimRight(*server, "/")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	c, err := client.Open(ctx, cfg.Client, logger)
	if err != nil {
		config.Exitf("open client: %v", err)
	}
	defer c.Close()

	switch flag.Arg(0) {
	case "login":
		err = c.Login(ctx, *code)
		if err == nil {
			fmt.Println("logged in")
		}
	case "logout":
		err = c.Logout(ctx)
	case "delete-account":
		err = c.DeleteAccount(ctx)
		if err == nil {
			fmt.Println("account deleted")
		}
	case "programs":
		st := *status
		if st == "" {
			st = string(programs.StatusActive)
		}
		err = listPrograms(ctx, c, programs.Category(*category), programs.Status(st), *all)
	case "roster":
		err = listRoster(ctx, c, *program, attendance.Status(*status), *all)
	case "program":
		var d programs.Detail
		if d, err = c.ProgramDetail(ctx, *program); err == nil {
			mine := d.MyStatus
			if mine == "" {
				mine = "-"
			}
			fmt.Printf("%d  %s\n%s / %s, deadline %s\nyour status: %s\n",
				d.ProgramID, d.Title, d.Category, d.Status, d.DeadLine.Format("2006-01-02 15:04"), mine)
		}
	case "attend":
		err = attend(ctx, c, *program, attendance.Status(*from), attendance.Status(*to))
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		msg := c.Message(err)
		if apierr.KindOf(err) == "" {
			msg = err.Error()
		}
		fmt.Fprintln(os.Stderr, "Error:", msg)
		logger.Printf("[ERROR] %s: %v", flag.Arg(0), err)
		c.Close()
		os.Exit(1)
	}
}

func attend(ctx context.Context, c *client.Client, programID int64, from, to attendance.Status) error {
	if from == "" {
		if _, err := c.ProgramDetail(ctx, programID); err != nil {
			return err
		}
		cur, ok := c.CurrentStatus(programID)
		if !ok {
			return errors.New("you are not on this program's roster")
		}
		from = cur
	}
	if err := c.SubmitAttendanceStatus(ctx, programID, from, to); err != nil {
		return err
	}
	c.WaitRefreshes()
	fmt.Printf("program %d: %s -> %s\n", programID, from, to)
	return nil
}

func listPrograms(ctx context.Context, c *client.Client, cat programs.Category, st programs.Status, all bool) error {
	list, err := c.LoadList(ctx, cat, st, 0)
	for err == nil && all && !list.Exhausted {
		list, err = c.LoadNextList(ctx, cat, st)
	}
	if err != nil {
		return err
	}
	for _, p := range list.Items {
		fmt.Printf("%6d  %-18s %-7s %s  %s\n", p.ProgramID, p.Category, p.Status, p.DeadLine.Format("2006-01-02 15:04"), p.Title)
	}
	if !list.Exhausted {
		fmt.Println("... more with -all")
	}
	return nil
}

func listRoster(ctx context.Context, c *client.Client, programID int64, st attendance.Status, all bool) error {
	if st == "" {
		return errors.New("-status is required for roster")
	}
	list, err := c.LoadRoster(ctx, programID, st, 0)
	for err == nil && all && !list.Exhausted {
		list, err = c.LoadRoster(ctx, programID, st, list.NextPage)
	}
	if err != nil {
		return err
	}
	for _, m := range list.Items {
		fmt.Printf("%6d  gen %-3d %s\n", m.MemberID, m.Generation, m.Name)
	}
	if !list.Exhausted {
		fmt.Println("... more with -all")
	}
	return nil
}
