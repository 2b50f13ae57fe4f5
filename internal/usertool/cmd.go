package usertool

import (
	"bufio"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/urfave/cli/v2"
)

// Tool holds the streams used by the commands.
type Tool struct {
	In   *bufio.Reader
	Out  io.Writer
	Rand io.Reader
}

func New(in io.Reader, out io.Writer) *Tool {
	return &Tool{In: bufio.NewReader(in), Out: out, Rand: rand.Reader}
}

// App returns the command-line application.
func (t *Tool) App() *cli.App {
	return &cli.App{
		Name:      "usertool",
		Usage:     "Create and check filekeeper user records",
		Writer:    t.Out,
		ErrWriter: t.Out,
		Commands: []*cli.Command{
			t.addCmd(),
			t.checkCmd(),
		},
	}
}

func (t *Tool) addCmd() *cli.Command {
	var name, quota string
	return &cli.Command{
		Name:  "add",
		Usage: "Print a new user record for db.json (password is prompted for)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the user",
				Destination: &name,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "quota",
				Aliases:     []string{"q"},
				Usage:       "Storage quota in megabytes, empty for unlimited",
				Destination: &quota,
			},
		},
		Action: func(ctx *cli.Context) error {
			pw, err := GetPassword(t.In, t.Out, "Enter password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			u, err := NewRecord(name, pw, quota, t.Rand)
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(u, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(t.Out, string(b))
			return err
		},
	}
}

func (t *Tool) checkCmd() *cli.Command {
	var name, db string
	return &cli.Command{
		Name:  "check",
		Usage: "Verify a password against a user database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the user",
				Destination: &name,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "db",
				Aliases:     []string{"d"},
				Usage:       "Path to the user database",
				Value:       "./data/" + common.DatabaseFileName,
				Destination: &db,
			},
		},
		Action: func(ctx *cli.Context) error {
			pw, err := GetPassword(t.In, t.Out, "Enter password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			status, err := Check(ctx.Context, db, name, pw)
			if err != nil {
				return err
			}

			fmt.Fprintln(t.Out, status)
			if status != services.StatusAccepted {
				return ErrRejected
			}
			return nil
		},
	}
}
