// Command sharesign is the sender-side companion of the webhook: it mints
// share ids, signs payloads with the pre-shared secret and can post them.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/urfave/cli/v2"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/signer"
	"github.com/MrSnakeDoc/patientshare/internal/version"
)

var flagSecret = &cli.StringFlag{
	Name:     "secret",
	Usage:    "Pre-shared webhook secret",
	EnvVars:  []string{"PSHARE_WEBHOOK_SECRET"},
	Required: true,
}

var flagInput = &cli.StringFlag{
	Name:    "in",
	Aliases: []string{"i"},
	Value:   "-",
	Usage:   "Payload file, - for stdin",
}

var flagURL = &cli.StringFlag{
	Name:  "url",
	Value: "http://127.0.0.1:8080/api/webhook",
	Usage: "Webhook endpoint",
}

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:    "sharesign",
		Usage:   "sign patient share payloads",
		Version: version.String(),
		Reader:  in,
		Writer:  out,
		Commands: []*cli.Command{
			{
				Name:  "id",
				Usage: "print a fresh share id",
				Action: func(cCtx *cli.Context) error {
					id, err := domain.GenerateShareID()
					if err != nil {
						return err
					}
					fmt.Fprintln(cCtx.App.Writer, id)
					return nil
				},
			},
			{
				Name:  "sign",
				Usage: "add shareId (when missing) and signature to a payload",
				Flags: []cli.Flag{flagSecret, flagInput},
				Action: func(cCtx *cli.Context) error {
					body, err := signedPayload(cCtx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cCtx.App.Writer, string(body))
					return nil
				},
			},
			{
				Name:  "verify",
				Usage: "check the signature of a signed payload",
				Flags: []cli.Flag{flagSecret, flagInput},
				Action: func(cCtx *cli.Context) error {
					s, body, err := load(cCtx)
					if err != nil {
						return err
					}
					canonical, err := signer.Canonicalize(body)
					if err != nil {
						return err
					}
					if !s.Verify(canonical, gjson.GetBytes(body, "signature").String()) {
						return cli.Exit("signature: invalid", 1)
					}
					fmt.Fprintln(cCtx.App.Writer, "signature: valid")
					return nil
				},
			},
			{
				Name:  "send",
				Usage: "sign a payload and post it to the webhook",
				Flags: []cli.Flag{flagSecret, flagInput, flagURL},
				Action: func(cCtx *cli.Context) error {
					body, err := signedPayload(cCtx)
					if err != nil {
						return err
					}
					client := &http.Client{Timeout: 15 * time.Second}
					resp, err := client.Post(cCtx.String(flagURL.Name), "application/json", bytes.NewReader(body))
					if err != nil {
						return err
					}
					defer resp.Body.Close()

					reply, err := io.ReadAll(resp.Body)
					if err != nil {
						return err
					}
					fmt.Fprintf(cCtx.App.Writer, "%s\n%s\n", resp.Status, reply)
					if resp.StatusCode != http.StatusCreated {
						return cli.Exit("webhook rejected the payload", 1)
					}
					return nil
				},
			},
		},
	}
}

func load(cCtx *cli.Context) (*signer.Signer, []byte, error) {
	s, err := signer.New(cCtx.String(flagSecret.Name))
	if err != nil {
		return nil, nil, err
	}

	var body []byte
	if path := cCtx.String(flagInput.Name); path == "-" {
		body, err = io.ReadAll(cCtx.App.Reader)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, err
	}

	body = bytes.TrimSpace(body)
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, nil, errors.New("payload must be a JSON object")
	}
	return s, body, nil
}

func signedPayload(cCtx *cli.Context) ([]byte, error) {
	s, body, err := load(cCtx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(gjson.GetBytes(body, "shareId").String()) == "" {
		id, err := domain.GenerateShareID()
		if err != nil {
			return nil, err
		}
		if body, err = sjson.SetBytes(body, "shareId", id); err != nil {
			return nil, err
		}
	}

	canonical, err := signer.Canonicalize(body)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "signature", "sha256="+s.Sign(canonical))
}
