package commands

import (
	"bytes"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.step.sm/crypto/pemutil"

	"github.com/smallstep/cli-utils/command"
	"github.com/smallstep/cli-utils/errs"

	"github.com/czertainly/cmp-validator/api"
	"github.com/czertainly/cmp-validator/cmp"
	"github.com/czertainly/cmp-validator/profile"
)

func init() {
	command.Register(cli.Command{
		Name:  "validate",
		Usage: "validate a CMP message",
		UsageText: `**cmp-validator validate** <profile> <message>
[**--stage**=<stage>] [**--format**=<format>] [**--signer-file**=<file>]`,
		Action: validateAction,
		Description: `**cmp-validator validate** validates a DER or PEM encoded PKIMessage
with the given profile and prints the verdict. The command exits with code 1
if the message is rejected.

## POSITIONAL ARGUMENTS

<profile>
:  The JSON profile file.

<message>
:  The file with the PKIMessage.

## EXAMPLES

Validate an initialization request:
'''
$ cmp-validator validate device.json ir.der
'''

Validate only the protection and save the certificate that verified it:
'''
$ cmp-validator validate --stage protection --signer-file signer.crt ra.json kur.der
'''`,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "stage",
				Value: string(cmp.StageAll),
				Usage: `the validation <stage> to run. Options are header, protection,
body, pop and all.`,
			},
			cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "the output <format>. Options are text and json.",
			},
			cli.StringFlag{
				Name:  "signer-file",
				Usage: "write the certificate that verified a signature protected message to <file>.",
			},
		},
	})
}

func validateAction(ctx *cli.Context) error {
	if err := errs.NumberOfArguments(ctx, 2); err != nil {
		return err
	}

	format := ctx.String("format")
	if format != "text" && format != "json" {
		return errs.InvalidFlagValue(ctx, "format", format, "text, json")
	}

	p, err := profile.LoadFile(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	der, err := readMessage(ctx.Args().Get(1))
	if err != nil {
		return err
	}

	res, err := validateMessage(p, der, cmp.Stage(ctx.String("stage")))
	if err != nil {
		return err
	}

	if filename := ctx.String("signer-file"); filename != "" && res.signer != nil {
		if _, err := pemutil.Serialize(res.signer, pemutil.WithFilename(filename)); err != nil {
			return err
		}
	}

	if err := res.write(os.Stdout, format); err != nil {
		return err
	}
	if !res.verdict.Valid {
		return cli.NewExitError("", 1)
	}
	return nil
}

// readMessage reads a DER PKIMessage, or a PEM block containing one.
func readMessage(filename string) ([]byte, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", filename)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(b), []byte("-----BEGIN ")) {
		return b, nil
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.Errorf("error decoding %s: not a valid PEM file", filename)
	}
	return block.Bytes, nil
}

type result struct {
	verdict *api.VerdictResponse
	signer  *x509.Certificate
}

// signerRecorder records the certificate that verified the message.
type signerRecorder struct {
	*profile.Profile
	signer *x509.Certificate
}

func (r *signerRecorder) OnSigner(_ *cmp.PKIMessage, crt *x509.Certificate) {
	r.signer = crt
}

func validateMessage(p *profile.Profile, der []byte, stage cmp.Stage) (*result, error) {
	switch stage {
	case "", cmp.StageAll, cmp.StageHeader, cmp.StageProtection, cmp.StageBody, cmp.StagePOP:
	default:
		return nil, errors.Errorf("unsupported stage '%s'", stage)
	}

	rec := &signerRecorder{Profile: p}
	msg, err := cmp.ParseMessage(der)
	if err == nil {
		err = cmp.ValidateStage(stage, msg, rec)
	}
	return &result{
		verdict: api.NewVerdict("", msg, err),
		signer:  rec.signer,
	}, nil
}

func (r *result) write(w io.Writer, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.verdict)
	}

	v := r.verdict
	if v.Valid {
		_, err := fmt.Fprintf(w, "valid %s message, transaction %s\n", v.BodyType, v.TransactionID)
		return err
	}
	crmf := ""
	if v.CRMF {
		crmf = " (crmf)"
	}
	_, err := fmt.Fprintf(w, "invalid message%s: %s (%d): %s\n", crmf, v.FailInfoName, *v.FailInfo, v.Detail)
	return err
}
