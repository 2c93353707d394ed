package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/internal/cli/output"
	"github.com/yndnr/aranea-go/internal/core/codec"
	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/core/service"
)

// DecodedView is what codec decode prints.
type DecodedView struct {
	Settings    *domain.ConfigRecord `json:"settings" yaml:"settings" toml:"settings"`
	Fingerprint string               `json:"fingerprint" yaml:"fingerprint" toml:"fingerprint"`
	Canonical   bool                 `json:"canonical" yaml:"canonical" toml:"canonical"`
}

// CodecCommand returns the codec subcommand group. It works on blobs and
// records directly, without a backend.
func CodecCommand() *cli.Command {
	return &cli.Command{
		Name:  "codec",
		Usage: "Convert between the settings file format and structured records",
		Subcommands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "Decode a settings blob from FILE or stdin",
				ArgsUsage: "[FILE]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "reveal", Usage: "Show passwords"},
				},
				Action: codecDecode,
			},
			{
				Name:      "encode",
				Usage:     "Encode a record read from FILE or stdin into a settings blob",
				ArgsUsage: "[FILE]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Input format: json, yaml, toml", Value: "json"},
				},
				Action: codecEncode,
			},
		},
	}
}

func codecDecode(c *cli.Context) error {
	blob, err := readInput(c)
	if err != nil {
		return err
	}

	rec := codec.Decode(blob)
	canonical := codec.Encode(rec)
	view := DecodedView{
		Settings:    rec,
		Fingerprint: service.Fingerprint(canonical),
		Canonical:   canonical == strings.TrimRight(blob, "\r\n"),
	}
	if !c.Bool("reveal") {
		view.Settings = rec.Redacted()
	}
	return render(c, view)
}

func codecEncode(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("from"))
	if err != nil || format == output.FormatTable {
		return cli.Exit(fmt.Sprintf("cannot read %q input", c.String("from")), 2)
	}

	input, err := readInput(c)
	if err != nil {
		return err
	}

	rec := domain.DefaultRecord()
	if err := output.Decode(format, strings.NewReader(input), rec); err != nil {
		return domain.ErrInvalidArgument.WithDetails(string(format) + " record").WithCause(err)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, codec.Encode(rec))
	return err
}

// validateRecord rejects records the device would alter on its next load.
func validateRecord(rec *domain.ConfigRecord) error {
	if rec.LocationName == "" {
		return domain.ErrInvalidArgument.WithDetails("locationName is empty")
	}
	if rec.CheckInterval == 0 {
		return domain.ErrInvalidArgument.WithDetails("checkInterval must be positive")
	}
	if len(rec.Endpoints) > domain.MaxEndpoints {
		return domain.ErrEndpointLimit.WithDetails(strconv.Itoa(len(rec.Endpoints)) + " endpoints")
	}
	for i, url := range rec.Endpoints {
		if url == "" {
			return domain.ErrInvalidArgument.WithDetails("endpoint " + strconv.Itoa(i) + " is empty")
		}
	}
	return nil
}
