// Command snappy-fox decodes a Snappy-compressed morgue-cache stream from
// an input path (or stdin) to an output path (or stdout).
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/berdav/snappy-fox/snappy"
)

var version = "dev"

type cli struct {
	ConsiderCRCErrors  bool  `name:"consider_crc_errors" short:"C" help:"Promote a checksum mismatch to a fatal error."`
	IgnoreOffsetErrors bool  `name:"ignore_offset_errors" short:"E" help:"Replace invalid back-references with offset-dummy-byte instead of failing."`
	OffsetDummyByte    byte  `name:"offset-dummy-byte" default:"255" help:"Byte substituted for each invalid copy byte when ignore_offset_errors is set."`
	IgnoreMagic        bool  `name:"ignore_magic" short:"M" help:"Accept a stream identifier chunk whose payload does not match."`
	ReadOffset         int64 `name:"read_offset" short:"O" help:"Seek the input this many bytes forward before decoding."`
	Firefox            bool  `name:"firefox" short:"f" help:"Use the non-inverting CRC32C finalization."`
	Unframed           bool  `name:"unframed" short:"u" help:"Treat the input as a single bare compressed block."`

	Version kong.VersionFlag `short:"v" help:"Print version and exit."`

	Input  string `arg:"" help:"Input path, or - for stdin."`
	Output string `arg:"" help:"Output path, or - for stdout."`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("snappy-fox"),
		kong.Description("Decode a Snappy morgue-cache stream."),
		kong.Vars{"version": version},
	)

	log := logrus.New()
	log.SetOutput(os.Stderr)

	if err := c.run(log); err != nil {
		log.WithError(err).Error("decode failed")
		os.Exit(1)
	}
}

func (c *cli) run(log *logrus.Logger) error {
	in, err := openInput(c.Input)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer in.Close()

	out, err := openOutput(c.Output)
	if err != nil {
		return errors.Wrap(err, "opening output")
	}
	defer out.Close()

	cfg := snappy.Config{
		Unframed:           c.Unframed,
		IgnoreOffsetErrors: c.IgnoreOffsetErrors,
		OffsetDummyByte:    c.OffsetDummyByte,
		IgnoreMagic:        c.IgnoreMagic,
		ReadOffset:         c.ReadOffset,
		ConsiderCRCErrors:  c.ConsiderCRCErrors,
		FirefoxCRC:         c.Firefox,
	}

	r := snappy.NewReader(in, cfg)
	r.OnChecksumMismatch(func(expected, actual uint32) {
		log.WithFields(logrus.Fields{
			"expected": expected,
			"actual":   actual,
		}).Warn("checksum mismatch")
	})

	if _, err := r.WriteTo(out); err != nil {
		return errors.Wrap(err, "decoding stream")
	}
	return nil
}

// openInput opens path for reading, or returns stdin for "-". The
// read_offset flag is applied by snappy.NewReader, not here, so this
// function is agnostic to it.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path)
}
