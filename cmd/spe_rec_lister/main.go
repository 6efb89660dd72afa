// spe_rec_lister decodes a raw SPE trace file and lists the sample
// records (or the raw packets) it contains. It is a debugging aid for
// inspecting captured AUX buffers.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"armspe/common"
	"armspe/printer"
	"armspe/spe"
)

func main() {
	input := flag.String("i", "", "Path to the raw SPE trace file")
	configPath := flag.String("config", "", "Optional TOML config file")
	chunk := flag.Int("chunk", 0, "Serve the trace in chunks of this many bytes (0 = whole file); chunk boundaries must fall on packet boundaries")
	packets := flag.Bool("packets", false, "List raw packets instead of records")
	verbose := flag.Bool("v", false, "Enable debug diagnostics")
	logFmt := flag.String("logfmt", "text", "Diagnostic log format: text or json")

	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.applyFlags(flag.CommandLine, *input, *chunk, *packets, *verbose, *logFmt)

	if cfg.Input == "" {
		fmt.Fprintln(os.Stderr, "SPE Record Lister : Error: Missing input file on -i option")
		os.Exit(1)
	}

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config, out io.Writer) error {
	data, err := os.ReadFile(cfg.Input)
	if err != nil {
		return err
	}

	minLevel := common.SeverityWarning
	if cfg.Verbose {
		minLevel = common.SeverityDebug
	}
	var logger common.Logger
	if cfg.LogFormat == "json" {
		logger = common.NewPlogLogger(os.Stderr, minLevel, "spe_rec_lister")
	} else {
		logger = common.NewStdLoggerWithWriter(os.Stderr, os.Stderr, minLevel)
	}

	if cfg.Packets {
		return listPackets(data, out, logger)
	}
	return listRecords(data, cfg.ChunkSize, out, logger)
}

func listRecords(data []byte, chunkSize int, out io.Writer, logger common.Logger) error {
	dec, err := spe.NewDecoder(spe.Params{
		Source: spe.NewBufferSource(data, chunkSize),
		Log:    logger,
	})
	if err != nil {
		return err
	}
	defer dec.Close()

	var n, malformed uint64
	for {
		rec, err := dec.Decode()
		switch {
		case err == nil:
			fmt.Fprintln(out, printer.FormatRecordLine(n, rec))
			n++
		case errors.Is(err, spe.ErrMalformedPacket):
			malformed++
		case errors.Is(err, io.EOF):
			fmt.Fprintf(out, "Decoded %d records (%d undecodable bytes skipped).\n", n, malformed)
			return nil
		default:
			return err
		}
	}
}

func listPackets(data []byte, out io.Writer, logger common.Logger) error {
	var wire spe.WireFormat
	offset := uint64(0)

	for int(offset) < len(data) {
		pkt, n, err := wire.DecodePacket(data[offset:])
		if n <= 0 || err != nil {
			logger.Logf(common.SeverityDebug, "bad byte at offset %d: %v", offset, err)
			fmt.Fprintln(out, printer.FormatPacketLine(offset, spe.Packet{Kind: spe.PacketBad}))
			offset++
			continue
		}
		fmt.Fprintln(out, printer.FormatPacketLine(offset, pkt))
		offset += uint64(n)
	}
	return nil
}
