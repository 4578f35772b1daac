package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/Shopify/lenframe"
	"github.com/hashicorp/go-multierror"
	metrics "github.com/rcrowley/go-metrics"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"
)

var (
	listen = flag.String(
		"listen",
		"",
		"The address to accept connections on, every connection is decoded as its own stream.",
	)
	connect = flag.String(
		"connect",
		"",
		"The address to connect to and decode. Without -listen or -connect, stdin is decoded.",
	)
	width = flag.String(
		"width",
		"32",
		"The width of the length field in bits (8, 16, 32, 64).",
	)
	maxFrameLength = flag.Uint64(
		"max-frame-length",
		1<<20,
		"The largest payload length accepted, inclusive.",
	)
	compression = flag.String(
		"compression",
		"none",
		"The compression payloads were written with (none, gzip, snappy, lz4, zstd).",
	)
	proxyURL = flag.String(
		"proxy",
		"",
		"A proxy URL to connect through, e.g. socks5://localhost:1080.",
	)
	printPayloads = flag.Bool(
		"payloads",
		true,
		"Whether to print payloads (quoted) or only their lengths.",
	)
	printMetrics = flag.Bool(
		"metrics",
		false,
		"Whether to print the metrics registry when exiting.",
	)
	verbose = flag.Bool(
		"verbose",
		false,
		"Turn on lenframe logging to stderr.",
	)
)

func main() {
	flag.Parse()

	if *listen != "" && *connect != "" {
		printUsageErrorAndExit("-listen and -connect are mutually exclusive")
	}
	if *verbose {
		lenframe.Logger = log.New(os.Stderr, "[lenframe] ", log.LstdFlags)
	}

	config := lenframe.NewConfig()
	config.StreamID = "frame-dump"
	config.Decoder.MaxFrameLength = *maxFrameLength

	w, err := lenframe.ParseLengthFieldWidth(*width)
	if err != nil {
		printUsageErrorAndExit(err.Error())
	}
	config.Decoder.LengthFieldWidth = w

	cc, err := lenframe.ParseCompressionCodec(*compression)
	if err != nil {
		printUsageErrorAndExit(err.Error())
	}
	config.Decoder.Compression = cc

	if *proxyURL != "" {
		u, err := url.Parse(*proxyURL)
		if err != nil {
			printUsageErrorAndExit(fmt.Sprintf("Invalid -proxy: %s", err))
		}
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			printUsageErrorAndExit(fmt.Sprintf("Invalid -proxy: %s", err))
		}
		config.Net.Proxy.Enable = true
		config.Net.Proxy.Dialer = dialer
	}

	if err := config.Validate(); err != nil {
		printErrorAndExit(69, "Invalid configuration: %s", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := &printer{}
	switch {
	case *listen != "":
		var (
			lc       net.ListenConfig
			listener net.Listener
		)
		if listener, err = lc.Listen(ctx, "tcp", *listen); err == nil {
			fmt.Fprintf(os.Stderr, "listening on %s\n", listener.Addr())
			err = serve(ctx, listener, config, out)
		}
	case *connect != "":
		err = lenframe.DialAndConsume(ctx, "tcp", *connect, config, out.handler(*connect))
	default:
		err = lenframe.Consume(ctx, os.Stdin, config, out.handler("stdin"))
	}

	if *printMetrics {
		metrics.WriteOnce(config.MetricRegistry, os.Stderr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		printErrorAndExit(1, "%s", err)
	}
}

// serve decodes every connection accepted on listener as its own stream until ctx is done, a
// connection carries an invalid frame or Accept fails. The listener is closed on return.
func serve(ctx context.Context, listener net.Listener, config *lenframe.Config, out *printer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})

	var streams int
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			// stop the running streams before reporting the accept failure
			cancel()
			return multierror.Append(err, g.Wait()).ErrorOrNil()
		}
		streams++

		streamConfig := *config
		streamConfig.StreamID = "conn-" + strconv.Itoa(streams)
		g.Go(func() error {
			defer conn.Close()
			return lenframe.Consume(ctx, conn, &streamConfig, out.handler(conn.RemoteAddr().String()))
		})
	}

	return g.Wait()
}

type printer struct {
	l sync.Mutex
}

func (p *printer) handler(source string) lenframe.Handler {
	return lenframe.HandlerFuncs{
		Frame: func(f lenframe.Frame) {
			p.l.Lock()
			defer p.l.Unlock()
			if *printPayloads {
				fmt.Printf("%s\t%d\t%q\n", source, len(f), []byte(f))
			} else {
				fmt.Printf("%s\t%d\n", source, len(f))
			}
		},
		Error: func(err error) {
			p.l.Lock()
			defer p.l.Unlock()
			fmt.Fprintf(os.Stderr, "%s\terror: %s\n", source, err)
		},
	}
}

func printUsageErrorAndExit(message string) {
	fmt.Fprintln(os.Stderr, "ERROR:", message)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Available command line options:")
	flag.PrintDefaults()
	os.Exit(64)
}

func printErrorAndExit(code int, format string, values ...interface{}) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", fmt.Sprintf(format, values...))
	fmt.Fprintln(os.Stderr)
	os.Exit(code)
}
