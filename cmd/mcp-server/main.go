// Command mcp-server runs a demo MCP server over the transport selected in
// its configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RokLenarcic/mcp-server/config"
	"github.com/RokLenarcic/mcp-server/logx"
	"github.com/RokLenarcic/mcp-server/protocol"
	"github.com/RokLenarcic/mcp-server/server"
	httptransport "github.com/RokLenarcic/mcp-server/transport/http"
	"github.com/RokLenarcic/mcp-server/transport/stdio"
	"github.com/RokLenarcic/mcp-server/transport/ws"
	"github.com/RokLenarcic/mcp-server/util/schema"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Parse()

	cfg := &config.AppConfig{
		ServerName:    "mcp-demo-server",
		ServerVersion: "0.1.0",
	}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := logx.NewLogger(cfg.LoggerLevel)
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithInstructions(cfg.Instructions),
	}
	if cfg.EnableLogging {
		opts = append(opts, server.WithLoggingCapability())
	}
	if cfg.AsyncDispatch {
		opts = append(opts, server.WithAsyncDispatch())
	}
	if d := cfg.ClientTimeout(); d > 0 {
		opts = append(opts, server.WithClientRequestTimeout(d))
	}

	core := server.New(cfg.ServerName, cfg.ServerVersion, opts...)
	registerDemo(core)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cfg.Transport.Type {
	case "", "stdio":
		err = stdio.New(core, stdio.WithLogger(logger)).Run(ctx)
	case "http":
		h := httptransport.NewHandler(core,
			httptransport.WithLogger(logger),
			httptransport.WithAllowedOrigins(cfg.Transport.AllowedOrigins...),
			httptransport.WithEndpoint(cfg.Transport.Endpoint))
		err = httptransport.Run(ctx, cfg.Transport.Address, h)
	case "ws":
		err = ws.Run(ctx, cfg.Transport.Address, ws.NewHandler(core, ws.WithLogger(logger)))
	}
	if err != nil && err != context.Canceled {
		logger.Error("server exited: %v", err)
		os.Exit(1)
	}
}

type sumArgs struct {
	A float64 `json:"a" description:"first addend"`
	B float64 `json:"b" description:"second addend"`
}

// registerDemo wires a small tool/prompt/resource set so the binary is usable
// out of the box.
func registerDemo(core *server.Server) {
	core.AddTool(&server.Tool{
		Name:        "sum",
		Description: "Adds two numbers.",
		InputSchema: schema.FromStruct(sumArgs{}),
		Handler: func(exch *server.Exchange, arguments map[string]interface{}) (interface{}, error) {
			var args sumArgs
			if err := schema.DecodeArguments(arguments, &args); err != nil {
				return nil, protocol.NewInvalidParamsError(err.Error())
			}
			return args.A + args.B, nil
		},
	})

	core.AddPrompt(&server.Prompt{
		Name:         "greet",
		Description:  "Greets someone by name.",
		RequiredArgs: []server.PromptArg{{Name: "name", Description: "who to greet"}},
		Handler: func(exch *server.Exchange, arguments map[string]string) (interface{}, error) {
			return protocol.Message{
				Role:    "user",
				Content: protocol.NewTextContent("Say hello to " + arguments["name"]),
			}, nil
		},
	})

	resources := server.NewLookupResources(true)
	resources.Add(&server.ResourceEntry{
		URI:      "demo://motd",
		Name:     "Message of the day",
		MimeType: "text/plain",
		Handler: func(exch *server.Exchange, uri string) (interface{}, error) {
			return "All systems operational.", nil
		},
	})
	core.SetResources(resources)
}
