package main

import (
	"context"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"percept/internal/analyze"
	"percept/internal/logging"
	mcpserver "percept/internal/mcp"
	"percept/internal/store"
)

var serveFlags struct {
	configPath string
	dbPath     string
	memory     bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing analyze_image,
get_result, and list_units. Point an MCP client at this command to drive
image analysis from an agent.`,
	RunE: runServeCmd,
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.configPath, "config", "c", "", "Pipeline config file (YAML/JSON)")
	f.StringVar(&serveFlags.dbPath, "db", store.DefaultDBPath, "Session store DB path")
	f.BoolVar(&serveFlags.memory, "memory", false, "Keep results in memory only")
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveFlags.configPath)
	if err != nil {
		return err
	}
	descs, err := buildDescriptors(cfg)
	if err != nil {
		return err
	}

	var st store.Store
	if serveFlags.memory {
		st = store.NewMemStore()
	} else {
		sqlStore, err := store.Open(serveFlags.dbPath)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		st = sqlStore
	}

	log := logging.New("mcp")
	orch := analyze.New(cfg.SchedulerConfig())
	srv := mcpserver.NewServer(version, orch, descs, st, log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	log.Info("starting percept MCP server over stdio")
	return srv.Run(ctx, &sdkmcp.StdioTransport{})
}
