package main

import (
	"fmt"
	"log"
	"os"

	"github.com/GrainArc/SectorMap/config"
	"github.com/GrainArc/SectorMap/routers"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	configPath string
	addr       string
)

var rootCmd = &cobra.Command{
	Use:   "sectormap",
	Short: "Angular sector annotation server",
	Long: `sectormap serves interactive sector drawing sessions over websocket.
Clients send pointer and keyboard events, the server keeps the feature store
for each map and pushes geometry changes back.`,
	Version: "1.0.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("config") {
			if err := config.LoadConfig(configPath); err != nil {
				return err
			}
		}
		if addr == "" {
			addr = config.MainRouter
		}

		r := gin.Default()
		routers.SectorRouters(r)
		log.Printf("sectormap %s listening on %s", config.DeviceName, addr)
		return r.Run(addr)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.xml", "XML config file")
	rootCmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides MainRouter")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
