package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"percept/internal/trigger"
)

var unitsFlags struct {
	configPath string
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List registered analysis units",
	RunE:  runUnitsCmd,
}

func init() {
	unitsCmd.Flags().StringVarP(&unitsFlags.configPath, "config", "c", "", "Pipeline config file (YAML/JSON)")
}

func runUnitsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(unitsFlags.configPath)
	if err != nil {
		return err
	}
	descs, err := buildDescriptors(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s %8s  %-10s %-9s %s\n", "UNIT", "PRIORITY", "TAGS", "STATE", "TRIGGERS")
	for _, d := range descs {
		state := "required"
		if d.Optional {
			state = "optional"
		}
		if d.Disabled {
			state = "disabled"
		}
		fmt.Fprintf(out, "%-12s %8d  %-10s %-9s %s\n",
			d.Name, d.Priority, strings.Join(d.Tags, ","), state, trigger.Describe(d.Triggers))
	}
	return nil
}
