package cmd

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qnet-sim/qnet-sim/sim"
)

var (
	// CLI flags for the run command. Zero values mean "use the network
	// file's setting".
	configPath string
	runSeed    int64
	runJobs    int
	runTime    float64
	runWarmup  float64
)

// runCmd executes a single simulation from a YAML network definition.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a closed queuing network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		file, err := sim.LoadNetworkFile(configPath)
		if err != nil {
			logrus.Fatalf("Cannot load network file: %v", err)
		}
		if runJobs > 0 {
			file.Jobs = runJobs
		}
		if runSeed != 0 {
			file.Seed = runSeed
		}
		if runTime > 0 {
			file.SimulationTime = runTime
		}
		if cmd.Flags().Changed("warmup") {
			file.WarmupTime = runWarmup
		}

		net, err := file.Build()
		if err != nil {
			logrus.Fatalf("Invalid network configuration: %v", err)
		}

		err = net.Run(file.SimulationTime, file.WarmupTime)
		if err != nil && !errors.Is(err, sim.ErrBudgetExceeded) {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		report, rerr := net.Report()
		if rerr != nil {
			logrus.Fatalf("No report available: %v", rerr)
		}
		report.Print()
		if err != nil {
			logrus.Warnf("%v", err)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML network definition")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Override the master random seed")
	runCmd.Flags().IntVar(&runJobs, "jobs", 0, "Override the job population (WIP level)")
	runCmd.Flags().Float64Var(&runTime, "time", 0, "Override the simulation stop time")
	runCmd.Flags().Float64Var(&runWarmup, "warmup", 0, "Override the warmup time excluded from statistics")
	if err := runCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd)
}
