// Command boardctl creates, inspects and checks boards of a project described
// by a YAML circuit description.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"boardcore/internal/blob"
	"boardcore/internal/logging"
	"boardcore/internal/project"
)

var (
	logger *zap.Logger

	projectFile string
	dataDir     string
	verbose     bool

	exitFunc = os.Exit
)

var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "Manage the boards of a PCB project",
	Long: `boardctl operates on the boards of one project. The project circuit
(components and net signals) is read from a YAML description; boards are
stored below <data>/<project>/boards/<dirname>.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFile, "project", "p", "project.yaml", "project description file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "filesystem root for board data (default: BOARDCORE_BLOB_* environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newCmd.Flags().String("name", "", "board name (default: the directory name)")
	copyCmd.Flags().String("name", "", "name of the copy (default: the directory name)")
	checkCmd.Flags().Bool("strict", false, "fail on warnings too")

	rootCmd.AddCommand(newCmd, infoCmd, checkCmd, copyCmd, checkpointCmd, checkpointsCmd, restoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func appLogger() logging.Logger {
	if logger == nil {
		return logging.Noop()
	}
	return logging.NewZap(logger)
}

func openStore(ctx context.Context) (blob.Store, error) {
	if dataDir != "" {
		return blob.NewFilesystem(dataDir)
	}
	return blob.Open(ctx)
}

// loadProject builds the project from the description file on top of the
// configured blob store.
func loadProject(ctx context.Context) (*project.Project, error) {
	f, err := os.Open(projectFile)
	if err != nil {
		return nil, fmt.Errorf("open project description: %w", err)
	}
	defer f.Close()
	desc, err := project.DecodeDescription(f)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open board storage: %w", err)
	}
	return desc.Build(blob.NewDirectory(store, desc.Name), project.WithLogger(appLogger()))
}
