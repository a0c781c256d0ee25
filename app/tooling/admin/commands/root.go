// Package commands contains the admin tool commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/database/storage/disk"
	"github.com/siertrichain/blockchain/foundation/blockchain/database/storage/leveldb"
	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
)

// Execute runs the admin tool against the process arguments.
func Execute(build string) {
	if err := newRootCmd(build).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(build string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Administrative tasks for the triangle chain",
		Version:       build,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		subdivideCmd(),
		mineCmd(),
		depthCmd(),
		validateCmd(),
		scoreCmd(),
	)

	return rootCmd
}

// =============================================================================

// schemeFlag maps the scheme names accepted on the command line.
func schemeFlag(name string) (fractal.Scheme, error) {
	switch name {
	case "full":
		return fractal.Full, nil
	case "gasket":
		return fractal.Gasket, nil
	}
	return fractal.Scheme{}, fmt.Errorf("unknown scheme %q: use full or gasket", name)
}

// chainFlags are the flags shared by commands reading a stored chain.
type chainFlags struct {
	storage string
	dbPath  string
}

func (cf *chainFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&cf.storage, "storage", "s", "disk", "Storage kind: disk or leveldb.")
	cmd.Flags().StringVarP(&cf.dbPath, "db-path", "d", "zblock/blocks.db", "Path to the block storage.")
}

// load reads every block from the configured storage.
func (cf *chainFlags) load() ([]database.Block, error) {
	var strg database.Serializer
	var err error

	switch cf.storage {
	case "disk":
		strg, err = disk.New(cf.dbPath)
	case "leveldb":
		strg, err = leveldb.New(cf.dbPath)
	default:
		return nil, fmt.Errorf("unknown storage %q: use disk or leveldb", cf.storage)
	}
	if err != nil {
		return nil, err
	}
	defer strg.Close()

	return database.ReadAll(strg)
}
