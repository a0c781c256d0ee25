package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/database/storage/disk"
	"github.com/siertrichain/blockchain/foundation/blockchain/database/storage/leveldb"
	"github.com/siertrichain/blockchain/foundation/blockchain/database/storage/memory"
	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Serializers(t *testing.T) {
	type table struct {
		name string
		open func(t *testing.T) (database.Serializer, error)
	}

	tt := []table{
		{
			name: "memory",
			open: func(t *testing.T) (database.Serializer, error) {
				return memory.New()
			},
		},
		{
			name: "disk",
			open: func(t *testing.T) (database.Serializer, error) {
				return disk.New(filepath.Join(t.TempDir(), "blocks"))
			},
		},
		{
			name: "leveldb",
			open: func(t *testing.T) (database.Serializer, error) {
				return leveldb.New(filepath.Join(t.TempDir(), "ldb"))
			},
		},
	}

	chain := buildChain(12)

	t.Log("Given the need to store and read back blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s serializer.", testID, tst.name)
			{
				f := func(t *testing.T) {
					s, err := tst.open(t)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to open storage: %v", failed, testID, err)
					}
					defer s.Close()
					t.Logf("\t%s\tTest %d:\tShould be able to open storage.", success, testID)

					for _, block := range chain {
						if err := s.Write(block); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, block.Index, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to write blocks.", success, testID)

					blocks, err := database.ReadAll(s)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to read all blocks: %v", failed, testID, err)
					}
					if len(blocks) != len(chain) {
						t.Fatalf("\t%s\tTest %d:\tShould read %d blocks, got %d.", failed, testID, len(chain), len(blocks))
					}
					t.Logf("\t%s\tTest %d:\tShould read every block.", success, testID)

					for i, block := range blocks {
						if block.Index != uint64(i) || block.Hash != chain[i].Hash || !block.IsSealed() {
							t.Fatalf("\t%s\tTest %d:\tShould read block %d in order and intact.", failed, testID, i)
						}
						if !block.MiningResult.Triangle.Equal(chain[i].MiningResult.Triangle) {
							t.Fatalf("\t%s\tTest %d:\tShould keep the triangle of block %d.", failed, testID, i)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould read blocks in order and intact.", success, testID)

					block, err := s.GetBlock(11)
					if err != nil || block.Hash != chain[11].Hash {
						t.Fatalf("\t%s\tTest %d:\tShould get block 11: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get block 11.", success, testID)

					if _, err := s.GetBlock(99); !errors.Is(err, database.ErrNotFound) {
						t.Fatalf("\t%s\tTest %d:\tShould not find block 99: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould not find block 99.", success, testID)

					if err := s.Reset(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to reset: %v", failed, testID, err)
					}

					blocks, err = database.ReadAll(s)
					if err != nil || len(blocks) != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be empty after reset: %d %v", failed, testID, len(blocks), err)
					}
					t.Logf("\t%s\tTest %d:\tShould be empty after reset.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_ReadAllCorrupt(t *testing.T) {
	chain := buildChain(4)

	t.Log("Given the need to surface storage failures while reading the chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block file in the middle is corrupt.", testID)
		{
			dir := filepath.Join(t.TempDir(), "blocks")
			s, err := disk.New(dir)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open storage: %v", failed, testID, err)
			}
			defer s.Close()

			for _, block := range chain {
				if err := s.Write(block); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, block.Index, err)
				}
			}

			if err := os.WriteFile(filepath.Join(dir, "2.json"), []byte("{bad"), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to corrupt block 2: %v", failed, testID, err)
			}

			blocks, err := database.ReadAll(s)
			if err == nil || errors.Is(err, database.ErrEndOfChain) {
				t.Fatalf("\t%s\tTest %d:\tShould return the decode error, got %d blocks: %v", failed, testID, len(blocks), err)
			}
			if blocks != nil {
				t.Fatalf("\t%s\tTest %d:\tShould not return a partial chain: %d", failed, testID, len(blocks))
			}
			t.Logf("\t%s\tTest %d:\tShould return the decode error.", success, testID)
		}
	}
}

// buildChain links n blocks without mining, reusing leaves of the genesis
// tree as mining results.
func buildChain(n int) []database.Block {
	tree, _ := fractal.NewTree(geometry.Genesis(), fractal.Full)

	var results []mining.Result
	for leaf := range tree.Leaves(2) {
		results = append(results, mining.Result{Address: leaf.Address, Triangle: leaf.Triangle})
	}

	genesis := database.Block{
		Timestamp:    1700000000,
		Transactions: []string{},
		PrevHash:     database.RootHash,
		MiningResult: results[0],
	}
	genesis.Seal()

	chain := []database.Block{genesis}
	for i := 1; i < n; i++ {
		prev := chain[i-1]
		next := database.NewBlock(prev, []string{"tx"}, results[i%len(results)], prev.Timestamp+1)
		chain = append(chain, next)
	}

	return chain
}
